package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/nijaru/yt-quiz/errors"
	"github.com/nijaru/yt-quiz/models"
	"github.com/nijaru/yt-quiz/services/quiz"
	"github.com/nijaru/yt-quiz/services/summary"
	"github.com/nijaru/yt-quiz/services/transcript"
	"github.com/nijaru/yt-quiz/sources"
	"github.com/nijaru/yt-quiz/validation"
	"github.com/sirupsen/logrus"
)

type QuizHandler struct {
	transcripts transcript.Service
	summaries   summary.Service
	service     quiz.Service
	validator   *validation.Validator
	logger      *logrus.Logger
}

type createQuizRequest struct {
	URL          string `json:"url"`
	Title        string `json:"title,omitempty"`
	Lang         string `json:"lang,omitempty"`
	Grade        string `json:"grade,omitempty"`
	NumQuestions int    `json:"num_questions,omitempty"`
}

type modifyQuizRequest struct {
	Instructions string `json:"instructions"`
}

type quizResponse struct {
	*models.Quiz
	Summary  string            `json:"summary,omitempty"`
	Attempts []sources.Attempt `json:"attempts,omitempty"`
}

func NewQuizHandler(
	transcripts transcript.Service,
	summaries summary.Service,
	service quiz.Service,
	validator *validation.Validator,
	logger *logrus.Logger,
) *QuizHandler {
	return &QuizHandler{
		transcripts: transcripts,
		summaries:   summaries,
		service:     service,
		validator:   validator,
		logger:      logger,
	}
}

// HandleCreateQuiz handles POST /api/v1/quiz
func (h *QuizHandler) HandleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	const op = "QuizHandler.HandleCreateQuiz"

	if err := h.validator.ValidateRequest(r, jsonRequest); err != nil {
		respondError(w, r, err)
		return
	}

	var req createQuizRequest
	if err := readJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.URL == "" {
		respondError(w, r, errors.InvalidInput(op, nil, "URL is required"))
		return
	}
	if err := h.validator.ValidateLanguage(req.Lang); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validator.ValidateQuiz(req.NumQuestions, req.Grade); err != nil {
		respondError(w, r, err)
		return
	}

	tr, sum, err := summarizeVideo(r.Context(), h.transcripts, h.summaries, req.URL, req.Lang)
	if err != nil {
		respondError(w, r, err)
		return
	}

	q, err := h.service.Generate(r.Context(), quiz.Params{
		VideoID:      tr.VideoID,
		Title:        req.Title,
		Summary:      sum.Text,
		Lang:         sum.Language,
		Grade:        req.Grade,
		NumQuestions: req.NumQuestions,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"quiz_id":  q.ID,
		"video_id": q.VideoID,
	}).Info("Quiz created")

	respondJSON(w, r, http.StatusCreated, quizResponse{
		Quiz:     q,
		Summary:  sum.Text,
		Attempts: tr.Attempts,
	})
}

// HandleGetQuiz handles GET /api/v1/quiz/{id}
func (h *QuizHandler) HandleGetQuiz(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, quizResponse{Quiz: q})
}

// HandleModifyQuiz handles POST /api/v1/quiz/{id}/modify
func (h *QuizHandler) HandleModifyQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.validator.ValidateRequest(r, jsonRequest); err != nil {
		respondError(w, r, err)
		return
	}

	var req modifyQuizRequest
	if err := readJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validator.ValidateInstructions(req.Instructions); err != nil {
		respondError(w, r, err)
		return
	}

	q, err := h.service.Modify(r.Context(), r.PathValue("id"), req.Instructions)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, quizResponse{Quiz: q})
}

// HandleRevisions handles GET /api/v1/quiz/{id}/revisions
func (h *QuizHandler) HandleRevisions(w http.ResponseWriter, r *http.Request) {
	revs, err := h.service.Revisions(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, revs)
}

// HandleDownload handles GET /api/v1/quiz/{id}/download
func (h *QuizHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	name, body := quiz.Document(q)
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.WithError(err).WithField("quiz_id", q.ID).Warn("Failed to write quiz download")
	}
}

// HandleExport handles POST /api/v1/quiz/{id}/export
func (h *QuizHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	key, err := h.service.Export(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"quiz_id": id, "key": key})
}
