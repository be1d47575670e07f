package api

import (
	"context"
	"net/http"

	"github.com/nijaru/yt-quiz/errors"
	"github.com/nijaru/yt-quiz/models"
	"github.com/nijaru/yt-quiz/services/summary"
	"github.com/nijaru/yt-quiz/services/transcript"
	"github.com/nijaru/yt-quiz/sources"
	"github.com/nijaru/yt-quiz/validation"
	"github.com/sirupsen/logrus"
)

type SummaryHandler struct {
	transcripts transcript.Service
	service     summary.Service
	validator   *validation.Validator
	logger      *logrus.Logger
}

type summaryRequest struct {
	URL  string `json:"url"`
	Lang string `json:"lang,omitempty"`
}

type summaryResponse struct {
	*models.Summary
	TranscriptSource string            `json:"transcript_source,omitempty"`
	Attempts         []sources.Attempt `json:"attempts,omitempty"`
}

func NewSummaryHandler(
	transcripts transcript.Service,
	service summary.Service,
	validator *validation.Validator,
	logger *logrus.Logger,
) *SummaryHandler {
	return &SummaryHandler{
		transcripts: transcripts,
		service:     service,
		validator:   validator,
		logger:      logger,
	}
}

// summarizeVideo fetches the transcript through the chain and summarizes it.
func summarizeVideo(
	ctx context.Context,
	transcripts transcript.Service,
	summaries summary.Service,
	url, lang string,
) (*transcript.Result, *models.Summary, error) {
	tr, err := transcripts.Transcript(ctx, url, lang)
	if err != nil {
		return tr, nil, err
	}

	sum, err := summaries.Summarize(ctx, tr.VideoID, tr.Text, tr.Language)
	if err != nil {
		return tr, nil, err
	}
	return tr, sum, nil
}

// HandleCreateSummary handles POST /api/v1/summary
func (h *SummaryHandler) HandleCreateSummary(w http.ResponseWriter, r *http.Request) {
	const op = "SummaryHandler.HandleCreateSummary"

	if err := h.validator.ValidateRequest(r, jsonRequest); err != nil {
		respondError(w, r, err)
		return
	}

	var req summaryRequest
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

	tr, sum, err := summarizeVideo(r.Context(), h.transcripts, h.service, req.URL, req.Lang)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"video_id": sum.VideoID,
		"lang":     sum.Language,
		"chunks":   sum.Chunks,
	}).Info("Summary served")

	respondJSON(w, r, http.StatusOK, summaryResponse{
		Summary:          sum,
		TranscriptSource: tr.Source,
		Attempts:         tr.Attempts,
	})
}

// HandleGetSummary handles GET /api/v1/summary
func (h *SummaryHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	const op = "SummaryHandler.HandleGetSummary"

	input := r.URL.Query().Get("video_id")
	if input == "" {
		respondError(w, r, errors.InvalidInput(op, nil, "video_id parameter is required"))
		return
	}
	videoID, err := h.validator.ValidateVideo(input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	lang := r.URL.Query().Get("lang")
	if err := h.validator.ValidateLanguage(lang); err != nil {
		respondError(w, r, err)
		return
	}

	sum, err := h.service.Get(r.Context(), videoID, lang)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, summaryResponse{Summary: sum})
}
