package api

import (
	"net/http"

	"github.com/nijaru/yt-quiz/errors"
	"github.com/nijaru/yt-quiz/services/transcript"
	"github.com/nijaru/yt-quiz/validation"
	"github.com/sirupsen/logrus"
)

type TranscriptHandler struct {
	service   transcript.Service
	validator *validation.Validator
	logger    *logrus.Logger
}

type transcriptRequest struct {
	URL  string `json:"url"`
	Lang string `json:"lang,omitempty"`
}

func NewTranscriptHandler(service transcript.Service, validator *validation.Validator, logger *logrus.Logger) *TranscriptHandler {
	return &TranscriptHandler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

// HandleLanguages handles GET /api/v1/languages
func (h *TranscriptHandler) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	const op = "TranscriptHandler.HandleLanguages"

	url := r.URL.Query().Get("url")
	if url == "" {
		respondError(w, r, errors.InvalidInput(op, nil, "URL parameter is required"))
		return
	}

	result, err := h.service.Languages(r.Context(), url)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, result)
}

// HandleTranscript handles POST /api/v1/transcript
func (h *TranscriptHandler) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	const op = "TranscriptHandler.HandleTranscript"

	if err := h.validator.ValidateRequest(r, jsonRequest); err != nil {
		respondError(w, r, err)
		return
	}

	var req transcriptRequest
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

	result, err := h.service.Transcript(r.Context(), req.URL, req.Lang)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"video_id": result.VideoID,
		"lang":     result.Language,
		"source":   result.Source,
		"cached":   result.Cached,
	}).Info("Transcript served")

	respondJSON(w, r, http.StatusOK, result)
}
