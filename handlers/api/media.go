package api

import (
	"net/http"

	"github.com/nijaru/yt-quiz/errors"
	"github.com/nijaru/yt-quiz/services/media"
)

type MediaHandler struct {
	service media.Service
}

func NewMediaHandler(service media.Service) *MediaHandler {
	return &MediaHandler{service: service}
}

// HandleFormats handles GET /api/v1/formats
func (h *MediaHandler) HandleFormats(w http.ResponseWriter, r *http.Request) {
	const op = "MediaHandler.HandleFormats"

	url := r.URL.Query().Get("url")
	if url == "" {
		respondError(w, r, errors.InvalidInput(op, nil, "URL parameter is required"))
		return
	}

	formats, err := h.service.ListFormats(r.Context(), url)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, formats)
}
