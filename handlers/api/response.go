package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nijaru/yt-quiz/errors"
	"github.com/nijaru/yt-quiz/middleware"
	"github.com/nijaru/yt-quiz/sources"
	"github.com/nijaru/yt-quiz/validation"
	"github.com/sirupsen/logrus"
)

// Response represents a standardized API response
type Response struct {
	Success   bool              `json:"success"`
	Data      interface{}       `json:"data,omitempty"`
	Error     string            `json:"error,omitempty"`
	Attempts  []sources.Attempt `json:"attempts,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	writeResponse(w, code, Response{
		Success:   code >= 200 && code < 300,
		Data:      payload,
		RequestID: middleware.RequestIDFrom(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}

// respondError maps err to its status code. Chain failures also carry the
// attempts so the caller can see which sources were tried.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	msg := "Internal server error"

	var appErr *errors.AppError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		msg = appErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
		msg = "Request timed out"
	}

	resp := Response{
		Success:   false,
		Error:     msg,
		RequestID: middleware.RequestIDFrom(r.Context()),
		Timestamp: time.Now().UTC(),
	}

	var exhausted *sources.ExhaustedError
	if errors.As(err, &exhausted) {
		resp.Attempts = exhausted.Attempts
	}

	entry := logrus.WithFields(logrus.Fields{
		"error":      err,
		"status":     code,
		"request_id": resp.RequestID,
		"path":       r.URL.Path,
		"method":     r.Method,
	})
	if code >= 500 {
		entry.Error("Request error")
	} else {
		entry.Warn("Request error")
	}

	writeResponse(w, code, resp)
}

func writeResponse(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}

func readJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.InvalidInput("readJSON", err, "Invalid JSON format")
	}
	return nil
}

// jsonRequest is the validation applied to every JSON POST body.
var jsonRequest = validation.RequestValidationOpts{
	MaxContentLength: 1024 * 1024,
	AllowedMethods:   []string{http.MethodPost},
	RequireJSON:      true,
}
