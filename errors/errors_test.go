package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAppError(t *testing.T) {
	err := InvalidInput("Test.Op", nil, "test message")

	if err.Code != http.StatusBadRequest {
		t.Errorf("expected code %d, got %d", http.StatusBadRequest, err.Code)
	}

	if err.Error() != "test message" {
		t.Errorf("expected error string 'test message', got '%s'", err.Error())
	}
}

func TestErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("cause error")
	err := Internal("Test.Op", cause, "test message")

	expected := "test message: cause error"
	if err.Error() != expected {
		t.Errorf("expected '%s', got '%s'", expected, err.Error())
	}
	if !Is(err, cause) {
		t.Error("expected error chain to contain cause")
	}
}

func TestConstructorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"invalid input", InvalidInput("op", nil, "m"), http.StatusBadRequest},
		{"not found", NotFound("op", nil, "m"), http.StatusNotFound},
		{"internal", Internal("op", nil, "m"), http.StatusInternalServerError},
		{"bad gateway", BadGateway("op", nil, "m"), http.StatusBadGateway},
		{"unavailable", Unavailable("op", nil, "m"), http.StatusServiceUnavailable},
		{"too many requests", TooManyRequests("op", nil, "m"), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, tt.err.Code)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "not found error",
			err:      NotFound("op", nil, "not found"),
			expected: true,
		},
		{
			name:     "wrapped not found error",
			err:      fmt.Errorf("lookup: %w", NotFound("op", nil, "not found")),
			expected: true,
		},
		{
			name:     "other error",
			err:      InvalidInput("op", nil, "bad request"),
			expected: false,
		},
		{
			name:     "non-custom error",
			err:      fmt.Errorf("standard error"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.expected {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.expected)
			}
		})
	}
}
