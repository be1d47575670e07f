package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// E builds an AppError with an explicit status code.
func E(op string, err error, message string, code int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusBadRequest)
}

func NotFound(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusNotFound)
}

func Internal(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusInternalServerError)
}

// BadGateway marks a failure of an upstream collaborator such as the LLM provider.
func BadGateway(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusBadGateway)
}

func Unavailable(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusServiceUnavailable)
}

func Conflict(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusConflict)
}

func TooManyRequests(op string, err error, message string) *AppError {
	return E(op, err, message, http.StatusTooManyRequests)
}

// IsNotFound reports whether the first AppError in the chain carries a 404.
func IsNotFound(err error) bool {
	return HasCode(err, http.StatusNotFound)
}

func HasCode(err error, code int) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// As and Is re-export the standard helpers so callers need a single import.
func As(err error, target any) bool { return stderrors.As(err, target) }

func Is(err, target error) bool { return stderrors.Is(err, target) }

func New(text string) error { return stderrors.New(text) }
