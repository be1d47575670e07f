// Package sources retrieves caption languages and transcripts from YouTube
// through an ordered chain of independent extraction strategies.
package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnsupported is returned by a source that cannot serve an operation.
	// The chain records the step as skipped.
	ErrUnsupported = errors.New("operation not supported by source")

	// ErrNoCaptions means a source answered but had nothing usable.
	ErrNoCaptions = errors.New("no captions available")
)

type Kind string

const (
	KindManual Kind = "manual"
	KindAuto   Kind = "auto"
)

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Attempt describes one step of a chain run.
type Attempt struct {
	Step      int           `json:"step"`
	Source    string        `json:"source"`
	Proxy     string        `json:"proxy,omitempty"`
	Cookies   bool          `json:"cookies"`
	Operation string        `json:"operation"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Failure   FailureKind   `json:"failure,omitempty"`
	Duration  time.Duration `json:"duration"`
}

func (a Attempt) String() string {
	s := fmt.Sprintf("[%d] %s %s: %s", a.Step, a.Source, a.Operation, a.Status)
	if a.Error != "" {
		s += " (" + a.Error + ")"
	}
	return s
}

// Observer receives every attempt as soon as it finishes.
type Observer func(Attempt)

type Source interface {
	Name() string
	// Descriptor reports the proxy and cookie usage of the source for diagnostics.
	Descriptor() (proxy string, cookies bool)
	ListLanguages(ctx context.Context, videoID string) ([]Language, error)
	FetchTranscript(ctx context.Context, videoID, lang string) (string, error)
}

type LanguageResult struct {
	VideoID   string     `json:"video_id"`
	Languages []Language `json:"languages"`
	Source    string     `json:"source"`
	Attempts  []Attempt  `json:"attempts"`
}

type TranscriptResult struct {
	VideoID  string    `json:"video_id"`
	Language string    `json:"language"`
	Text     string    `json:"text"`
	Source   string    `json:"source"`
	Attempts []Attempt `json:"attempts"`
}

// ExhaustedError is returned when every source in the chain failed.
type ExhaustedError struct {
	Operation string
	Attempts  []Attempt
	Failure   FailureKind
	Guidance  string
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: all %d sources failed", e.Operation, len(e.Attempts))
	if e.Failure != "" && e.Failure != FailureUnknown {
		fmt.Fprintf(&b, " (%s)", e.Failure)
	}
	for _, a := range e.Attempts {
		if a.Status == StatusFailed {
			fmt.Fprintf(&b, "; %s: %s", a.Source, a.Error)
		}
	}
	return b.String()
}

func (e *ExhaustedError) Unwrap() error {
	return ErrNoCaptions
}
