// Package llm wraps the chat-completion providers used for summaries and quizzes.
// Calls are single-shot: failures are reported, never retried.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/nijaru/yt-quiz/config"
)

var ErrEmptyResponse = errors.New("provider returned no content")

type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// ProviderError is the only error kind a Provider returns.
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// New builds the provider selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAI(cfg), nil
	case "gemini":
		return NewGemini(ctx, cfg)
	}
	return nil, fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
}
