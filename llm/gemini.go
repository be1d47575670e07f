package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/nijaru/yt-quiz/config"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

type Gemini struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	name    string
	timeout time.Duration
}

// NewGemini builds a Gemini provider. opts are appended to the API key option.
func NewGemini(ctx context.Context, cfg config.LLMConfig, opts ...option.ClientOption) (*Gemini, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(cfg.GeminiAPIKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, &ProviderError{Provider: "gemini", Model: cfg.Model, Err: err}
	}

	name := cfg.Model
	if name == "" || !strings.HasPrefix(name, "gemini") {
		name = defaultGeminiModel
	}

	return &Gemini{
		client:  client,
		model:   client.GenerativeModel(name),
		name:    name,
		timeout: cfg.Timeout,
	}, nil
}

func (g *Gemini) Model() string { return g.name }

func (g *Gemini) Close() error { return g.client.Close() }

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", g.fail(err)
	}
	// an empty stream merges to a nil response
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", g.fail(ErrEmptyResponse)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", g.fail(ErrEmptyResponse)
	}
	return content, nil
}

func (g *Gemini) fail(err error) error {
	return &ProviderError{Provider: "gemini", Model: g.name, Err: err}
}
