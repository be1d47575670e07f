package sources

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	OpListLanguages   = "list_languages"
	OpFetchTranscript = "fetch_transcript"
)

// Chain tries its sources in order and stops at the first success.
type Chain struct {
	sources     []Source
	logger      *logrus.Logger
	observer    Observer
	stepTimeout time.Duration
	cookieLabel string
}

type ChainOption func(*Chain)

func WithLogger(logger *logrus.Logger) ChainOption {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a callback that sees every attempt as it completes.
func WithObserver(fn Observer) ChainOption {
	return func(c *Chain) {
		c.observer = fn
	}
}

// WithStepTimeout bounds each individual source call.
func WithStepTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		c.stepTimeout = d
	}
}

// WithCookieLabel names the cookie source used by cookie-authenticated steps,
// for user guidance when the chain is exhausted.
func WithCookieLabel(label string) ChainOption {
	return func(c *Chain) {
		c.cookieLabel = label
	}
}

func NewChain(sources []Source, opts ...ChainOption) *Chain {
	c := &Chain{
		sources: sources,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sources returns the names of the chain's steps in order.
func (c *Chain) Sources() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return names
}

// ListLanguages returns the caption languages of the first source that has any.
// The result is non-nil even on error and carries the attempts made so far.
func (c *Chain) ListLanguages(ctx context.Context, videoID string, observe ...Observer) (*LanguageResult, error) {
	result := &LanguageResult{VideoID: videoID}

	source, attempts, err := c.run(ctx, OpListLanguages, videoID, observe, func(ctx context.Context, s Source) error {
		langs, err := s.ListLanguages(ctx, videoID)
		if err != nil {
			return err
		}
		langs = MergeLanguages(langs)
		if len(langs) == 0 {
			return ErrNoCaptions
		}
		result.Languages = langs
		return nil
	})

	result.Source = source
	result.Attempts = attempts
	return result, err
}

// FetchTranscript returns the plain-text transcript for lang from the first source that yields text.
// The result is non-nil even on error and carries the attempts made so far.
func (c *Chain) FetchTranscript(ctx context.Context, videoID, lang string, observe ...Observer) (*TranscriptResult, error) {
	result := &TranscriptResult{VideoID: videoID, Language: lang}

	source, attempts, err := c.run(ctx, OpFetchTranscript, videoID, observe, func(ctx context.Context, s Source) error {
		text, err := s.FetchTranscript(ctx, videoID, lang)
		if err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return ErrNoCaptions
		}
		result.Text = text
		return nil
	})

	result.Source = source
	result.Attempts = attempts
	return result, err
}

func (c *Chain) run(
	ctx context.Context,
	op, videoID string,
	observers []Observer,
	try func(ctx context.Context, s Source) error,
) (string, []Attempt, error) {
	logger := c.logger.WithContext(ctx).WithFields(logrus.Fields{
		"operation": op,
		"video_id":  videoID,
	})

	attempts := make([]Attempt, 0, len(c.sources))
	cookiesUsed := false

	for i, s := range c.sources {
		if err := ctx.Err(); err != nil {
			return "", attempts, err
		}

		proxy, cookies := s.Descriptor()
		attempt := Attempt{
			Step:      i + 1,
			Source:    s.Name(),
			Proxy:     proxy,
			Cookies:   cookies,
			Operation: op,
		}

		stepCtx, cancel := c.stepContext(ctx)
		start := time.Now()
		err := try(stepCtx, s)
		cancel()
		attempt.Duration = time.Since(start)

		switch {
		case err == nil:
			attempt.Status = StatusOK
		case errors.Is(err, ErrUnsupported):
			attempt.Status = StatusSkipped
		default:
			attempt.Status = StatusFailed
			attempt.Error = err.Error()
			attempt.Failure = Classify(err)
			if cookies {
				cookiesUsed = true
			}
		}

		attempts = append(attempts, attempt)
		c.notify(attempt, observers)

		entry := logger.WithFields(logrus.Fields{
			"step":     attempt.Step,
			"source":   attempt.Source,
			"proxy":    attempt.Proxy,
			"cookies":  attempt.Cookies,
			"duration": attempt.Duration,
		})

		switch attempt.Status {
		case StatusOK:
			entry.Info("Source succeeded")
			return s.Name(), attempts, nil
		case StatusSkipped:
			entry.Debug("Source skipped")
		default:
			if ctx.Err() != nil {
				entry.WithError(err).Warn("Source aborted")
				return "", attempts, ctx.Err()
			}
			entry.WithError(err).WithField("failure", attempt.Failure).Warn("Source failed, trying next")
		}
	}

	failure := Dominant(attempts)
	browser := ""
	if cookiesUsed {
		browser = c.cookieLabel
	}

	logger.WithField("failure", failure).Error("All sources failed")

	return "", attempts, &ExhaustedError{
		Operation: op,
		Attempts:  attempts,
		Failure:   failure,
		Guidance:  Guidance(failure, browser),
	}
}

func (c *Chain) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.stepTimeout > 0 {
		return context.WithTimeout(ctx, c.stepTimeout)
	}
	return context.WithCancel(ctx)
}

func (c *Chain) notify(a Attempt, extra []Observer) {
	if c.observer != nil {
		c.observer(a)
	}
	for _, fn := range extra {
		if fn != nil {
			fn(a)
		}
	}
}
