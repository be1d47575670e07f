package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/nijaru/yt-quiz/errors"
	"github.com/nijaru/yt-quiz/llm"
	"github.com/nijaru/yt-quiz/models"
	"github.com/nijaru/yt-quiz/repository"
	"github.com/sirupsen/logrus"
)

const DefaultChunkSize = 100000

type Service interface {
	// Summarize returns the summary of transcript in lang, generating it when no cached copy exists.
	Summarize(ctx context.Context, videoID, transcript, lang string) (*models.Summary, error)

	// Get returns the most recent cached summary for the video and language.
	Get(ctx context.Context, videoID, lang string) (*models.Summary, error)
}

type Config struct {
	// ChunkSize is the largest chunk, in characters, sent to the provider at once.
	ChunkSize   int
	DefaultLang string
}

type service struct {
	repo     repository.SummaryRepository
	provider llm.Provider
	config   Config
	logger   *logrus.Logger
}

func NewService(
	repo repository.SummaryRepository,
	provider llm.Provider,
	config Config,
	logger *logrus.Logger,
) Service {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &service{
		repo:     repo,
		provider: provider,
		config:   config,
		logger:   logger,
	}
}

func (s *service) Summarize(ctx context.Context, videoID, transcript, lang string) (*models.Summary, error) {
	const op = "SummaryService.Summarize"

	if strings.TrimSpace(transcript) == "" {
		return nil, errors.InvalidInput(op, nil, "Transcript is empty")
	}
	if lang == "" {
		lang = s.config.DefaultLang
	}

	model := s.provider.Model()
	logger := s.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"lang":     lang,
		"model":    model,
	})

	if videoID != "" {
		cached, err := s.repo.FindSummary(ctx, videoID, lang, model)
		if err == nil {
			logger.Debug("Summary found in cache")
			return cached, nil
		}
		if !errors.IsNotFound(err) {
			logger.WithError(err).Warn("Summary cache lookup failed")
		}
	}

	chunks := SplitText(transcript, s.config.ChunkSize)
	summaries := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		select {
		case <-ctx.Done():
			return nil, errors.Internal(op, ctx.Err(), "Summary creation cancelled")
		default:
		}

		logger.WithFields(logrus.Fields{
			"chunk": i + 1,
			"total": len(chunks),
		}).Debug("Processing chunk")

		summary, err := s.processChunk(ctx, chunk, lang)
		if err != nil {
			return nil, errors.BadGateway(op, err, "Failed to summarize transcript")
		}
		summaries = append(summaries, summary)
	}

	final, err := s.combineSummaries(ctx, summaries, lang)
	if err != nil {
		return nil, errors.BadGateway(op, err, "Failed to combine summaries")
	}

	result := &models.Summary{
		VideoID:  videoID,
		Language: lang,
		Model:    model,
		Text:     final,
		Chunks:   len(chunks),
	}

	if videoID != "" {
		if err := s.repo.SaveSummary(ctx, result); err != nil {
			logger.WithError(err).Warn("Failed to cache summary")
		}
	}

	logger.WithField("chunks", len(chunks)).Info("Summary created")
	return result, nil
}

func (s *service) Get(ctx context.Context, videoID, lang string) (*models.Summary, error) {
	const op = "SummaryService.Get"

	if lang == "" {
		lang = s.config.DefaultLang
	}

	summary, err := s.repo.LatestSummary(ctx, videoID, lang)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NotFound(op, err, "Summary not found")
		}
		return nil, errors.Internal(op, err, "Failed to get summary")
	}
	return summary, nil
}

func chunkPrompt(text, lang string) string {
	return fmt.Sprintf("Please summarize the following transcript chunk in %s:\n\n%s", lang, text)
}

func (s *service) processChunk(ctx context.Context, text, lang string) (string, error) {
	return s.provider.Complete(ctx, chunkPrompt(text, lang))
}

func (s *service) combineSummaries(ctx context.Context, summaries []string, lang string) (string, error) {
	if len(summaries) == 1 {
		return summaries[0], nil
	}
	return s.processChunk(ctx, strings.Join(summaries, "\n"), lang)
}

// SplitText cuts text into consecutive pieces of at most size runes.
func SplitText(text string, size int) []string {
	runes := []rune(text)
	if size <= 0 || len(runes) <= size {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/size+1)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
