package transcript

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/nijaru/yt-quiz/errors"
	"github.com/nijaru/yt-quiz/models"
	"github.com/nijaru/yt-quiz/repository"
	"github.com/nijaru/yt-quiz/sources"
	"github.com/nijaru/yt-quiz/youtube"
	"github.com/sirupsen/logrus"
)

// Fetcher is the fallback chain as seen by the service.
type Fetcher interface {
	ListLanguages(ctx context.Context, videoID string, observe ...sources.Observer) (*sources.LanguageResult, error)
	FetchTranscript(ctx context.Context, videoID, lang string, observe ...sources.Observer) (*sources.TranscriptResult, error)
}

type Archiver interface {
	SaveTranscript(ctx context.Context, t *models.Transcript) (string, error)
	GetTranscript(ctx context.Context, videoID, lang string) (*models.Transcript, error)
}

type Service interface {
	// Languages lists the caption languages offered for the video in input.
	Languages(ctx context.Context, input string, observe ...sources.Observer) (*LanguagesResult, error)

	// Transcript returns the plain-text transcript of the video in input for lang.
	Transcript(ctx context.Context, input, lang string, observe ...sources.Observer) (*Result, error)
}

type Config struct {
	CacheTTL    time.Duration
	DefaultLang string
	// Archive every fetched transcript when an Archiver is set, and restore
	// from the archive before running the chain on a cache miss.
	ArchiveTranscripts bool
}

type LanguagesResult struct {
	VideoID   string                   `json:"video_id"`
	Languages []models.CaptionLanguage `json:"languages"`
	Source    string                   `json:"source"`
	Cached    bool                     `json:"cached"`
	Attempts  []sources.Attempt        `json:"attempts"`
}

type Result struct {
	VideoID    string            `json:"video_id"`
	Language   string            `json:"language"`
	Text       string            `json:"text"`
	Source     string            `json:"source"`
	Cached     bool              `json:"cached"`
	ArchiveKey string            `json:"archive_key,omitempty"`
	Attempts   []sources.Attempt `json:"attempts"`
}

type service struct {
	repo    repository.TranscriptRepository
	chain   Fetcher
	archive Archiver
	config  Config
	logger  *logrus.Logger
	locks   keyLocks
}

// NewService wires the transcript cache in front of the chain. archive may be nil.
func NewService(
	repo repository.TranscriptRepository,
	chain Fetcher,
	archive Archiver,
	config Config,
	logger *logrus.Logger,
) Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &service{
		repo:    repo,
		chain:   chain,
		archive: archive,
		config:  config,
		logger:  logger,
	}
}

// keyLocks serializes work per cache key. Entries are dropped once no caller holds
// or waits on them.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// acquire blocks until key is free or ctx is done. The returned func releases it.
func (l *keyLocks) acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*keyLock)
	}
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}

	return func() {
		<-kl.sem
		l.release(key, kl)
	}, nil
}

func (l *keyLocks) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *keyLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (s *service) Languages(ctx context.Context, input string, observe ...sources.Observer) (*LanguagesResult, error) {
	const op = "TranscriptService.Languages"

	videoID, err := youtube.ParseVideoID(input)
	if err != nil {
		return nil, errors.InvalidInput(op, err, "Invalid YouTube URL or video ID")
	}
	logger := s.logger.WithField("video_id", videoID)

	unlock, err := s.locks.acquire(ctx, videoID)
	if err != nil {
		return nil, chainError(op, err)
	}
	defer unlock()

	cached, err := s.repo.FindLanguages(ctx, videoID)
	switch {
	case err == nil && !cached.IsStale(s.config.CacheTTL):
		logger.Debug("Languages found in cache")
		return &LanguagesResult{
			VideoID:   videoID,
			Languages: cached.Languages,
			Source:    cached.Source,
			Cached:    true,
			Attempts:  []sources.Attempt{},
		}, nil
	case err != nil && !errors.IsNotFound(err):
		logger.WithError(err).Warn("Language cache lookup failed")
	}

	res, err := s.chain.ListLanguages(ctx, videoID, observe...)
	if err != nil {
		return &LanguagesResult{VideoID: videoID, Attempts: res.Attempts}, chainError(op, err)
	}

	list := &models.LanguageList{
		VideoID:   videoID,
		Languages: toCaptionLanguages(res.Languages),
		Source:    res.Source,
	}
	if err := s.repo.SaveLanguages(ctx, list); err != nil {
		logger.WithError(err).Warn("Failed to cache languages")
	}

	return &LanguagesResult{
		VideoID:   videoID,
		Languages: list.Languages,
		Source:    res.Source,
		Attempts:  res.Attempts,
	}, nil
}

func (s *service) Transcript(ctx context.Context, input, lang string, observe ...sources.Observer) (*Result, error) {
	const op = "TranscriptService.Transcript"

	videoID, err := youtube.ParseVideoID(input)
	if err != nil {
		return nil, errors.InvalidInput(op, err, "Invalid YouTube URL or video ID")
	}
	if lang == "" {
		lang = s.config.DefaultLang
	}
	logger := s.logger.WithFields(logrus.Fields{"video_id": videoID, "lang": lang})

	unlock, err := s.locks.acquire(ctx, videoID+":"+lang)
	if err != nil {
		return nil, chainError(op, err)
	}
	defer unlock()

	cached, err := s.repo.FindTranscript(ctx, videoID, lang)
	switch {
	case err == nil && !cached.IsStale(s.config.CacheTTL):
		logger.Info("Transcript found in cache")
		return &Result{
			VideoID:  videoID,
			Language: lang,
			Text:     cached.Text,
			Source:   cached.Source,
			Cached:   true,
			Attempts: []sources.Attempt{},
		}, nil
	case err != nil && !errors.IsNotFound(err):
		logger.WithError(err).Warn("Transcript cache lookup failed")
	}

	if restored := s.restore(ctx, videoID, lang, logger); restored != nil {
		return &Result{
			VideoID:  videoID,
			Language: lang,
			Text:     restored.Text,
			Source:   restored.Source,
			Cached:   true,
			Attempts: []sources.Attempt{},
		}, nil
	}

	res, err := s.chain.FetchTranscript(ctx, videoID, lang, observe...)
	if err != nil {
		return &Result{VideoID: videoID, Language: lang, Attempts: res.Attempts}, chainError(op, err)
	}

	t := &models.Transcript{VideoID: videoID, Language: lang, Text: res.Text, Source: res.Source}
	if cached != nil {
		t.CreatedAt = cached.CreatedAt
	}
	if err := s.repo.SaveTranscript(ctx, t); err != nil {
		logger.WithError(err).Warn("Failed to cache transcript")
	}

	out := &Result{
		VideoID:  videoID,
		Language: lang,
		Text:     res.Text,
		Source:   res.Source,
		Attempts: res.Attempts,
	}

	if s.archive != nil && s.config.ArchiveTranscripts {
		key, err := s.archive.SaveTranscript(ctx, t)
		if err != nil {
			logger.WithError(err).Warn("Failed to archive transcript")
		} else {
			out.ArchiveKey = key
		}
	}

	logger.WithField("source", res.Source).Info("Transcript fetched")
	return out, nil
}

// restore reloads a fresh archived transcript into the cache. Any archive error
// counts as a miss.
func (s *service) restore(ctx context.Context, videoID, lang string, logger *logrus.Entry) *models.Transcript {
	if s.archive == nil || !s.config.ArchiveTranscripts {
		return nil
	}

	t, err := s.archive.GetTranscript(ctx, videoID, lang)
	if err != nil {
		logger.WithError(err).Debug("Transcript not restored from archive")
		return nil
	}
	if t.Text == "" || t.IsStale(s.config.CacheTTL) {
		return nil
	}

	if err := s.repo.SaveTranscript(ctx, t); err != nil {
		logger.WithError(err).Warn("Failed to cache restored transcript")
	}
	logger.WithField("source", t.Source).Info("Transcript restored from archive")
	return t
}

// chainError maps a chain failure onto an HTTP-facing AppError.
func chainError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.E(op, err, "Transcript retrieval was cancelled or timed out", http.StatusGatewayTimeout)
	}

	var exhausted *sources.ExhaustedError
	if !errors.As(err, &exhausted) {
		return errors.Internal(op, err, "Failed to retrieve captions")
	}

	msg := "No captions could be retrieved for this video"
	if exhausted.Guidance != "" {
		msg += ". " + exhausted.Guidance
	}

	switch exhausted.Failure {
	case sources.FailureRateLimited:
		return errors.TooManyRequests(op, err, msg)
	case sources.FailureBot, sources.FailureForbidden:
		return errors.BadGateway(op, err, msg)
	}
	return errors.NotFound(op, err, msg)
}

func toCaptionLanguages(langs []sources.Language) []models.CaptionLanguage {
	out := make([]models.CaptionLanguage, 0, len(langs))
	for _, l := range langs {
		out = append(out, models.CaptionLanguage{Code: l.Code, Name: l.Name, Kind: string(l.Kind)})
	}
	return out
}
