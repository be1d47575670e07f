package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/nijaru/yt-quiz/config"
	"github.com/nijaru/yt-quiz/llm"
	"github.com/nijaru/yt-quiz/logger"
	"github.com/nijaru/yt-quiz/repository/sqlite"
	"github.com/nijaru/yt-quiz/scraper"
	"github.com/nijaru/yt-quiz/services/media"
	"github.com/nijaru/yt-quiz/services/quiz"
	"github.com/nijaru/yt-quiz/services/summary"
	"github.com/nijaru/yt-quiz/services/transcript"
	"github.com/nijaru/yt-quiz/sources"
	"github.com/nijaru/yt-quiz/storage"
	"github.com/sirupsen/logrus"
)

// app holds the wired services for one process.
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	db      *sqlite.DB
	repo    *sqlite.Repository
	chain   *sources.Chain
	archive *storage.Archive

	provider llm.Provider
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log, err := logger.NewLogger(logger.Options{
		Dir:   cfg.LogDir,
		Level: cfg.LogLevel,
		JSON:  cfg.Env == "production",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Sources.YtDlpAutoInstall {
		log.Info("Installing yt-dlp")
		if err := scraper.Install(ctx); err != nil {
			return nil, fmt.Errorf("failed to install yt-dlp: %w", err)
		}
	}

	dbConfig := sqlite.DefaultDBConfig()
	dbConfig.MaxConnections = cfg.Database.MaxConnections
	dbConfig.MaxIdleConnections = cfg.Database.MaxIdleConnections
	dbConfig.ConnMaxLifetime = cfg.Database.ConnMaxLifetime

	db, err := sqlite.InitDB(cfg.Database.Path, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repo, err := sqlite.NewRepository(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	chain, err := sources.NewChainFromConfig(cfg, log)
	if err != nil {
		repo.Close()
		db.Close()
		return nil, fmt.Errorf("failed to build transcript sources: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: log,
		db:     db,
		repo:   repo,
		chain:  chain,
	}

	if cfg.Storage.Enabled() {
		archive, err := storage.NewArchive(ctx, cfg.Storage)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		a.archive = archive
	}

	return a, nil
}

func (a *app) Close() {
	if c, ok := a.provider.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close LLM client")
		}
	}
	if err := a.repo.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close prepared statements")
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close database")
	}
}

func (a *app) llmProvider(ctx context.Context) (llm.Provider, error) {
	if a.provider != nil {
		return a.provider, nil
	}
	p, err := llm.New(ctx, a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	a.provider = p
	return p, nil
}

func (a *app) transcripts() transcript.Service {
	var archive transcript.Archiver
	if a.archive != nil {
		archive = a.archive
	}
	return transcript.NewService(a.repo, a.chain, archive, transcript.Config{
		CacheTTL:           a.cfg.Sources.CacheTTL,
		DefaultLang:        a.cfg.Summary.DefaultLang,
		ArchiveTranscripts: a.cfg.Storage.ArchiveTranscripts,
	}, a.logger)
}

func (a *app) summaries(ctx context.Context) (summary.Service, error) {
	provider, err := a.llmProvider(ctx)
	if err != nil {
		return nil, err
	}
	return summary.NewService(a.repo, provider, summary.Config{
		ChunkSize:   a.cfg.Summary.ChunkSize,
		DefaultLang: a.cfg.Summary.DefaultLang,
	}, a.logger), nil
}

func (a *app) quizzes(ctx context.Context) (quiz.Service, error) {
	provider, err := a.llmProvider(ctx)
	if err != nil {
		return nil, err
	}
	var archive quiz.Archiver
	if a.archive != nil {
		archive = a.archive
	}
	return quiz.NewService(a.repo, provider, archive, quiz.Config{
		DefaultQuestions: a.cfg.Quiz.DefaultQuestions,
		MinQuestions:     a.cfg.Quiz.MinQuestions,
		MaxQuestions:     a.cfg.Quiz.MaxQuestions,
		DefaultGrade:     a.cfg.Quiz.DefaultGrade,
		DefaultLang:      a.cfg.Summary.DefaultLang,
	}, a.logger), nil
}

func (a *app) media() (media.Service, error) {
	return media.NewServiceFromConfig(a.cfg, a.logger)
}

// printAttempts writes each chain attempt to w as it happens.
func printAttempts(w io.Writer) sources.Observer {
	return func(att sources.Attempt) {
		fmt.Fprintf(w, "  %s\n", att)
	}
}
