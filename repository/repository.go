package repository

import (
	"context"

	"github.com/nijaru/yt-quiz/models"
)

type TranscriptRepository interface {
	SaveTranscript(ctx context.Context, t *models.Transcript) error
	FindTranscript(ctx context.Context, videoID, lang string) (*models.Transcript, error)
	SaveLanguages(ctx context.Context, l *models.LanguageList) error
	FindLanguages(ctx context.Context, videoID string) (*models.LanguageList, error)
}

type SummaryRepository interface {
	SaveSummary(ctx context.Context, s *models.Summary) error
	FindSummary(ctx context.Context, videoID, lang, model string) (*models.Summary, error)
	LatestSummary(ctx context.Context, videoID, lang string) (*models.Summary, error)
}

type QuizRepository interface {
	CreateQuiz(ctx context.Context, q *models.Quiz) error
	FindQuiz(ctx context.Context, id string) (*models.Quiz, error)
	// AddRevision stores rev as the quiz's next version. It fails when the
	// quiz has moved past rev.Revision-1 in the meantime.
	AddRevision(ctx context.Context, rev *models.QuizRevision) error
	ListRevisions(ctx context.Context, quizID string) ([]models.QuizRevision, error)
}
