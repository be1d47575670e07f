package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/nijaru/yt-quiz/errors"
	"github.com/nijaru/yt-quiz/models"
	pkgerrors "github.com/pkg/errors"
)

// ErrRevisionConflict is returned when a quiz was revised concurrently.
var ErrRevisionConflict = errors.New("quiz revision conflict")

type Repository struct {
	db    *DB
	stmts *PreparedStatements
}

func NewRepository(ctx context.Context, db *DB) (*Repository, error) {
	stmts, err := prepareStatements(ctx, db.DB)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db, stmts: stmts}, nil
}

// Close releases the prepared statements. The DB belongs to the caller.
func (r *Repository) Close() error {
	return r.stmts.Close()
}

func (r *Repository) SaveTranscript(ctx context.Context, t *models.Transcript) error {
	const op = "Repository.SaveTranscript"

	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	err := r.db.withRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, upsertTranscriptQuery,
			t.VideoID, t.Language, t.Text, t.Source, t.CreatedAt, t.UpdatedAt)
		return err
	})
	if err != nil {
		return errors.Internal(op, err, "failed to save transcript")
	}
	return nil
}

func (r *Repository) FindTranscript(ctx context.Context, videoID, lang string) (*models.Transcript, error) {
	const op = "Repository.FindTranscript"

	t := &models.Transcript{}
	err := r.stmts.findTranscript.QueryRowContext(ctx, videoID, lang).Scan(
		&t.VideoID, &t.Language, &t.Text, &t.Source, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, err, "transcript not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "failed to get transcript")
	}
	return t, nil
}

func (r *Repository) SaveLanguages(ctx context.Context, l *models.LanguageList) error {
	const op = "Repository.SaveLanguages"

	data, err := json.Marshal(l.Languages)
	if err != nil {
		return errors.Internal(op, err, "failed to encode languages")
	}
	l.UpdatedAt = time.Now().UTC()

	err = r.db.withRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, upsertLanguagesQuery, l.VideoID, string(data), l.Source, l.UpdatedAt)
		return err
	})
	if err != nil {
		return errors.Internal(op, err, "failed to save languages")
	}
	return nil
}

func (r *Repository) FindLanguages(ctx context.Context, videoID string) (*models.LanguageList, error) {
	const op = "Repository.FindLanguages"

	var data string
	l := &models.LanguageList{}
	err := r.stmts.findLanguages.QueryRowContext(ctx, videoID).Scan(&l.VideoID, &data, &l.Source, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, err, "languages not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "failed to get languages")
	}
	if err := json.Unmarshal([]byte(data), &l.Languages); err != nil {
		return nil, errors.Internal(op, err, "failed to decode languages")
	}
	return l, nil
}

func (r *Repository) SaveSummary(ctx context.Context, s *models.Summary) error {
	const op = "Repository.SaveSummary"

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	err := r.db.withRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, upsertSummaryQuery,
			s.VideoID, s.Language, s.Model, s.Text, s.Chunks, s.CreatedAt)
		return err
	})
	if err != nil {
		return errors.Internal(op, err, "failed to save summary")
	}
	return nil
}

func (r *Repository) FindSummary(ctx context.Context, videoID, lang, model string) (*models.Summary, error) {
	const op = "Repository.FindSummary"
	return scanSummary(op, r.stmts.findSummary.QueryRowContext(ctx, videoID, lang, model))
}

func (r *Repository) LatestSummary(ctx context.Context, videoID, lang string) (*models.Summary, error) {
	const op = "Repository.LatestSummary"
	return scanSummary(op, r.stmts.latestSummary.QueryRowContext(ctx, videoID, lang))
}

func scanSummary(op string, row *sql.Row) (*models.Summary, error) {
	s := &models.Summary{}
	err := row.Scan(&s.VideoID, &s.Language, &s.Model, &s.Text, &s.Chunks, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, err, "summary not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "failed to get summary")
	}
	return s, nil
}

// CreateQuiz stores a new quiz together with its first revision.
func (r *Repository) CreateQuiz(ctx context.Context, q *models.Quiz) error {
	const op = "Repository.CreateQuiz"

	now := time.Now().UTC()
	q.CreatedAt, q.UpdatedAt = now, now
	if q.Revision == 0 {
		q.Revision = 1
	}

	err := r.db.withRetry(ctx, func() error {
		return WithTransaction(ctx, r.db.DB, func(tx Executor) error {
			if _, err := tx.ExecContext(ctx, insertQuizQuery,
				q.ID, q.VideoID, q.Title, q.Language, q.Grade, q.NumQuestions,
				q.Model, q.Content, q.Revision, q.CreatedAt, q.UpdatedAt,
			); err != nil {
				return pkgerrors.Wrap(err, "insert quiz")
			}
			if _, err := tx.ExecContext(ctx, insertRevisionQuery,
				q.ID, q.Revision, "", q.Content, now,
			); err != nil {
				return pkgerrors.Wrap(err, "insert revision")
			}
			return nil
		})
	})
	if err != nil {
		return errors.Internal(op, err, "failed to create quiz")
	}
	return nil
}

func (r *Repository) FindQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	const op = "Repository.FindQuiz"

	q := &models.Quiz{}
	err := r.stmts.findQuiz.QueryRowContext(ctx, id).Scan(
		&q.ID, &q.VideoID, &q.Title, &q.Language, &q.Grade, &q.NumQuestions,
		&q.Model, &q.Content, &q.Revision, &q.CreatedAt, &q.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, err, "quiz not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "failed to get quiz")
	}
	return q, nil
}

func (r *Repository) AddRevision(ctx context.Context, rev *models.QuizRevision) error {
	const op = "Repository.AddRevision"

	if rev.Revision < 2 {
		return errors.InvalidInput(op, nil, "revision must follow the generated quiz")
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now().UTC()
	}

	err := r.db.withRetry(ctx, func() error {
		return WithTransaction(ctx, r.db.DB, func(tx Executor) error {
			res, err := tx.ExecContext(ctx, advanceQuizQuery,
				rev.Content, rev.Revision, rev.CreatedAt, rev.QuizID, rev.Revision-1)
			if err != nil {
				return pkgerrors.Wrap(err, "update quiz")
			}
			n, err := res.RowsAffected()
			if err != nil {
				return pkgerrors.Wrap(err, "rows affected")
			}
			if n == 0 {
				return ErrRevisionConflict
			}

			if _, err := tx.ExecContext(ctx, insertRevisionQuery,
				rev.QuizID, rev.Revision, rev.Instructions, rev.Content, rev.CreatedAt,
			); err != nil {
				return pkgerrors.Wrap(err, "insert revision")
			}
			return nil
		})
	})
	if errors.Is(err, ErrRevisionConflict) {
		return errors.Conflict(op, err, "quiz was modified concurrently")
	}
	if err != nil {
		return errors.Internal(op, err, "failed to save quiz revision")
	}
	return nil
}

func (r *Repository) ListRevisions(ctx context.Context, quizID string) ([]models.QuizRevision, error) {
	const op = "Repository.ListRevisions"

	rows, err := r.stmts.listRevisions.QueryContext(ctx, quizID)
	if err != nil {
		return nil, errors.Internal(op, err, "failed to list revisions")
	}
	defer rows.Close()

	var revs []models.QuizRevision
	for rows.Next() {
		var rev models.QuizRevision
		if err := rows.Scan(&rev.QuizID, &rev.Revision, &rev.Instructions, &rev.Content, &rev.CreatedAt); err != nil {
			return nil, errors.Internal(op, err, "failed to scan revision")
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal(op, err, "failed to read revisions")
	}
	return revs, nil
}
