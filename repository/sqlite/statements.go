package sqlite

import (
	"context"
	"database/sql"

	"github.com/nijaru/yt-quiz/errors"
)

const (
	upsertTranscriptQuery = `
        INSERT INTO transcripts (video_id, language, text, source, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(video_id, language) DO UPDATE SET
            text = excluded.text,
            source = excluded.source,
            updated_at = excluded.updated_at`

	findTranscriptQuery = `
        SELECT video_id, language, text, source, created_at, updated_at
        FROM transcripts
        WHERE video_id = ? AND language = ?`

	upsertLanguagesQuery = `
        INSERT INTO languages (video_id, data, source, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(video_id) DO UPDATE SET
            data = excluded.data,
            source = excluded.source,
            updated_at = excluded.updated_at`

	findLanguagesQuery = `
        SELECT video_id, data, source, updated_at
        FROM languages
        WHERE video_id = ?`

	upsertSummaryQuery = `
        INSERT INTO summaries (video_id, language, model, text, chunks, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(video_id, language, model) DO UPDATE SET
            text = excluded.text,
            chunks = excluded.chunks,
            created_at = excluded.created_at`

	findSummaryQuery = `
        SELECT video_id, language, model, text, chunks, created_at
        FROM summaries
        WHERE video_id = ? AND language = ? AND model = ?`

	latestSummaryQuery = `
        SELECT video_id, language, model, text, chunks, created_at
        FROM summaries
        WHERE video_id = ? AND language = ?
        ORDER BY created_at DESC
        LIMIT 1`

	insertQuizQuery = `
        INSERT INTO quizzes (
            id, video_id, title, language, grade, num_questions,
            model, content, revision, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	findQuizQuery = `
        SELECT id, video_id, title, language, grade, num_questions,
            model, content, revision, created_at, updated_at
        FROM quizzes
        WHERE id = ?`

	advanceQuizQuery = `
        UPDATE quizzes
        SET content = ?, revision = ?, updated_at = ?
        WHERE id = ? AND revision = ?`

	insertRevisionQuery = `
        INSERT INTO quiz_revisions (quiz_id, revision, instructions, content, created_at)
        VALUES (?, ?, ?, ?, ?)`

	listRevisionsQuery = `
        SELECT quiz_id, revision, instructions, content, created_at
        FROM quiz_revisions
        WHERE quiz_id = ?
        ORDER BY revision ASC`
)

// PreparedStatements holds the read queries that run on every request.
// Writes go through transactions and are executed directly.
type PreparedStatements struct {
	findTranscript *sql.Stmt
	findLanguages  *sql.Stmt
	findSummary    *sql.Stmt
	latestSummary  *sql.Stmt
	findQuiz       *sql.Stmt
	listRevisions  *sql.Stmt
}

func prepareStatements(ctx context.Context, db *sql.DB) (*PreparedStatements, error) {
	const op = "sqlite.prepareStatements"

	ps := &PreparedStatements{}
	queries := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&ps.findTranscript, findTranscriptQuery},
		{&ps.findLanguages, findLanguagesQuery},
		{&ps.findSummary, findSummaryQuery},
		{&ps.latestSummary, latestSummaryQuery},
		{&ps.findQuiz, findQuizQuery},
		{&ps.listRevisions, listRevisionsQuery},
	}

	for _, q := range queries {
		stmt, err := db.PrepareContext(ctx, q.query)
		if err != nil {
			ps.Close()
			return nil, errors.Internal(op, err, "failed to prepare statement")
		}
		*q.dst = stmt
	}

	return ps, nil
}

func (ps *PreparedStatements) Close() error {
	var firstErr error
	for _, stmt := range []*sql.Stmt{
		ps.findTranscript,
		ps.findLanguages,
		ps.findSummary,
		ps.latestSummary,
		ps.findQuiz,
		ps.listRevisions,
	} {
		if stmt == nil {
			continue
		}
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
