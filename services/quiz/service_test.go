package quiz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	apperrors "github.com/nijaru/yt-quiz/errors"
	"github.com/nijaru/yt-quiz/llm"
	"github.com/nijaru/yt-quiz/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	prompts []string
	replies []string
	err     error
}

func (f *fakeProvider) Model() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", &llm.ProviderError{Provider: "fake", Model: "fake", Err: f.err}
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

type memRepo struct {
	quizzes   map[string]*models.Quiz
	revisions map[string][]models.QuizRevision
}

func newMemRepo() *memRepo {
	return &memRepo{quizzes: map[string]*models.Quiz{}, revisions: map[string][]models.QuizRevision{}}
}

func (m *memRepo) CreateQuiz(ctx context.Context, q *models.Quiz) error {
	q.CreatedAt, q.UpdatedAt = time.Now(), time.Now()
	cp := *q
	m.quizzes[q.ID] = &cp
	m.revisions[q.ID] = []models.QuizRevision{{QuizID: q.ID, Revision: 1, Content: q.Content}}
	return nil
}

func (m *memRepo) FindQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	q, ok := m.quizzes[id]
	if !ok {
		return nil, apperrors.NotFound("memRepo.FindQuiz", nil, "quiz not found")
	}
	cp := *q
	return &cp, nil
}

func (m *memRepo) AddRevision(ctx context.Context, rev *models.QuizRevision) error {
	q := m.quizzes[rev.QuizID]
	if q == nil || q.Revision != rev.Revision-1 {
		return apperrors.Conflict("memRepo.AddRevision", nil, "conflict")
	}
	rev.CreatedAt = time.Now()
	q.Revision, q.Content = rev.Revision, rev.Content
	m.revisions[rev.QuizID] = append(m.revisions[rev.QuizID], *rev)
	return nil
}

func (m *memRepo) ListRevisions(ctx context.Context, quizID string) ([]models.QuizRevision, error) {
	return m.revisions[quizID], nil
}

type memArchive struct {
	docs map[string][]byte
	err  error
}

func (a *memArchive) SaveQuiz(ctx context.Context, quizID string, revision int, document []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	key := fmt.Sprintf("quizzes/%s/rev-%d.md", quizID, revision)
	a.docs[key] = document
	return key, nil
}

func TestGenerate_DefaultsAndPrompt(t *testing.T) {
	p := &fakeProvider{replies: []string{"1. What?"}}
	svc := NewService(newMemRepo(), p, nil, Config{}, nil)

	q, err := svc.Generate(context.Background(), Params{VideoID: "dQw4w9WgXcQ", Summary: "a summary", Lang: "English"})
	require.NoError(t, err)
	assert.Equal(t, 5, q.NumQuestions)
	assert.Equal(t, "10", q.Grade)
	assert.Equal(t, 1, q.Revision)
	assert.Equal(t, "fake", q.Model)
	assert.Len(t, q.ID, 36)

	require.Len(t, p.prompts, 1)
	assert.Equal(t,
		"Create a 5-question multiple-choice quiz in English for grade 10 students based on this summary:\na summary",
		p.prompts[0])
}

func TestGenerate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"too many", Params{Summary: "s", NumQuestions: 21}},
		{"negative", Params{Summary: "s", NumQuestions: -1}},
		{"no summary", Params{Summary: "  ", NumQuestions: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{}
			svc := NewService(newMemRepo(), p, nil, Config{}, nil)

			_, err := svc.Generate(context.Background(), tt.params)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, http.StatusBadRequest))
			assert.Empty(t, p.prompts, "provider must not be called")
		})
	}
}

func TestGenerate_ProviderError(t *testing.T) {
	svc := NewService(newMemRepo(), &fakeProvider{err: errors.New("boom")}, nil, Config{}, nil)

	_, err := svc.Generate(context.Background(), Params{Summary: "s"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, http.StatusBadGateway))

	var perr *llm.ProviderError
	assert.True(t, errors.As(err, &perr))
}

func TestModify_KeepsHistory(t *testing.T) {
	p := &fakeProvider{replies: []string{"v1", "v2", "v3"}}
	repo := newMemRepo()
	svc := NewService(repo, p, nil, Config{}, nil)
	ctx := context.Background()

	q, err := svc.Generate(ctx, Params{Summary: "s"})
	require.NoError(t, err)

	q, err = svc.Modify(ctx, q.ID, "make it harder")
	require.NoError(t, err)
	assert.Equal(t, 2, q.Revision)
	assert.Equal(t, "v2", q.Content)
	assert.Equal(t,
		"Here is a multiple-choice quiz:\nv1\n\nRevise the quiz according to these instructions: make it harder\nReturn only the revised quiz.",
		p.prompts[1])

	q, err = svc.Modify(ctx, q.ID, "add answers")
	require.NoError(t, err)
	assert.Equal(t, 3, q.Revision)
	assert.True(t, strings.Contains(p.prompts[2], "\nv2\n"), "modify works on the latest revision")

	revs, err := svc.Revisions(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, revs, 3)
	assert.Equal(t, "add answers", revs[2].Instructions)
}

func TestModify_Errors(t *testing.T) {
	svc := NewService(newMemRepo(), &fakeProvider{}, nil, Config{}, nil)
	ctx := context.Background()

	_, err := svc.Modify(ctx, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", "")
	assert.True(t, apperrors.HasCode(err, http.StatusBadRequest))

	_, err = svc.Modify(ctx, "not-a-uuid", "x")
	assert.True(t, apperrors.HasCode(err, http.StatusBadRequest))

	_, err = svc.Modify(ctx, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", "x")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()

	unconfigured := NewService(repo, &fakeProvider{replies: []string{"Q"}}, nil, Config{}, nil)
	q, err := unconfigured.Generate(ctx, Params{Summary: "s", Title: "Go: Basics?"})
	require.NoError(t, err)

	_, err = unconfigured.Export(ctx, q.ID)
	assert.True(t, apperrors.HasCode(err, http.StatusServiceUnavailable))

	archive := &memArchive{docs: map[string][]byte{}}
	svc := NewService(repo, &fakeProvider{}, archive, Config{}, nil)
	key, err := svc.Export(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "quizzes/"+q.ID+"/rev-1.md", key)
	assert.Contains(t, string(archive.docs[key]), "# Go Basics")

	archive.err = errors.New("s3 down")
	_, err = svc.Export(ctx, q.ID)
	assert.True(t, apperrors.HasCode(err, http.StatusBadGateway))
}

func TestDocument(t *testing.T) {
	q := &models.Quiz{
		ID: "id", VideoID: "dQw4w9WgXcQ", Title: "Never Gonna", Grade: "7",
		NumQuestions: 3, Content: "  1. Q?\n", Revision: 2,
	}

	name, body := Document(q)
	assert.Equal(t, "Never Gonna_quiz.md", name)
	assert.Equal(t,
		"# Never Gonna\n\nVideo: https://www.youtube.com/watch?v=dQw4w9WgXcQ\nGrade: 7\nQuestions: 3\nRevision: 2\n\n1. Q?\n",
		string(body))

	name, _ = Document(&models.Quiz{ID: "abc", VideoID: "dQw4w9WgXcQ"})
	assert.Equal(t, "video_dQw4w9Wg_quiz.md", name)
}
