package quiz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nijaru/yt-quiz/errors"
	"github.com/nijaru/yt-quiz/llm"
	"github.com/nijaru/yt-quiz/models"
	"github.com/nijaru/yt-quiz/repository"
	"github.com/nijaru/yt-quiz/utils"
	"github.com/nijaru/yt-quiz/youtube"
	"github.com/sirupsen/logrus"
)

const (
	DefaultQuestions = 5
	MinQuestions     = 1
	MaxQuestions     = 20
	DefaultGrade     = "10"
)

type Service interface {
	Generate(ctx context.Context, params Params) (*models.Quiz, error)
	// Modify revises the quiz with instructions and stores the result as its next revision.
	Modify(ctx context.Context, quizID, instructions string) (*models.Quiz, error)
	Get(ctx context.Context, quizID string) (*models.Quiz, error)
	Revisions(ctx context.Context, quizID string) ([]models.QuizRevision, error)
	// Export uploads the current quiz document and returns its object key.
	Export(ctx context.Context, quizID string) (string, error)
}

type Archiver interface {
	SaveQuiz(ctx context.Context, quizID string, revision int, document []byte) (string, error)
}

type Params struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title,omitempty"`
	Summary      string `json:"summary"`
	Lang         string `json:"lang"`
	Grade        string `json:"grade"`
	NumQuestions int    `json:"num_questions"`
}

type Config struct {
	DefaultQuestions int
	MinQuestions     int
	MaxQuestions     int
	DefaultGrade     string
	DefaultLang      string
}

func (c Config) withDefaults() Config {
	if c.DefaultQuestions == 0 {
		c.DefaultQuestions = DefaultQuestions
	}
	if c.MinQuestions == 0 {
		c.MinQuestions = MinQuestions
	}
	if c.MaxQuestions == 0 {
		c.MaxQuestions = MaxQuestions
	}
	if c.DefaultGrade == "" {
		c.DefaultGrade = DefaultGrade
	}
	return c
}

type service struct {
	repo     repository.QuizRepository
	provider llm.Provider
	archive  Archiver
	config   Config
	logger   *logrus.Logger
}

// NewService creates the quiz service. archive may be nil, in which case Export is unavailable.
func NewService(
	repo repository.QuizRepository,
	provider llm.Provider,
	archive Archiver,
	config Config,
	logger *logrus.Logger,
) Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &service{
		repo:     repo,
		provider: provider,
		archive:  archive,
		config:   config.withDefaults(),
		logger:   logger,
	}
}

// normalize applies defaults and checks bounds.
func (s *service) normalize(p *Params) error {
	const op = "QuizService.normalize"

	if strings.TrimSpace(p.Summary) == "" {
		return errors.InvalidInput(op, nil, "Summary is required")
	}
	if p.NumQuestions == 0 {
		p.NumQuestions = s.config.DefaultQuestions
	}
	if p.NumQuestions < s.config.MinQuestions || p.NumQuestions > s.config.MaxQuestions {
		return errors.InvalidInput(op, nil, fmt.Sprintf(
			"Number of questions must be between %d and %d", s.config.MinQuestions, s.config.MaxQuestions))
	}
	p.Grade = strings.TrimSpace(p.Grade)
	if p.Grade == "" {
		p.Grade = s.config.DefaultGrade
	}
	if p.Lang == "" {
		p.Lang = s.config.DefaultLang
	}
	return nil
}

func generatePrompt(p Params) string {
	return fmt.Sprintf(
		"Create a %d-question multiple-choice quiz in %s for grade %s students based on this summary:\n%s",
		p.NumQuestions, p.Lang, p.Grade, p.Summary,
	)
}

func modifyPrompt(quiz, instructions string) string {
	return fmt.Sprintf(
		"Here is a multiple-choice quiz:\n%s\n\nRevise the quiz according to these instructions: %s\nReturn only the revised quiz.",
		quiz, instructions,
	)
}

func (s *service) Generate(ctx context.Context, params Params) (*models.Quiz, error) {
	const op = "QuizService.Generate"

	if err := s.normalize(&params); err != nil {
		return nil, err
	}

	logger := s.logger.WithFields(logrus.Fields{
		"video_id":  params.VideoID,
		"questions": params.NumQuestions,
		"grade":     params.Grade,
	})

	content, err := s.provider.Complete(ctx, generatePrompt(params))
	if err != nil {
		return nil, errors.BadGateway(op, err, "Failed to generate quiz")
	}

	q := &models.Quiz{
		ID:           uuid.New().String(),
		VideoID:      params.VideoID,
		Title:        utils.SanitizeTitle(params.Title),
		Language:     params.Lang,
		Grade:        params.Grade,
		NumQuestions: params.NumQuestions,
		Model:        s.provider.Model(),
		Content:      content,
		Revision:     1,
	}

	if err := s.repo.CreateQuiz(ctx, q); err != nil {
		return nil, err
	}

	logger.WithField("quiz_id", q.ID).Info("Quiz generated")
	return q, nil
}

func (s *service) Modify(ctx context.Context, quizID, instructions string) (*models.Quiz, error) {
	const op = "QuizService.Modify"

	instructions = strings.TrimSpace(instructions)
	if instructions == "" {
		return nil, errors.InvalidInput(op, nil, "Modification instructions are required")
	}

	q, err := s.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}

	content, err := s.provider.Complete(ctx, modifyPrompt(q.Content, instructions))
	if err != nil {
		return nil, errors.BadGateway(op, err, "Failed to modify quiz")
	}

	rev := &models.QuizRevision{
		QuizID:       q.ID,
		Revision:     q.Revision + 1,
		Instructions: instructions,
		Content:      content,
	}
	if err := s.repo.AddRevision(ctx, rev); err != nil {
		return nil, err
	}

	q.Content = content
	q.Revision = rev.Revision
	q.UpdatedAt = rev.CreatedAt

	s.logger.WithFields(logrus.Fields{
		"quiz_id":  q.ID,
		"revision": q.Revision,
	}).Info("Quiz modified")
	return q, nil
}

func (s *service) Get(ctx context.Context, quizID string) (*models.Quiz, error) {
	const op = "QuizService.Get"

	if _, err := uuid.Parse(quizID); err != nil {
		return nil, errors.InvalidInput(op, err, "Invalid quiz ID")
	}

	q, err := s.repo.FindQuiz(ctx, quizID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NotFound(op, err, "Quiz not found")
		}
		return nil, err
	}
	return q, nil
}

func (s *service) Revisions(ctx context.Context, quizID string) ([]models.QuizRevision, error) {
	if _, err := s.Get(ctx, quizID); err != nil {
		return nil, err
	}
	return s.repo.ListRevisions(ctx, quizID)
}

func (s *service) Export(ctx context.Context, quizID string) (string, error) {
	const op = "QuizService.Export"

	if s.archive == nil {
		return "", errors.Unavailable(op, nil, "Object storage is not configured")
	}

	q, err := s.Get(ctx, quizID)
	if err != nil {
		return "", err
	}

	_, body := Document(q)
	key, err := s.archive.SaveQuiz(ctx, q.ID, q.Revision, body)
	if err != nil {
		return "", errors.BadGateway(op, err, "Failed to export quiz")
	}

	s.logger.WithFields(logrus.Fields{"quiz_id": q.ID, "key": key}).Info("Quiz exported")
	return key, nil
}

// Document renders the downloadable quiz file and its file name.
func Document(q *models.Quiz) (string, []byte) {
	title := q.Title
	if title == "" {
		title = "Quiz"
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", title)
	if q.VideoID != "" {
		fmt.Fprintf(&b, "Video: %s\n", youtube.WatchURL(q.VideoID))
	}
	fmt.Fprintf(&b, "Grade: %s\n", q.Grade)
	fmt.Fprintf(&b, "Questions: %d\n", q.NumQuestions)
	if q.Revision > 1 {
		fmt.Fprintf(&b, "Revision: %d\n", q.Revision)
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(q.Content))
	b.WriteString("\n")

	id := q.VideoID
	if id == "" {
		id = q.ID
	}
	name := utils.SanitizeFilename(q.Title, id) + "_quiz.md"
	return name, b.Bytes()
}
