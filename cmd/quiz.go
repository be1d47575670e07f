package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nijaru/yt-quiz/models"
	"github.com/nijaru/yt-quiz/services/quiz"
	"github.com/spf13/cobra"
)

var (
	quizGrade     string
	quizQuestions int
	quizTitle     string
	quizModify    string
	quizOutput    string
	quizExport    bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <url>",
	Short: "Summarize a video's transcript with the configured LLM",
	Example: `  yt-quiz summarize dQw4w9WgXcQ
  yt-quiz summarize https://youtu.be/dQw4w9WgXcQ --lang de`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			sum, err := summarizeVideo(ctx, cmd, a, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sum.Text)
			return nil
		})
	},
}

var quizCmd = &cobra.Command{
	Use:   "quiz <url>",
	Short: "Generate a multiple-choice quiz from a video",
	Example: `  yt-quiz quiz dQw4w9WgXcQ --grade 8 --questions 10
  yt-quiz quiz dQw4w9WgXcQ --modify "make question 3 easier" -o quiz.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			quizzes, err := a.quizzes(ctx)
			if err != nil {
				return err
			}

			sum, err := summarizeVideo(ctx, cmd, a, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "Generating quiz...")
			q, err := quizzes.Generate(ctx, quiz.Params{
				VideoID:      sum.VideoID,
				Title:        quizTitle,
				Summary:      sum.Text,
				Lang:         sum.Language,
				Grade:        quizGrade,
				NumQuestions: quizQuestions,
			})
			if err != nil {
				return err
			}

			if quizModify != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "Revising quiz...")
				if q, err = quizzes.Modify(ctx, q.ID, quizModify); err != nil {
					return err
				}
			}

			if err := writeQuiz(cmd, q); err != nil {
				return err
			}

			if quizExport {
				key, err := quizzes.Export(ctx, q.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", key)
			}
			return nil
		})
	},
}

func summarizeVideo(ctx context.Context, cmd *cobra.Command, a *app, input string) (*models.Summary, error) {
	summaries, err := a.summaries(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Sources:")
	tr, err := a.transcripts().Transcript(ctx, input, cfg.Summary.DefaultLang, printAttempts(cmd.ErrOrStderr()))
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Summarizing %d characters...\n", len([]rune(tr.Text)))
	return summaries.Summarize(ctx, tr.VideoID, tr.Text, tr.Language)
}

func writeQuiz(cmd *cobra.Command, q *models.Quiz) error {
	name, body := quiz.Document(q)
	if quizOutput == "" {
		_, err := cmd.OutOrStdout().Write(body)
		return err
	}

	path := quizOutput
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, name)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Quiz %s (revision %d) saved to %s\n", q.ID, q.Revision, path)
	return nil
}

func init() {
	flags := quizCmd.Flags()
	flags.StringVar(&quizGrade, "grade", "", "target grade level (default: QUIZ_DEFAULT_GRADE)")
	flags.IntVarP(&quizQuestions, "questions", "n", 0, "number of questions, 1-20 (default: QUIZ_DEFAULT_QUESTIONS)")
	flags.StringVar(&quizTitle, "title", "", "title for the quiz document")
	flags.StringVar(&quizModify, "modify", "", "revise the generated quiz with these instructions")
	flags.StringVarP(&quizOutput, "output", "o", "", "write the quiz to a file or directory instead of stdout")
	flags.BoolVar(&quizExport, "export", false, "upload the quiz document to object storage")

	rootCmd.AddCommand(summarizeCmd, quizCmd)
}
