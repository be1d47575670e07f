package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var transcriptOutput string

var languagesCmd = &cobra.Command{
	Use:   "languages <url>",
	Short: "List the caption languages available for a video",
	Example: `  yt-quiz languages https://www.youtube.com/watch?v=dQw4w9WgXcQ
  yt-quiz languages dQw4w9WgXcQ --cookies-from-browser firefox`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			fmt.Fprintln(cmd.ErrOrStderr(), "Sources:")
			res, err := a.transcripts().Languages(ctx, args[0], printAttempts(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tKIND")
			for _, l := range res.Languages {
				fmt.Fprintf(w, "%s\t%s\t%s\n", l.Code, l.Name, l.Kind)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			source := res.Source
			if res.Cached {
				source += " (cached)"
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d languages from %s\n", len(res.Languages), source)
			return nil
		})
	},
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript <url>",
	Short: "Fetch the caption transcript of a video",
	Example: `  yt-quiz transcript dQw4w9WgXcQ --lang en
  yt-quiz transcript https://youtu.be/dQw4w9WgXcQ -o transcript.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			fmt.Fprintln(cmd.ErrOrStderr(), "Sources:")
			res, err := a.transcripts().Transcript(ctx, args[0], cfg.Summary.DefaultLang, printAttempts(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			if transcriptOutput != "" {
				if err := os.WriteFile(transcriptOutput, []byte(res.Text), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Transcript saved to %s\n", transcriptOutput)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			}

			if res.ArchiveKey != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Archived as %s\n", res.ArchiveKey)
			}
			return nil
		})
	},
}

func init() {
	transcriptCmd.Flags().StringVarP(&transcriptOutput, "output", "o", "", "write the transcript to a file instead of stdout")
	rootCmd.AddCommand(languagesCmd, transcriptCmd)
}
