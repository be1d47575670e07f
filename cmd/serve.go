package cmd

import (
	"context"
	"net/http"

	"github.com/nijaru/yt-quiz/handlers/api"
	"github.com/spf13/cobra"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and web page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != "" {
			cfg.ServerPort = servePort
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			summaries, err := a.summaries(ctx)
			if err != nil {
				return err
			}
			quizzes, err := a.quizzes(ctx)
			if err != nil {
				return err
			}
			mediaSvc, err := a.media()
			if err != nil {
				return err
			}

			server := api.NewServer(cfg,
				api.WithLogger(a.logger),
				api.WithSourceNames(a.chain.Sources()),
				api.WithServices(api.Services{
					Transcripts: a.transcripts(),
					Summaries:   summaries,
					Quizzes:     quizzes,
					Media:       mediaSvc,
				}),
			)

			errCh := make(chan error, 1)
			go func() {
				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.logger.WithError(err).Error("Server shutdown error")
				return err
			}
			return nil
		})
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "listen port (default: SERVER_PORT)")
	rootCmd.AddCommand(serveCmd)
}
