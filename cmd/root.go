package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nijaru/yt-quiz/config"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	flagLang               string
	flagCookiesFromBrowser string
	flagCookiesFile        string
	flagProxies            []string
	flagDBPath             string
	flagDebug              bool
)

var rootCmd = &cobra.Command{
	Use:   "yt-quiz",
	Short: "Fetch YouTube captions, summarize them, and build quizzes",
	Long: `yt-quiz retrieves captions for a YouTube video through a chain of sources
(yt-dlp, cookies, raw subtitle download, the timedtext API and proxies), then
uses an LLM to summarize the transcript and turn the summary into a
multiple-choice quiz. It runs as a CLI or as an HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagLang, "lang", "l", "", "caption and output language (default: DEFAULT_LANG)")
	pf.StringVar(&flagCookiesFromBrowser, "cookies-from-browser", "", "browser to read YouTube cookies from")
	pf.StringVar(&flagCookiesFile, "cookies", "", "Netscape cookie file (.txt)")
	pf.StringSliceVar(&flagProxies, "proxy", nil, "proxy URL for the timedtext fallback (repeatable)")
	pf.StringVar(&flagDBPath, "db", "", "SQLite cache path (default: DB_PATH)")
	pf.BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

// applyFlags overrides configuration with any flag the user set explicitly.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("lang") {
		c.Summary.DefaultLang = flagLang
	}
	if flags.Changed("cookies-from-browser") {
		c.Sources.CookiesFromBrowser = flagCookiesFromBrowser
	}
	if flags.Changed("cookies") {
		c.Sources.CookiesFile = flagCookiesFile
	}
	if flags.Changed("proxy") {
		c.Sources.Proxies = flagProxies
	}
	if flags.Changed("db") {
		c.Database.Path = flagDBPath
	}
	if flagDebug {
		c.Debug = true
		c.LogLevel = "debug"
	} else if cmd != serveCmd && os.Getenv("LOG_LEVEL") == "" {
		c.LogLevel = "warn"
	}
}

// withApp wires the services and cancels the context on SIGINT/SIGTERM.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
