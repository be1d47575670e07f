// Package scraper drives the yt-dlp command line tool through go-ytdlp.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sirupsen/logrus"
)

type Runner struct {
	config Config
	logger *logrus.Logger
}

func NewRunner(cfg Config, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{config: cfg, logger: logger}
}

// Install downloads a managed yt-dlp binary when none is available on PATH.
func Install(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}
	return nil
}

func (r *Runner) Config() Config {
	return r.config
}

// WithConfig returns a runner sharing the logger but using cfg.
func (r *Runner) WithConfig(cfg Config) *Runner {
	return &Runner{config: cfg, logger: r.logger}
}

func (r *Runner) command(playerClients []string) *ytdlp.Command {
	cmd := ytdlp.New().NoPlaylist()

	if r.config.UsesCookies() {
		if b := r.config.CookiesFromBrowser; b != "" && b != "none" {
			cmd = cmd.CookiesFromBrowser(b)
		} else {
			cmd = cmd.Cookies(r.config.CookiesFile)
		}
	}
	if r.config.Proxy != "" {
		cmd = cmd.Proxy(r.config.Proxy)
	}
	if r.config.SocketTimeout > 0 {
		cmd = cmd.SocketTimeout(r.config.SocketTimeout.Seconds())
	}
	if r.config.Retries > 0 {
		cmd = cmd.Retries(strconv.Itoa(r.config.Retries))
	}

	if len(playerClients) == 0 {
		playerClients = r.config.PlayerClients
	}
	if len(playerClients) > 0 {
		cmd = cmd.ExtractorArgs("youtube:player_client=" + strings.Join(playerClients, ","))
	}

	return cmd
}

// Dump returns the metadata yt-dlp extracts for videoURL without downloading media.
func (r *Runner) Dump(ctx context.Context, videoURL string) (*Info, error) {
	const op = "scraper.Dump"

	res, err := r.command(nil).SkipDownload().PrintJSON().Run(ctx, videoURL)
	if err != nil {
		return nil, newToolError(op, err, stderrOf(res))
	}

	info, err := ParseInfo(res.Stdout)
	if err != nil {
		return nil, &ToolError{Op: op, Err: err, Message: "unreadable yt-dlp output"}
	}
	return info, nil
}

// DownloadSubtitles writes the lang subtitle tracks of videoURL as VTT into dir
// and returns the files yt-dlp produced.
func (r *Runner) DownloadSubtitles(ctx context.Context, videoURL, videoID, lang, dir string) ([]string, error) {
	const op = "scraper.DownloadSubtitles"

	res, err := r.command(nil).
		SkipDownload().
		WriteSubs().
		WriteAutoSubs().
		SubLangs(lang).
		SubFormat("vtt").
		Output(filepath.Join(dir, "%(id)s.%(ext)s")).
		Run(ctx, videoURL)
	if err != nil {
		return nil, newToolError(op, err, stderrOf(res))
	}

	matches, err := filepath.Glob(filepath.Join(dir, videoID+"*.vtt"))
	if err != nil {
		return nil, &ToolError{Op: op, Err: err, Message: "failed to list subtitle files"}
	}
	r.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"lang":     lang,
		"files":    len(matches),
	}).Debug("Subtitle download finished")

	return matches, nil
}

// Download fetches media for videoURL according to opts.
func (r *Runner) Download(ctx context.Context, videoURL string, opts DownloadOptions) error {
	const op = "scraper.Download"

	if dir := filepath.Dir(opts.OutputTemplate); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &ToolError{Op: op, Err: err, Message: "failed to create output directory"}
		}
	}

	cmd := r.command(opts.PlayerClients).Output(opts.OutputTemplate)
	if opts.Format != "" {
		cmd = cmd.Format(opts.Format)
	}

	res, err := cmd.Run(ctx, videoURL)
	if err != nil {
		return newToolError(op, err, stderrOf(res))
	}
	return nil
}

// ParseInfo decodes the last JSON object printed by yt-dlp.
func ParseInfo(stdout string) (*Info, error) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var info Info
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			return nil, fmt.Errorf("decode yt-dlp json: %w", err)
		}
		return &info, nil
	}
	return nil, fmt.Errorf("no JSON object in yt-dlp output")
}

func stderrOf(res *ytdlp.Result) string {
	if res == nil {
		return ""
	}
	return res.Stderr
}
