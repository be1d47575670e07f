package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nijaru/yt-quiz/scraper"
	"github.com/nijaru/yt-quiz/youtube"
)

type SubtitleDownloader interface {
	DownloadSubtitles(ctx context.Context, videoURL, videoID, lang, dir string) ([]string, error)
}

// SubtitleDownload has yt-dlp write the raw .vtt file and strips it locally.
// It only serves transcripts.
type SubtitleDownload struct {
	Label      string
	Downloader SubtitleDownloader
	TempDir    string
	Proxy      string
	Cookies    bool
}

func NewSubtitleDownload(runner *scraper.Runner, tempDir string) *SubtitleDownload {
	cfg := runner.Config()
	return &SubtitleDownload{
		Label:      "subtitle-download",
		Downloader: runner,
		TempDir:    tempDir,
		Proxy:      shownProxy(cfg.Proxy),
		Cookies:    cfg.UsesCookies(),
	}
}

func (s *SubtitleDownload) Name() string { return s.Label }

func (s *SubtitleDownload) Descriptor() (string, bool) { return s.Proxy, s.Cookies }

func (s *SubtitleDownload) ListLanguages(context.Context, string) ([]Language, error) {
	return nil, ErrUnsupported
}

func (s *SubtitleDownload) FetchTranscript(ctx context.Context, videoID, lang string) (string, error) {
	if err := os.MkdirAll(s.TempDir, 0755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	dir, err := os.MkdirTemp(s.TempDir, "subs-"+videoID+"-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	files, err := s.Downloader.DownloadSubtitles(ctx, youtube.WatchURL(videoID), videoID, lang, dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: yt-dlp wrote no subtitle file for %s", ErrNoCaptions, lang)
	}

	raw, err := os.ReadFile(pickSubtitleFile(files, lang))
	if err != nil {
		return "", fmt.Errorf("read subtitle file: %w", err)
	}
	return StripVTT(string(raw)), nil
}

// pickSubtitleFile prefers <id>.<lang>.vtt over variants like <id>.<lang>-US.vtt.
func pickSubtitleFile(files []string, lang string) string {
	for _, f := range files {
		if strings.HasSuffix(filepath.Base(f), "."+lang+".vtt") {
			return f
		}
	}
	return files[0]
}
