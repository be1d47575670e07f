package sources

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/nijaru/yt-quiz/scraper"
	"github.com/nijaru/yt-quiz/youtube"
)

// InfoDumper is the part of scraper.Runner the yt-dlp source needs.
type InfoDumper interface {
	Dump(ctx context.Context, videoURL string) (*scraper.Info, error)
}

// subtitle formats we can read, best first
var trackFormats = []string{"vtt", "json3", "srv3", "srv1"}

// YtDlp lists and reads caption tracks from yt-dlp metadata.
type YtDlp struct {
	Label   string
	Dumper  InfoDumper
	Client  *http.Client
	Proxy   string
	Cookies bool
}

func NewYtDlp(runner *scraper.Runner, client *http.Client) *YtDlp {
	cfg := runner.Config()
	label := "ytdlp"
	if cfg.UsesCookies() {
		label = "ytdlp+cookies"
	}
	return &YtDlp{
		Label:   label,
		Dumper:  runner,
		Client:  client,
		Proxy:   shownProxy(cfg.Proxy),
		Cookies: cfg.UsesCookies(),
	}
}

func (y *YtDlp) Name() string { return y.Label }

func (y *YtDlp) Descriptor() (string, bool) { return y.Proxy, y.Cookies }

func (y *YtDlp) ListLanguages(ctx context.Context, videoID string) ([]Language, error) {
	info, err := y.Dumper.Dump(ctx, youtube.WatchURL(videoID))
	if err != nil {
		return nil, err
	}
	return infoLanguages(info), nil
}

func (y *YtDlp) FetchTranscript(ctx context.Context, videoID, lang string) (string, error) {
	info, err := y.Dumper.Dump(ctx, youtube.WatchURL(videoID))
	if err != nil {
		return "", err
	}

	track, ok := pickSubtitleTrack(info, lang)
	if !ok {
		return "", fmt.Errorf("%w for language %s", ErrNoCaptions, lang)
	}

	body, err := fetchBody(ctx, y.Client, track.URL)
	if err != nil {
		return "", fmt.Errorf("download %s subtitles: %w", track.Ext, err)
	}
	return CaptionText(body)
}

// infoLanguages lists manual subtitles first, then auto captions. yt-dlp offers an
// auto caption for every translation target, so those are limited to the spoken
// language when it is known.
func infoLanguages(info *scraper.Info) []Language {
	var langs []Language

	for _, code := range sortedKeys(info.Subtitles) {
		if code == "live_chat" {
			continue
		}
		langs = append(langs, Language{Code: code, Name: trackName(info.Subtitles[code]), Kind: KindManual})
	}

	spoken := info.Language
	for _, code := range sortedKeys(info.AutomaticCaptions) {
		if strings.HasSuffix(code, "-orig") {
			continue
		}
		if spoken != "" && baseLanguage(code) != baseLanguage(spoken) {
			continue
		}
		langs = append(langs, Language{Code: code, Kind: KindAuto})
	}

	return langs
}

func pickSubtitleTrack(info *scraper.Info, lang string) (scraper.SubtitleTrack, bool) {
	candidates := [][]scraper.SubtitleTrack{
		info.Subtitles[lang],
		info.AutomaticCaptions[lang],
	}
	if base := baseLanguage(lang); base != lang {
		candidates = append(candidates, info.Subtitles[base], info.AutomaticCaptions[base])
	}

	for _, tracks := range candidates {
		for _, ext := range trackFormats {
			for _, t := range tracks {
				if t.URL != "" && t.Ext == ext {
					return t, true
				}
			}
		}
	}
	return scraper.SubtitleTrack{}, false
}

func trackName(tracks []scraper.SubtitleTrack) string {
	for _, t := range tracks {
		if t.Name != "" {
			return t.Name
		}
	}
	return ""
}

func sortedKeys(m map[string][]scraper.SubtitleTrack) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
