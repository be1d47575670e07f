package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	kkdai "github.com/kkdai/youtube/v2"
)

var errPoToken = errors.New("caption tracks require a PO token")

// PlayerClient loads the player response of a video. *kkdai.Client satisfies it.
type PlayerClient interface {
	GetVideoContext(ctx context.Context, url string) (*kkdai.Video, error)
}

// Captions reads the caption tracks advertised in the player response and
// downloads them from the timedtext endpoint.
type Captions struct {
	Label  string
	Player PlayerClient
	Client *http.Client
	Proxy  string
}

// NewCaptions builds a captions source whose player and timedtext requests share client.
func NewCaptions(client *http.Client, proxy string) *Captions {
	label := "captions"
	shown := shownProxy(proxy)
	if shown != "" {
		label = "captions@" + shown
	}
	return &Captions{
		Label:  label,
		Player: &kkdai.Client{HTTPClient: client},
		Client: client,
		Proxy:  shown,
	}
}

func (c *Captions) Name() string { return c.Label }

func (c *Captions) Descriptor() (string, bool) { return c.Proxy, false }

func (c *Captions) ListLanguages(ctx context.Context, videoID string) ([]Language, error) {
	video, err := c.Player.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, err
	}

	// only tracks FetchTranscript can read, manual before asr
	var manual, auto []Language
	for _, t := range video.CaptionTracks {
		if t.BaseURL == "" || needsPoToken(t.BaseURL) {
			continue
		}
		l := Language{Code: t.LanguageCode, Kind: trackKind(t)}
		if l.Kind == KindAuto {
			auto = append(auto, l)
		} else {
			manual = append(manual, l)
		}
	}
	return append(manual, auto...), nil
}

func (c *Captions) FetchTranscript(ctx context.Context, videoID, lang string) (string, error) {
	video, err := c.Player.GetVideoContext(ctx, videoID)
	if err != nil {
		return "", err
	}
	if len(video.CaptionTracks) == 0 {
		return "", ErrNoCaptions
	}

	track, err := pickCaptionTrack(video.CaptionTracks, lang)
	if err != nil {
		return "", err
	}

	body, err := fetchBody(ctx, c.Client, track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	return CaptionText(body)
}

func trackKind(t kkdai.CaptionTrack) Kind {
	if t.Kind == "asr" {
		return KindAuto
	}
	return KindManual
}

func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickCaptionTrack prefers a manual track over asr, and an exact code over its base language.
func pickCaptionTrack(tracks []kkdai.CaptionTrack, lang string) (kkdai.CaptionTrack, error) {
	usable := make([]kkdai.CaptionTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.BaseURL != "" && !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return kkdai.CaptionTrack{}, errPoToken
	}

	match := func(code string, want Kind) (kkdai.CaptionTrack, bool) {
		for _, t := range usable {
			if t.LanguageCode == code && trackKind(t) == want {
				return t, true
			}
		}
		return kkdai.CaptionTrack{}, false
	}

	codes := []string{lang}
	if base := baseLanguage(lang); base != lang {
		codes = append(codes, base)
	}
	for _, code := range codes {
		for _, kind := range []Kind{KindManual, KindAuto} {
			if t, ok := match(code, kind); ok {
				return t, nil
			}
		}
	}

	return kkdai.CaptionTrack{}, fmt.Errorf("%w for language %s", ErrNoCaptions, lang)
}

// shownProxy is the proxy as reported in attempts and logs.
func shownProxy(proxy string) string {
	if proxy == "" {
		return ""
	}
	return RedactProxy(proxy)
}

// RedactProxy hides proxy credentials for logs and diagnostics.
func RedactProxy(proxy string) string {
	u, err := url.Parse(proxy)
	if err != nil {
		return "invalid-proxy"
	}
	return u.Redacted()
}
