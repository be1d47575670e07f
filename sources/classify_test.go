package sources

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nijaru/yt-quiz/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want FailureKind
	}{
		{nil, ""},
		{errors.New("ERROR: [youtube] x: Sign in to confirm you're not a bot"), FailureBot},
		{errors.New("confirm you are not a bot"), FailureBot},
		{errors.New("Bot detection triggered"), FailureBot},
		{errors.New("fetch robots.txt: connection refused"), FailureUnknown},
		{errors.New("HTTP Error 403: Forbidden"), FailureForbidden},
		{errors.New("HTTP 429 Too Many Requests"), FailureRateLimited},
		{errors.New("ERROR: Private video. Sign in if you've been granted access"), FailurePrivate},
		{errors.New("ERROR: Video unavailable"), FailureUnavailable},
		{fmt.Errorf("wrapped: %w", ErrNoCaptions), FailureNoCaptions},
		{errors.New("connection reset by peer"), FailureUnknown},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestDominant(t *testing.T) {
	attempts := []Attempt{
		{Failure: FailureNoCaptions},
		{Failure: FailureRateLimited},
		{Failure: FailureUnknown},
	}
	assert.Equal(t, FailureRateLimited, Dominant(attempts))
	assert.Equal(t, FailureUnknown, Dominant(nil))
}

func TestGuidance(t *testing.T) {
	assert.Contains(t, Guidance(FailureBot, ""), "enabling browser cookies")
	assert.Contains(t, Guidance(FailureBot, "chrome"), "Current cookies from chrome may be expired")
	assert.Contains(t, Guidance(FailurePrivate, "chrome"), "private")
	assert.Contains(t, Guidance(FailureUnknown, ""), "proxy")
}

func TestMergeLanguages(t *testing.T) {
	in := []Language{
		{Code: "en", Kind: KindAuto},
		{Code: " "},
		{Code: "fr", Name: "Français", Kind: KindManual},
		{Code: "en", Kind: KindManual},
		{Code: "fr", Kind: KindAuto},
		{Code: "xx-invalid-code-!"},
	}

	got := MergeLanguages(in)
	require.Len(t, got, 3)
	assert.Equal(t, Language{Code: "en", Name: "English", Kind: KindManual}, got[0])
	assert.Equal(t, Language{Code: "fr", Name: "Français", Kind: KindManual}, got[1])
	assert.Equal(t, "xx-invalid-code-!", got[2].Name)
}

func TestBaseLanguage(t *testing.T) {
	assert.Equal(t, "en", baseLanguage("en-US"))
	assert.Equal(t, "zh", baseLanguage("zh_Hans"))
	assert.Equal(t, "de", baseLanguage("de"))
}

func TestNewChainFromConfig(t *testing.T) {
	cfg := &config.Config{
		TempDir: t.TempDir(),
		Sources: config.SourcesConfig{
			CookiesFromBrowser: "firefox",
			Proxies:            []string{"http://p1:8080", "http://p2:8080"},
		},
	}

	chain, err := NewChainFromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ytdlp",
		"ytdlp+cookies",
		"subtitle-download",
		"captions",
		"captions@http://p1:8080",
		"captions@http://p2:8080",
	}, chain.Sources())
	assert.Equal(t, "firefox", chain.cookieLabel)
}

func TestNewChainFromConfig_NoCookies(t *testing.T) {
	cfg := &config.Config{TempDir: t.TempDir(), Sources: config.SourcesConfig{CookiesFromBrowser: "none"}}

	chain, err := NewChainFromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ytdlp", "subtitle-download", "captions"}, chain.Sources())
}
