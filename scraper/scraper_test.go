package scraper

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInfo = `{"id":"dQw4w9WgXcQ","title":"Sample","language":"en","duration":212,` +
	`"subtitles":{"de":[{"ext":"vtt","url":"https://example.test/de.vtt","name":"German"}]},` +
	`"automatic_captions":{"en":[{"ext":"json3","url":"https://example.test/en.json3"},{"ext":"vtt","url":"https://example.test/en.vtt"}]},` +
	`"formats":[{"format_id":"18","ext":"mp4","height":360,"vcodec":"avc1","acodec":"mp4a","filesize":1048576},` +
	`{"format_id":"140","ext":"m4a","vcodec":"none","acodec":"mp4a","filesize_approx":2048}]}`

func TestParseInfo(t *testing.T) {
	stdout := "[youtube] dQw4w9WgXcQ: Downloading webpage\n" + sampleInfo + "\n"

	info, err := ParseInfo(stdout)
	require.NoError(t, err)

	assert.Equal(t, "dQw4w9WgXcQ", info.ID)
	assert.Equal(t, "en", info.Language)
	assert.Len(t, info.Subtitles["de"], 1)
	assert.Len(t, info.AutomaticCaptions["en"], 2)
	require.Len(t, info.Formats, 2)

	assert.True(t, info.Formats[0].HasVideo())
	assert.True(t, info.Formats[0].HasAudio())
	assert.EqualValues(t, 1048576, info.Formats[0].Size())
	assert.False(t, info.Formats[1].HasVideo())
	assert.EqualValues(t, 2048, info.Formats[1].Size())
}

func TestParseInfo_NoJSON(t *testing.T) {
	_, err := ParseInfo("ERROR: something broke")
	assert.Error(t, err)
}

func TestToolError(t *testing.T) {
	stderr := strings.Join([]string{
		"WARNING: [youtube] falling back",
		"ERROR: [youtube] dQw4w9WgXcQ: Sign in to confirm you're not a bot",
		"",
	}, "\n")

	cause := errors.New("exit status 1")
	err := newToolError("scraper.Dump", cause, stderr)

	assert.Contains(t, err.Error(), "Sign in to confirm")
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "last line", lastErrorLine("first\nlast line\n"))
	assert.Equal(t, "", lastErrorLine(""))
}

func TestConfigCookies(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		uses  bool
		label string
	}{
		{"none", Config{CookiesFromBrowser: "none"}, false, ""},
		{"browser", Config{CookiesFromBrowser: "firefox"}, true, "firefox"},
		{"file", Config{CookiesFile: "/tmp/cookies.txt"}, true, "cookie file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.uses, tt.cfg.UsesCookies())
			assert.Equal(t, tt.label, tt.cfg.CookieLabel())
		})
	}
}

func TestRunnerWithConfig(t *testing.T) {
	plain := NewRunner(Config{Proxy: "http://p:8080"}, nil)
	cookies := plain.WithConfig(Config{Proxy: "http://p:8080", CookiesFile: "cookies.txt"})

	assert.False(t, plain.Config().UsesCookies())
	assert.True(t, cookies.Config().UsesCookies())
	assert.Same(t, plain.logger, cookies.logger)
}
