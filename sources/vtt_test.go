package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVTT = `WEBVTT
Kind: captions
Language: en

00:00:00.000 --> 00:00:02.000
Hello <b>world</b>

00:00:02.000 --> 00:00:04.000
Hello world
how are you

00:00:04.000 --> 00:00:06.000
fish &amp; chips
`

func TestStripVTT(t *testing.T) {
	assert.Equal(t, "Hello world\nhow are you\nfish & chips", StripVTT(sampleVTT))
}

// yt-dlp auto captions: each cue repeats the previous line, word timings sit
// between <c> spans, and the 10ms transition cues carry a whitespace-only line.
const autoCaptionVTT = "WEBVTT\nKind: captions\nLanguage: en\n\n" +
	"00:00:00.160 --> 00:00:02.070 align:start position:0%\n \n" +
	"hello<00:00:00.640><c> everyone</c><00:00:01.000><c> welcome</c>\n\n" +
	"00:00:02.070 --> 00:00:02.080 align:start position:0%\nhello everyone welcome\n \n\n" +
	"00:00:02.080 --> 00:00:04.000 align:start position:0%\nhello everyone welcome\n" +
	"to<00:00:02.500><c> the</c><00:00:03.000><c> channel</c>\n\n" +
	"00:00:04.000 --> 00:00:04.010 align:start position:0%\nto the channel\n \n\n" +
	"00:00:04.010 --> 00:00:06.000 align:start position:0%\nto the channel\n" +
	"let's<00:00:04.500><c> start</c>\n"

func TestStripVTT_AutoCaptions(t *testing.T) {
	assert.Equal(t, "hello everyone welcome\nto the channel\nlet's start", StripVTT(autoCaptionVTT))
}

func TestStripVTT_Empty(t *testing.T) {
	assert.Equal(t, "", StripVTT("  \n"))
}

func TestFilterVTTLines(t *testing.T) {
	raw := "WEBVTT\r\nKind: captions\r\n\r\n1\r\n00:00.000 --> 00:02.000 align:start\r\nfirst line\r\n\r\nNOTE a comment\r\n2\r\n00:00:02.000 --> 00:00:04.000\r\nsecond line\r\n"

	assert.Equal(t, []string{"first line", "second line"}, filterVTTLines(raw))
}

func TestCaptionText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "vtt",
			body: sampleVTT,
			want: "Hello world\nhow are you\nfish & chips",
		},
		{
			name: "json3",
			body: `{"events":[{"segs":[{"utf8":"hello "},{"utf8":"there"}]},{"segs":[{"utf8":"\n"}]},{"segs":[{"utf8":"general kenobi"}]}]}`,
			want: "hello there\ngeneral kenobi",
		},
		{
			name: "timedtext",
			body: `<?xml version="1.0" encoding="utf-8" ?><transcript><text start="0" dur="1.5">it&amp;#39;s here</text><text start="1.5" dur="2">second</text></transcript>`,
			want: "it's here\nsecond",
		},
		{
			name: "srv3",
			body: `<timedtext format="3"><body><p t="0" d="1000">plain para</p><p t="1000" d="1000"><s>seg</s><s> two</s></p></body></timedtext>`,
			want: "plain para\nseg two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CaptionText([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCaptionText_Errors(t *testing.T) {
	_, err := CaptionText([]byte("   "))
	assert.ErrorIs(t, err, ErrNoCaptions)

	_, err = CaptionText([]byte("plain words"))
	assert.Error(t, err)
}
