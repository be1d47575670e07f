package scraper

import (
	"time"
)

// Config holds the settings passed through to yt-dlp. Cookie and proxy values
// are opaque to this package.
type Config struct {
	CookiesFromBrowser string        // browser name for --cookies-from-browser, "" or "none" to disable
	CookiesFile        string        // Netscape cookie file for --cookies
	Proxy              string        // --proxy
	SocketTimeout      time.Duration // --socket-timeout
	Retries            int           // --retries
	PlayerClients      []string      // youtube:player_client extractor arg
}

// UsesCookies reports whether either cookie option is set.
func (c Config) UsesCookies() bool {
	return (c.CookiesFromBrowser != "" && c.CookiesFromBrowser != "none") || c.CookiesFile != ""
}

// CookieLabel names the cookie source for user-facing messages.
func (c Config) CookieLabel() string {
	if c.CookiesFromBrowser != "" && c.CookiesFromBrowser != "none" {
		return c.CookiesFromBrowser
	}
	if c.CookiesFile != "" {
		return "cookie file"
	}
	return ""
}

// Info is the subset of yt-dlp's --dump-json output this module reads.
type Info struct {
	ID                string                     `json:"id"`
	Title             string                     `json:"title"`
	Language          string                     `json:"language"`
	Duration          float64                    `json:"duration"`
	Uploader          string                     `json:"uploader"`
	Subtitles         map[string][]SubtitleTrack `json:"subtitles"`
	AutomaticCaptions map[string][]SubtitleTrack `json:"automatic_captions"`
	Formats           []Format                   `json:"formats"`
}

type SubtitleTrack struct {
	Ext  string `json:"ext"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

type Format struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	FormatNote     string  `json:"format_note"`
	Resolution     string  `json:"resolution"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	FPS            float64 `json:"fps"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	TBR            float64 `json:"tbr"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
}

// Size returns the exact size when known, else the approximation.
func (f Format) Size() int64 {
	if f.Filesize > 0 {
		return f.Filesize
	}
	return f.FilesizeApprox
}

func (f Format) HasVideo() bool { return f.VCodec != "" && f.VCodec != "none" }
func (f Format) HasAudio() bool { return f.ACodec != "" && f.ACodec != "none" }

// DownloadOptions selects what yt-dlp writes to disk.
type DownloadOptions struct {
	Format         string // -f selector
	OutputTemplate string // -o template, may contain yt-dlp fields
	PlayerClients  []string
}
