// Package youtube normalizes user input into YouTube video identifiers.
package youtube

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidVideoID = errors.New("invalid YouTube video ID")

var (
	bareIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

	// Order matters: the first matching URL shape wins.
	urlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)youtube\.com/watch\?v=([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`(?i)youtu\.be/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`(?i)youtube\.com/live/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`(?i)youtube\.com/embed/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`(?i)youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`(?i)m\.youtube\.com/watch\?v=([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`(?i)gaming\.youtube\.com/watch\?v=([A-Za-z0-9_-]{11})`),
	}

	// Last resort for youtube links in shapes we don't know, e.g. watch?feature=x&v=ID.
	// The first 11-character run wins even when more ID characters follow.
	looseIDPattern = regexp.MustCompile(`[/=?]([A-Za-z0-9_-]{11})`)
)

// ExtractVideoID returns the 11-character video ID found in input. Input that is
// neither an ID nor a recognised URL is returned trimmed but otherwise unchanged.
func ExtractVideoID(input string) string {
	input = strings.TrimSpace(input)
	if bareIDPattern.MatchString(input) {
		return input
	}

	for _, p := range urlPatterns {
		if m := p.FindStringSubmatch(input); m != nil {
			return m[1]
		}
	}

	lower := strings.ToLower(input)
	if strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be") {
		if m := looseIDPattern.FindStringSubmatch(input); m != nil {
			return m[1]
		}
	}

	return input
}

func IsValidVideoID(id string) bool {
	return bareIDPattern.MatchString(id)
}

// ParseVideoID extracts and validates in one step.
func ParseVideoID(input string) (string, error) {
	id := ExtractVideoID(input)
	if !IsValidVideoID(id) {
		return "", ErrInvalidVideoID
	}
	return id, nil
}

func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
