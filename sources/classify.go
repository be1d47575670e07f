package sources

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

type FailureKind string

const (
	FailureUnknown     FailureKind = "unknown"
	FailureBot         FailureKind = "bot"
	FailureForbidden   FailureKind = "forbidden"
	FailurePrivate     FailureKind = "private"
	FailureUnavailable FailureKind = "unavailable"
	FailureRateLimited FailureKind = "rate_limited"
	FailureNoCaptions  FailureKind = "no_captions"
)

var botWordRe = regexp.MustCompile(`\bbots?\b`)

// Classify maps an extractor error to a coarse failure kind by its message.
// YouTube and yt-dlp expose no stable error codes, so text is all there is.
func Classify(err error) FailureKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNoCaptions) {
		return FailureNoCaptions
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "sign in to confirm"), botWordRe.MatchString(msg),
		strings.Contains(msg, "g-recaptcha"):
		return FailureBot
	case strings.Contains(msg, "429"), strings.Contains(msg, "too many requests"):
		return FailureRateLimited
	case strings.Contains(msg, "403"), strings.Contains(msg, "forbidden"):
		return FailureForbidden
	case strings.Contains(msg, "private video"), strings.Contains(msg, "is private"):
		return FailurePrivate
	case strings.Contains(msg, "unavailable"), strings.Contains(msg, "not available"),
		strings.Contains(msg, "removed"):
		return FailureUnavailable
	case strings.Contains(msg, "no captions"), strings.Contains(msg, "no subtitles"),
		strings.Contains(msg, "transcript is disabled"):
		return FailureNoCaptions
	}
	return FailureUnknown
}

// Dominant picks the most telling failure across attempts. Blocking failures
// outrank an empty caption list since they explain it.
func Dominant(attempts []Attempt) FailureKind {
	rank := map[FailureKind]int{
		FailureBot:         6,
		FailurePrivate:     5,
		FailureUnavailable: 4,
		FailureForbidden:   3,
		FailureRateLimited: 2,
		FailureNoCaptions:  1,
	}

	best := FailureUnknown
	for _, a := range attempts {
		if rank[a.Failure] > rank[best] {
			best = a.Failure
		}
	}
	return best
}

// Guidance returns a hint for the user. browser is the configured cookie
// browser, or "" when no cookies were used.
func Guidance(kind FailureKind, browser string) string {
	switch kind {
	case FailurePrivate:
		return "This video is private and cannot be accessed."
	case FailureUnavailable:
		return "This video is unavailable. It may have been removed or is blocked in your region."
	case FailureNoCaptions:
		return "No captions were found for this video. Try another language or video."
	}

	if browser == "" {
		switch kind {
		case FailureBot, FailureForbidden:
			return "YouTube is blocking automated requests. Try enabling browser cookies (chrome or firefox) after signing in to YouTube in that browser."
		case FailureRateLimited:
			return "YouTube is rate limiting requests. Wait a few minutes, configure a proxy, or enable browser cookies."
		}
		return "Try enabling browser cookies or configuring a proxy."
	}

	switch kind {
	case FailureBot, FailureForbidden, FailureRateLimited:
		return fmt.Sprintf(
			"Current cookies from %s may be expired. Visit YouTube in %s, sign in again, then retry.",
			browser, browser,
		)
	}
	return fmt.Sprintf("Cookies from %s were used but did not help. Try another browser or a proxy.", browser)
}
