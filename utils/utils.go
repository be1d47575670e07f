package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// MaxTitleLength bounds titles used in file names.
const MaxTitleLength = 50

var (
	unsafeTitleChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	unsafePathChars  = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// HandleError writes a bare error envelope. Handlers use the api package
// responders; this is for middleware that runs before them.
func HandleError(w http.ResponseWriter, requestID, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := map[string]interface{}{
		"success":   false,
		"error":     message,
		"timestamp": time.Now().UTC(),
	}
	if requestID != "" {
		resp["request_id"] = requestID
	}
	json.NewEncoder(w).Encode(resp)
}

// SanitizeTitle strips characters that are invalid in file names, collapses
// whitespace, and truncates to MaxTitleLength runes.
func SanitizeTitle(title string) string {
	safe := unsafeTitleChars.ReplaceAllString(title, "")
	safe = strings.TrimSpace(whitespace.ReplaceAllString(safe, " "))
	return strings.TrimRight(truncate(safe, MaxTitleLength), " ")
}

// SanitizeFilename builds a portable base name from a video title. Only ASCII
// letters, digits and -_.() and space survive. An empty result falls back to
// video_<first 8 characters of id>.
func SanitizeFilename(title, id string) string {
	var b strings.Builder
	for _, c := range title {
		if isFilenameChar(c) {
			b.WriteRune(c)
		}
	}

	clean := truncate(strings.TrimSpace(b.String()), MaxTitleLength)
	if clean == "" {
		clean = "video_" + truncate(id, 8)
	}
	return unsafePathChars.ReplaceAllString(clean, "_")
}

// OutputName is the download file name: <safe title>_<quality>.<ext>.
func OutputName(title, id, quality, ext string) string {
	name := SanitizeFilename(title, id)
	if quality != "" {
		name += "_" + SanitizeFilename(quality, "q")
	}
	if ext == "" {
		return name
	}
	return fmt.Sprintf("%s.%s", name, strings.TrimPrefix(ext, "."))
}

func isFilenameChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.ContainsRune("-_.() ", c)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
