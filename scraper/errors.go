package scraper

import (
	"fmt"
	"strings"
)

// ToolError wraps a failed yt-dlp invocation with the tail of its stderr.
type ToolError struct {
	Op      string
	Err     error
	Message string
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func newToolError(op string, err error, stderr string) *ToolError {
	msg := lastErrorLine(stderr)
	if msg == "" {
		msg = "yt-dlp failed"
	}
	return &ToolError{
		Op:      op,
		Err:     err,
		Message: msg,
	}
}

// lastErrorLine prefers yt-dlp's "ERROR:" line, falling back to the last non-empty line.
func lastErrorLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); strings.HasPrefix(line, "ERROR:") {
			return line
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
