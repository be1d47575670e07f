package sources

import (
	"html"
	"regexp"
	"strings"

	"github.com/asticode/go-astisub"
)

var (
	vttTimingRe   = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?\.\d{3}\s*-->`)
	vttMetadataRe = regexp.MustCompile(`^(WEBVTT|Kind:|Language:|NOTE|STYLE|REGION)`)
	vttCueIDRe    = regexp.MustCompile(`^\d+$`)
	inlineTagRe   = regexp.MustCompile(`<[^>]*>`)
)

// StripVTT reduces a WebVTT document to its spoken text, one line per caption
// line. Rolling auto-captions repeat each line in the following cue; consecutive
// duplicates are collapsed.
func StripVTT(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	lines, err := vttLines(raw)
	if err != nil || len(lines) == 0 {
		lines = filterVTTLines(raw)
	}

	return joinDeduped(lines)
}

func vttLines(raw string) ([]string, error) {
	subs, err := astisub.ReadFromWebVTT(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, item := range subs.Items {
		for _, line := range item.Lines {
			// astisub trims each item, so "<c> word</c>" loses its leading space
			parts := make([]string, 0, len(line.Items))
			for _, li := range line.Items {
				parts = append(parts, li.Text)
			}
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	return lines, nil
}

// filterVTTLines is the plain string filter used when the parser rejects a file.
func filterVTTLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if line == "" ||
			vttMetadataRe.MatchString(line) ||
			vttTimingRe.MatchString(line) ||
			vttCueIDRe.MatchString(line) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func joinDeduped(lines []string) string {
	out := make([]string, 0, len(lines))
	prev := ""
	for _, line := range lines {
		line = cleanCaptionText(line)
		if line == "" || line == prev {
			continue
		}
		out = append(out, line)
		prev = line
	}
	return strings.Join(out, "\n")
}

func cleanCaptionText(s string) string {
	s = inlineTagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
