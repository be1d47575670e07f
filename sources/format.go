package sources

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
)

// timedText covers both timedtext XML shapes: <transcript><text> and srv3 <timedtext><body><p>.
type timedText struct {
	Texts []timedTextLine `xml:"text"`
	Body  struct {
		Paragraphs []timedTextPara `xml:"p"`
	} `xml:"body"`
}

type timedTextLine struct {
	Text string `xml:",chardata"`
}

type timedTextPara struct {
	Text     string `xml:",chardata"`
	Segments []struct {
		Text string `xml:",chardata"`
	} `xml:"s"`
}

type json3Doc struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// CaptionText converts a caption document (WebVTT, json3 or timedtext XML) to plain text.
func CaptionText(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf")))
	if len(trimmed) == 0 {
		return "", ErrNoCaptions
	}

	switch {
	case bytes.HasPrefix(trimmed, []byte("WEBVTT")):
		return StripVTT(string(trimmed)), nil
	case trimmed[0] == '{':
		return json3Text(trimmed)
	case trimmed[0] == '<':
		return timedTextXML(trimmed)
	}
	return "", fmt.Errorf("unrecognised caption format")
}

func json3Text(body []byte) (string, error) {
	var doc json3Doc
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("parse json3 captions: %w", err)
	}

	lines := make([]string, 0, len(doc.Events))
	for _, ev := range doc.Events {
		var b strings.Builder
		for _, seg := range ev.Segs {
			b.WriteString(seg.UTF8)
		}
		lines = append(lines, b.String())
	}
	return joinDeduped(lines), nil
}

func timedTextXML(body []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	lines := make([]string, 0, len(tt.Texts)+len(tt.Body.Paragraphs))
	for _, t := range tt.Texts {
		lines = append(lines, t.Text)
	}
	for _, p := range tt.Body.Paragraphs {
		if len(p.Segments) == 0 {
			lines = append(lines, p.Text)
			continue
		}
		var b strings.Builder
		for _, s := range p.Segments {
			b.WriteString(s.Text)
		}
		lines = append(lines, b.String())
	}
	return joinDeduped(lines), nil
}
