package models

import (
	"time"
)

// Transcript is a cached caption transcript for one video and language.
type Transcript struct {
	VideoID   string    `json:"video_id"`
	Language  string    `json:"language"`
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsStale reports whether the cached transcript is older than ttl. A zero ttl never expires.
func (t *Transcript) IsStale(ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return time.Since(t.UpdatedAt) > ttl
}

// CaptionLanguage is one caption track language offered for a video.
type CaptionLanguage struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// LanguageList is the cached set of caption languages for a video.
type LanguageList struct {
	VideoID   string            `json:"video_id"`
	Languages []CaptionLanguage `json:"languages"`
	Source    string            `json:"source"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (l *LanguageList) IsStale(ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return time.Since(l.UpdatedAt) > ttl
}

type Summary struct {
	VideoID   string    `json:"video_id"`
	Language  string    `json:"language"`
	Model     string    `json:"model"`
	Text      string    `json:"text"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
}

type Quiz struct {
	ID           string    `json:"id"`
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title,omitempty"`
	Language     string    `json:"language"`
	Grade        string    `json:"grade"`
	NumQuestions int       `json:"num_questions"`
	Model        string    `json:"model"`
	Content      string    `json:"content"`
	Revision     int       `json:"revision"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// QuizRevision is one stored version of a quiz. Revision 1 is the generated
// quiz; later revisions record the instructions that produced them.
type QuizRevision struct {
	QuizID       string    `json:"quiz_id"`
	Revision     int       `json:"revision"`
	Instructions string    `json:"instructions,omitempty"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}
