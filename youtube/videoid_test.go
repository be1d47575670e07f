package youtube

import (
	"errors"
	"testing"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"bare id with whitespace", "  dQw4w9WgXcQ \n", "dQw4w9WgXcQ"},
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch with timestamp", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"watch with playlist", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short link with time", "https://youtu.be/dQw4w9WgXcQ?t=10", "dQw4w9WgXcQ"},
		{"live", "https://www.youtube.com/live/Fw4rI_ljIzc", "Fw4rI_ljIzc"},
		{"live with query", "https://www.youtube.com/live/Fw4rI_ljIzc?si=abc", "Fw4rI_ljIzc"},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ?start=30", "dQw4w9WgXcQ"},
		{"shorts", "https://youtube.com/shorts/abcdefghijk", "abcdefghijk"},
		{"mobile", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"gaming", "https://gaming.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"uppercase host", "HTTPS://WWW.YOUTUBE.COM/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"no scheme", "youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"unknown youtube shape", "https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"unknown shape with trailing id chars", "https://www.youtube.com/v/dQw4w9WgXcQextra", "dQw4w9WgXcQ"},
		{"not youtube", "https://example.com/video", "https://example.com/video"},
		{"garbage", "  hello  ", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractVideoID(tt.input); got != tt.want {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsValidVideoID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"dQw4w9WgXcQ", true},
		{"Fw4rI_ljIzc", true},
		{"a-b_c-d_e-f", true},
		{"short", false},
		{"dQw4w9WgXcQQ", false},
		{"dQw4w9WgXc!", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidVideoID(tt.id); got != tt.want {
			t.Errorf("IsValidVideoID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestParseVideoID(t *testing.T) {
	if id, err := ParseVideoID("https://youtu.be/dQw4w9WgXcQ"); err != nil || id != "dQw4w9WgXcQ" {
		t.Errorf("ParseVideoID() = %q, %v", id, err)
	}
	if _, err := ParseVideoID("https://example.com"); !errors.Is(err, ErrInvalidVideoID) {
		t.Errorf("expected ErrInvalidVideoID, got %v", err)
	}
}

func TestWatchURL(t *testing.T) {
	if got := WatchURL("dQw4w9WgXcQ"); got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("unexpected watch URL %q", got)
	}
}
