package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nijaru/yt-quiz/config"
)

func TestValidateVideo(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ", false},
		{"youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://m.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"", "", true},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "", true},
		{"ftp://youtube.com/watch?v=dQw4w9WgXcQ", "", true},
		{"https://www.youtube.com/watch?v=short", "", true},
	}

	for _, tt := range tests {
		got, err := v.ValidateVideo(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateVideo(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateVideo(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateLanguage(t *testing.T) {
	v := NewValidator(nil)

	for _, code := range []string{"", "en", "pt-BR", "zh-Hans", "en-orig"} {
		if err := v.ValidateLanguage(code); err != nil {
			t.Errorf("ValidateLanguage(%q) unexpected error: %v", code, err)
		}
	}
	for _, code := range []string{"not a language", "e"} {
		if err := v.ValidateLanguage(code); err == nil {
			t.Errorf("ValidateLanguage(%q) expected error", code)
		}
	}
}

func TestValidateQuiz(t *testing.T) {
	v := NewValidator(&config.Config{Quiz: config.QuizConfig{MinQuestions: 1, MaxQuestions: 20}})

	tests := []struct {
		n       int
		grade   string
		wantErr bool
	}{
		{0, "", false},
		{1, "10", false},
		{20, "college", false},
		{21, "10", true},
		{-3, "10", true},
		{5, strings.Repeat("x", 40), true},
	}

	for _, tt := range tests {
		err := v.ValidateQuiz(tt.n, tt.grade)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateQuiz(%d, %q) error = %v, wantErr %v", tt.n, tt.grade, err, tt.wantErr)
		}
	}
}

func TestValidateInstructions(t *testing.T) {
	v := NewValidator(nil)

	if err := v.ValidateInstructions("make it harder"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.ValidateInstructions("   "); err == nil {
		t.Error("expected error for blank instructions")
	}
	if err := v.ValidateInstructions(strings.Repeat("a", MaxInstructionLength+1)); err == nil {
		t.Error("expected error for long instructions")
	}
}

func TestValidateRequest(t *testing.T) {
	v := NewValidator(nil)
	opts := RequestValidationOpts{
		MaxContentLength: 10,
		AllowedMethods:   []string{http.MethodPost},
		RequireJSON:      true,
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if err := v.ValidateRequest(req, opts); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if err := v.ValidateRequest(req, opts); err == nil {
		t.Error("expected method error")
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 20)))
	req.Header.Set("Content-Type", "application/json")
	if err := v.ValidateRequest(req, opts); err == nil {
		t.Error("expected size error")
	}
}
