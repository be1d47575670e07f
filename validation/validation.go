package validation

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/nijaru/yt-quiz/config"
	"github.com/nijaru/yt-quiz/errors"
	"github.com/nijaru/yt-quiz/youtube"
	"golang.org/x/text/language"
)

const (
	MaxInstructionLength = 2000
	MaxGradeLength       = 32
)

type Validator struct {
	config *config.Config
}

func NewValidator(cfg *config.Config) *Validator {
	return &Validator{config: cfg}
}

// ValidateVideo accepts a YouTube URL or a bare video ID and returns the ID.
func (v *Validator) ValidateVideo(input string) (string, error) {
	const op = "Validator.ValidateVideo"

	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.InvalidInput(op, nil, "URL or video ID is required")
	}

	if youtube.IsValidVideoID(input) {
		return input, nil
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", errors.InvalidInput(op, err, "Invalid URL format")
	}

	// Scheme-less links such as youtu.be/<id> are common in pasted input
	if parsedURL.Scheme != "" && parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", errors.InvalidInput(op, nil, "URL must use HTTP or HTTPS")
	}

	lower := strings.ToLower(input)
	if !strings.Contains(lower, "youtube.com") && !strings.Contains(lower, "youtu.be") {
		return "", errors.InvalidInput(op, nil, "Only YouTube URLs are supported")
	}

	id, err := youtube.ParseVideoID(input)
	if err != nil {
		return "", errors.InvalidInput(op, err, "URL does not contain a valid video ID")
	}
	return id, nil
}

// ValidateLanguage checks that code is a well-formed BCP 47 tag. Empty is allowed.
func (v *Validator) ValidateLanguage(code string) error {
	const op = "Validator.ValidateLanguage"

	if code == "" {
		return nil
	}
	// yt-dlp uses suffixed codes such as en-orig
	base, _, _ := strings.Cut(code, "-orig")
	if _, err := language.Parse(base); err != nil {
		return errors.InvalidInput(op, err, fmt.Sprintf("Invalid language code %q", code))
	}
	return nil
}

func (v *Validator) ValidateQuiz(numQuestions int, grade string) error {
	const op = "Validator.ValidateQuiz"

	min, max := 1, 20
	if v.config != nil && v.config.Quiz.MaxQuestions > 0 {
		min, max = v.config.Quiz.MinQuestions, v.config.Quiz.MaxQuestions
	}
	if numQuestions != 0 && (numQuestions < min || numQuestions > max) {
		return errors.InvalidInput(op, nil, fmt.Sprintf("Number of questions must be between %d and %d", min, max))
	}
	if utf8.RuneCountInString(grade) > MaxGradeLength {
		return errors.InvalidInput(op, nil, "Grade is too long")
	}
	return nil
}

func (v *Validator) ValidateInstructions(instructions string) error {
	const op = "Validator.ValidateInstructions"

	instructions = strings.TrimSpace(instructions)
	if instructions == "" {
		return errors.InvalidInput(op, nil, "Instructions are required")
	}
	if utf8.RuneCountInString(instructions) > MaxInstructionLength {
		return errors.InvalidInput(op, nil, fmt.Sprintf("Instructions must be at most %d characters", MaxInstructionLength))
	}
	return nil
}

// RequestValidationOpts holds options for request validation
type RequestValidationOpts struct {
	MaxContentLength int64
	AllowedMethods   []string
	RequireJSON      bool
}

// ValidateRequest validates HTTP requests
func (v *Validator) ValidateRequest(r *http.Request, opts RequestValidationOpts) error {
	const op = "Validator.ValidateRequest"

	if len(opts.AllowedMethods) > 0 {
		methodAllowed := false
		for _, method := range opts.AllowedMethods {
			if r.Method == method {
				methodAllowed = true
				break
			}
		}
		if !methodAllowed {
			return errors.InvalidInput(op, nil, fmt.Sprintf("Method %s not allowed", r.Method))
		}
	}

	if opts.RequireJSON {
		if contentType := r.Header.Get("Content-Type"); !strings.Contains(contentType, "application/json") {
			return errors.InvalidInput(op, nil, "Content-Type must be application/json")
		}
	}

	if opts.MaxContentLength > 0 && r.ContentLength > opts.MaxContentLength {
		return errors.InvalidInput(op, nil, "Request body too large")
	}

	return nil
}
