package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()

	log, err := NewLogger(Options{Dir: dir, Level: "debug", JSON: true})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %s", log.GetLevel())
	}

	log.Info("hello")

	if _, err := os.Stat(filepath.Join(dir, "app.log")); err != nil {
		t.Errorf("expected app.log to exist: %v", err)
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(Options{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
}
