package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "deepledit.log")

	logger, closer, err := New("production", "debug", path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug().Str("component", "test").Msg("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	for _, want := range []string{`"message":"hello"`, `"service":"deepledit"`, `"component":"test"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected log to contain %s, got %s", want, data)
		}
	}
}

func TestNewLevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, closer, err := New("production", "warn", path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")
	closer.Close()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "dropped") || !strings.Contains(string(data), "kept") {
		t.Errorf("Unexpected log content %s", data)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, _, err := New("local", "chatty", ""); err == nil {
		t.Error("Expected error for invalid level")
	}
}
