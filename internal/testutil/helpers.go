package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/snonux/deepledit/internal/provider"
)

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// AssertFileContent checks if a file has the expected content
func AssertFileContent(t *testing.T, path string, expected string) {
	t.Helper()

	actual, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}

	if string(actual) != expected {
		t.Errorf("File content mismatch for %s\nExpected: %q\nActual: %q", path, expected, string(actual))
	}
}

// Languages builds a language list from code/name pairs
func Languages(pairs ...string) []provider.Language {
	languages := make([]provider.Language, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		languages = append(languages, provider.Language{Code: pairs[i], Name: pairs[i+1]})
	}
	return languages
}
