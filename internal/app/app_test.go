package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/deepledit/internal/config"
	"codeberg.org/snonux/deepledit/internal/settings"
	"codeberg.org/snonux/deepledit/internal/state"
	"codeberg.org/snonux/deepledit/internal/testutil"
	"codeberg.org/snonux/deepledit/internal/workspace"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Forbidden"}`, http.StatusForbidden)
	}))
	t.Cleanup(rejecting.Close)

	return &config.Config{
		DeepLServerURL: rejecting.URL,
		Environment:    "test",
		LogLevel:       "debug",
		Provider:       "deepl",
		HTTPTimeout:    time.Second,
		ServeAddr:      "127.0.0.1:0",
		Workspace:      filepath.Join(dir, "project"),
		StateDir:       filepath.Join(dir, "state"),
		ConfigDir:      filepath.Join(dir, "config"),
		DataDir:        filepath.Join(dir, "data"),
	}
}

func TestOpenLoadsPersistedState(t *testing.T) {
	cfg := testConfig(t)
	testutil.CreateTestFile(t, cfg.SettingsPath(), []byte("deepl:\n  apiKey: legacy:fx\n  formality: more\n"))

	store, err := workspace.Open(cfg.WorkspaceDBPath(), cfg.Workspace)
	if err != nil {
		t.Fatalf("Failed to open workspace: %v", err)
	}
	if err := store.Update(workspace.KeyTargetLanguage, "DE"); err != nil {
		t.Fatalf("Failed to seed workspace: %v", err)
	}
	store.Close()

	logger := zerolog.Nop()
	a, err := Open(context.Background(), Options{Config: cfg, Logger: &logger})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	snapshot := a.Container.Snapshot()
	if snapshot.APIKey != "legacy:fx" {
		t.Errorf("Expected migrated key, got %q", snapshot.APIKey)
	}
	if snapshot.TargetLanguage != "DE" {
		t.Errorf("Expected target DE, got %q", snapshot.TargetLanguage)
	}
	if snapshot.Formality != "more" {
		t.Errorf("Expected formality more, got %q", snapshot.Formality)
	}
	if a.RunID == "" {
		t.Error("Expected a run id")
	}

	secret, err := a.Secrets.Get(settings.SecretAPIKey)
	if err != nil || secret != "legacy:fx" {
		t.Errorf("Expected key in secret store, got %q (%v)", secret, err)
	}
	if legacy := a.Settings.Values().LegacyAPIKey; legacy != "" {
		t.Errorf("Expected plain key to be cleared, got %q", legacy)
	}
}

func TestOpenUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	logger := zerolog.Nop()
	if _, err := Open(context.Background(), Options{Config: cfg, Provider: "babelfish", Logger: &logger}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestTargetChangePersistsToWorkspace(t *testing.T) {
	cfg := testConfig(t)
	logger := zerolog.Nop()
	a, err := Open(context.Background(), Options{Config: cfg, Logger: &logger})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	a.Container.Update(func(s *state.State) { s.TargetLanguage = "FR" })

	got, err := a.Workspace.Get(workspace.KeyTargetLanguage)
	if err != nil || got != "FR" {
		t.Errorf("Expected FR persisted, got %q (%v)", got, err)
	}
}
