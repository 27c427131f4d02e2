package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, Prefix+"_") || name == "DEEPL_AUTH_KEY" {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, "state"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Provider != "deepl" {
		t.Errorf("Expected provider deepl, got %q", cfg.Provider)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.HTTPTimeout)
	}
	if cfg.IsLocal() {
		t.Error("Expected production environment by default")
	}
	if want := filepath.Join(home, "config", "deepledit", "settings.yaml"); cfg.SettingsPath() != want {
		t.Errorf("Expected settings path %q, got %q", want, cfg.SettingsPath())
	}
	if want := filepath.Join(home, "data", "deepledit", "secrets.json"); cfg.SecretsPath() != want {
		t.Errorf("Expected secrets path %q, got %q", want, cfg.SecretsPath())
	}
	if want := filepath.Join(home, "state", "deepledit", "deepledit.log"); cfg.LogPath() != want {
		t.Errorf("Expected log path %q, got %q", want, cfg.LogPath())
	}
	if !filepath.IsAbs(cfg.Workspace) {
		t.Errorf("Expected absolute workspace, got %q", cfg.Workspace)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEEPLEDIT_PROVIDER", "openai")
	t.Setenv("DEEPLEDIT_HTTP_TIMEOUT", "5s")
	t.Setenv("DEEPLEDIT_ENVIRONMENT", "local")
	t.Setenv("DEEPL_AUTH_KEY", "abc:fx")
	t.Setenv("DEEPLEDIT_STATE_DIR", t.TempDir())
	t.Setenv("DEEPLEDIT_CONFIG_DIR", t.TempDir())
	t.Setenv("DEEPLEDIT_DATA_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider != "openai" || cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.APIKey != "abc:fx" {
		t.Errorf("Expected DEEPL_AUTH_KEY to be read, got %q", cfg.APIKey)
	}
	if !cfg.IsLocal() {
		t.Error("Expected local environment")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no provider", func(c *Config) { c.Provider = " " }, true},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"no addr", func(c *Config) { c.ServeAddr = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Provider: "deepl", HTTPTimeout: time.Second, LogLevel: "debug", ServeAddr: ":0"}
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("DEEPLEDIT_GEMINI_MODEL=gemini-test\n"), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Setenv("DEEPLEDIT_GEMINI_MODEL", "")
	os.Unsetenv("DEEPLEDIT_GEMINI_MODEL")

	loaded, err := LoadEnvFile(path)
	if err != nil {
		t.Fatalf("LoadEnvFile failed: %v", err)
	}
	if loaded != path {
		t.Errorf("Expected %q, got %q", path, loaded)
	}
	if got := os.Getenv("DEEPLEDIT_GEMINI_MODEL"); got != "gemini-test" {
		t.Errorf("Expected variable from file, got %q", got)
	}

	if _, err := LoadEnvFile(filepath.Join(dir, "missing.env")); err == nil {
		t.Error("Expected error for missing explicit file")
	}
}

func TestLoadEnvFileMissingDefault(t *testing.T) {
	clearEnv(t)
	wd, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(wd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}

	loaded, err := LoadEnvFile("")
	if err != nil || loaded != "" {
		t.Errorf("Expected missing default .env to be ignored, got %q, %v", loaded, err)
	}
}
