// Package config holds the process configuration read from the
// environment. User settings live in the settings package instead.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Prefix is prepended to every variable name, e.g. DEEPLEDIT_LOG_LEVEL
const Prefix = "DEEPLEDIT"

const appDirName = "deepledit"

// Config is the runtime configuration. The API key is read from the
// variable the DeepL tooling uses, DEEPL_AUTH_KEY.
type Config struct {
	Environment string `envconfig:"DEEPLEDIT_ENVIRONMENT" default:"production"`
	LogLevel    string `envconfig:"DEEPLEDIT_LOG_LEVEL" default:"info"`
	LogFile     string `envconfig:"DEEPLEDIT_LOG_FILE"`

	Provider       string        `envconfig:"DEEPLEDIT_PROVIDER" default:"deepl"`
	APIKey         string        `envconfig:"DEEPL_AUTH_KEY"`
	DeepLServerURL string        `envconfig:"DEEPLEDIT_DEEPL_SERVER_URL"`
	HTTPTimeout    time.Duration `envconfig:"DEEPLEDIT_HTTP_TIMEOUT" default:"30s"`
	OpenAIModel    string        `envconfig:"DEEPLEDIT_OPENAI_MODEL"`
	OpenAIBaseURL  string        `envconfig:"DEEPLEDIT_OPENAI_BASE_URL"`
	GeminiModel    string        `envconfig:"DEEPLEDIT_GEMINI_MODEL"`

	ServeAddr string `envconfig:"DEEPLEDIT_SERVE_ADDR" default:"127.0.0.1:8765"`
	Workspace string `envconfig:"DEEPLEDIT_WORKSPACE"`

	StateDir  string `envconfig:"DEEPLEDIT_STATE_DIR"`
	ConfigDir string `envconfig:"DEEPLEDIT_CONFIG_DIR"`
	DataDir   string `envconfig:"DEEPLEDIT_DATA_DIR"`
}

// Load reads the configuration from the environment and fills in the
// directory defaults
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.resolveDirs(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Provider) == "" {
		return fmt.Errorf("%s_PROVIDER is required", Prefix)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%s_HTTP_TIMEOUT must be > 0", Prefix)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel))); err != nil {
		return fmt.Errorf("%s_LOG_LEVEL=%q: %w", Prefix, c.LogLevel, err)
	}
	if strings.TrimSpace(c.ServeAddr) == "" {
		return fmt.Errorf("%s_SERVE_ADDR is required", Prefix)
	}
	return nil
}

func (c *Config) resolveDirs() error {
	var err error
	if c.StateDir == "" {
		if c.StateDir, err = xdgDir("XDG_STATE_HOME", ".local", "state"); err != nil {
			return err
		}
	}
	if c.ConfigDir == "" {
		if c.ConfigDir, err = xdgDir("XDG_CONFIG_HOME", ".config"); err != nil {
			return err
		}
	}
	if c.DataDir == "" {
		if c.DataDir, err = xdgDir("XDG_DATA_HOME", ".local", "share"); err != nil {
			return err
		}
	}
	if c.Workspace == "" {
		if c.Workspace, err = os.Getwd(); err != nil {
			return fmt.Errorf("determine workspace: %w", err)
		}
	}
	if abs, err := filepath.Abs(c.Workspace); err == nil {
		c.Workspace = abs
	}
	return nil
}

func xdgDir(env string, homeParts ...string) (string, error) {
	if dir := strings.TrimSpace(os.Getenv(env)); dir != "" {
		return filepath.Join(dir, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	parts := append([]string{home}, homeParts...)
	return filepath.Join(append(parts, appDirName)...), nil
}

// LogPath returns the log file path
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.StateDir, appDirName+".log")
}

// SettingsPath returns the user settings file
func (c *Config) SettingsPath() string {
	return filepath.Join(c.ConfigDir, "settings.yaml")
}

// SecretsPath returns the secret store file
func (c *Config) SecretsPath() string {
	return filepath.Join(c.DataDir, "secrets.json")
}

// WorkspaceDBPath returns the workspace state database
func (c *Config) WorkspaceDBPath() string {
	return filepath.Join(c.StateDir, "workspace.db")
}

// IsLocal reports whether the process runs in a developer environment
func (c *Config) IsLocal() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "local")
}

// LoadEnvFile loads a .env file into the environment. DEEPLEDIT_ENV_FILE
// overrides path. A missing default file is not an error; the returned
// path is empty then.
func LoadEnvFile(path string) (string, error) {
	if custom := strings.TrimSpace(os.Getenv(Prefix + "_ENV_FILE")); custom != "" {
		if err := godotenv.Load(custom); err != nil {
			return "", fmt.Errorf("load %s: %w", custom, err)
		}
		return custom, nil
	}

	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("load %s: %w", path, err)
	}
	return path, nil
}
