package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"codeberg.org/snonux/deepledit/internal/state"
)

const (
	appDirName     = "deepledit"
	configFileName = "settings.yaml"
)

// Config is the user-global configuration layer
type Config struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
	log  zerolog.Logger
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/deepledit/settings.yaml,
// falling back to ~/.config.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName, configFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("."+appDirName, configFileName)
	}
	return filepath.Join(home, ".config", appDirName, configFileName)
}

// NewConfig opens the configuration file at path. A missing file is not an
// error; every value then resolves to its default.
func NewConfig(path string, logger zerolog.Logger) *Config {
	if path == "" {
		path = DefaultConfigPath()
	}

	c := &Config{
		v:    newViper(path),
		path: path,
		log:  logger.With().Str("component", "settings").Logger(),
	}
	c.Reload()
	return c
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault(KeyFormality, DefaultFormality)
	v.SetDefault(KeySplitSentences, DefaultSplitSentences)
	v.SetDefault(KeyTagHandling, DefaultTagHandling)
	v.SetDefault(KeyPreserveFormatting, DefaultPreserveFormatting)
	v.SetDefault(KeyTranslationMode, string(DefaultTranslationMode))
	return v
}

// Path returns the configuration file location
func (c *Config) Path() string {
	return c.path
}

// Reload re-reads the configuration file. Failures are logged and leave
// the previously loaded values in place.
func (c *Config) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.path); err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn().Err(err).Str("path", c.path).Msg("cannot stat settings file")
		}
		return
	}
	if err := c.v.ReadInConfig(); err != nil {
		c.log.Warn().Err(err).Str("path", c.path).Msg("cannot read settings file, using previous values")
	}
}

// Values returns all settings with defaults resolved
func (c *Config) Values() Values {
	c.mu.Lock()
	defer c.mu.Unlock()

	mode, ok := state.ParseTranslationMode(c.v.GetString(KeyTranslationMode))
	if !ok {
		mode = DefaultTranslationMode
	}

	return Values{
		LegacyAPIKey:          strings.TrimSpace(c.v.GetString(KeyAPIKey)),
		Formality:             stringOr(c.v.GetString(KeyFormality), DefaultFormality),
		IgnoreTags:            c.v.GetString(KeyIgnoreTags),
		TagHandling:           stringOr(c.v.GetString(KeyTagHandling), DefaultTagHandling),
		SplittingTags:         c.v.GetString(KeySplittingTags),
		SplitSentences:        stringOr(c.v.GetString(KeySplitSentences), DefaultSplitSentences),
		NonSplittingTags:      c.v.GetString(KeyNonSplittingTags),
		PreserveFormatting:    c.v.GetBool(KeyPreserveFormatting),
		GlossaryID:            c.v.GetString(KeyGlossaryID),
		TranslationMode:       mode,
		DefaultTargetLanguage: strings.TrimSpace(c.v.GetString(KeyDefaultTargetLanguage)),
		DefaultSourceLanguage: strings.TrimSpace(c.v.GetString(KeyDefaultSourceLanguage)),
	}
}

// Get returns the raw value stored for key, or its default
func (c *Config) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.Get(key)
}

// Formality returns the configured formality
func (c *Config) Formality() string { return c.Values().Formality }

// TagHandling returns the configured tag handling ("off", "html" or "xml")
func (c *Config) TagHandling() string { return c.Values().TagHandling }

// SplitSentences returns the configured sentence splitting mode
func (c *Config) SplitSentences() string { return c.Values().SplitSentences }

// PreserveFormatting reports whether formatting should be preserved
func (c *Config) PreserveFormatting() bool { return c.Values().PreserveFormatting }

// TranslationMode returns how results are merged into the buffer
func (c *Config) TranslationMode() state.TranslationMode { return c.Values().TranslationMode }

// DefaultTargetLanguage returns the configured fallback target language
func (c *Config) DefaultTargetLanguage() string { return c.Values().DefaultTargetLanguage }

// DefaultSourceLanguage returns the configured fallback source language
func (c *Config) DefaultSourceLanguage() string { return c.Values().DefaultSourceLanguage }

// Set persists one value to the user-global file. The file is rewritten
// atomically; other keys are preserved.
func (c *Config) Set(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := viper.New()
	w.SetConfigFile(c.path)
	w.SetConfigType("yaml")
	if _, err := os.Stat(c.path); err == nil {
		if err := w.ReadInConfig(); err != nil {
			return fmt.Errorf("reading settings file: %w", err)
		}
	}
	w.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	ext := filepath.Ext(c.path)
	tmp := strings.TrimSuffix(c.path, ext) + ".tmp" + ext
	if err := w.WriteConfigAs(tmp); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing settings file: %w", err)
	}

	if err := c.v.ReadInConfig(); err != nil {
		c.log.Warn().Err(err).Msg("cannot re-read settings after write")
	}
	c.log.Debug().Str("key", key).Msg("setting persisted")
	return nil
}

// Watch calls onChange whenever the settings file changes on disk
func (c *Config) Watch(onChange func()) (func() error, error) {
	return watchFile(c.path, c.log, func() {
		c.Reload()
		onChange()
	})
}

func stringOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
