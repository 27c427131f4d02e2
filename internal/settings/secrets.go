package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

const secretsFileName = "secrets.json"

// Secrets is a file-backed secret store keyed by name
type Secrets struct {
	mu    sync.Mutex
	path  string
	known map[string]string
	log   zerolog.Logger
}

// DataDir returns $XDG_DATA_HOME/deepledit, falling back to ~/.local/share.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appDirName), nil
}

// DefaultSecretsPath returns the secret file path, or "" when no home
// directory can be determined.
func DefaultSecretsPath() string {
	dir, err := DataDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, secretsFileName)
}

// NewSecrets opens the secret file at path
func NewSecrets(path string, logger zerolog.Logger) *Secrets {
	if path == "" {
		path = DefaultSecretsPath()
	}
	s := &Secrets{
		path: path,
		log:  logger.With().Str("component", "secrets").Logger(),
	}
	s.known, _ = s.load()
	return s
}

// Path returns the secret file location
func (s *Secrets) Path() string {
	return s.path
}

// load reads the secret file. A missing file yields an empty map.
func (s *Secrets) load() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return values, fmt.Errorf("reading secrets file: %w", err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return make(map[string]string), fmt.Errorf("parsing secrets file: %w", err)
	}
	if values == nil {
		values = make(map[string]string)
	}
	return values, nil
}

func (s *Secrets) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling secrets: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing secrets file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing secrets file: %w", err)
	}
	return nil
}

// Get returns the secret stored under key, or "" when absent
func (s *Secrets) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

// Store saves value under key
func (s *Secrets) Store(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		s.log.Warn().Err(err).Msg("overwriting unreadable secrets file")
	}
	if current, ok := values[key]; ok && current == value {
		return nil
	}
	values[key] = value
	if err := s.save(values); err != nil {
		return err
	}
	s.known = copyMap(values)
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Secrets) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	if err := s.save(values); err != nil {
		return err
	}
	s.known = copyMap(values)
	return nil
}

// Watch calls onChange with the name of every secret whose value was
// changed on disk by another process. Changes made through this Secrets
// value are not reported.
func (s *Secrets) Watch(onChange func(key string)) (func() error, error) {
	return watchFile(s.path, s.log, func() {
		for _, key := range s.refresh() {
			onChange(key)
		}
	})
}

// refresh re-reads the file and returns the keys that differ from the last
// known content.
func (s *Secrets) refresh() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		s.log.Warn().Err(err).Msg("cannot reload secrets file")
		return nil
	}

	var changed []string
	for key, value := range values {
		if old, ok := s.known[key]; !ok || old != value {
			changed = append(changed, key)
		}
	}
	for key := range s.known {
		if _, ok := values[key]; !ok {
			changed = append(changed, key)
		}
	}
	s.known = values
	return changed
}

// MaskKey returns a masked version of a key for display
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
