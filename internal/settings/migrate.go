package settings

import "fmt"

// ConfigLayer is the part of Config needed by MigrateAPIKey
type ConfigLayer interface {
	Values() Values
	Set(key string, value any) error
}

// SecretLayer is the part of Secrets needed by MigrateAPIKey
type SecretLayer interface {
	Store(key, value string) error
}

// MigrateAPIKey moves an API key found in plain configuration into the
// secret store and clears the configuration entry. It reports whether a
// key was moved. Running it again after success does nothing.
func MigrateAPIKey(cfg ConfigLayer, secrets SecretLayer) (bool, error) {
	legacy := cfg.Values().LegacyAPIKey
	if legacy == "" {
		return false, nil
	}

	if err := secrets.Store(SecretAPIKey, legacy); err != nil {
		return false, fmt.Errorf("storing api key in secret store: %w", err)
	}
	if err := cfg.Set(KeyAPIKey, ""); err != nil {
		return true, fmt.Errorf("clearing legacy api key: %w", err)
	}
	return true, nil
}
