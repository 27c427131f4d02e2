package provider

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultName is used when no provider is configured
const DefaultName = "deepl"

// Factory creates a provider authenticated with apiKey
type Factory func(apiKey string) (Provider, error)

// Registry stores provider factories and resolves a default one
type Registry struct {
	factories       map[string]Factory
	defaultProvider string
}

func NewRegistry(defaultProvider string) *Registry {
	normalized := normalizeName(defaultProvider)
	if normalized == "" {
		normalized = DefaultName
	}
	return &Registry{
		factories:       make(map[string]Factory),
		defaultProvider: normalized,
	}
}

// Register adds one factory
func (r *Registry) Register(name string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("factory is nil")
	}
	normalized := normalizeName(name)
	if normalized == "" {
		return fmt.Errorf("provider name is required")
	}
	r.factories[normalized] = factory
	return nil
}

// Factory resolves a factory by name. Empty names use the default provider.
func (r *Registry) Factory(name string) (Factory, error) {
	if len(r.factories) == 0 {
		return nil, fmt.Errorf("no translation providers are registered")
	}

	resolved := normalizeName(name)
	if resolved == "" {
		resolved = r.defaultProvider
	}
	if factory, ok := r.factories[resolved]; ok {
		return factory, nil
	}
	return nil, fmt.Errorf("translation provider %q is not registered (available: %s)", resolved, strings.Join(r.Names(), ", "))
}

func (r *Registry) DefaultProvider() string {
	return r.defaultProvider
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
