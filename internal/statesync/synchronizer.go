package statesync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/deepledit/internal/language"
	"codeberg.org/snonux/deepledit/internal/provider"
	"codeberg.org/snonux/deepledit/internal/settings"
	"codeberg.org/snonux/deepledit/internal/state"
	"codeberg.org/snonux/deepledit/internal/workspace"
)

// GlobalSettings is the user-global configuration layer
type GlobalSettings interface {
	Values() settings.Values
	Set(key string, value any) error
}

// SecretStore holds the API key
type SecretStore interface {
	Get(key string) (string, error)
	Store(key, value string) error
	Delete(key string) error
}

// WorkspaceState holds the per-workspace language choices
type WorkspaceState interface {
	Get(key string) (string, error)
	Update(key, value string) error
}

// SettingsEvents reports edits of the settings layer
type SettingsEvents interface {
	Watch(onChange func()) (func() error, error)
}

// SecretEvents reports external changes of secrets by key
type SecretEvents interface {
	Watch(onChange func(key string)) (func() error, error)
}

// LanguageCatalog lists the languages available for apiKey. It returns
// an empty list when they cannot be fetched.
type LanguageCatalog interface {
	Languages(ctx context.Context, kind provider.LanguageKind, apiKey string) []provider.Language
}

// Stores groups the persisted layers. The event sources and the catalog
// are optional.
type Stores struct {
	Settings  GlobalSettings
	Secrets   SecretStore
	Workspace WorkspaceState

	SettingsEvents SettingsEvents
	SecretEvents   SecretEvents
	Catalog        LanguageCatalog
}

var legacyWorkspaceKeys = []struct {
	legacy  string
	current string
}{
	{workspace.LegacyKeyTargetLanguage, workspace.KeyTargetLanguage},
	{workspace.LegacyKeySourceLanguage, workspace.KeySourceLanguage},
}

var settingsKeys = map[state.Field]string{
	state.FieldFormality:          settings.KeyFormality,
	state.FieldTagHandling:        settings.KeyTagHandling,
	state.FieldIgnoreTags:         settings.KeyIgnoreTags,
	state.FieldSplittingTags:      settings.KeySplittingTags,
	state.FieldNonSplittingTags:   settings.KeyNonSplittingTags,
	state.FieldSplitSentences:     settings.KeySplitSentences,
	state.FieldPreserveFormatting: settings.KeyPreserveFormatting,
	state.FieldGlossaryID:         settings.KeyGlossaryID,
	state.FieldTranslationMode:    settings.KeyTranslationMode,
}

// Synchronizer loads the container from the persisted layers and writes
// container changes back to them
type Synchronizer struct {
	container *state.Container
	stores    Stores
	log       zerolog.Logger

	// reloadMu serialises reloads from the change listeners
	reloadMu sync.Mutex

	mu          sync.Mutex
	initialized bool
	closed      bool
	persisted   map[state.Field]any
	versions    map[state.Field]int
	cancels     []func()
	closers     []func() error

	// writes counts persistence writes, for diagnostics
	writes int
}

// New creates a synchronizer for container
func New(container *state.Container, stores Stores, logger zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		container: container,
		stores:    stores,
		log:       logger.With().Str("component", "statesync").Logger(),
		persisted: make(map[state.Field]any),
		versions:  make(map[state.Field]int),
	}
}

// Initialize migrates legacy layouts, loads the container and installs the
// persistence observers and change listeners. Only the first call has an
// effect; an error is returned only when a change listener cannot be
// installed, in which case the loaded state stays usable.
func (s *Synchronizer) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		s.log.Debug().Msg("already initialized, skipping")
		return nil
	}
	s.initialized = true
	s.mu.Unlock()

	s.migrate()
	s.Reload(ctx)

	for _, field := range state.Fields() {
		field := field
		cancel := s.container.Observe(field, func(snapshot state.State) {
			s.persist(field, snapshot.Value(field))
		})
		s.mu.Lock()
		s.cancels = append(s.cancels, cancel)
		s.mu.Unlock()
	}

	return s.listen(ctx)
}

func (s *Synchronizer) migrate() {
	moved, err := settings.MigrateAPIKey(s.stores.Settings, s.stores.Secrets)
	if err != nil {
		s.log.Warn().Err(err).Msg("api key migration failed")
	} else if moved {
		s.log.Info().Msg("moved api key from configuration to secret store")
	}

	for _, key := range legacyWorkspaceKeys {
		if err := s.migrateWorkspaceKey(key.legacy, key.current); err != nil {
			s.log.Warn().Err(err).Str("key", key.legacy).Msg("workspace key migration failed")
		}
	}
}

// migrateWorkspaceKey copies a legacy value to its current key unless the
// current key is already set, then clears the legacy key.
func (s *Synchronizer) migrateWorkspaceKey(legacy, current string) error {
	old, err := s.stores.Workspace.Get(legacy)
	if err != nil {
		return err
	}
	if old == "" {
		return nil
	}

	existing, err := s.stores.Workspace.Get(current)
	if err != nil {
		return err
	}
	if existing == "" {
		if err := s.stores.Workspace.Update(current, old); err != nil {
			return fmt.Errorf("copying %s: %w", legacy, err)
		}
	}
	if err := s.stores.Workspace.Update(legacy, ""); err != nil {
		return fmt.Errorf("clearing %s: %w", legacy, err)
	}
	s.log.Info().Str("from", legacy).Str("to", current).Msg("migrated workspace key")
	return nil
}

// Reload reads every persisted layer and assigns the result to the
// container in one batch. A field changed in memory or written back while
// the layers were read keeps its newer value.
func (s *Synchronizer) Reload(ctx context.Context) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	s.mu.Lock()
	baseline := make(map[state.Field]any, len(s.persisted))
	for field, value := range s.persisted {
		baseline[field] = value
	}
	versions := make(map[state.Field]int, len(s.versions))
	for field, version := range s.versions {
		versions[field] = version
	}
	s.mu.Unlock()

	loaded := s.read(ctx)

	var kept []string
	s.container.Update(func(cur *state.State) {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, field := range state.Fields() {
			if value, ok := baseline[field]; ok {
				if cur.Value(field) != value || s.versions[field] != versions[field] {
					kept = append(kept, field.String())
					continue
				}
			}
			s.persisted[field] = loaded.Value(field)
			cur.Assign(field, loaded)
		}
	})

	snapshot := s.container.Snapshot()
	s.log.Debug().
		Bool("api_key", snapshot.APIKey != "").
		Str("target", snapshot.TargetLanguage).
		Str("source", snapshot.SourceLanguage).
		Str("mode", string(snapshot.TranslationMode)).
		Strs("kept", kept).
		Msg("loaded state")
}

func (s *Synchronizer) read(ctx context.Context) state.State {
	loaded := state.Default()

	apiKey, err := s.stores.Secrets.Get(settings.SecretAPIKey)
	if err != nil {
		s.log.Warn().Err(err).Msg("cannot read api key from secret store")
	}
	loaded.APIKey = apiKey

	values := s.stores.Settings.Values()
	loaded.Formality = values.Formality
	loaded.IgnoreTags = values.IgnoreTags
	loaded.TagHandling = values.TagHandling
	loaded.SplittingTags = values.SplittingTags
	loaded.SplitSentences = values.SplitSentences
	loaded.NonSplittingTags = values.NonSplittingTags
	loaded.PreserveFormatting = values.PreserveFormatting
	loaded.GlossaryID = values.GlossaryID
	loaded.TranslationMode = values.TranslationMode

	loaded.TargetLanguage = s.workspaceValue(workspace.KeyTargetLanguage, values.DefaultTargetLanguage)
	loaded.SourceLanguage = s.workspaceValue(workspace.KeySourceLanguage, values.DefaultSourceLanguage)

	if s.stores.Catalog != nil && loaded.APIKey != "" {
		loaded.TargetLanguage = s.known(ctx, provider.TargetKind, loaded.APIKey, loaded.TargetLanguage)
		loaded.SourceLanguage = s.known(ctx, provider.SourceKind, loaded.APIKey, loaded.SourceLanguage)
	}
	return loaded
}

func (s *Synchronizer) workspaceValue(key, fallback string) string {
	value, err := s.stores.Workspace.Get(key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cannot read workspace state")
	}
	if value == "" {
		return fallback
	}
	return value
}

// known drops code when the provider's list is available and lacks it
func (s *Synchronizer) known(ctx context.Context, kind provider.LanguageKind, apiKey, code string) string {
	if code == "" {
		return ""
	}
	languages := s.stores.Catalog.Languages(ctx, kind, apiKey)
	if len(languages) == 0 {
		return code
	}
	for _, l := range languages {
		if language.Equal(l.Code, code) {
			return code
		}
	}
	s.log.Info().Str("kind", string(kind)).Str("code", code).Msg("dropping unknown language")
	return ""
}

// persist writes value for field unless it equals the persisted baseline
func (s *Synchronizer) persist(field state.Field, value any) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if current, ok := s.persisted[field]; ok && current == value {
		s.mu.Unlock()
		return
	}
	s.persisted[field] = value
	s.versions[field]++
	s.writes++
	s.mu.Unlock()

	if err := s.write(field, value); err != nil {
		s.log.Warn().Err(err).Str("field", field.String()).Msg("failed to persist state")
		s.mu.Lock()
		delete(s.persisted, field)
		s.mu.Unlock()
		return
	}
	s.log.Debug().Str("field", field.String()).Msg("persisted state")
}

func (s *Synchronizer) write(field state.Field, value any) error {
	switch field {
	case state.FieldAPIKey:
		key, _ := value.(string)
		if key == "" {
			return s.stores.Secrets.Delete(settings.SecretAPIKey)
		}
		return s.stores.Secrets.Store(settings.SecretAPIKey, key)
	case state.FieldTargetLanguage:
		code, _ := value.(string)
		return s.stores.Workspace.Update(workspace.KeyTargetLanguage, code)
	case state.FieldSourceLanguage:
		code, _ := value.(string)
		return s.stores.Workspace.Update(workspace.KeySourceLanguage, code)
	}

	key, ok := settingsKeys[field]
	if !ok {
		return fmt.Errorf("no persisted key for field %s", field)
	}
	if mode, ok := value.(state.TranslationMode); ok {
		value = string(mode)
	}
	return s.stores.Settings.Set(key, value)
}

func (s *Synchronizer) listen(ctx context.Context) error {
	var errs []error

	if s.stores.SecretEvents != nil {
		stop, err := s.stores.SecretEvents.Watch(func(key string) {
			if key != settings.SecretAPIKey {
				return
			}
			s.log.Debug().Msg("api key secret has been changed")
			s.Reload(ctx)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("watching secret store: %w", err))
		} else {
			s.addCloser(stop)
		}
	}

	if s.stores.SettingsEvents != nil {
		stop, err := s.stores.SettingsEvents.Watch(func() {
			s.log.Debug().Msg("settings have been changed")
			s.Reload(ctx)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("watching settings: %w", err))
		} else {
			s.addCloser(stop)
		}
	}

	return errors.Join(errs...)
}

func (s *Synchronizer) addCloser(stop func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, stop)
}

// Writes returns the number of persistence writes issued so far
func (s *Synchronizer) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Close removes the observers and change listeners
func (s *Synchronizer) Close() error {
	s.mu.Lock()
	s.closed = true
	cancels := s.cancels
	closers := s.closers
	s.cancels, s.closers = nil, nil
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	var errs []error
	for _, stop := range closers {
		if err := stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
