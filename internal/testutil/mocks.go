package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"codeberg.org/snonux/deepledit/internal/prompt"
	"codeberg.org/snonux/deepledit/internal/provider"
	"codeberg.org/snonux/deepledit/internal/settings"
	"codeberg.org/snonux/deepledit/internal/state"
)

// MockSettings is an in-memory user settings layer
type MockSettings struct {
	mu     sync.Mutex
	values settings.Values
	SetErr error
	Sets   []string
}

// NewMockSettings returns settings holding the documented defaults
func NewMockSettings() *MockSettings {
	return &MockSettings{values: settings.Values{
		Formality:       settings.DefaultFormality,
		TagHandling:     settings.DefaultTagHandling,
		SplitSentences:  settings.DefaultSplitSentences,
		TranslationMode: settings.DefaultTranslationMode,
	}}
}

// Values returns the current values
func (m *MockSettings) Values() settings.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values
}

// Edit changes values without recording a write, like an external edit
func (m *MockSettings) Edit(fn func(*settings.Values)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.values)
}

// Set records the write and applies it
func (m *MockSettings) Set(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Sets = append(m.Sets, fmt.Sprintf("%s=%v", key, value))
	if m.SetErr != nil {
		return m.SetErr
	}

	str := fmt.Sprint(value)
	v := &m.values
	switch key {
	case settings.KeyAPIKey:
		v.LegacyAPIKey = str
	case settings.KeyFormality:
		v.Formality = str
	case settings.KeyIgnoreTags:
		v.IgnoreTags = str
	case settings.KeyTagHandling:
		v.TagHandling = str
	case settings.KeySplittingTags:
		v.SplittingTags = str
	case settings.KeySplitSentences:
		v.SplitSentences = str
	case settings.KeyNonSplittingTags:
		v.NonSplittingTags = str
	case settings.KeyPreserveFormatting:
		v.PreserveFormatting = str == "true"
	case settings.KeyGlossaryID:
		v.GlossaryID = str
	case settings.KeyTranslationMode:
		v.TranslationMode = state.TranslationMode(str)
	case settings.KeyDefaultTargetLanguage:
		v.DefaultTargetLanguage = str
	case settings.KeyDefaultSourceLanguage:
		v.DefaultSourceLanguage = str
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

// Writes returns the number of Set calls
func (m *MockSettings) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sets)
}

// MockSecrets is an in-memory secret store
type MockSecrets struct {
	mu      sync.Mutex
	values  map[string]string
	Err     error
	Stores  int
	Deletes int
}

func NewMockSecrets() *MockSecrets {
	return &MockSecrets{values: make(map[string]string)}
}

func (m *MockSecrets) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *MockSecrets) Store(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stores++
	if m.Err != nil {
		return m.Err
	}
	m.values[key] = value
	return nil
}

func (m *MockSecrets) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes++
	if m.Err != nil {
		return m.Err
	}
	delete(m.values, key)
	return nil
}

// Put sets a secret without counting a write
func (m *MockSecrets) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Writes returns the number of Store and Delete calls
func (m *MockSecrets) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Stores + m.Deletes
}

// MockWorkspace is an in-memory workspace state
type MockWorkspace struct {
	mu      sync.Mutex
	values  map[string]string
	Err     error
	Updates int
}

func NewMockWorkspace() *MockWorkspace {
	return &MockWorkspace{values: make(map[string]string)}
}

func (m *MockWorkspace) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *MockWorkspace) Update(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates++
	if m.Err != nil {
		return m.Err
	}
	if value == "" {
		delete(m.values, key)
		return nil
	}
	m.values[key] = value
	return nil
}

// Put sets a value without counting a write
func (m *MockWorkspace) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Writes returns the number of Update calls
func (m *MockWorkspace) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Updates
}

// TranslateCall records one TranslateText call
type TranslateCall struct {
	APIKey  string
	Texts   []string
	Source  string
	Target  string
	Options provider.Options
}

// MockProvider is a scripted translation provider. Translate is applied
// to every text; the default prefixes the text with the target language.
type MockProvider struct {
	mu sync.Mutex

	Translate func(apiKey, text, source, target string) (string, error)
	Delay     func(text string) time.Duration

	Sources      []provider.Language
	Targets      []provider.Language
	LanguagesErr func(apiKey string) error

	Calls         []TranslateCall
	LanguageCalls int
}

// Factory returns a provider factory backed by m
func (m *MockProvider) Factory() provider.Factory {
	return func(apiKey string) (provider.Provider, error) {
		return &keyedProvider{mock: m, apiKey: apiKey}, nil
	}
}

// TranslateCalls returns a copy of the recorded calls
func (m *MockProvider) TranslateCalls() []TranslateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TranslateCall(nil), m.Calls...)
}

type keyedProvider struct {
	mock   *MockProvider
	apiKey string
}

func (p *keyedProvider) TranslateText(ctx context.Context, texts []string, source, target string, opts provider.Options) ([]provider.Result, error) {
	m := p.mock
	m.mu.Lock()
	m.Calls = append(m.Calls, TranslateCall{APIKey: p.apiKey, Texts: append([]string(nil), texts...), Source: source, Target: target, Options: opts})
	translate, delay := m.Translate, m.Delay
	m.mu.Unlock()

	if delay != nil && len(texts) > 0 {
		select {
		case <-time.After(delay(texts[0])):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	results := make([]provider.Result, 0, len(texts))
	for _, text := range texts {
		out := fmt.Sprintf("[%s] %s", strings.ToUpper(target), text)
		if translate != nil {
			var err error
			if out, err = translate(p.apiKey, text, source, target); err != nil {
				return nil, err
			}
		}
		detected := source
		if detected == "" {
			detected = "DE"
		}
		results = append(results, provider.Result{Text: out, DetectedSourceLanguage: detected})
	}
	return results, nil
}

func (p *keyedProvider) SourceLanguages(ctx context.Context) ([]provider.Language, error) {
	return p.languages(p.mock.Sources)
}

func (p *keyedProvider) TargetLanguages(ctx context.Context) ([]provider.Language, error) {
	return p.languages(p.mock.Targets)
}

func (p *keyedProvider) languages(list []provider.Language) ([]provider.Language, error) {
	m := p.mock
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LanguageCalls++
	if m.LanguagesErr != nil {
		if err := m.LanguagesErr(p.apiKey); err != nil {
			return nil, err
		}
	}
	return append([]provider.Language(nil), list...), nil
}

// MockPrompter answers prompts from scripted queues. An exhausted queue
// cancels the prompt (or dismisses the warning).
type MockPrompter struct {
	mu sync.Mutex

	APIKeys []string
	Sources []string
	Targets []string
	Actions []string

	Warnings      []string
	KeyPrompts    int
	SourcePrompts int
	TargetPrompts int
}

func (m *MockPrompter) APIKey(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.KeyPrompts++
	return pop(&m.APIKeys)
}

func (m *MockPrompter) Language(ctx context.Context, kind provider.LanguageKind, languages []provider.Language) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if kind == provider.SourceKind {
		m.SourcePrompts++
		return pop(&m.Sources)
	}
	m.TargetPrompts++
	return pop(&m.Targets)
}

func (m *MockPrompter) Warning(ctx context.Context, message, detail string, actions ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Warnings = append(m.Warnings, message)
	action, err := pop(&m.Actions)
	if err != nil {
		return "", nil
	}
	return action, nil
}

// WarningCount returns the number of warnings shown
func (m *MockPrompter) WarningCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Warnings)
}

func pop(queue *[]string) (string, error) {
	if len(*queue) == 0 {
		return "", prompt.ErrCancelled
	}
	value := (*queue)[0]
	*queue = (*queue)[1:]
	if value == "" {
		return "", prompt.ErrCancelled
	}
	return value, nil
}

// MockNotifier records flash messages and progress
type MockNotifier struct {
	mu       sync.Mutex
	Messages []string
	Progress float64
}

func (m *MockNotifier) Flash(message string, timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, message)
}

func (m *MockNotifier) Report(increment float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Progress += increment
}

// Total returns the accumulated progress
func (m *MockNotifier) Total() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Progress
}

// MockClipboard is an in-memory clipboard
type MockClipboard struct {
	Text string
	Err  error
}

func (m *MockClipboard) ReadAll() (string, error) {
	return m.Text, m.Err
}
