package prompt

import (
	"context"
	"errors"

	"codeberg.org/snonux/deepledit/internal/provider"
)

// ErrCancelled is returned when a prompt is dismissed without a value
var ErrCancelled = errors.New("prompt cancelled")

// Prompter asks the user for input
type Prompter interface {
	// APIKey asks for an API key
	APIKey(ctx context.Context) (string, error)

	// Language lets the user pick one of languages and returns its code
	Language(ctx context.Context, kind provider.LanguageKind, languages []provider.Language) (string, error)

	// Warning shows a modal warning offering actions. It returns the
	// chosen action, or "" when the warning was dismissed.
	Warning(ctx context.Context, message, detail string, actions ...string) (string, error)
}

// Placeholders shown by interactive prompts
const (
	APIKeyTitle       = "Please enter your DeepL API key"
	TargetPlaceholder = "Select the language you want to translate into"
	SourcePlaceholder = "Select the language you want to translate from"
)

// Placeholder returns the language picker text for kind
func Placeholder(kind provider.LanguageKind) string {
	if kind == provider.SourceKind {
		return SourcePlaceholder
	}
	return TargetPlaceholder
}

// Declining never asks anything: value prompts are cancelled and warnings
// are dismissed. It is used where no user is attached, such as the HTTP
// API.
type Declining struct{}

func (Declining) APIKey(context.Context) (string, error) {
	return "", ErrCancelled
}

func (Declining) Language(context.Context, provider.LanguageKind, []provider.Language) (string, error) {
	return "", ErrCancelled
}

func (Declining) Warning(context.Context, string, string, ...string) (string, error) {
	return "", nil
}
