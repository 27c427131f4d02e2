package provider

import (
	"context"
	"fmt"
	"strings"
)

// Provider translates texts and lists the languages it supports
type Provider interface {
	// TranslateText translates every text. An empty source requests
	// detection. Results are in the order of texts; a provider may return
	// fewer results than texts.
	TranslateText(ctx context.Context, texts []string, source, target string, opts Options) ([]Result, error)
	SourceLanguages(ctx context.Context) ([]Language, error)
	TargetLanguages(ctx context.Context) ([]Language, error)
}

// Language is a language offered by a provider
type Language struct {
	Code              string `json:"code"`
	Name              string `json:"name"`
	SupportsFormality bool   `json:"supportsFormality,omitempty"`
}

// Result is the translation of one text
type Result struct {
	Text                   string `json:"text"`
	DetectedSourceLanguage string `json:"detectedSourceLanguage,omitempty"`
}

// Options are the formatting options sent with a request. Empty values
// are omitted from the request.
type Options struct {
	Formality          string
	GlossaryID         string
	TagHandling        string
	IgnoreTags         string
	SplittingTags      string
	NonSplittingTags   string
	SplitSentences     string
	PreserveFormatting bool
}

// LanguageKind selects the source or target language list
type LanguageKind string

const (
	SourceKind LanguageKind = "source"
	TargetKind LanguageKind = "target"
)

// ParseLanguageKind parses "source" or "target"
func ParseLanguageKind(raw string) (LanguageKind, error) {
	switch LanguageKind(strings.ToLower(strings.TrimSpace(raw))) {
	case SourceKind:
		return SourceKind, nil
	case TargetKind:
		return TargetKind, nil
	default:
		return "", fmt.Errorf("unknown language kind %q (want source or target)", raw)
	}
}

// List fetches the language list of the given kind from p
func List(ctx context.Context, p Provider, kind LanguageKind) ([]Language, error) {
	if kind == SourceKind {
		return p.SourceLanguages(ctx)
	}
	return p.TargetLanguages(ctx)
}

// Find returns the language with the given code, compared case-insensitively
func Find(languages []Language, code string) (Language, bool) {
	for _, l := range languages {
		if strings.EqualFold(l.Code, strings.TrimSpace(code)) {
			return l, true
		}
	}
	return Language{}, false
}
