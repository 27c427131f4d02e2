package state

import (
	"fmt"
	"strings"
)

// TranslationMode controls how a translated result is merged into the buffer
type TranslationMode string

const (
	ModeReplace         TranslationMode = "replace"
	ModeInsertLineAbove TranslationMode = "insertLineAbove"
	ModeInsertLineBelow TranslationMode = "insertLineBelow"
)

// ParseTranslationMode accepts the persisted spelling of a mode. Unknown
// values report false.
func ParseTranslationMode(raw string) (TranslationMode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "replace":
		return ModeReplace, true
	case "insertlineabove", "above":
		return ModeInsertLineAbove, true
	case "insertlinebelow", "below":
		return ModeInsertLineBelow, true
	default:
		return ModeReplace, false
	}
}

// Merge combines the original selection text with its translation
func (m TranslationMode) Merge(original, translated string) string {
	switch m {
	case ModeInsertLineAbove:
		return translated + "\n" + original
	case ModeInsertLineBelow:
		return original + "\n" + translated
	default:
		return translated
	}
}

// State is a snapshot of the session configuration. Empty strings mean the
// value is absent; an empty SourceLanguage requests auto-detection.
type State struct {
	APIKey             string
	TargetLanguage     string
	SourceLanguage     string
	Formality          string
	TagHandling        string
	IgnoreTags         string
	SplittingTags      string
	NonSplittingTags   string
	SplitSentences     string
	PreserveFormatting bool
	GlossaryID         string
	TranslationMode    TranslationMode
}

// Default returns the state used before anything has been loaded
func Default() State {
	return State{
		Formality:       "default",
		TagHandling:     "off",
		SplitSentences:  "1",
		TranslationMode: ModeReplace,
	}
}

// Field identifies one observable State field
type Field int

const (
	FieldAPIKey Field = iota
	FieldTargetLanguage
	FieldSourceLanguage
	FieldFormality
	FieldTagHandling
	FieldIgnoreTags
	FieldSplittingTags
	FieldNonSplittingTags
	FieldSplitSentences
	FieldPreserveFormatting
	FieldGlossaryID
	FieldTranslationMode
)

var fieldNames = [...]string{
	FieldAPIKey:             "apiKey",
	FieldTargetLanguage:     "targetLanguage",
	FieldSourceLanguage:     "sourceLanguage",
	FieldFormality:          "formality",
	FieldTagHandling:        "tagHandling",
	FieldIgnoreTags:         "ignoreTags",
	FieldSplittingTags:      "splittingTags",
	FieldNonSplittingTags:   "nonSplittingTags",
	FieldSplitSentences:     "splitSentences",
	FieldPreserveFormatting: "preserveFormatting",
	FieldGlossaryID:         "glossaryId",
	FieldTranslationMode:    "translationMode",
}

// Fields lists every observable field in declaration order
func Fields() []Field {
	fields := make([]Field, len(fieldNames))
	for i := range fieldNames {
		fields[i] = Field(i)
	}
	return fields
}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// Value returns the comparable value of one field
func (s State) Value(f Field) any {
	switch f {
	case FieldAPIKey:
		return s.APIKey
	case FieldTargetLanguage:
		return s.TargetLanguage
	case FieldSourceLanguage:
		return s.SourceLanguage
	case FieldFormality:
		return s.Formality
	case FieldTagHandling:
		return s.TagHandling
	case FieldIgnoreTags:
		return s.IgnoreTags
	case FieldSplittingTags:
		return s.SplittingTags
	case FieldNonSplittingTags:
		return s.NonSplittingTags
	case FieldSplitSentences:
		return s.SplitSentences
	case FieldPreserveFormatting:
		return s.PreserveFormatting
	case FieldGlossaryID:
		return s.GlossaryID
	case FieldTranslationMode:
		return s.TranslationMode
	default:
		return nil
	}
}

// Assign copies field f from other
func (s *State) Assign(f Field, other State) {
	switch f {
	case FieldAPIKey:
		s.APIKey = other.APIKey
	case FieldTargetLanguage:
		s.TargetLanguage = other.TargetLanguage
	case FieldSourceLanguage:
		s.SourceLanguage = other.SourceLanguage
	case FieldFormality:
		s.Formality = other.Formality
	case FieldTagHandling:
		s.TagHandling = other.TagHandling
	case FieldIgnoreTags:
		s.IgnoreTags = other.IgnoreTags
	case FieldSplittingTags:
		s.SplittingTags = other.SplittingTags
	case FieldNonSplittingTags:
		s.NonSplittingTags = other.NonSplittingTags
	case FieldSplitSentences:
		s.SplitSentences = other.SplitSentences
	case FieldPreserveFormatting:
		s.PreserveFormatting = other.PreserveFormatting
	case FieldGlossaryID:
		s.GlossaryID = other.GlossaryID
	case FieldTranslationMode:
		s.TranslationMode = other.TranslationMode
	}
}
