package settings

import "codeberg.org/snonux/deepledit/internal/state"

// Section is the namespace every configuration key lives under
const Section = "deepl"

// Configuration keys of the user-global layer
const (
	KeyAPIKey                = Section + ".apiKey"
	KeyFormality             = Section + ".formality"
	KeyIgnoreTags            = Section + ".ignoreTags"
	KeyTagHandling           = Section + ".tagHandling"
	KeySplittingTags         = Section + ".splittingTags"
	KeySplitSentences        = Section + ".splitSentences"
	KeyNonSplittingTags      = Section + ".nonSplittingTags"
	KeyPreserveFormatting    = Section + ".preserveFormatting"
	KeyGlossaryID            = Section + ".glossaryId"
	KeyTranslationMode       = Section + ".translationMode"
	KeyDefaultTargetLanguage = Section + ".defaultTargetLanguage"
	KeyDefaultSourceLanguage = Section + ".defaultSourceLanguage"
)

// SecretAPIKey is the secret store key holding the API key
const SecretAPIKey = Section + ".apiKey"

// Default values
const (
	DefaultFormality          = "default"
	DefaultSplitSentences     = "1"
	DefaultTagHandling        = "off"
	DefaultPreserveFormatting = false
	DefaultTranslationMode    = state.ModeReplace
)

// Values is the resolved content of the configuration layer
type Values struct {
	// LegacyAPIKey is an API key still stored in plain configuration
	LegacyAPIKey string

	Formality             string
	IgnoreTags            string
	TagHandling           string
	SplittingTags         string
	SplitSentences        string
	NonSplittingTags      string
	PreserveFormatting    bool
	GlossaryID            string
	TranslationMode       state.TranslationMode
	DefaultTargetLanguage string
	DefaultSourceLanguage string
}
