package provider

import (
	"fmt"
	"strings"
)

// commonLanguages are offered by providers without a language endpoint
var commonLanguages = []Language{
	{Code: "AR", Name: "Arabic"},
	{Code: "BG", Name: "Bulgarian"},
	{Code: "CS", Name: "Czech"},
	{Code: "DA", Name: "Danish"},
	{Code: "DE", Name: "German", SupportsFormality: true},
	{Code: "EL", Name: "Greek"},
	{Code: "EN", Name: "English"},
	{Code: "ES", Name: "Spanish", SupportsFormality: true},
	{Code: "ET", Name: "Estonian"},
	{Code: "FI", Name: "Finnish"},
	{Code: "FR", Name: "French", SupportsFormality: true},
	{Code: "HU", Name: "Hungarian"},
	{Code: "ID", Name: "Indonesian"},
	{Code: "IT", Name: "Italian", SupportsFormality: true},
	{Code: "JA", Name: "Japanese", SupportsFormality: true},
	{Code: "KO", Name: "Korean"},
	{Code: "LT", Name: "Lithuanian"},
	{Code: "LV", Name: "Latvian"},
	{Code: "NB", Name: "Norwegian Bokmål"},
	{Code: "NL", Name: "Dutch", SupportsFormality: true},
	{Code: "PL", Name: "Polish", SupportsFormality: true},
	{Code: "PT", Name: "Portuguese", SupportsFormality: true},
	{Code: "RO", Name: "Romanian"},
	{Code: "RU", Name: "Russian", SupportsFormality: true},
	{Code: "SK", Name: "Slovak"},
	{Code: "SL", Name: "Slovenian"},
	{Code: "SV", Name: "Swedish"},
	{Code: "TR", Name: "Turkish"},
	{Code: "UK", Name: "Ukrainian"},
	{Code: "ZH", Name: "Chinese"},
}

// CommonLanguages returns a copy of the built-in language list
func CommonLanguages() []Language {
	return append([]Language(nil), commonLanguages...)
}

// Instruction builds the prompt used by chat-model providers to translate
// one text
func Instruction(text, source, target string, opts Options) string {
	var b strings.Builder

	targetName := displayName(target)
	if source != "" {
		fmt.Fprintf(&b, "Translate the following text from %s to %s.", displayName(source), targetName)
	} else {
		fmt.Fprintf(&b, "Translate the following text to %s.", targetName)
	}

	switch opts.Formality {
	case "more", "prefer_more":
		b.WriteString(" Use a formal register.")
	case "less", "prefer_less":
		b.WriteString(" Use an informal register.")
	}
	if opts.TagHandling == "html" || opts.TagHandling == "xml" {
		fmt.Fprintf(&b, " The text is %s; keep all tags unchanged.", strings.ToUpper(opts.TagHandling))
	}
	if opts.PreserveFormatting {
		b.WriteString(" Preserve punctuation, casing and whitespace.")
	}

	b.WriteString(" Respond with only the translation, nothing else.\n\n")
	b.WriteString(text)
	return b.String()
}

func displayName(code string) string {
	if l, ok := Find(commonLanguages, code); ok {
		return l.Name
	}
	if i := strings.IndexByte(code, '-'); i > 0 {
		if l, ok := Find(commonLanguages, code[:i]); ok {
			return fmt.Sprintf("%s (%s)", l.Name, strings.ToUpper(code[i+1:]))
		}
	}
	return code
}
