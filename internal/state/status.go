package state

// StatusKind enumerates the derived display states
type StatusKind int

const (
	StatusNoKey StatusKind = iota
	StatusNoLanguage
	StatusLanguage
)

// Status is a pure projection of State used by status displays
type Status struct {
	Kind     StatusKind
	Language string
}

// StatusOf derives the display status from a snapshot
func StatusOf(s State) Status {
	switch {
	case s.APIKey == "":
		return Status{Kind: StatusNoKey}
	case s.TargetLanguage == "":
		return Status{Kind: StatusNoLanguage}
	default:
		return Status{Kind: StatusLanguage, Language: s.TargetLanguage}
	}
}

// Text renders the status line. nameOf resolves a language code to its
// display name and may be nil.
func (s Status) Text(nameOf func(code string) string) string {
	switch s.Kind {
	case StatusNoKey:
		return "Set your DeepL API key"
	case StatusNoLanguage:
		return "Select language"
	}
	if nameOf != nil {
		if name := nameOf(s.Language); name != "" {
			return name
		}
	}
	return s.Language
}

// Tooltip describes what activating the status does
func (s Status) Tooltip() string {
	if s.Kind == StatusNoKey {
		return "Set your DeepL API key"
	}
	return "Select the language you want to translate into"
}

// Command names the command the status activates
func (s Status) Command() string {
	if s.Kind == StatusNoKey {
		return "configure"
	}
	return "set-target-language"
}

func (k StatusKind) String() string {
	switch k {
	case StatusNoKey:
		return "no-key"
	case StatusNoLanguage:
		return "no-language"
	default:
		return "language"
	}
}
