package language

import "strings"

// Primary returns the upper-case primary subtag of a DeepL code, e.g. "EN"
// for "en-gb" and "PT" for "PT_BR". A blank code gives "".
func Primary(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// Same reports whether two codes name the same language, ignoring case and
// regional variants. Blank codes never match.
func Same(a, b string) bool {
	left := Primary(a)
	return left != "" && left == Primary(b)
}

// Equal compares two codes case-insensitively, including the region.
func Equal(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
