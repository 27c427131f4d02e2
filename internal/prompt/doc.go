// Package prompt asks the user for an API key, a language or a decision on
// a warning. The terminal implementation uses bubbletea; Declining answers
// every prompt negatively for non-interactive use.
package prompt
