// Package commands implements the user commands of deepledit. Every command
// is a zero-argument handler working on the shared state container and
// the focused editor; failures pass through one error handler that hides
// cancelled prompts and maps provider errors to user messages.
package commands
