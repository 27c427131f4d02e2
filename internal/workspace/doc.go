// Package workspace persists per-workspace state, such as the chosen
// target and source languages, in a local SQLite database.
package workspace
