// Package cli provides the command-line interface of deepledit. It sets up
// the cobra commands and flags, binds them to viper and runs every editor
// command against a file on disk.
package cli
