// Package state holds the process-wide translation session state. The
// Container exposes every field as independently observable so that other
// components (persistence, status display) can react to changes without
// polling.
package state
