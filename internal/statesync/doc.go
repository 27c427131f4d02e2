// Package statesync keeps the session state container and the persisted
// layers (user settings, workspace state and secret store) in sync.
//
// Loading assigns the persisted values to the container in one batch and
// records them as the persisted baseline. The per-field persistence
// observers only write values that differ from that baseline, so a reload
// of identical data performs no writes.
package statesync
