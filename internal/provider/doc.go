// Package provider defines the contract between the translation client and
// the remote translation services, the error kinds those services surface,
// and a registry to select a service by name.
package provider
