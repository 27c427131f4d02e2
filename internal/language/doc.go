// Package language normalizes language codes as reported by translation
// providers and compares them the way the session state needs to: case
// insensitive, optionally ignoring the regional variant.
package language
