// Package translation wraps a translation provider with the session state:
// it applies the configured formatting options, detects translations that
// echo their input, and recovers from authentication failures and
// unsuccessful translations through bounded interactive retries. Language
// lists are cached for the lifetime of the process.
package translation
