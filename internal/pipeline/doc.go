// Package pipeline translates the selections of an editor buffer. All
// selections are translated concurrently and written back in one atomic
// edit, each result at the index of the selection it came from.
package pipeline
