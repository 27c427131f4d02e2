// Package editor holds text buffers that selections are read from and
// translations are written back to. Buffer keeps its text in memory; File
// saves every applied edit back to disk.
package editor
