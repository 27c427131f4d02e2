package pipeline

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// Clipboard reads the system clipboard
type Clipboard interface {
	ReadAll() (string, error)
}

// SystemClipboard is the clipboard of the desktop session
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return "", fmt.Errorf("clipboard is not supported on this system")
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}
