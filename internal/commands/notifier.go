package commands

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var flashStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

// Console reports progress and confirmations on a terminal stream
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	progress float64
	quiet    bool
}

// NewConsole creates a console notifier. A quiet console prints only
// confirmations.
func NewConsole(out io.Writer, quiet bool) *Console {
	return &Console{out: out, quiet: quiet}
}

func (c *Console) Report(increment float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress += increment
	if c.quiet {
		return
	}
	progress := c.progress
	if progress > 100 {
		progress = 100
	}
	fmt.Fprintf(c.out, "\rTranslating... %3.0f%%", progress)
}

// Flash prints message on its own line and resets the progress counter.
// Printed lines stay, so timeout is ignored.
func (c *Console) Flash(message string, timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.quiet && c.progress > 0 {
		fmt.Fprintln(c.out)
	}
	c.progress = 0
	fmt.Fprintln(c.out, flashStyle.Render(message))
}
