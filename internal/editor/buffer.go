package editor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrRejected is returned when an edit batch cannot be applied. No edit of
// the batch lands.
var ErrRejected = errors.New("edit rejected")

// Range is a half-open byte range [Start, End) of a buffer
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the range selects nothing
func (r Range) Empty() bool {
	return r.End <= r.Start
}

// Edit replaces the text of Range with Text
type Edit struct {
	Range Range  `json:"range"`
	Text  string `json:"text"`
}

// Buffer is an in-memory text buffer. It is safe for concurrent use.
type Buffer struct {
	mu   sync.RWMutex
	text string
}

// NewBuffer creates a buffer holding text
func NewBuffer(text string) *Buffer {
	return &Buffer{text: text}
}

// Content returns the whole buffer
func (b *Buffer) Content() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Text returns the text selected by r
func (b *Buffer) Text(r Range) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := check(r, len(b.text)); err != nil {
		return "", err
	}
	return b.text[r.Start:r.End], nil
}

// LineRange expands r to the full lines it touches, without the trailing
// line break
func (b *Buffer) LineRange(r Range) Range {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return lineRange(b.text, r)
}

// SingleLine reports whether r does not cross a line break
func (b *Buffer) SingleLine(r Range) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if check(r, len(b.text)) != nil {
		return false
	}
	return !strings.Contains(b.text[r.Start:r.End], "\n")
}

// Apply applies all edits at once. Edits are given in buffer coordinates
// before any of them is applied; they must lie inside the buffer and must
// not overlap. On error the buffer is unchanged.
func (b *Buffer) Apply(edits []Edit) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	text, err := applyEdits(b.text, edits)
	if err != nil {
		return err
	}
	b.text = text
	return nil
}

func applyEdits(text string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return text, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Start < sorted[j].Range.Start
	})

	for i, e := range sorted {
		if err := check(e.Range, len(text)); err != nil {
			return "", err
		}
		if i > 0 && sorted[i-1].Range.End > e.Range.Start {
			return "", fmt.Errorf("%w: ranges %v and %v overlap", ErrRejected, sorted[i-1].Range, e.Range)
		}
	}

	var sb strings.Builder
	sb.Grow(len(text))
	pos := 0
	for _, e := range sorted {
		sb.WriteString(text[pos:e.Range.Start])
		sb.WriteString(e.Text)
		pos = e.Range.End
	}
	sb.WriteString(text[pos:])
	return sb.String(), nil
}

func check(r Range, size int) error {
	if r.Start < 0 || r.End < r.Start || r.End > size {
		return fmt.Errorf("%w: range %d-%d outside buffer of %d bytes", ErrRejected, r.Start, r.End, size)
	}
	return nil
}

func lineRange(text string, r Range) Range {
	start := clamp(r.Start, 0, len(text))
	end := clamp(r.End, start, len(text))

	if i := strings.LastIndexByte(text[:start], '\n'); i >= 0 {
		start = i + 1
	} else {
		start = 0
	}
	if i := strings.IndexByte(text[end:], '\n'); i >= 0 {
		end += i
	} else {
		end = len(text)
	}
	return Range{Start: start, End: end}
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
