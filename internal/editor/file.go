package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a buffer backed by a file on disk. Applied edits are saved
// atomically; when saving fails the buffer keeps its previous content.
type File struct {
	mu   sync.Mutex
	path string
	perm os.FileMode
	buf  *Buffer
}

// OpenFile loads path into a buffer
func OpenFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &File{path: path, perm: info.Mode().Perm(), buf: NewBuffer(string(data))}, nil
}

// Path returns the file path
func (f *File) Path() string {
	return f.path
}

// Content returns the buffer content
func (f *File) Content() string {
	return f.buf.Content()
}

// Selections parses selections against the current content. With no
// selections the whole file is selected.
func (f *File) Selections(selections []string) ([]Range, error) {
	content := f.buf.Content()
	if len(selections) == 0 {
		return []Range{{Start: 0, End: len(content)}}, nil
	}

	ranges := make([]Range, 0, len(selections))
	for _, raw := range selections {
		r, err := ParseRange(content, raw)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func (f *File) Text(r Range) (string, error) {
	return f.buf.Text(r)
}

func (f *File) LineRange(r Range) Range {
	return f.buf.LineRange(r)
}

func (f *File) SingleLine(r Range) bool {
	return f.buf.SingleLine(r)
}

// Apply applies edits and saves the file
func (f *File) Apply(edits []Edit) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	updated, err := applyEdits(f.buf.Content(), edits)
	if err != nil {
		return err
	}
	if err := writeAtomic(f.path, []byte(updated), f.perm); err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}

	f.buf.mu.Lock()
	f.buf.text = updated
	f.buf.mu.Unlock()
	return nil
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
