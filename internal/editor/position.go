package editor

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Offset converts a 1-based line and 1-based character column into a byte
// offset of text. A column one past the end of the line addresses the line
// end.
func Offset(text string, line, col int) (int, error) {
	if line < 1 || col < 1 {
		return 0, fmt.Errorf("invalid position %d:%d", line, col)
	}

	start := 0
	for l := 1; l < line; l++ {
		i := strings.IndexByte(text[start:], '\n')
		if i < 0 {
			return 0, fmt.Errorf("line %d beyond end of buffer", line)
		}
		start += i + 1
	}

	end := len(text)
	if i := strings.IndexByte(text[start:], '\n'); i >= 0 {
		end = start + i
	}

	offset := start
	for c := 1; c < col; c++ {
		if offset >= end {
			return 0, fmt.Errorf("column %d beyond end of line %d", col, line)
		}
		_, size := utf8.DecodeRuneInString(text[offset:end])
		offset += size
	}
	return offset, nil
}

// ParseRange parses a selection of text. Accepted forms are
// "LINE:COL-LINE:COL", "LINE:COL" (an empty selection), "LINE" and
// "LINE-LINE" (whole lines without the final line break).
func ParseRange(text, raw string) (Range, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Range{}, fmt.Errorf("empty selection")
	}

	from, to, isSpan := strings.Cut(raw, "-")
	if !strings.Contains(from, ":") {
		first, err := parsePositive(from)
		if err != nil {
			return Range{}, fmt.Errorf("parse selection %q: %w", raw, err)
		}
		last := first
		if isSpan {
			if last, err = parsePositive(to); err != nil {
				return Range{}, fmt.Errorf("parse selection %q: %w", raw, err)
			}
		}
		if last < first {
			return Range{}, fmt.Errorf("parse selection %q: end before start", raw)
		}
		start, err := Offset(text, first, 1)
		if err != nil {
			return Range{}, err
		}
		end, err := Offset(text, last, 1)
		if err != nil {
			return Range{}, err
		}
		return lineRange(text, Range{Start: start, End: end}), nil
	}

	start, err := parsePosition(text, from)
	if err != nil {
		return Range{}, fmt.Errorf("parse selection %q: %w", raw, err)
	}
	if !isSpan {
		return Range{Start: start, End: start}, nil
	}
	end, err := parsePosition(text, to)
	if err != nil {
		return Range{}, fmt.Errorf("parse selection %q: %w", raw, err)
	}
	if end < start {
		return Range{}, fmt.Errorf("parse selection %q: end before start", raw)
	}
	return Range{Start: start, End: end}, nil
}

func parsePosition(text, pos string) (int, error) {
	lineStr, colStr, ok := strings.Cut(pos, ":")
	if !ok {
		return 0, fmt.Errorf("position %q is not LINE:COL", pos)
	}
	line, err := parsePositive(lineStr)
	if err != nil {
		return 0, err
	}
	col, err := parsePositive(colStr)
	if err != nil {
		return 0, err
	}
	return Offset(text, line, col)
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q is not a positive number", s)
	}
	return n, nil
}
