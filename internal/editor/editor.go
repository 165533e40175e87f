// Package editor extracts selected text from source files the way an
// editor hands selections to a command: a non-empty selection yields its
// text, an empty one (a bare cursor) yields the whole line under it.
package editor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

var (
	// ErrBinary is returned for files that are not text.
	ErrBinary = errors.New("file is not a text file")
	// ErrOutOfRange is returned when a selection points past the document.
	ErrOutOfRange = errors.New("selection out of range")
	// ErrBadSelection is returned for selections that cannot be parsed.
	ErrBadSelection = errors.New("invalid selection")
)

// Position is a 1-based line and rune column. Column 0 on a selection end
// means the end of that line.
type Position struct {
	Line   int
	Column int
}

func (p Position) before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	if p.Column == 0 {
		return false
	}
	return o.Column == 0 || p.Column < o.Column
}

// Selection is a range between two positions, end exclusive.
type Selection struct {
	Start Position
	End   Position
}

// Cursor returns an empty selection on line.
func Cursor(line int) Selection {
	p := Position{Line: line, Column: 1}
	return Selection{Start: p, End: p}
}

// IsEmpty reports whether the selection is a bare cursor.
func (s Selection) IsEmpty() bool {
	return s.Start == s.End
}

// ParseSelection accepts "12" (cursor), "12-14" (whole lines) and
// "12:5-14:8" (exact range).
func ParseSelection(s string) (Selection, error) {
	s = strings.TrimSpace(s)
	from, to, isRange := strings.Cut(s, "-")

	start, err := parsePosition(from, 1)
	if err != nil {
		return Selection{}, fmt.Errorf("%w %q: %v", ErrBadSelection, s, err)
	}
	if !isRange {
		if strings.Contains(from, ":") {
			return Selection{Start: start, End: start}, nil
		}
		return Cursor(start.Line), nil
	}

	end, err := parsePosition(to, 0)
	if err != nil {
		return Selection{}, fmt.Errorf("%w %q: %v", ErrBadSelection, s, err)
	}
	return Selection{Start: start, End: end}, nil
}

func parsePosition(s string, defaultColumn int) (Position, error) {
	lineStr, colStr, hasCol := strings.Cut(strings.TrimSpace(s), ":")
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return Position{}, fmt.Errorf("line must be a positive number")
	}
	pos := Position{Line: line, Column: defaultColumn}
	if hasCol {
		col, err := strconv.Atoi(colStr)
		if err != nil || col < 1 {
			return Position{}, fmt.Errorf("column must be a positive number")
		}
		pos.Column = col
	}
	return pos, nil
}

// Document is a decoded text file split into lines.
type Document struct {
	Path     string
	Charset  string
	MimeType string
	lines    []string
}

// Open reads path, refusing binary content and decoding legacy encodings to UTF-8.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	mtype := mimetype.Detect(data)
	if !isText(mtype) {
		return nil, fmt.Errorf("%w: %s is %s", ErrBinary, path, mtype.String())
	}

	text, cs, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return NewDocument(path, text, cs, mtype.String()), nil
}

// NewDocument wraps already decoded text.
func NewDocument(path, text, cs, mtype string) *Document {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return &Document{Path: path, Charset: cs, MimeType: mtype, lines: lines}
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Line returns a 1-based line.
func (d *Document) Line(n int) (string, error) {
	if n < 1 || n > len(d.lines) {
		return "", fmt.Errorf("%w: line %d of %d", ErrOutOfRange, n, len(d.lines))
	}
	return d.lines[n-1], nil
}

// Text returns the text under sel, or the whole cursor line when sel is empty.
func (d *Document) Text(sel Selection) (string, error) {
	if sel.IsEmpty() {
		return d.Line(sel.Start.Line)
	}

	start, end := sel.Start, sel.End
	if end.before(start) {
		start, end = end, start
		if start.Column == 0 {
			start.Column = 1
		}
	}

	var b strings.Builder
	for n := start.Line; n <= end.Line; n++ {
		line, err := d.Line(n)
		if err != nil {
			return "", err
		}
		runes := []rune(line)

		from := 0
		if n == start.Line {
			from = clamp(start.Column-1, len(runes))
		}
		to := len(runes)
		if n == end.Line && end.Column > 0 {
			to = clamp(end.Column-1, len(runes))
		}
		if from < to {
			b.WriteString(string(runes[from:to]))
		}
		if n != end.Line {
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// Texts returns the text of each selection in order, dropping empty results.
func (d *Document) Texts(selections []Selection) ([]string, error) {
	texts := make([]string, 0, len(selections))
	for _, sel := range selections {
		text, err := d.Text(sel)
		if err != nil {
			return nil, err
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return texts, nil
}

// Texts opens path and extracts the selections.
func Texts(path string, selections []Selection) ([]string, error) {
	doc, err := Open(path)
	if err != nil {
		return nil, err
	}
	return doc.Texts(selections)
}

func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func decode(data []byte) (string, string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}

	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "", "", fmt.Errorf("unknown charset")
	}

	name := strings.ToLower(result.Charset)
	enc, canonical := charset.Lookup(name)
	if enc == nil {
		return "", "", fmt.Errorf("unsupported charset %s", name)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", err
	}
	return string(decoded), canonical, nil
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
