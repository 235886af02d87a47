// Package text holds immutable document text snapshots and converts between byte offsets
// and LSP line/character positions (UTF-16 code units).
package text

import (
	"fmt"
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// ByteOffset is a byte index into a UTF-8 document.
type ByteOffset int

// Span is a half-open byte range [Start, End).
type Span struct {
	Start ByteOffset
	End   ByteOffset
}

// Validate reports an error if the span is malformed.
func (s Span) Validate() error {
	if s.Start < 0 {
		return fmt.Errorf("invalid span start: %d", s.Start)
	}
	if s.End < s.Start {
		return fmt.Errorf("invalid span bounds: end (%d) < start (%d)", s.End, s.Start)
	}
	return nil
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Position is a zero-based line and UTF-16 character offset.
type Position struct {
	Line      uint32
	Character uint32
}

// Range is a pair of positions.
type Range struct {
	Start Position
	End   Position
}

// Snapshot is one immutable version of a document's content together with its
// line-start table. Safe for concurrent use.
type Snapshot struct {
	Version    int32
	content    string
	lineStarts []int
}

// NewSnapshot indexes content. Lines end at "\n", "\r\n" or a lone "\r".
func NewSnapshot(version int32, content string) *Snapshot {
	return &Snapshot{
		Version:    version,
		content:    content,
		lineStarts: computeLineStarts(content),
	}
}

func computeLineStarts(content string) []int {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\n':
			starts = append(starts, i+1)
		case '\r':
			if i+1 < len(content) && content[i+1] == '\n' {
				i++
			}
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Content returns the full text.
func (s *Snapshot) Content() string {
	return s.content
}

// Len returns the content length in bytes.
func (s *Snapshot) Len() int {
	return len(s.content)
}

// LineCount returns the number of lines; an empty document has one line.
func (s *Snapshot) LineCount() int {
	return len(s.lineStarts)
}

// LineStart returns the byte offset at which line begins.
func (s *Snapshot) LineStart(line int) (ByteOffset, error) {
	if line < 0 || line >= len(s.lineStarts) {
		return 0, fmt.Errorf("line %d out of range [0,%d)", line, len(s.lineStarts))
	}
	return ByteOffset(s.lineStarts[line]), nil
}

// lineEnd returns the offset of the line terminator (or EOF) for line.
func (s *Snapshot) lineEnd(line int) int {
	end := len(s.content)
	if line+1 < len(s.lineStarts) {
		end = s.lineStarts[line+1]
	}
	for end > s.lineStarts[line] && (s.content[end-1] == '\n' || s.content[end-1] == '\r') {
		end--
	}
	return end
}

// OffsetToPosition translates a byte offset in [0, Len()]. Offsets inside a line
// terminator or a multi-byte rune snap back to the preceding boundary.
func (s *Snapshot) OffsetToPosition(off ByteOffset) (Position, error) {
	if off < 0 {
		return Position{}, fmt.Errorf("negative offset: %d", off)
	}
	o := int(off)
	if o > len(s.content) {
		return Position{}, fmt.Errorf("offset %d out of range [0,%d]", off, len(s.content))
	}

	line := sort.Search(len(s.lineStarts), func(i int) bool { return s.lineStarts[i] > o }) - 1
	start := s.lineStarts[line]
	if end := s.lineEnd(line); o > end {
		o = end
	}

	var units uint32
	for i := start; i < o; {
		r, size := utf8.DecodeRuneInString(s.content[i:])
		if i+size > o {
			break
		}
		// Invalid bytes decode to U+FFFD and count as one unit each.
		units += uint32(utf16.RuneLen(r))
		i += size
	}
	return Position{Line: uint32(line), Character: units}, nil
}

// SpanToRange translates both ends of span.
func (s *Snapshot) SpanToRange(span Span) (Range, error) {
	if err := span.Validate(); err != nil {
		return Range{}, err
	}
	start, err := s.OffsetToPosition(span.Start)
	if err != nil {
		return Range{}, err
	}
	end, err := s.OffsetToPosition(span.End)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}

// PositionToOffset is the inverse of OffsetToPosition. Characters past the end of the
// line clamp to the line end; a line past the last line is an error.
func (s *Snapshot) PositionToOffset(pos Position) (ByteOffset, error) {
	line := int(pos.Line)
	if line >= len(s.lineStarts) {
		return 0, fmt.Errorf("line %d out of range [0,%d)", line, len(s.lineStarts))
	}
	i := s.lineStarts[line]
	end := s.lineEnd(line)

	var units uint32
	for i < end && units < pos.Character {
		r, size := utf8.DecodeRuneInString(s.content[i:])
		n := uint32(utf16.RuneLen(r))
		if units+n > pos.Character {
			break
		}
		units += n
		i += size
	}
	return ByteOffset(i), nil
}
