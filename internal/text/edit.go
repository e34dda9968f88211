package text

import (
	"fmt"
	"strings"
)

// Point is a row/column pair. Column is a byte offset within the row.
type Point struct {
	Row    int
	Column int
}

// Edit describes one text mutation. Indices are byte offsets into the
// buffer before (StartIndex, OldEndIndex) and after (NewEndIndex) the edit.
type Edit struct {
	StartIndex     int
	OldEndIndex    int
	NewEndIndex    int
	StartPosition  Point
	OldEndPosition Point
	NewEndPosition Point
	InsertedText   string
	// StartInIndent is set when only blanks precede StartIndex on its row.
	StartInIndent bool
}

// Validate reports a broken descriptor. Callers must never hand a
// descriptor that fails Validate to the document.
func (e Edit) Validate() error {
	if e.StartIndex < 0 {
		return fmt.Errorf("edit start %d is negative", e.StartIndex)
	}
	if e.StartIndex > e.OldEndIndex {
		return fmt.Errorf("edit start %d is after old end %d", e.StartIndex, e.OldEndIndex)
	}
	if e.NewEndIndex-e.StartIndex != len(e.InsertedText) {
		return fmt.Errorf("edit new end %d does not match inserted length %d at %d",
			e.NewEndIndex, len(e.InsertedText), e.StartIndex)
	}
	return nil
}

// IsInsertion reports whether the edit removes nothing.
func (e Edit) IsInsertion() bool {
	return e.OldEndIndex == e.StartIndex
}

// CharDelta is the change in document length.
func (e Edit) CharDelta() int {
	return e.NewEndIndex - e.OldEndIndex
}

// LineDelta is the change in line count.
func (e Edit) LineDelta() int {
	return e.NewEndPosition.Row - e.OldEndPosition.Row
}

// NewEdit builds a descriptor replacing source[start:oldEnd] with inserted.
// Out of range bounds are clamped to the source.
func NewEdit(source string, starts LineStarts, start, oldEnd int, inserted string) Edit {
	start = clamp(start, 0, len(source))
	oldEnd = clamp(oldEnd, start, len(source))
	startPos := PositionAt(start, starts, len(source))
	oldEndPos := PositionAt(oldEnd, starts, len(source))
	return Edit{
		StartIndex:     start,
		OldEndIndex:    oldEnd,
		NewEndIndex:    start + len(inserted),
		StartPosition:  Point{Row: startPos.Line, Column: startPos.Column},
		OldEndPosition: Point{Row: oldEndPos.Line, Column: oldEndPos.Column},
		NewEndPosition: advance(Point{Row: startPos.Line, Column: startPos.Column}, inserted),
		InsertedText:   inserted,
		StartInIndent:  isBlank(source[start-startPos.Column : start]),
	}
}

func isBlank(s string) bool {
	return strings.Trim(s, " \t") == ""
}

// advance moves p past text.
func advance(p Point, text string) Point {
	n := strings.Count(text, "\n")
	if n == 0 {
		return Point{Row: p.Row, Column: p.Column + len(text)}
	}
	last := strings.LastIndexByte(text, '\n')
	return Point{Row: p.Row + n, Column: len(text) - last - 1}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
