package text

import (
	"sort"
	"strings"
)

// Position is a resolved line/column location. Column counts bytes.
type Position struct {
	Line   int
	Column int
}

// LineStarts holds the byte offset where every line begins. The first
// entry is always 0, so an empty document still has one line.
type LineStarts []int

// BuildLineStarts indexes every line of text.
func BuildLineStarts(text string) LineStarts {
	starts := make(LineStarts, 1, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Count returns the number of lines.
func (ls LineStarts) Count() int {
	if len(ls) == 0 {
		return 1
	}
	return len(ls)
}

// LineRange returns the [start, end) byte range of line, excluding the
// trailing newline. Lines outside the document are clamped.
func (ls LineStarts) LineRange(line, length int) (int, int) {
	if len(ls) == 0 {
		return 0, length
	}
	line = clamp(line, 0, len(ls)-1)
	start := ls[line]
	end := length
	if line+1 < len(ls) {
		end = ls[line+1] - 1
	}
	if end < start {
		end = start
	}
	return start, end
}

// LineOf returns the line containing offset.
func (ls LineStarts) LineOf(offset int) int {
	if len(ls) == 0 {
		return 0
	}
	// first start strictly greater than offset, minus one
	i := sort.Search(len(ls), func(i int) bool { return ls[i] > offset })
	if i == 0 {
		return 0
	}
	return i - 1
}

// PositionAt converts an absolute offset into a line/column position.
// The offset is clamped to [0, documentLength].
func PositionAt(offset int, starts LineStarts, documentLength int) Position {
	offset = clamp(offset, 0, documentLength)
	if len(starts) == 0 {
		return Position{Line: 0, Column: offset}
	}
	line := starts.LineOf(offset)
	return Position{Line: line, Column: offset - starts[line]}
}

// OffsetAt converts a position back into an absolute offset. Lines past
// the end clamp to the last line and columns clamp to the line length.
func OffsetAt(pos Position, starts LineStarts, documentLength int) int {
	if len(starts) == 0 {
		return clamp(pos.Column, 0, documentLength)
	}
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(starts) {
		return documentLength
	}
	start, end := starts.LineRange(pos.Line, documentLength)
	return clamp(start+pos.Column, start, end)
}

// Patch returns the index after applying edit. The receiver is not
// modified. Offsets before the edit are kept, line starts inside the
// replaced span are removed, later ones shift by the edit's delta and the
// newlines of the inserted text contribute new entries.
func (ls LineStarts) Patch(edit Edit) LineStarts {
	if len(ls) == 0 {
		ls = LineStarts{0}
	}
	// line starts are offsets just after a newline; a start equal to
	// StartIndex belongs to text before the edit
	keep := sort.Search(len(ls), func(i int) bool { return ls[i] > edit.StartIndex })
	rest := sort.Search(len(ls), func(i int) bool { return ls[i] > edit.OldEndIndex })

	added := strings.Count(edit.InsertedText, "\n")
	out := make(LineStarts, 0, keep+added+len(ls)-rest)
	out = append(out, ls[:keep]...)
	for i := 0; i < len(edit.InsertedText); i++ {
		if edit.InsertedText[i] == '\n' {
			out = append(out, edit.StartIndex+i+1)
		}
	}
	delta := edit.CharDelta()
	for _, s := range ls[rest:] {
		out = append(out, s+delta)
	}
	return out
}
