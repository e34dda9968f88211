// Package annotation holds the metadata derived from a text buffer
// (highlight captures, fold ranges, bracket depths, parse errors) and the
// index arithmetic that keeps it aligned with the buffer between reparses.
package annotation

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kobzarvs/docsync/internal/text"
)

// Capture is a highlighted byte span [StartIndex, EndIndex).
type Capture struct {
	StartIndex int
	EndIndex   int
	Tag        string
}

// FoldRange is a collapsible line span. EndLine > StartLine >= 0.
type FoldRange struct {
	StartLine int
	EndLine   int
	Type      string
}

// Valid reports whether the fold satisfies its invariant.
func (f FoldRange) Valid() bool {
	return f.StartLine >= 0 && f.EndLine > f.StartLine
}

// BracketDepths maps the byte index of a bracket to its nesting depth.
type BracketDepths map[int]int

// ParseError is a span the parser could not make sense of.
type ParseError struct {
	StartIndex int
	EndIndex   int
	Message    string
}

// Set is every annotation for one document.
type Set struct {
	Captures []Capture
	Folds    []FoldRange
	Brackets BracketDepths
	Errors   []ParseError
}

// Clone returns a deep copy.
func (s Set) Clone() Set {
	out := Set{
		Captures: append([]Capture(nil), s.Captures...),
		Folds:    append([]FoldRange(nil), s.Folds...),
		Errors:   append([]ParseError(nil), s.Errors...),
	}
	if s.Brackets != nil {
		out.Brackets = make(BracketDepths, len(s.Brackets))
		for k, v := range s.Brackets {
			out.Brackets[k] = v
		}
	}
	return out
}

// SortFolds orders folds by EndLine, then StartLine.
func SortFolds(folds []FoldRange) {
	sort.SliceStable(folds, func(i, j int) bool {
		if folds[i].EndLine != folds[j].EndLine {
			return folds[i].EndLine < folds[j].EndLine
		}
		return folds[i].StartLine < folds[j].StartLine
	})
}

// IsShiftableEdit reports whether edit is a pure insertion of non-empty,
// whitespace-only text. Such an edit cannot change tokenization, so index
// arithmetic alone keeps annotations correct.
func IsShiftableEdit(edit text.Edit) bool {
	if edit.OldEndIndex != edit.StartIndex || edit.InsertedText == "" {
		return false
	}
	return strings.IndexFunc(edit.InsertedText, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}

// Shift patches the set in place for edits, applied in order.
func (s *Set) Shift(edits []text.Edit) {
	if len(edits) == 0 {
		return
	}
	deltas := DeltasFor(edits)
	s.Captures = ShiftCaptures(s.Captures, deltas)
	s.Folds = ShiftFolds(s.Folds, deltas)
	s.Brackets = ShiftBrackets(s.Brackets, deltas)
	s.Errors = ShiftErrors(s.Errors, deltas)
}
