package annotation

import (
	"sort"

	"github.com/kobzarvs/docsync/internal/text"
)

// Delta is the index arithmetic of one edit.
type Delta struct {
	CharDelta     int
	LineDelta     int
	FromCharIndex int
	OldEndIndex   int
	FromLineRow   int
	OldEndRow     int
	NewEndRow     int
	FromColumn    int
	FromIndent    bool
}

// DeltasFor converts edits into deltas, preserving order.
func DeltasFor(edits []text.Edit) []Delta {
	out := make([]Delta, len(edits))
	for i, e := range edits {
		out[i] = Delta{
			CharDelta:     e.CharDelta(),
			LineDelta:     e.LineDelta(),
			FromCharIndex: e.StartIndex,
			OldEndIndex:   e.OldEndIndex,
			FromLineRow:   e.StartPosition.Row,
			OldEndRow:     e.OldEndPosition.Row,
			NewEndRow:     e.NewEndPosition.Row,
			FromColumn:    e.StartPosition.Column,
			FromIndent:    e.StartInIndent,
		}
	}
	return out
}

func (d Delta) changesLines() bool {
	return d.LineDelta != 0 || d.OldEndRow != d.NewEndRow
}

// pushesRow reports whether the edit is a line-adding insertion that
// starts before the first non-blank byte of its row, so the row's text
// moves down whole.
func (d Delta) pushesRow() bool {
	return d.FromLineRow == d.OldEndRow && d.LineDelta > 0 && (d.FromColumn == 0 || d.FromIndent)
}

// shiftStart moves an inclusive start index. A start inside the replaced
// span is lost.
func (d Delta) shiftStart(i int) (int, bool) {
	switch {
	case i >= d.OldEndIndex:
		return i + d.CharDelta, true
	case i <= d.FromCharIndex:
		return i, true
	default:
		return 0, false
	}
}

// shiftEnd moves an exclusive end index. An end equal to the insertion
// point stays, so spans do not grow to swallow text typed right after them.
func (d Delta) shiftEnd(i int) (int, bool) {
	switch {
	case i <= d.FromCharIndex:
		return i, true
	case i >= d.OldEndIndex:
		return i + d.CharDelta, true
	default:
		return 0, false
	}
}

// shiftPoint moves a single-character index such as a bracket.
func (d Delta) shiftPoint(i int) (int, bool) {
	switch {
	case i < d.FromCharIndex:
		return i, true
	case i >= d.OldEndIndex:
		return i + d.CharDelta, true
	default:
		return 0, false
	}
}

// ShiftCaptures returns captures moved through deltas. Order is kept;
// captures with an endpoint inside a replaced span or that become empty
// are dropped until the next reparse restores them.
func ShiftCaptures(captures []Capture, deltas []Delta) []Capture {
	if len(captures) == 0 || len(deltas) == 0 {
		return captures
	}
	out := make([]Capture, 0, len(captures))
next:
	for _, c := range captures {
		for _, d := range deltas {
			start, ok1 := d.shiftStart(c.StartIndex)
			end, ok2 := d.shiftEnd(c.EndIndex)
			if !ok1 || !ok2 || end <= start {
				continue next
			}
			c.StartIndex, c.EndIndex = start, end
		}
		out = append(out, c)
	}
	return out
}

// ShiftErrors applies the capture rules to parse errors. Zero-width
// errors (missing tokens) move as a point and are kept as long as they sit
// outside a replaced span.
func ShiftErrors(errs []ParseError, deltas []Delta) []ParseError {
	if len(errs) == 0 || len(deltas) == 0 {
		return errs
	}
	out := make([]ParseError, 0, len(errs))
next:
	for _, pe := range errs {
		for _, d := range deltas {
			if pe.StartIndex == pe.EndIndex {
				at, ok := d.shiftPoint(pe.StartIndex)
				if !ok && pe.StartIndex == d.FromCharIndex {
					at, ok = pe.StartIndex, true
				}
				if !ok {
					continue next
				}
				pe.StartIndex, pe.EndIndex = at, at
				continue
			}
			start, ok1 := d.shiftStart(pe.StartIndex)
			end, ok2 := d.shiftEnd(pe.EndIndex)
			if !ok1 || !ok2 || end < start {
				continue next
			}
			pe.StartIndex, pe.EndIndex = start, end
		}
		out = append(out, pe)
	}
	return out
}

// ShiftBrackets rekeys the depth map. Brackets inside a replaced span are
// dropped.
func ShiftBrackets(brackets BracketDepths, deltas []Delta) BracketDepths {
	if len(brackets) == 0 || len(deltas) == 0 {
		return brackets
	}
	out := make(BracketDepths, len(brackets))
next:
	for idx, depth := range brackets {
		for _, d := range deltas {
			moved, ok := d.shiftPoint(idx)
			if !ok {
				continue next
			}
			idx = moved
		}
		out[idx] = depth
	}
	return out
}

// ShiftFolds moves fold ranges through deltas. folds must be sorted by
// EndLine; the result is too. Folds that end up with EndLine <= StartLine
// or a negative StartLine are dropped.
func ShiftFolds(folds []FoldRange, deltas []Delta) []FoldRange {
	if len(folds) == 0 || len(deltas) == 0 {
		return folds
	}
	minRow := -1
	for _, d := range deltas {
		if !d.changesLines() {
			continue
		}
		if minRow < 0 || d.FromLineRow < minRow {
			minRow = d.FromLineRow
		}
	}
	if minRow < 0 {
		return folds
	}

	first := sort.Search(len(folds), func(i int) bool { return folds[i].EndLine >= minRow })
	out := make([]FoldRange, 0, len(folds))
	out = append(out, folds[:first]...)
	for _, f := range folds[first:] {
		for _, d := range deltas {
			if !d.changesLines() {
				continue
			}
			f = shiftFold(f, d)
		}
		if f.Valid() {
			out = append(out, f)
		}
	}
	SortFolds(out)
	return out
}

func shiftFold(f FoldRange, d Delta) FoldRange {
	row, oldEnd, newEnd := d.FromLineRow, d.OldEndRow, d.NewEndRow
	switch {
	case f.StartLine > oldEnd:
		f.StartLine += d.LineDelta
		f.EndLine += d.LineDelta
	case f.StartLine == row && d.pushesRow():
		// lines typed in the first line's indent land before the fold
		f.StartLine += d.LineDelta
		f.EndLine += d.LineDelta
	case f.StartLine <= row:
		switch {
		case f.EndLine < row:
		case f.EndLine > oldEnd:
			f.EndLine += d.LineDelta
		case f.EndLine == row && row == oldEnd && d.LineDelta > 0 && !d.pushesRow():
			// lines typed after the last line's text land after the fold
		case d.LineDelta > 0:
			f.EndLine = newEnd
		default:
			f.EndLine = max(f.StartLine+1, newEnd)
		}
	default:
		// row < StartLine <= oldEnd
		if d.LineDelta > 0 {
			f.StartLine = newEnd + (f.StartLine - oldEnd)
			f.EndLine += d.LineDelta
			break
		}
		f.StartLine = row
		if f.EndLine > oldEnd {
			f.EndLine += d.LineDelta
		} else {
			f.EndLine = newEnd
		}
		f.EndLine = max(f.StartLine+1, f.EndLine)
	}
	return f
}

// ShiftLines moves bare line numbers (such as collapsed fold anchors) with
// the same rules used for fold starts. Lines removed by a deletion collapse
// onto the edit's first row; duplicates are removed.
func ShiftLines(lines []int, deltas []Delta) []int {
	if len(lines) == 0 || len(deltas) == 0 {
		return lines
	}
	seen := make(map[int]bool, len(lines))
	out := make([]int, 0, len(lines))
	for _, line := range lines {
		for _, d := range deltas {
			if !d.changesLines() {
				continue
			}
			switch {
			case line > d.OldEndRow:
				line += d.LineDelta
			case line == d.FromLineRow && d.pushesRow():
				line += d.LineDelta
			case line <= d.FromLineRow:
			case d.LineDelta > 0:
				line += d.LineDelta
			default:
				line = d.FromLineRow
			}
		}
		if line < 0 || seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	sort.Ints(out)
	return out
}
