// Package virtual maps buffer lines to display rows and decides which
// rows and columns of a large, possibly folded document are worth drawing.
package virtual

import (
	"sort"

	"github.com/kobzarvs/docsync/internal/annotation"
)

// Entry is one display row.
type Entry struct {
	Line int
	// Collapsed rows stand in for Line..FoldEnd.
	Collapsed bool
	FoldEnd   int
}

// DisplayMap is the monotonic mapping from display rows to buffer lines.
type DisplayMap struct {
	entries   []Entry
	lineCount int
}

// BuildDisplayMap lays out lineCount buffer lines. Lines inside a
// collapsed fold produce no row; the fold's start line produces a
// placeholder row. collapsed holds fold start lines.
func BuildDisplayMap(lineCount int, folds []annotation.FoldRange, collapsed []int) DisplayMap {
	if lineCount < 1 {
		lineCount = 1
	}
	ends := make(map[int]int, len(collapsed))
	for _, line := range collapsed {
		ends[line] = -1
	}
	for _, f := range folds {
		if end, ok := ends[f.StartLine]; ok && f.EndLine > end {
			ends[f.StartLine] = f.EndLine
		}
	}

	entries := make([]Entry, 0, lineCount)
	for line := 0; line < lineCount; line++ {
		end, ok := ends[line]
		if !ok || end <= line {
			entries = append(entries, Entry{Line: line})
			continue
		}
		if end >= lineCount {
			end = lineCount - 1
		}
		entries = append(entries, Entry{Line: line, Collapsed: true, FoldEnd: end})
		line = end
	}
	return DisplayMap{entries: entries, lineCount: lineCount}
}

func (m DisplayMap) Len() int {
	return len(m.entries)
}

// LineCount is the number of buffer lines the map was built for.
func (m DisplayMap) LineCount() int {
	return m.lineCount
}

// Entry returns the row, clamped to the map.
func (m DisplayMap) Entry(row int) Entry {
	if len(m.entries) == 0 {
		return Entry{}
	}
	if row < 0 {
		row = 0
	}
	if row >= len(m.entries) {
		row = len(m.entries) - 1
	}
	return m.entries[row]
}

// RowForLine returns the row showing line. Hidden lines map to the row of
// the fold that hides them.
func (m DisplayMap) RowForLine(line int) int {
	if len(m.entries) == 0 {
		return 0
	}
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].Line > line })
	if i == 0 {
		return 0
	}
	return i - 1
}
