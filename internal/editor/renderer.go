package editor

import (
	"sort"

	"github.com/kobzarvs/docsync/internal/document"
	"github.com/kobzarvs/docsync/internal/text"
	"github.com/kobzarvs/docsync/internal/virtual"
)

// HighlightSpan is a highlighted byte column range [StartCol, EndCol) of
// one line.
type HighlightSpan struct {
	StartCol int
	EndCol   int
	Kind     string
}

// errorKind marks parse error spans.
const errorKind = "error"

// lineIndex buckets captures and errors per line and keeps bracket
// offsets sorted. It is rebuilt on first use after the document changes.
type lineIndex struct {
	path     string
	version  uint64
	valid    bool
	spans    map[int][]HighlightSpan
	brackets []int
}

func (w *Workspace) lineIndex() *lineIndex {
	doc := w.Active()
	idx := &w.index
	if doc == nil {
		*idx = lineIndex{}
		return idx
	}
	if idx.valid && idx.path == doc.Path && idx.version == doc.Version() {
		return idx
	}
	*idx = lineIndex{path: doc.Path, version: doc.Version(), valid: true}
	set := doc.Annotations()
	starts := doc.LineStarts()
	idx.spans = make(map[int][]HighlightSpan)
	for _, c := range set.Captures {
		idx.add(doc, starts, c.StartIndex, c.EndIndex, c.Tag)
	}
	for _, e := range set.Errors {
		idx.add(doc, starts, e.StartIndex, e.EndIndex, errorKind)
	}
	idx.brackets = make([]int, 0, len(set.Brackets))
	for off := range set.Brackets {
		idx.brackets = append(idx.brackets, off)
	}
	sort.Ints(idx.brackets)
	return idx
}

func (idx *lineIndex) add(doc *document.Document, starts text.LineStarts, start, end int, kind string) {
	if end <= start {
		return
	}
	first := starts.LineOf(start)
	last := starts.LineOf(end - 1)
	for line := first; line <= last; line++ {
		ls, le := doc.LineRange(line)
		s, e := max(start, ls), min(end, le)
		if e <= s {
			continue
		}
		idx.spans[line] = append(idx.spans[line], HighlightSpan{StartCol: s - ls, EndCol: e - ls, Kind: kind})
	}
}

// Frame computes the window to draw for vp. The rows in the window are
// measured so the column range covers them even while the background scan
// is still running.
func (w *Workspace) Frame(vp virtual.Viewport) virtual.Window {
	win := w.virt.Window(vp)
	doc := w.Active()
	if doc == nil {
		return win
	}
	display := w.virt.Display()
	widest := 0
	for row := win.RowStart; row < win.RowEnd; row++ {
		if cols := virtual.LineWidth(doc.Line(display.Entry(row).Line), w.tabWidth); cols > widest {
			widest = cols
		}
	}
	if widest > w.virt.MaxColumns() {
		w.scanner.Observe(widest)
		w.virt.SetLayout(display, w.scanner.MaxColumns())
		win = w.virt.Window(vp)
	}
	return win
}

// Display returns the current display map of the active document.
func (w *Workspace) Display() virtual.DisplayMap {
	return w.virt.Display()
}

// LineText returns buffer line of the active document.
func (w *Workspace) LineText(line int) string {
	doc := w.Active()
	if doc == nil {
		return ""
	}
	return doc.Line(line)
}

// LineHighlights returns the highlight spans of the row's buffer line.
func (w *Workspace) LineHighlights(entry virtual.Entry) []HighlightSpan {
	return w.lineIndex().spans[entry.Line]
}

// LineBracketDepths maps byte columns of the row's line to bracket depth.
func (w *Workspace) LineBracketDepths(entry virtual.Entry) map[int]int {
	doc := w.Active()
	if doc == nil {
		return nil
	}
	idx := w.lineIndex()
	start, end := doc.LineRange(entry.Line)
	i := sort.SearchInts(idx.brackets, start)
	if i >= len(idx.brackets) || idx.brackets[i] >= end {
		return nil
	}
	depths := doc.Annotations().Brackets
	out := make(map[int]int)
	for ; i < len(idx.brackets) && idx.brackets[i] < end; i++ {
		out[idx.brackets[i]-start] = depths[idx.brackets[i]]
	}
	return out
}

// CursorVisible reports whether the caret of the active file falls inside
// win and is not hidden by a collapsed fold.
func (w *Workspace) CursorVisible(win virtual.Window) bool {
	doc := w.Active()
	st := w.Cursor()
	if doc == nil || !st.HasCursor {
		return false
	}
	display := w.virt.Display()
	row := display.RowForLine(st.Position.Line)
	if !win.Contains(row) || display.Entry(row).Line != st.Position.Line {
		return false
	}
	col := w.CaretColumn()
	return col >= win.ColumnStart && col <= win.ColumnEnd
}

// CaretColumn is the display column of the caret.
func (w *Workspace) CaretColumn() int {
	doc := w.Active()
	if doc == nil {
		return 0
	}
	st := w.Cursor()
	start, _ := doc.LineRange(st.Position.Line)
	return virtual.LineWidth(doc.TextInRange(start, st.Position.Offset), w.tabWidth)
}
