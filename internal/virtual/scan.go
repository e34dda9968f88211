package virtual

import (
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/kobzarvs/docsync/internal/logger"
)

// LineFunc returns buffer line i.
type LineFunc func(i int) string

// Lines adapts a slice to a LineFunc.
func Lines(lines []string) LineFunc {
	return func(i int) string { return lines[i] }
}

// ScanState is where a width scan stopped.
type ScanState struct {
	NextIndex  int
	MaxColumns int
}

// LineWidth is the display width of line in cells. Tabs advance to the
// next multiple of tabSize.
func LineWidth(line string, tabSize int) int {
	if tabSize < 1 {
		tabSize = 1
	}
	col := 0
	for _, r := range line {
		if r == '\t' {
			col += tabSize - col%tabSize
			continue
		}
		col += runewidth.RuneWidth(r)
	}
	return col
}

// ScanLineWidthSlice measures lines [start, end), resuming from state. It
// processes at least one line, then checks shouldYield after each line
// and returns early with done=false when it fires.
func ScanLineWidthSlice(lines LineFunc, start, end int, state ScanState, tabSize int, shouldYield func() bool) (ScanState, bool) {
	i := state.NextIndex
	if i < start {
		i = start
	}
	maxCols := state.MaxColumns
	for i < end {
		if w := LineWidth(lines(i), tabSize); w > maxCols {
			maxCols = w
		}
		i++
		if i < end && shouldYield != nil && shouldYield() {
			return ScanState{NextIndex: i, MaxColumns: maxCols}, false
		}
	}
	return ScanState{NextIndex: i, MaxColumns: maxCols}, true
}

// WidthScanner finds the widest line of a document a slice at a time so
// the event loop never stalls on a huge file.
type WidthScanner struct {
	tabSize int
	lines   LineFunc
	count   int
	state   ScanState
	done    bool
	// result of the last finished scan, reported until the current one
	// finishes
	last int
}

func NewWidthScanner(tabSize int) *WidthScanner {
	return &WidthScanner{tabSize: tabSize, done: true}
}

// Reset starts a new scan over count lines.
func (w *WidthScanner) Reset(lines LineFunc, count int) {
	if w.done {
		w.last = w.state.MaxColumns
	}
	w.lines = lines
	w.count = count
	w.state = ScanState{}
	w.done = count == 0
}

// Step scans until deadline passes or the scan ends. It reports whether
// the scan is done.
func (w *WidthScanner) Step(deadline time.Time) bool {
	if w.done {
		return true
	}
	w.state, w.done = ScanLineWidthSlice(w.lines, 0, w.count, w.state, w.tabSize, func() bool {
		return !time.Now().Before(deadline)
	})
	if w.done {
		logger.Component("scan").Debugw("width scan finished", "lines", w.count, "max_columns", w.state.MaxColumns)
	}
	return w.done
}

func (w *WidthScanner) Done() bool {
	return w.done
}

// MaxColumns is the widest line seen. While a scan runs it never reports
// less than the previous finished scan.
func (w *WidthScanner) MaxColumns() int {
	if w.done {
		return w.state.MaxColumns
	}
	if w.last > w.state.MaxColumns {
		return w.last
	}
	return w.state.MaxColumns
}

// Observe raises the reported width to at least cols.
func (w *WidthScanner) Observe(cols int) {
	if cols > w.state.MaxColumns {
		w.state.MaxColumns = cols
	}
}

// Cell is one display cell of a line.
type Cell struct {
	Col  int
	Rune rune
	// Byte is the offset within the line of the rune that produced the
	// cell; expanded tabs share the tab's offset.
	Byte  int
	Width int
}

// Cells lays out the part of line that falls in columns [colStart,
// colEnd). Runes cut by either bound are left out.
func Cells(line string, colStart, colEnd, tabSize int) []Cell {
	if colEnd < colStart {
		logger.Warn("invalid column range", "start", colStart, "end", colEnd)
		return nil
	}
	if tabSize < 1 {
		tabSize = 1
	}
	var out []Cell
	col := 0
	for i, r := range line {
		if col >= colEnd {
			break
		}
		if r == '\t' {
			next := col + tabSize - col%tabSize
			for ; col < next; col++ {
				if col >= colStart && col < colEnd {
					out = append(out, Cell{Col: col, Rune: ' ', Byte: i, Width: 1})
				}
			}
			continue
		}
		width := runewidth.RuneWidth(r)
		if col >= colStart && col+width <= colEnd {
			out = append(out, Cell{Col: col, Rune: r, Byte: i, Width: width})
		}
		col += width
	}
	return out
}

// SliceColumns returns the text of line visible in columns [colStart,
// colEnd) with tabs expanded. An inverted range yields "" and a warning.
func SliceColumns(line string, colStart, colEnd, tabSize int) string {
	cells := Cells(line, colStart, colEnd, tabSize)
	var b strings.Builder
	for _, c := range cells {
		b.WriteRune(c.Rune)
	}
	return b.String()
}
