package virtual

// Options are fixed layout parameters. Sizes share one unit (terminal
// cells in the front end).
type Options struct {
	RowHeight int
	CharWidth int
	Overscan  int
	// Documents with fewer rows (or columns) than Threshold are drawn
	// whole.
	Threshold int
}

// Viewport is the scroll position and size of the visible area.
type Viewport struct {
	ScrollTop  int
	ScrollLeft int
	Height     int
	Width      int
}

// Window is the range to draw. Ends are exclusive.
type Window struct {
	RowStart    int
	RowEnd      int
	ColumnStart int
	ColumnEnd   int
}

// Contains reports whether display row is inside the window.
func (w Window) Contains(row int) bool {
	return row >= w.RowStart && row < w.RowEnd
}

type Virtualizer struct {
	opts       Options
	display    DisplayMap
	maxColumns int
}

func NewVirtualizer(opts Options) *Virtualizer {
	if opts.RowHeight < 1 {
		opts.RowHeight = 1
	}
	if opts.CharWidth < 1 {
		opts.CharWidth = 1
	}
	if opts.Overscan < 0 {
		opts.Overscan = 0
	}
	return &Virtualizer{opts: opts}
}

// SetLayout installs a new display map and line width. Call it when the
// fold state or the line count changes, or when the width scan advances.
func (v *Virtualizer) SetLayout(display DisplayMap, maxColumns int) {
	v.display = display
	v.maxColumns = maxColumns
}

func (v *Virtualizer) Display() DisplayMap {
	return v.display
}

func (v *Virtualizer) MaxColumns() int {
	return v.maxColumns
}

// Window computes the rows and columns intersecting vp, widened by the
// overscan. It does not touch the display map.
func (v *Virtualizer) Window(vp Viewport) Window {
	var w Window
	rows := v.display.Len()
	if rows < v.opts.Threshold {
		w.RowStart, w.RowEnd = 0, rows
	} else {
		first := floorDiv(vp.ScrollTop, v.opts.RowHeight)
		last := ceilDiv(vp.ScrollTop+vp.Height, v.opts.RowHeight)
		w.RowStart = clampInt(first-v.opts.Overscan, 0, rows)
		w.RowEnd = clampInt(last+v.opts.Overscan, w.RowStart, rows)
	}

	cols := v.maxColumns
	if cols < v.opts.Threshold {
		w.ColumnStart, w.ColumnEnd = 0, cols
	} else {
		first := floorDiv(vp.ScrollLeft, v.opts.CharWidth)
		last := ceilDiv(vp.ScrollLeft+vp.Width, v.opts.CharWidth)
		w.ColumnStart = clampInt(first-v.opts.Overscan, 0, cols)
		w.ColumnEnd = clampInt(last+v.opts.Overscan, w.ColumnStart, cols)
	}
	return w
}

func floorDiv(a, b int) int {
	if a < 0 {
		return 0
	}
	return a / b
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
