package editor

import (
	"errors"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/kobzarvs/docsync/internal/annotation"
	"github.com/kobzarvs/docsync/internal/config"
	"github.com/kobzarvs/docsync/internal/cursor"
	"github.com/kobzarvs/docsync/internal/document"
	"github.com/kobzarvs/docsync/internal/logger"
	"github.com/kobzarvs/docsync/internal/reparse"
	"github.com/kobzarvs/docsync/internal/text"
	"github.com/kobzarvs/docsync/internal/virtual"
)

// Motion is a caret movement.
type Motion int

const (
	MoveLeft Motion = iota
	MoveRight
	MoveUp
	MoveDown
	MoveLineStart
	MoveLineEnd
	MoveFileStart
	MoveFileEnd
	MovePageUp
	MovePageDown
)

// Workspace owns the open documents and everything derived from them. All
// methods must be called from the interactive goroutine.
type Workspace struct {
	langs    config.Languages
	tabWidth int

	docs    map[string]*document.Document
	active  string
	cursors *cursor.Manager
	orch    *reparse.Orchestrator
	virt    *virtual.Virtualizer
	scanner *virtual.WidthScanner
	index   lineIndex

	pageRows int
	version  uint64
}

func NewWorkspace(cfg config.Config, langs config.Languages, parser reparse.Parser) *Workspace {
	tabWidth := cfg.Editor.TabWidth
	if tabWidth < 1 {
		tabWidth = 1
	}
	w := &Workspace{
		langs:    langs,
		tabWidth: tabWidth,
		docs:     make(map[string]*document.Document),
		orch:     reparse.NewOrchestrator(parser),
		virt: virtual.NewVirtualizer(virtual.Options{
			RowHeight: cfg.View.RowHeight,
			CharWidth: cfg.View.CharWidth,
			Overscan:  cfg.View.Overscan,
			Threshold: cfg.View.VirtualizeThreshold,
		}),
		scanner:  virtual.NewWidthScanner(tabWidth),
		pageRows: 20,
	}
	w.cursors = cursor.NewManager(w)
	return w
}

// Close stops the reparse worker.
func (w *Workspace) Close() {
	w.orch.Stop()
}

// Bounds implements cursor.Documents.
func (w *Workspace) Bounds(path string) (int, text.LineStarts) {
	doc, ok := w.docs[path]
	if !ok {
		return 0, text.LineStarts{0}
	}
	return doc.Len(), doc.LineStarts()
}

// Open registers a document. Reopening a path replaces its text.
func (w *Workspace) Open(path, content string) *document.Document {
	lang := ""
	if l := w.langs.Detect(path, []byte(content)); l != nil {
		lang = l.Name
	}
	doc := document.New(path, lang, content)
	w.docs[path] = doc
	w.version++
	logger.Document(path).Infow("document opened", "bytes", doc.Len(), "language", lang)
	if path == w.active {
		w.active = ""
		w.SetActive(path)
	}
	return doc
}

// OpenFile reads path from disk. A missing file opens as an empty
// document.
func (w *Workspace) OpenFile(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return w.Open(path, string(data)), nil
}

// Save writes the active document back to its path.
func (w *Workspace) Save() error {
	doc := w.Active()
	if doc == nil {
		return errors.New("no active document")
	}
	if err := os.WriteFile(doc.Path, []byte(doc.Text()), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", doc.Path, err)
	}
	doc.MarkSaved()
	w.version++
	logger.Document(doc.Path).Infow("document saved", "bytes", doc.Len())
	return nil
}

// Document returns the open document for path.
func (w *Workspace) Document(path string) *document.Document {
	return w.docs[path]
}

// Active returns the active document, or nil.
func (w *Workspace) Active() *document.Document {
	return w.docs[w.active]
}

func (w *Workspace) ActivePath() string {
	return w.active
}

// SetActive switches the active file and asks for a full parse of it.
func (w *Workspace) SetActive(path string) bool {
	doc, ok := w.docs[path]
	if !ok {
		return false
	}
	if path == w.active {
		return true
	}
	w.active = path
	w.orch.SetActive(path)
	w.orch.Reparse(path, doc.Text())
	has, blink := true, true
	w.cursors.UpdateState(path, func(prev cursor.State) cursor.Patch {
		return cursor.Patch{HasCursor: &has, IsBlinking: &blink}
	})
	w.relayout(true)
	w.version++
	return true
}

// Cursor returns the cursor state of the active file.
func (w *Workspace) Cursor() cursor.State {
	return w.cursors.GetState(w.active)
}

// Cursors exposes the cursor manager.
func (w *Workspace) Cursors() *cursor.Manager {
	return w.cursors
}

// ParseState reports the reparse state of the active file.
func (w *Workspace) ParseState() reparse.State {
	st, _ := w.orch.State(w.active)
	return st
}

// ApplyEdit runs one edit through the pipeline: buffer and line index,
// annotations, cursor, reparse scheduling and layout.
func (w *Workspace) ApplyEdit(path string, edit text.Edit) {
	doc, ok := w.docs[path]
	if !ok {
		logger.Document(path).Warnw("edit for unknown document")
		return
	}
	doc.ApplyEdit(edit)
	w.cursors.UpdateState(path, func(prev cursor.State) cursor.Patch {
		return cursor.TransformForEdit(prev, edit, doc.Len(), doc.LineStarts())
	})
	w.orch.Submit(path, edit, doc.Text())
	if path == w.active {
		if edit.LineDelta() != 0 {
			w.relayout(true)
		} else {
			w.scanner.Observe(virtual.LineWidth(doc.Line(edit.NewEndPosition.Row), w.tabWidth))
			w.virt.SetLayout(w.virt.Display(), w.scanner.MaxColumns())
		}
	}
	w.version++
}

// Insert replaces the primary selection (or inserts at the caret) with s.
func (w *Workspace) Insert(s string) {
	doc := w.Active()
	if doc == nil {
		return
	}
	start, end := w.selectionOrCaret()
	if start == end && s == "" {
		return
	}
	w.ApplyEdit(w.active, doc.NewEdit(start, end, s))
	w.clearSelections()
}

// Delete removes the primary selection, or one rune before (or after,
// when forward) the caret.
func (w *Workspace) Delete(forward bool) {
	doc := w.Active()
	if doc == nil {
		return
	}
	start, end := w.selectionOrCaret()
	if start == end {
		if forward {
			if end >= doc.Len() {
				return
			}
			_, size := utf8.DecodeRuneInString(doc.TextInRange(end, min(end+utf8.UTFMax, doc.Len())))
			end += size
		} else {
			if start == 0 {
				return
			}
			_, size := utf8.DecodeLastRuneInString(doc.TextInRange(max(start-utf8.UTFMax, 0), start))
			start -= size
		}
	}
	w.ApplyEdit(w.active, doc.NewEdit(start, end, ""))
	w.clearSelections()
}

// Newline breaks the line at the caret and repeats the line's indentation
// up to the caret.
func (w *Workspace) Newline() {
	doc := w.Active()
	if doc == nil {
		return
	}
	pos := w.Cursor().Position
	line := doc.Line(pos.Line)
	indent := line[:len(line)-len(trimIndent(line))]
	if len(indent) > pos.Column {
		indent = indent[:pos.Column]
	}
	w.Insert("\n" + indent)
}

func trimIndent(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' {
			return s[i:]
		}
	}
	return ""
}

func (w *Workspace) selectionOrCaret() (int, int) {
	st := w.Cursor()
	if len(st.Selections) > 0 && !st.Selections[0].Empty() {
		return st.Selections[0].Range()
	}
	return st.Position.Offset, st.Position.Offset
}

func (w *Workspace) clearSelections() {
	none := []cursor.Selection{}
	if w.cursors.UpdateState(w.active, func(cursor.State) cursor.Patch {
		return cursor.Patch{Selections: &none}
	}) {
		w.version++
	}
}

// MoveCursor moves the caret of the active file. Vertical motions walk
// display rows, so they step over collapsed folds.
func (w *Workspace) MoveCursor(m Motion) bool {
	doc := w.Active()
	if doc == nil {
		return false
	}
	st := w.Cursor()
	offset := st.Position.Offset
	line := st.Position.Line
	keepPreferred := false
	switch m {
	case MoveLeft:
		if offset > 0 {
			_, size := utf8.DecodeLastRuneInString(doc.TextInRange(max(offset-utf8.UTFMax, 0), offset))
			offset -= size
		}
	case MoveRight:
		if offset < doc.Len() {
			_, size := utf8.DecodeRuneInString(doc.TextInRange(offset, min(offset+utf8.UTFMax, doc.Len())))
			offset += size
		}
	case MoveUp, MoveDown, MovePageUp, MovePageDown:
		rows := 1
		if m == MovePageUp || m == MovePageDown {
			rows = w.pageRows
		}
		if m == MoveUp || m == MovePageUp {
			rows = -rows
		}
		display := w.virt.Display()
		target := display.Entry(display.RowForLine(line) + rows).Line
		offset = w.offsetAtColumn(doc, target, st.PreferredColumn)
		keepPreferred = true
	case MoveLineStart:
		offset, _ = doc.LineRange(line)
	case MoveLineEnd:
		_, offset = doc.LineRange(line)
	case MoveFileStart:
		offset = 0
	case MoveFileEnd:
		offset = doc.Len()
	}
	return w.moveTo(offset, keepPreferred)
}

// MoveTo places the caret at offset.
func (w *Workspace) MoveTo(offset int) bool {
	return w.moveTo(offset, false)
}

func (w *Workspace) moveTo(offset int, keepPreferred bool) bool {
	doc := w.Active()
	if doc == nil {
		return false
	}
	changed := w.cursors.UpdateState(w.active, func(prev cursor.State) cursor.Patch {
		pos := doc.PositionAt(offset)
		p := cursor.Position{Offset: offset, Line: pos.Line, Column: pos.Column}
		none := []cursor.Selection{}
		patch := cursor.Patch{Position: &p, Selections: &none}
		if !keepPreferred {
			col := pos.Column
			patch.PreferredColumn = &col
		}
		return patch
	})
	if changed {
		w.version++
	}
	return changed
}

// offsetAtColumn resolves a byte column on line, backing off to the start
// of the rune it falls in.
func (w *Workspace) offsetAtColumn(doc *document.Document, line, column int) int {
	start, end := doc.LineRange(line)
	offset := start + column
	if offset >= end {
		return end
	}
	s := doc.TextInRange(start, end)
	for offset > start && !utf8.RuneStart(s[offset-start]) {
		offset--
	}
	return offset
}

// SetPageRows sets how many rows page motions move.
func (w *Workspace) SetPageRows(rows int) {
	if rows > 0 {
		w.pageRows = rows
	}
}

// Pump applies reparse outcomes that have arrived. It never blocks and
// reports whether anything changed.
func (w *Workspace) Pump() bool {
	changed := false
	for {
		select {
		case out := <-w.orch.Results():
			set, ok := w.orch.Accept(out)
			if !ok {
				continue
			}
			doc, ok := w.docs[out.Path]
			if !ok {
				continue
			}
			doc.ReplaceAnnotations(set)
			if out.Path == w.active {
				w.relayout(false)
			}
			w.version++
			changed = true
		default:
			return changed
		}
	}
}

// StepScan advances the background width scan until deadline. It reports
// whether the scan has finished.
func (w *Workspace) StepScan(deadline time.Time) bool {
	before := w.scanner.MaxColumns()
	done := w.scanner.Step(deadline)
	if cols := w.scanner.MaxColumns(); cols != before {
		w.virt.SetLayout(w.virt.Display(), cols)
		w.version++
	}
	return done
}

// Version changes whenever anything the renderer shows changes.
func (w *Workspace) Version() uint64 {
	return w.version
}

// relayout rebuilds the display map of the active document. A rescan of
// line widths starts when the line count may have changed.
func (w *Workspace) relayout(rescan bool) {
	doc := w.Active()
	if doc == nil {
		w.virt.SetLayout(virtual.DisplayMap{}, 0)
		return
	}
	display := virtual.BuildDisplayMap(doc.LineCount(), doc.Annotations().Folds, doc.Collapsed())
	if rescan {
		w.scanner.Reset(doc.Line, doc.LineCount())
	}
	w.virt.SetLayout(display, w.scanner.MaxColumns())
}

// ToggleFold collapses or expands the fold at line: the widest fold
// starting there, else the innermost fold containing it. A caret hidden by
// the collapse moves to the fold's first line.
func (w *Workspace) ToggleFold(line int) bool {
	doc := w.Active()
	if doc == nil {
		return false
	}
	fold, ok := doc.FoldAt(line)
	if !ok {
		fold, ok = foldContaining(doc.Annotations().Folds, line)
		if !ok {
			return false
		}
	}
	collapse := !doc.IsCollapsed(fold.StartLine)
	if !doc.SetCollapsed(fold.StartLine, collapse) {
		return false
	}
	w.relayout(false)
	if collapse {
		st := w.Cursor()
		if st.Position.Line > fold.StartLine && st.Position.Line <= fold.EndLine {
			w.moveTo(w.offsetAtColumn(doc, fold.StartLine, st.PreferredColumn), true)
		}
	}
	w.version++
	logger.Document(doc.Path).Debugw("fold toggled", "start", fold.StartLine, "end", fold.EndLine, "collapsed", collapse)
	return true
}

func foldContaining(folds []annotation.FoldRange, line int) (annotation.FoldRange, bool) {
	var best annotation.FoldRange
	found := false
	for _, f := range folds {
		if f.StartLine <= line && line <= f.EndLine && (!found || f.StartLine > best.StartLine) {
			best = f
			found = true
		}
	}
	return best, found
}

// FindNext selects the next occurrence of needle after the caret,
// wrapping around to the top of the document.
func (w *Workspace) FindNext(needle string) bool {
	doc := w.Active()
	if doc == nil || needle == "" {
		return false
	}
	from := w.Cursor().Position.Offset + 1
	at, ok := doc.Find(needle, from)
	if !ok {
		at, ok = doc.Find(needle, 0)
	}
	if !ok {
		return false
	}
	pos := doc.PositionAt(at)
	p := cursor.Position{Offset: at, Line: pos.Line, Column: pos.Column}
	sel := []cursor.Selection{{Anchor: at, Focus: at + len(needle)}}
	col := pos.Column
	if w.cursors.UpdateState(w.active, func(cursor.State) cursor.Patch {
		return cursor.Patch{Position: &p, PreferredColumn: &col, Selections: &sel}
	}) {
		w.version++
	}
	return true
}
