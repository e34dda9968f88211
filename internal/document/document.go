// Package document ties a text buffer to its line index, its annotations
// and the fold state the user chose for it.
package document

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kobzarvs/docsync/internal/annotation"
	"github.com/kobzarvs/docsync/internal/logger"
	"github.com/kobzarvs/docsync/internal/text"
)

const findChunkSize = 64 << 10

// Document is one open file. It is owned by the interactive goroutine.
type Document struct {
	Path     string
	Language string

	storage      Storage
	starts       text.LineStarts
	annotations  annotation.Set
	collapsed    []int
	version      uint64
	savedVersion uint64
	textVersion  uint64
}

func New(path, language, content string) *Document {
	return NewWithStorage(path, language, NewBuffer(content))
}

func NewWithStorage(path, language string, storage Storage) *Document {
	return &Document{
		Path:     path,
		Language: language,
		storage:  storage,
		starts:   text.BuildLineStarts(storage.TextInRange(0, storage.Len())),
	}
}

func (d *Document) Len() int {
	return d.storage.Len()
}

func (d *Document) Text() string {
	return d.storage.TextInRange(0, d.storage.Len())
}

func (d *Document) TextInRange(start, end int) string {
	return d.storage.TextInRange(start, end)
}

func (d *Document) LineStarts() text.LineStarts {
	return d.starts
}

func (d *Document) LineCount() int {
	return d.starts.Count()
}

// Line returns the text of line without its newline.
func (d *Document) Line(line int) string {
	start, end := d.starts.LineRange(line, d.storage.Len())
	return d.storage.TextInRange(start, end)
}

// LineRange returns the byte range of line without its newline.
func (d *Document) LineRange(line int) (int, int) {
	return d.starts.LineRange(line, d.storage.Len())
}

func (d *Document) PositionAt(offset int) text.Position {
	return text.PositionAt(offset, d.starts, d.storage.Len())
}

func (d *Document) OffsetAt(pos text.Position) int {
	return text.OffsetAt(pos, d.starts, d.storage.Len())
}

// NewEdit builds a descriptor replacing [start, oldEnd) with inserted.
func (d *Document) NewEdit(start, oldEnd int, inserted string) text.Edit {
	return text.NewEdit(d.Text(), d.starts, start, oldEnd, inserted)
}

// Version changes whenever the text, the annotations or the fold state
// change.
func (d *Document) Version() uint64 {
	return d.version
}

// TextVersion changes only when the text does.
func (d *Document) TextVersion() uint64 {
	return d.textVersion
}

func (d *Document) Dirty() bool {
	return d.textVersion != d.savedVersion
}

func (d *Document) MarkSaved() {
	d.savedVersion = d.textVersion
}

// ApplyEdit mutates the buffer and patches the line index, the
// annotations and the collapsed folds. A descriptor that fails validation
// is a caller bug and panics.
func (d *Document) ApplyEdit(edit text.Edit) {
	err := edit.Validate()
	if err == nil && edit.OldEndIndex > d.storage.Len() {
		err = fmt.Errorf("edit old end %d is past document length %d", edit.OldEndIndex, d.storage.Len())
	}
	if err != nil {
		logger.Document(d.Path).Errorw("malformed edit", "error", err)
		panic(fmt.Sprintf("document %s: %v", d.Path, err))
	}

	d.storage = d.storage.ApplyEdit(edit)
	d.starts = d.starts.Patch(edit)
	d.annotations.Shift([]text.Edit{edit})
	if len(d.collapsed) > 0 {
		d.collapsed = annotation.ShiftLines(d.collapsed, annotation.DeltasFor([]text.Edit{edit}))
		d.collapsed = d.liveCollapsed(d.collapsed)
	}
	d.textVersion++
	d.version++
}

// Annotations returns the current annotations. Callers must not modify
// the returned slices or map.
func (d *Document) Annotations() annotation.Set {
	return d.annotations
}

// ReplaceAnnotations installs a fresh parser result. Collapsed folds whose
// start line still begins a fold stay collapsed.
func (d *Document) ReplaceAnnotations(set annotation.Set) {
	d.annotations = set
	d.collapsed = d.liveCollapsed(d.collapsed)
	d.version++
}

func (d *Document) liveCollapsed(lines []int) []int {
	if len(lines) == 0 {
		return lines
	}
	out := lines[:0]
	for _, line := range lines {
		if _, ok := d.FoldAt(line); ok {
			out = append(out, line)
		}
	}
	return out
}

// FoldAt returns the widest fold starting at line.
func (d *Document) FoldAt(line int) (annotation.FoldRange, bool) {
	var best annotation.FoldRange
	found := false
	for _, f := range d.annotations.Folds {
		if f.StartLine == line && (!found || f.EndLine > best.EndLine) {
			best = f
			found = true
		}
	}
	return best, found
}

// Collapsed returns the sorted start lines of collapsed folds.
func (d *Document) Collapsed() []int {
	return append([]int(nil), d.collapsed...)
}

func (d *Document) IsCollapsed(line int) bool {
	i := sort.SearchInts(d.collapsed, line)
	return i < len(d.collapsed) && d.collapsed[i] == line
}

// SetCollapsed collapses or expands the fold starting at line. It reports
// whether the fold state changed.
func (d *Document) SetCollapsed(line int, collapsed bool) bool {
	if _, ok := d.FoldAt(line); !ok {
		return false
	}
	i := sort.SearchInts(d.collapsed, line)
	present := i < len(d.collapsed) && d.collapsed[i] == line
	switch {
	case collapsed && !present:
		d.collapsed = append(d.collapsed, 0)
		copy(d.collapsed[i+1:], d.collapsed[i:])
		d.collapsed[i] = line
	case !collapsed && present:
		d.collapsed = append(d.collapsed[:i], d.collapsed[i+1:]...)
	default:
		return false
	}
	d.version++
	return true
}

// Find returns the offset of the first occurrence of needle at or after
// from. The buffer is scanned in overlapping chunks so matches straddling
// a chunk boundary are still found.
func (d *Document) Find(needle string, from int) (int, bool) {
	if needle == "" || from < 0 || from >= d.storage.Len() {
		return 0, false
	}
	var r io.ReaderAt
	if ra, ok := d.storage.(io.ReaderAt); ok {
		r = ra
	} else {
		r = strings.NewReader(d.Text())
	}
	size := int64(d.storage.Len() - from)
	chunkSize := findChunkSize
	if chunkSize < len(needle) {
		chunkSize = len(needle)
	}
	cr := text.NewChunkReader(io.NewSectionReader(r, int64(from), size), size, chunkSize, len(needle)-1)
	pat := []byte(needle)
	for {
		chunk, ok := cr.Next()
		if !ok {
			break
		}
		if i := bytes.Index(chunk.Data, pat); i >= 0 {
			return from + int(chunk.Offset) + i, true
		}
	}
	if err := cr.Err(); err != nil {
		logger.Document(d.Path).Warnw("find failed", "error", err)
	}
	return 0, false
}
