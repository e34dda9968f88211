// Package cursor owns per-file cursor and multi-selection state and keeps
// it inside the bounds of the document it belongs to.
package cursor

import (
	"github.com/kobzarvs/docsync/internal/text"
)

// Position is the primary caret location.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Selection is an anchored range. Focus is the moving end.
type Selection struct {
	Anchor int
	Focus  int
}

// Empty reports whether the selection covers no text.
func (s Selection) Empty() bool {
	return s.Anchor == s.Focus
}

// Range returns the ordered bounds of the selection.
func (s Selection) Range() (int, int) {
	if s.Anchor <= s.Focus {
		return s.Anchor, s.Focus
	}
	return s.Focus, s.Anchor
}

// State is the cursor state of one file.
type State struct {
	Position        Position
	PreferredColumn int
	Selections      []Selection
	HasCursor       bool
	IsBlinking      bool
}

// Equal compares every field, including each selection.
func (s State) Equal(o State) bool {
	if s.Position != o.Position || s.PreferredColumn != o.PreferredColumn ||
		s.HasCursor != o.HasCursor || s.IsBlinking != o.IsBlinking {
		return false
	}
	if len(s.Selections) != len(o.Selections) {
		return false
	}
	for i := range s.Selections {
		if s.Selections[i] != o.Selections[i] {
			return false
		}
	}
	return true
}

func (s State) clone() State {
	s.Selections = append([]Selection(nil), s.Selections...)
	return s
}

// Patch is a partial update. Nil fields keep the previous value.
type Patch struct {
	Position        *Position
	PreferredColumn *int
	Selections      *[]Selection
	HasCursor       *bool
	IsBlinking      *bool
}

func (p Patch) apply(s State) State {
	if p.Position != nil {
		s.Position = *p.Position
	}
	if p.PreferredColumn != nil {
		s.PreferredColumn = *p.PreferredColumn
	}
	if p.Selections != nil {
		s.Selections = append([]Selection(nil), (*p.Selections)...)
	}
	if p.HasCursor != nil {
		s.HasCursor = *p.HasCursor
	}
	if p.IsBlinking != nil {
		s.IsBlinking = *p.IsBlinking
	}
	return s
}

// Clamp caps the offset and every selection endpoint to [0, length]. When
// the offset moves, line and column are recomputed and the preferred
// column follows the new column.
func Clamp(s State, length int, starts text.LineStarts) State {
	for i := range s.Selections {
		s.Selections[i].Anchor = clampInt(s.Selections[i].Anchor, length)
		s.Selections[i].Focus = clampInt(s.Selections[i].Focus, length)
	}
	offset := clampInt(s.Position.Offset, length)
	if offset != s.Position.Offset {
		pos := text.PositionAt(offset, starts, length)
		s.Position = Position{Offset: offset, Line: pos.Line, Column: pos.Column}
		s.PreferredColumn = pos.Column
	}
	return s
}

func clampInt(v, length int) int {
	if v < 0 {
		return 0
	}
	if v > length {
		return length
	}
	return v
}

// TransformOffset moves offset through edit. Offsets before the edit stay,
// offsets at or after the old end shift by the edit's delta and offsets
// inside the replaced span land at the end of the inserted text.
func TransformOffset(offset int, edit text.Edit) int {
	switch {
	case offset < edit.StartIndex:
		return offset
	case offset >= edit.OldEndIndex:
		return offset + edit.CharDelta()
	default:
		return edit.NewEndIndex
	}
}

// TransformForEdit moves the caret and selections through edit and
// recomputes the caret's line and column against the post-edit index.
func TransformForEdit(s State, edit text.Edit, length int, starts text.LineStarts) Patch {
	offset := TransformOffset(s.Position.Offset, edit)
	pos := text.PositionAt(offset, starts, length)
	p := Position{Offset: offset, Line: pos.Line, Column: pos.Column}
	sels := make([]Selection, len(s.Selections))
	for i, sel := range s.Selections {
		sels[i] = Selection{
			Anchor: TransformOffset(sel.Anchor, edit),
			Focus:  TransformOffset(sel.Focus, edit),
		}
	}
	patch := Patch{Position: &p, Selections: &sels}
	if p.Line != s.Position.Line || p.Column != s.Position.Column {
		col := p.Column
		patch.PreferredColumn = &col
	}
	return patch
}
