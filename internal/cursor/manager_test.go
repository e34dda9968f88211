package cursor

import (
	"math/rand"
	"testing"

	"github.com/kobzarvs/docsync/internal/text"
)

type fakeDocs map[string]string

func (f fakeDocs) Bounds(path string) (int, text.LineStarts) {
	src := f[path]
	return len(src), text.BuildLineStarts(src)
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestGetStateDefault(t *testing.T) {
	m := NewManager(fakeDocs{})
	s := m.GetState("a.go")
	if s.HasCursor || s.Position.Offset != 0 || len(s.Selections) != 0 {
		t.Fatalf("default state = %+v", s)
	}
	if m.Version() != 0 {
		t.Fatalf("lazy creation bumped version to %d", m.Version())
	}
}

func TestUpdateStateNoOp(t *testing.T) {
	m := NewManager(fakeDocs{"a.go": "hello\nworld\n"})
	if !m.UpdateState("a.go", func(State) Patch { return Patch{HasCursor: boolPtr(true)} }) {
		t.Fatalf("first update reported no change")
	}
	v := m.Version()
	changed := m.UpdateState("a.go", func(prev State) Patch {
		return Patch{HasCursor: boolPtr(prev.HasCursor)}
	})
	if changed {
		t.Fatalf("identical patch reported a change")
	}
	if m.Version() != v {
		t.Fatalf("version moved on no-op: %d -> %d", v, m.Version())
	}
}

func TestUpdateStateSelectionsCompared(t *testing.T) {
	m := NewManager(fakeDocs{"a.go": "hello"})
	sels := []Selection{{Anchor: 1, Focus: 3}}
	if !m.UpdateState("a.go", func(State) Patch { return Patch{Selections: &sels} }) {
		t.Fatalf("adding a selection reported no change")
	}
	same := []Selection{{Anchor: 1, Focus: 3}}
	if m.UpdateState("a.go", func(State) Patch { return Patch{Selections: &same} }) {
		t.Fatalf("same selections reported a change")
	}
	moved := []Selection{{Anchor: 1, Focus: 4}}
	if !m.UpdateState("a.go", func(State) Patch { return Patch{Selections: &moved} }) {
		t.Fatalf("moved focus reported no change")
	}
	// caller mutations do not leak into the stored state
	moved[0].Focus = 0
	if got := m.GetState("a.go").Selections[0].Focus; got != 4 {
		t.Fatalf("stored focus = %d, want 4", got)
	}
}

func TestUpdateStateClampsAfterShrink(t *testing.T) {
	docs := fakeDocs{"a.go": "line one\nline two\nline three"}
	m := NewManager(docs)
	m.UpdateState("a.go", func(State) Patch {
		return Patch{
			Position:        &Position{Offset: 25, Line: 2, Column: 7},
			PreferredColumn: intPtr(7),
			Selections:      &[]Selection{{Anchor: 20, Focus: 26}},
			HasCursor:       boolPtr(true),
		}
	})

	docs["a.go"] = "ab\ncd"
	m.UpdateState("a.go", func(State) Patch { return Patch{IsBlinking: boolPtr(true)} })
	s := m.GetState("a.go")
	if s.Position != (Position{Offset: 5, Line: 1, Column: 2}) {
		t.Fatalf("position = %+v, want {5 1 2}", s.Position)
	}
	if s.PreferredColumn != 2 {
		t.Fatalf("preferred column = %d, want 2", s.PreferredColumn)
	}
	if s.Selections[0] != (Selection{Anchor: 5, Focus: 5}) {
		t.Fatalf("selection = %+v", s.Selections[0])
	}
}

func TestUpdateStatePerPath(t *testing.T) {
	m := NewManager(fakeDocs{"a.go": "aaaa", "b.go": "bbbbbbbb"})
	m.UpdateState("a.go", func(State) Patch { return Patch{Position: &Position{Offset: 3, Column: 3}} })
	m.UpdateState("b.go", func(State) Patch { return Patch{Position: &Position{Offset: 7, Column: 7}} })
	if got := m.GetState("a.go").Position.Offset; got != 3 {
		t.Fatalf("a.go offset = %d", got)
	}
	if got := m.GetState("b.go").Position.Offset; got != 7 {
		t.Fatalf("b.go offset = %d", got)
	}
	if m.Version() != 2 {
		t.Fatalf("version = %d, want 2", m.Version())
	}
}

func TestClampIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	src := "alpha\nbeta\n\ngamma delta\n"
	starts := text.BuildLineStarts(src)
	for i := 0; i < 200; i++ {
		length := rng.Intn(len(src) + 1)
		s := State{
			Position:   Position{Offset: rng.Intn(60) - 10},
			Selections: []Selection{{Anchor: rng.Intn(60) - 10, Focus: rng.Intn(60) - 10}},
		}
		once := Clamp(s.clone(), length, starts)
		twice := Clamp(once.clone(), length, starts)
		if !once.Equal(twice) {
			t.Fatalf("clamp not idempotent: %+v vs %+v", once, twice)
		}
		if once.Position.Offset < 0 || once.Position.Offset > length {
			t.Fatalf("offset %d outside [0,%d]", once.Position.Offset, length)
		}
		for _, sel := range once.Selections {
			if sel.Anchor < 0 || sel.Anchor > length || sel.Focus < 0 || sel.Focus > length {
				t.Fatalf("selection %+v outside [0,%d]", sel, length)
			}
		}
	}
}

func TestTransformOffset(t *testing.T) {
	e := text.Edit{StartIndex: 4, OldEndIndex: 8, NewEndIndex: 6}
	cases := []struct{ in, want int }{
		{0, 0},
		{3, 3},
		{4, 6},
		{6, 6},
		{8, 6},
		{12, 10},
	}
	for _, c := range cases {
		if got := TransformOffset(c.in, e); got != c.want {
			t.Fatalf("TransformOffset(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestTransformForEdit(t *testing.T) {
	src := "abc\ndef\n"
	e := text.NewEdit(src, text.BuildLineStarts(src), 1, 1, "\n\t")
	next := src[:1] + "\n\t" + src[1:]
	starts := text.BuildLineStarts(next)

	s := State{Position: Position{Offset: 5, Line: 1, Column: 1}, PreferredColumn: 1, Selections: []Selection{{Anchor: 0, Focus: 2}}}
	p := TransformForEdit(s, e, len(next), starts)
	if *p.Position != (Position{Offset: 7, Line: 2, Column: 1}) {
		t.Fatalf("position = %+v", *p.Position)
	}
	if p.PreferredColumn == nil || *p.PreferredColumn != 1 {
		t.Fatalf("preferred column = %v", p.PreferredColumn)
	}
	if (*p.Selections)[0] != (Selection{Anchor: 0, Focus: 4}) {
		t.Fatalf("selection = %+v", (*p.Selections)[0])
	}
}
