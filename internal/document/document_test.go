package document

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kobzarvs/docsync/internal/annotation"
	"github.com/kobzarvs/docsync/internal/text"
)

const goSrc = "package main\n\nfunc main() {\n\tprintln(1)\n}\n"

func mainFolds() annotation.Set {
	return annotation.Set{
		Captures: []annotation.Capture{{StartIndex: 0, EndIndex: 7, Tag: "keyword"}},
		Folds:    []annotation.FoldRange{{StartLine: 2, EndLine: 4, Type: "block"}},
		Brackets: annotation.BracketDepths{23: 0, 24: 0, 26: 0, 36: 0, 38: 0, 41: 0},
	}
}

func TestApplyEditKeepsIndexInSync(t *testing.T) {
	d := New("main.go", "go", goSrc)
	edits := [][3]interface{}{
		{13, 13, "// x\n"},
		{0, 7, "package"},
		{20, 30, ""},
		{len(goSrc) - 2, len(goSrc) - 2, "\n\n"},
	}
	for _, e := range edits {
		start, end, ins := e[0].(int), e[1].(int), e[2].(string)
		if end > d.Len() {
			end = d.Len()
		}
		d.ApplyEdit(d.NewEdit(start, end, ins))
		if !reflect.DeepEqual(d.LineStarts(), text.BuildLineStarts(d.Text())) {
			t.Fatalf("line starts drifted after %v: %v vs %v", e, d.LineStarts(), text.BuildLineStarts(d.Text()))
		}
	}
	if d.TextVersion() != uint64(len(edits)) || !d.Dirty() {
		t.Fatalf("text version = %d dirty = %v", d.TextVersion(), d.Dirty())
	}
	d.MarkSaved()
	if d.Dirty() {
		t.Fatalf("dirty after MarkSaved")
	}
}

func TestApplyEditShiftsAnnotations(t *testing.T) {
	d := New("main.go", "go", goSrc)
	d.ReplaceAnnotations(mainFolds())
	at := strings.Index(goSrc, "\tprintln")
	d.ApplyEdit(d.NewEdit(at, at, "\n"))

	set := d.Annotations()
	if set.Folds[0] != (annotation.FoldRange{StartLine: 2, EndLine: 5, Type: "block"}) {
		t.Fatalf("fold = %+v, want {2 5}", set.Folds[0])
	}
	if _, ok := set.Brackets[37]; !ok {
		t.Fatalf("bracket after insertion not shifted: %v", set.Brackets)
	}
	if set.Captures[0].EndIndex != 7 {
		t.Fatalf("capture before edit moved: %+v", set.Captures[0])
	}
}

func TestApplyEditPanicsOnMalformed(t *testing.T) {
	d := New("a.txt", "", "abc")
	defer func() {
		if recover() == nil {
			t.Fatalf("malformed edit did not panic")
		}
	}()
	d.ApplyEdit(text.Edit{StartIndex: 2, OldEndIndex: 1, NewEndIndex: 2})
}

func TestApplyEditPanicsPastEnd(t *testing.T) {
	d := New("a.txt", "", "abc")
	defer func() {
		if recover() == nil {
			t.Fatalf("edit past the end did not panic")
		}
	}()
	d.ApplyEdit(text.Edit{StartIndex: 2, OldEndIndex: 9, NewEndIndex: 2})
}

func TestCollapsedFolds(t *testing.T) {
	d := New("main.go", "go", goSrc)
	d.ReplaceAnnotations(mainFolds())
	if d.SetCollapsed(0, true) {
		t.Fatalf("collapsed a line with no fold")
	}
	if !d.SetCollapsed(2, true) || !d.IsCollapsed(2) {
		t.Fatalf("fold at line 2 not collapsed")
	}
	if d.SetCollapsed(2, true) {
		t.Fatalf("collapsing twice reported a change")
	}

	d.ApplyEdit(d.NewEdit(0, 0, "\n\n"))
	if !reflect.DeepEqual(d.Collapsed(), []int{4}) {
		t.Fatalf("collapsed = %v, want [4]", d.Collapsed())
	}

	// a reparse that still has a fold at line 4 keeps it collapsed
	next := mainFolds()
	next.Folds = []annotation.FoldRange{{StartLine: 4, EndLine: 6, Type: "block"}}
	d.ReplaceAnnotations(next)
	if !d.IsCollapsed(4) {
		t.Fatalf("collapsed fold lost across reparse")
	}

	// one that does not drops it
	d.ReplaceAnnotations(annotation.Set{})
	if len(d.Collapsed()) != 0 {
		t.Fatalf("collapsed = %v, want none", d.Collapsed())
	}
}

func TestFind(t *testing.T) {
	d := New("a.txt", "", strings.Repeat("x", findChunkSize-2)+"needle"+strings.Repeat("y", 10)+"needle")
	at, ok := d.Find("needle", 0)
	if !ok || at != findChunkSize-2 {
		t.Fatalf("Find = %d %v, want %d", at, ok, findChunkSize-2)
	}
	at, ok = d.Find("needle", at+1)
	if !ok || at != findChunkSize-2+6+10 {
		t.Fatalf("second Find = %d %v", at, ok)
	}
	if _, ok := d.Find("missing", 0); ok {
		t.Fatalf("found missing needle")
	}
	if _, ok := d.Find("", 0); ok {
		t.Fatalf("found empty needle")
	}
}

func TestBufferReadAt(t *testing.T) {
	b := NewBuffer("hello")
	p := make([]byte, 3)
	n, err := b.ReadAt(p, 3)
	if n != 2 || string(p[:n]) != "lo" || err == nil {
		t.Fatalf("ReadAt = %d %q %v", n, p[:n], err)
	}
	if got := b.TextInRange(-4, 99); got != "hello" {
		t.Fatalf("TextInRange clamped = %q", got)
	}
}
