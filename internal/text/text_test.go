package text

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestBuildLineStarts(t *testing.T) {
	got := BuildLineStarts("ab\ncd\n\nef")
	want := LineStarts{0, 3, 6, 7}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("BuildLineStarts = %v, want %v", got, want)
	}
	if got := BuildLineStarts(""); !reflect.DeepEqual(got, LineStarts{0}) {
		t.Fatalf("BuildLineStarts(\"\") = %v, want [0]", got)
	}
}

func TestPositionAtAndOffsetAt(t *testing.T) {
	src := "ab\ncd\n\nef"
	starts := BuildLineStarts(src)
	cases := []struct {
		offset int
		want   Position
	}{
		{0, Position{0, 0}},
		{2, Position{0, 2}},
		{3, Position{1, 0}},
		{6, Position{2, 0}},
		{7, Position{3, 0}},
		{9, Position{3, 2}},
	}
	for _, tc := range cases {
		got := PositionAt(tc.offset, starts, len(src))
		if got != tc.want {
			t.Fatalf("PositionAt(%d) = %+v, want %+v", tc.offset, got, tc.want)
		}
		if back := OffsetAt(got, starts, len(src)); back != tc.offset {
			t.Fatalf("OffsetAt(%+v) = %d, want %d", got, back, tc.offset)
		}
	}
}

func TestPositionAtClamps(t *testing.T) {
	src := "ab\ncd"
	starts := BuildLineStarts(src)
	if got := PositionAt(-4, starts, len(src)); got != (Position{0, 0}) {
		t.Fatalf("PositionAt(-4) = %+v, want {0 0}", got)
	}
	if got := PositionAt(99, starts, len(src)); got != (Position{1, 2}) {
		t.Fatalf("PositionAt(99) = %+v, want {1 2}", got)
	}
	if got := OffsetAt(Position{Line: 0, Column: 40}, starts, len(src)); got != 2 {
		t.Fatalf("OffsetAt past line end = %d, want 2", got)
	}
	if got := OffsetAt(Position{Line: 7, Column: 0}, starts, len(src)); got != len(src) {
		t.Fatalf("OffsetAt past last line = %d, want %d", got, len(src))
	}
	if got := OffsetAt(Position{Line: -1, Column: 3}, starts, len(src)); got != 0 {
		t.Fatalf("OffsetAt negative line = %d, want 0", got)
	}
}

func applyText(src string, e Edit) string {
	return src[:e.StartIndex] + e.InsertedText + src[e.OldEndIndex:]
}

func TestNewEditPositions(t *testing.T) {
	src := "func main() {\n}\n"
	starts := BuildLineStarts(src)
	e := NewEdit(src, starts, 13, 13, "\n\tx := 1")
	if err := e.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if e.StartPosition != (Point{Row: 0, Column: 13}) {
		t.Fatalf("start = %+v", e.StartPosition)
	}
	if e.OldEndPosition != (Point{Row: 0, Column: 13}) {
		t.Fatalf("old end = %+v", e.OldEndPosition)
	}
	if e.NewEndPosition != (Point{Row: 1, Column: 7}) {
		t.Fatalf("new end = %+v, want {1 7}", e.NewEndPosition)
	}
	if e.LineDelta() != 1 || e.CharDelta() != 8 {
		t.Fatalf("deltas = %d/%d, want 1/8", e.LineDelta(), e.CharDelta())
	}
}

func TestEditValidate(t *testing.T) {
	bad := Edit{StartIndex: 2, OldEndIndex: 2, NewEndIndex: 5, InsertedText: "x"}
	if err := bad.Validate(); err == nil {
		t.Fatalf("Validate accepted mismatched new end")
	}
	reversed := Edit{StartIndex: 4, OldEndIndex: 2, NewEndIndex: 4}
	if err := reversed.Validate(); err == nil {
		t.Fatalf("Validate accepted start after old end")
	}
}

func TestLineStartsPatchMatchesRebuild(t *testing.T) {
	src := "one\ntwo\nthree\nfour\n"
	edits := []struct {
		start, end int
		text       string
	}{
		{4, 4, "\n"},
		{0, 0, "zero\n"},
		{5, 12, ""},
		{3, 9, "x\ny\nz"},
		{0, 0, ""},
	}
	starts := BuildLineStarts(src)
	for i, ed := range edits {
		e := NewEdit(src, starts, ed.start, ed.end, ed.text)
		starts = starts.Patch(e)
		src = applyText(src, e)
		if want := BuildLineStarts(src); !reflect.DeepEqual(starts, want) {
			t.Fatalf("edit %d: patched = %v, rebuilt = %v (text %q)", i, starts, want, src)
		}
	}
}

func TestLineRange(t *testing.T) {
	src := "ab\n\ncde"
	starts := BuildLineStarts(src)
	cases := []struct{ line, start, end int }{
		{0, 0, 2},
		{1, 3, 3},
		{2, 4, 7},
	}
	for _, tc := range cases {
		s, e := starts.LineRange(tc.line, len(src))
		if s != tc.start || e != tc.end {
			t.Fatalf("LineRange(%d) = %d..%d, want %d..%d", tc.line, s, e, tc.start, tc.end)
		}
	}
}

func TestChunkReaderOverlap(t *testing.T) {
	data := []byte("0123456789abcdefghij")
	r := NewChunkReader(bytes.NewReader(data), int64(len(data)), 10, 5)
	var got []string
	var offsets []int64
	for {
		c, ok := r.Next()
		if !ok {
			break
		}
		got = append(got, string(c.Data))
		offsets = append(offsets, c.Offset)
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	want := []string{"0123456789", "56789abcde", "abcdefghij", "fghij"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("chunks = %q, want %q", got, want)
	}
	if !reflect.DeepEqual(offsets, []int64{0, 5, 10, 15}) {
		t.Fatalf("offsets = %v", offsets)
	}
}

func TestChunkReaderOverlapClamped(t *testing.T) {
	data := []byte(strings.Repeat("x", 20))
	r := NewChunkReader(bytes.NewReader(data), int64(len(data)), 10, 10)
	n := 0
	for {
		c, ok := r.Next()
		if !ok {
			break
		}
		n++
		if n > len(data) {
			t.Fatalf("chunk reader did not terminate (last offset %d)", c.Offset)
		}
	}
	if n != len(data) {
		t.Fatalf("chunks = %d, want %d with step 1", n, len(data))
	}
}
