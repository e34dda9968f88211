package treesitter

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kobzarvs/docsync/internal/annotation"
	"github.com/kobzarvs/docsync/internal/config"
	"github.com/kobzarvs/docsync/internal/reparse"
	"github.com/kobzarvs/docsync/internal/text"
)

const goSrc = "package main\n\nfunc main() {\n\tprintln(1)\n}\n"

func newEngine(t *testing.T, maxBytes int) *Engine {
	t.Helper()
	e := New(config.DefaultLanguages(), maxBytes)
	if err := e.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })
	return e
}

func parse(t *testing.T, e *Engine, req reparse.Request) *annotation.Set {
	t.Helper()
	set, err := e.Parse(context.Background(), req)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if set == nil {
		t.Fatalf("Parse returned no annotations")
	}
	return set
}

func TestParseGo(t *testing.T) {
	e := newEngine(t, 0)
	set := parse(t, e, reparse.Request{ID: 1, Path: "main.go", Source: goSrc, Full: true})

	found := false
	for _, c := range set.Captures {
		if c == (annotation.Capture{StartIndex: 0, EndIndex: 7, Tag: "keyword"}) {
			found = true
		}
	}
	if !found {
		t.Fatalf("no keyword capture for package: %+v", set.Captures)
	}
	wantFolds := []annotation.FoldRange{{StartLine: 2, EndLine: 4, Type: "block"}}
	if !reflect.DeepEqual(set.Folds, wantFolds) {
		t.Fatalf("folds = %+v, want %+v", set.Folds, wantFolds)
	}
	wantBrackets := annotation.BracketDepths{23: 0, 24: 0, 26: 0, 36: 1, 38: 1, 40: 0}
	if !reflect.DeepEqual(set.Brackets, wantBrackets) {
		t.Fatalf("brackets = %v, want %v", set.Brackets, wantBrackets)
	}
	if len(set.Errors) != 0 {
		t.Fatalf("errors = %+v, want none", set.Errors)
	}
}

func TestIncrementalMatchesFull(t *testing.T) {
	inc := newEngine(t, 0)
	parse(t, inc, reparse.Request{ID: 1, Path: "main.go", Source: goSrc, Full: true})

	src := goSrc
	var edits []text.Edit
	for _, step := range []struct {
		at   string
		text string
	}{
		{"\tprintln", "\tx := []int{\n\t\t2,\n\t}\n"},
		{"func", "// entry\n"},
	} {
		at := strings.Index(src, step.at)
		e := text.NewEdit(src, text.BuildLineStarts(src), at, at, step.text)
		src = src[:at] + step.text + src[at:]
		edits = append(edits, e)
	}
	got := parse(t, inc, reparse.Request{ID: 2, Path: "main.go", Source: src, Edits: edits})

	full := newEngine(t, 0)
	want := parse(t, full, reparse.Request{ID: 1, Path: "main.go", Source: src, Full: true})
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("incremental parse diverged:\n got %+v\nwant %+v", got, want)
	}
	if len(got.Folds) < 2 {
		t.Fatalf("folds = %+v, want body and literal folds", got.Folds)
	}
}

func TestParseErrors(t *testing.T) {
	e := newEngine(t, 0)
	set := parse(t, e, reparse.Request{ID: 1, Path: "broken.go", Source: "package main\nfunc main() {\n", Full: true})
	if len(set.Errors) == 0 {
		t.Fatalf("unterminated block reported no errors")
	}
}

func TestParseUnknownAndOversized(t *testing.T) {
	e := newEngine(t, 16)
	set, err := e.Parse(context.Background(), reparse.Request{ID: 1, Path: "notes.txt", Source: "hello", Full: true})
	if set != nil || err != nil {
		t.Fatalf("unknown language = %+v, %v; want nil, nil", set, err)
	}
	set, err = e.Parse(context.Background(), reparse.Request{ID: 2, Path: "main.go", Source: goSrc, Full: true})
	if set != nil || err != nil {
		t.Fatalf("oversized file = %+v, %v; want nil, nil", set, err)
	}
}

func TestParseYAMLFolds(t *testing.T) {
	e := newEngine(t, 0)
	set := parse(t, e, reparse.Request{ID: 1, Path: "c.yaml", Source: "a:\n  b: 1\n  c: 2\nd: 3\n", Full: true})
	for _, f := range set.Folds {
		if f.StartLine == 0 {
			if f.EndLine != 2 {
				t.Fatalf("mapping fold = %+v, want end line 2", f)
			}
			return
		}
	}
	t.Fatalf("no fold at line 0: %+v", set.Folds)
}

func TestParseMarkdownSections(t *testing.T) {
	e := newEngine(t, 0)
	src := "# Title\n\ntext\n\n## Sub\n\nmore\n"
	set := parse(t, e, reparse.Request{ID: 1, Path: "README.md", Source: src, Full: true})
	starts := map[int]bool{}
	for _, f := range set.Folds {
		if !f.Valid() {
			t.Fatalf("invalid fold %+v", f)
		}
		starts[f.StartLine] = true
	}
	if !starts[0] || !starts[4] {
		t.Fatalf("folds = %+v, want sections at lines 0 and 4", set.Folds)
	}
}

func TestLanguage(t *testing.T) {
	e := newEngine(t, 0)
	if got := e.Language("x.yml"); got != "yaml" {
		t.Fatalf("Language(x.yml) = %q", got)
	}
	if got := e.Language("x.rs"); got != "" {
		t.Fatalf("Language(x.rs) = %q, want empty", got)
	}
}

func TestParseShebangScript(t *testing.T) {
	e := newEngine(t, 0)
	src := "#!/bin/bash\nif true; then\n  echo hi\nfi\n"
	set := parse(t, e, reparse.Request{ID: 1, Path: "deploy", Source: src, Full: true})
	if len(set.Errors) != 0 {
		t.Fatalf("errors = %+v, want none", set.Errors)
	}
	if e.Language("deploy") != "" {
		t.Fatalf("path alone should not resolve a grammar")
	}
}

func TestStopReleasesEngine(t *testing.T) {
	e := New(config.DefaultLanguages(), 0)
	if err := e.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	parse(t, e, reparse.Request{Path: "main.go", Source: goSrc, Full: true})

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if err := e.Stop(); !errors.Is(err, ErrStopped) {
		t.Fatalf("second Stop = %v, want ErrStopped", err)
	}
	if got := e.Language("main.go"); got != "" {
		t.Fatalf("Language after Stop = %q, want none", got)
	}
	set, err := e.Parse(context.Background(), reparse.Request{Path: "main.go", Source: goSrc, Full: true})
	if err != nil || set != nil {
		t.Fatalf("Parse after Stop = %v, %v; want nil, nil", set, err)
	}
}
