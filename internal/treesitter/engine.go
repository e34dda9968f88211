package treesitter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/golang"
	tree_sitter_markdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
	tree_sitter_markdown_inline "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown-inline"
	"github.com/smacker/go-tree-sitter/toml"
	"github.com/smacker/go-tree-sitter/yaml"

	"github.com/kobzarvs/docsync/internal/annotation"
	"github.com/kobzarvs/docsync/internal/config"
	"github.com/kobzarvs/docsync/internal/logger"
	"github.com/kobzarvs/docsync/internal/reparse"
	"github.com/kobzarvs/docsync/internal/text"
)

// ErrStopped is returned by Stop on an engine that was already stopped.
var ErrStopped = errors.New("treesitter: engine already stopped")

// Engine keeps one syntax tree per file and turns it into annotations.
// It implements reparse.Parser.
type Engine struct {
	langs         config.Languages
	maxBytes      int
	parsers       map[string]*sitter.Parser
	trees         map[string]*sitter.Tree
	queries       map[string]*sitter.Query
	mdInline      *sitter.Parser
	mdInlineQuery *sitter.Query
	stopped       bool
	mu            sync.Mutex
}

// New returns an engine for langs. Files larger than maxBytes are not
// parsed; zero disables the limit.
func New(langs config.Languages, maxBytes int) *Engine {
	return &Engine{
		langs:    langs,
		maxBytes: maxBytes,
		parsers:  make(map[string]*sitter.Parser),
		trees:    make(map[string]*sitter.Tree),
		queries:  make(map[string]*sitter.Query),
	}
}

func (e *Engine) Start() error {
	// Initialize all supported languages
	languages := []struct {
		name  string
		lang  *sitter.Language
		query string
	}{
		{"go", golang.GetLanguage(), goHighlightQuery},
		{"markdown", tree_sitter_markdown.GetLanguage(), markdownBlockHighlightQuery},
		{"yaml", yaml.GetLanguage(), yamlHighlightQuery},
		{"toml", toml.GetLanguage(), tomlHighlightQuery},
		{"bash", bash.GetLanguage(), bashHighlightQuery},
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range languages {
		p := sitter.NewParser()
		p.SetLanguage(l.lang)
		e.parsers[l.name] = p

		query, err := sitter.NewQuery([]byte(l.query), l.lang)
		if err != nil {
			// highlighting is lost for this language, folds still work
			logger.Component("treesitter").Warnw("highlight query rejected", "language", l.name, "error", err)
			continue
		}
		e.queries[l.name] = query
	}

	inlineQuery, err := sitter.NewQuery([]byte(markdownInlineHighlightQuery), tree_sitter_markdown_inline.GetLanguage())
	if err == nil {
		e.mdInline = sitter.NewParser()
		e.mdInline.SetLanguage(tree_sitter_markdown_inline.GetLanguage())
		e.mdInlineQuery = inlineQuery
	}
	return nil
}

// Stop closes every tree, parser and query. A stopped engine knows no
// grammars, so Parse returns no annotations.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	e.stopped = true
	for path, tree := range e.trees {
		tree.Close()
		delete(e.trees, path)
	}
	for name, q := range e.queries {
		q.Close()
		delete(e.queries, name)
	}
	for name, p := range e.parsers {
		p.Close()
		delete(e.parsers, name)
	}
	if e.mdInline != nil {
		e.mdInline.Close()
		e.mdInlineQuery.Close()
		e.mdInline, e.mdInlineQuery = nil, nil
	}
	logger.Component("treesitter").Debugw("engine stopped")
	return nil
}

// Forget drops what the engine remembers about path.
func (e *Engine) Forget(path string) {
	e.mu.Lock()
	e.dropTree(path)
	e.mu.Unlock()
}

func (e *Engine) dropTree(path string) {
	if tree, ok := e.trees[path]; ok {
		tree.Close()
		delete(e.trees, path)
	}
}

// Language returns the grammar used for path, or "" when none applies.
func (e *Engine) Language(path string) string {
	return e.grammarFor(path, nil)
}

// grammarFor resolves the grammar from path, then from content.
func (e *Engine) grammarFor(path string, content []byte) string {
	lang := e.langs.Detect(path, content)
	if lang == nil {
		return ""
	}
	name := lang.GrammarName()
	e.mu.Lock()
	_, ok := e.parsers[name]
	e.mu.Unlock()
	if !ok {
		return ""
	}
	return name
}

// Parse brings the file's tree up to date with req and extracts its
// annotations. The previous tree is edited in place and reused unless the
// request is full. On failure the tree is dropped so the next request
// starts over.
func (e *Engine) Parse(ctx context.Context, req reparse.Request) (*annotation.Set, error) {
	src := []byte(req.Source)
	grammar := e.grammarFor(req.Path, src)
	if grammar == "" {
		return nil, nil
	}
	if e.maxBytes > 0 && len(req.Source) > e.maxBytes {
		e.Forget(req.Path)
		logger.Component("treesitter").Debugw("file too large to parse", "path", req.Path, "bytes", len(req.Source))
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	parser, ok := e.parsers[grammar]
	if !ok {
		// stopped since grammarFor looked
		return nil, nil
	}
	old := e.trees[req.Path]
	prev := old
	if req.Full {
		prev = nil
	}
	if prev != nil {
		for _, edit := range req.Edits {
			prev.Edit(editInput(edit))
		}
	}
	tree, err := parser.ParseCtx(ctx, prev, src)
	if err == nil && tree == nil {
		err = fmt.Errorf("parser returned no tree")
	}
	if err != nil {
		e.dropTree(req.Path)
		parser.Reset()
		return nil, fmt.Errorf("parse %s: %w", req.Path, err)
	}
	if old != nil {
		old.Close()
	}
	e.trees[req.Path] = tree

	set := &annotation.Set{}
	root := tree.RootNode()
	set.Captures = e.captures(grammar, root, src)
	walk(grammar, root, set)
	return set, nil
}

func editInput(e text.Edit) sitter.EditInput {
	return sitter.EditInput{
		StartIndex:  uint32(e.StartIndex),
		OldEndIndex: uint32(e.OldEndIndex),
		NewEndIndex: uint32(e.NewEndIndex),
		StartPoint:  point(e.StartPosition),
		OldEndPoint: point(e.OldEndPosition),
		NewEndPoint: point(e.NewEndPosition),
	}
}

func point(p text.Point) sitter.Point {
	return sitter.Point{Row: uint32(p.Row), Column: uint32(p.Column)}
}

func (e *Engine) captures(grammar string, root *sitter.Node, src []byte) []annotation.Capture {
	out := queryCaptures(e.queries[grammar], root, src, 0)
	if grammar != "markdown" || e.mdInline == nil {
		return out
	}
	// inline markup lives in a second grammar, parsed per inline node
	for _, n := range collectNodes(root, "inline") {
		start, end := int(n.StartByte()), int(n.EndByte())
		if start >= end || end > len(src) {
			continue
		}
		chunk := src[start:end]
		inlineTree, err := e.mdInline.ParseCtx(context.Background(), nil, chunk)
		if err != nil || inlineTree == nil {
			continue
		}
		out = append(out, queryCaptures(e.mdInlineQuery, inlineTree.RootNode(), chunk, start)...)
		inlineTree.Close()
	}
	return out
}

func queryCaptures(query *sitter.Query, root *sitter.Node, src []byte, base int) []annotation.Capture {
	if query == nil || root == nil {
		return nil
	}
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, root)

	var out []annotation.Capture
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, src)
		if match == nil {
			continue
		}
		for _, capture := range match.Captures {
			start, end := int(capture.Node.StartByte()), int(capture.Node.EndByte())
			if end <= start {
				continue
			}
			out = append(out, annotation.Capture{
				StartIndex: base + start,
				EndIndex:   base + end,
				Tag:        query.CaptureNameForId(capture.Index),
			})
		}
	}
	return out
}

func collectNodes(root *sitter.Node, kind string) []*sitter.Node {
	var out []*sitter.Node
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if n.Type() == kind {
			out = append(out, n)
			continue
		}
		childCount := int(n.NamedChildCount())
		for i := 0; i < childCount; i++ {
			if child := n.NamedChild(i); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return out
}
