package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kobzarvs/docsync/internal/annotation"
)

// foldNodeTypes are multi-line nodes that fold even without brackets.
var foldNodeTypes = map[string]map[string]bool{
	"go": {
		"comment": true,
	},
	"bash": {
		"if_statement":    true,
		"for_statement":   true,
		"while_statement": true,
		"case_statement":  true,
		"heredoc_body":    true,
	},
	"yaml": {
		"block_mapping_pair":  true,
		"block_sequence_item": true,
	},
	"toml": {
		"table":               true,
		"table_array_element": true,
	},
	"markdown": {
		"section":           true,
		"fenced_code_block": true,
	},
}

var closingBracket = map[string]string{
	"(": ")",
	"[": "]",
	"{": "}",
}

var openingBracket = map[string]bool{"(": true, "[": true, "{": true}
var closing = map[string]bool{")": true, "]": true, "}": true}

type walker struct {
	grammar string
	set     *annotation.Set
	depth   int
	// widest fold per start line
	folds map[int]annotation.FoldRange
	order []int
}

// walk collects folds, bracket depths and parse errors in one pre-order
// pass over the tree.
func walk(grammar string, root *sitter.Node, set *annotation.Set) {
	if root == nil {
		return
	}
	w := &walker{
		grammar: grammar,
		set:     set,
		folds:   make(map[int]annotation.FoldRange),
	}
	set.Brackets = make(annotation.BracketDepths)
	checkErrors := root.HasError()

	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()
	for {
		n := cursor.CurrentNode()
		descend := w.visit(n, checkErrors)
		if descend && cursor.GoToFirstChild() {
			continue
		}
		for !cursor.GoToNextSibling() {
			if !cursor.GoToParent() {
				w.finish()
				return
			}
		}
	}
}

func (w *walker) visit(n *sitter.Node, checkErrors bool) bool {
	if checkErrors {
		if n.IsMissing() {
			w.set.Errors = append(w.set.Errors, annotation.ParseError{
				StartIndex: int(n.StartByte()),
				EndIndex:   int(n.EndByte()),
				Message:    "missing " + n.Type(),
			})
			return false
		}
		if n.Type() == "ERROR" {
			w.set.Errors = append(w.set.Errors, annotation.ParseError{
				StartIndex: int(n.StartByte()),
				EndIndex:   int(n.EndByte()),
				Message:    "syntax error",
			})
			return false
		}
	}

	if n.IsNamed() {
		w.fold(n)
	}
	if n.ChildCount() == 0 {
		w.bracket(n)
		return false
	}
	return true
}

func (w *walker) bracket(n *sitter.Node) {
	kind := n.Type()
	switch {
	case openingBracket[kind]:
		w.set.Brackets[int(n.StartByte())] = w.depth
		w.depth++
	case closing[kind]:
		if w.depth > 0 {
			w.depth--
		}
		w.set.Brackets[int(n.StartByte())] = w.depth
	}
}

func (w *walker) fold(n *sitter.Node) {
	startLine := int(n.StartPoint().Row)
	end := n.EndPoint()
	if int(end.Row) <= startLine {
		return
	}
	kind := n.Type()
	foldType := ""
	endLine := int(end.Row)
	switch {
	case foldNodeTypes[w.grammar][kind]:
		foldType = kind
		// nodes that swallow their trailing newline end at column 0
		if end.Column == 0 {
			endLine--
		}
	case bracketed(n):
		foldType = "block"
		startLine = int(n.Child(0).StartPoint().Row)
	default:
		return
	}
	if endLine <= startLine {
		return
	}
	if prev, ok := w.folds[startLine]; ok {
		if endLine > prev.EndLine {
			w.folds[startLine] = annotation.FoldRange{StartLine: startLine, EndLine: endLine, Type: foldType}
		}
		return
	}
	w.folds[startLine] = annotation.FoldRange{StartLine: startLine, EndLine: endLine, Type: foldType}
	w.order = append(w.order, startLine)
}

// bracketed reports whether n starts and ends with a matching bracket
// pair.
func bracketed(n *sitter.Node) bool {
	count := int(n.ChildCount())
	if count < 2 {
		return false
	}
	first, last := n.Child(0), n.Child(count-1)
	if first == nil || last == nil {
		return false
	}
	want, ok := closingBracket[first.Type()]
	return ok && last.Type() == want
}

func (w *walker) finish() {
	folds := make([]annotation.FoldRange, 0, len(w.order))
	for _, line := range w.order {
		folds = append(folds, w.folds[line])
	}
	annotation.SortFolds(folds)
	w.set.Folds = folds
}
