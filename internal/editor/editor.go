package editor

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/docsync/internal/config"
	"github.com/kobzarvs/docsync/internal/logger"
	"github.com/kobzarvs/docsync/internal/reparse"
	"github.com/kobzarvs/docsync/internal/virtual"
)

type Mode int

const (
	ModeEdit Mode = iota
	ModeSearch
)

const (
	actionMoveLeft   = "move_left"
	actionMoveRight  = "move_right"
	actionMoveUp     = "move_up"
	actionMoveDown   = "move_down"
	actionLineStart  = "line_start"
	actionLineEnd    = "line_end"
	actionFileStart  = "file_start"
	actionFileEnd    = "file_end"
	actionPageUp     = "page_up"
	actionPageDown   = "page_down"
	actionScrollUp   = "scroll_up"
	actionScrollDown = "scroll_down"
	actionBackspace  = "backspace"
	actionDeleteChar = "delete_char"
	actionNewline    = "newline"
	actionIndent     = "indent"
	actionToggleFold = "toggle_fold"
	actionSearch     = "search"
	actionSearchNext = "search_next"
	actionSave       = "save"
	actionQuit       = "quit"
)

var motions = map[string]Motion{
	actionMoveLeft:  MoveLeft,
	actionMoveRight: MoveRight,
	actionMoveUp:    MoveUp,
	actionMoveDown:  MoveDown,
	actionLineStart: MoveLineStart,
	actionLineEnd:   MoveLineEnd,
	actionFileStart: MoveFileStart,
	actionFileEnd:   MoveFileEnd,
	actionPageUp:    MovePageUp,
	actionPageDown:  MovePageDown,
}

type LineNumberMode int

const (
	LineNumberAbsolute LineNumberMode = iota
	LineNumberRelative
	LineNumberOff
)

// foldPlaceholder follows the first line of a collapsed fold.
const foldPlaceholder = " ⋯ "

// Editor draws the active document of a Workspace on a tcell screen and
// turns key events into workspace operations.
type Editor struct {
	ws             *Workspace
	keymap         config.Keymap
	tabWidth       int
	lineNumberMode LineNumberMode
	mode           Mode

	scrollTop     int
	scrollLeft    int
	freeScroll    bool
	viewHeight    int
	statusMessage string
	searchQuery   []rune
	lastSearch    string

	styleMain             tcell.Style
	styleStatus           tcell.Style
	styleLineNumber       tcell.Style
	styleLineNumberActive tcell.Style
	styleSelection        tcell.Style
	styleFold             tcell.Style
	styleError            tcell.Style
	styleSyntax           map[string]tcell.Style
	styleBrackets         []tcell.Style
}

func New(cfg config.Config, ws *Workspace) *Editor {
	keymap := make(config.Keymap, len(cfg.Keymap))
	for k, v := range cfg.Keymap {
		keymap[k] = v
	}
	tabWidth := cfg.Editor.TabWidth
	if tabWidth < 1 {
		tabWidth = 1
	}
	th := cfg.Theme
	mainFg := parseColor(th.Foreground, tcell.ColorWhite)
	mainBg := parseColor(th.Background, tcell.ColorBlack)
	fg := func(name string, fallback tcell.Color) tcell.Style {
		return tcell.StyleDefault.Foreground(parseColor(name, fallback)).Background(mainBg)
	}
	syntax := map[string]tcell.Style{
		"keyword":     fg(th.SyntaxKeyword, mainFg),
		"string":      fg(th.SyntaxString, mainFg),
		"comment":     fg(th.SyntaxComment, mainFg),
		"type":        fg(th.SyntaxType, mainFg),
		"function":    fg(th.SyntaxFunction, mainFg),
		"number":      fg(th.SyntaxNumber, mainFg),
		"constant":    fg(th.SyntaxConstant, mainFg),
		"operator":    fg(th.SyntaxOperator, mainFg),
		"punctuation": fg(th.SyntaxPunctuation, mainFg),
		"field":       fg(th.SyntaxField, mainFg),
		"builtin":     fg(th.SyntaxBuiltin, mainFg),
		"variable":    fg(th.SyntaxVariable, mainFg),
		"parameter":   fg(th.SyntaxParameter, mainFg),
	}
	brackets := make([]tcell.Style, 0, len(th.BracketColors))
	for _, c := range th.BracketColors {
		brackets = append(brackets, fg(c, mainFg))
	}
	return &Editor{
		ws:                    ws,
		keymap:                keymap,
		tabWidth:              tabWidth,
		lineNumberMode:        parseLineNumberMode(cfg.Editor.LineNumbers),
		styleMain:             tcell.StyleDefault.Foreground(mainFg).Background(mainBg),
		styleStatus:           tcell.StyleDefault.Foreground(parseColor(th.StatuslineForeground, tcell.ColorBlack)).Background(parseColor(th.StatuslineBackground, tcell.ColorGray)),
		styleLineNumber:       fg(th.LineNumberForeground, tcell.ColorGray),
		styleLineNumberActive: fg(th.LineNumberActiveForeground, mainFg),
		styleSelection:        tcell.StyleDefault.Foreground(parseColor(th.SelectionForeground, mainFg)).Background(parseColor(th.SelectionBackground, mainBg)),
		styleFold:             fg(th.FoldForeground, tcell.ColorGray),
		styleError:            fg(th.ErrorForeground, tcell.ColorRed).Underline(true),
		styleSyntax:           syntax,
		styleBrackets:         brackets,
	}
}

func (e *Editor) Workspace() *Workspace {
	return e.ws
}

func (e *Editor) SetStatusMessage(msg string) {
	e.statusMessage = msg
}

// HandleKey processes one key event and reports whether the editor should
// quit.
func (e *Editor) HandleKey(ev *tcell.EventKey) bool {
	e.freeScroll = false
	if e.mode == ModeSearch {
		e.handleSearch(ev)
		return false
	}
	e.statusMessage = ""
	key := keyString(ev)
	if action, ok := e.keymap[key]; ok {
		return e.execAction(action)
	}
	if ev.Key() == tcell.KeyRune && ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt|tcell.ModMeta) == 0 {
		e.ws.Insert(string(ev.Rune()))
	}
	return false
}

func (e *Editor) execAction(action string) bool {
	if m, ok := motions[action]; ok {
		e.ws.MoveCursor(m)
		return false
	}
	switch action {
	case actionScrollUp:
		e.scrollBy(-1)
	case actionScrollDown:
		e.scrollBy(1)
	case actionBackspace:
		e.ws.Delete(false)
	case actionDeleteChar:
		e.ws.Delete(true)
	case actionNewline:
		e.ws.Newline()
	case actionIndent:
		e.ws.Insert("\t")
	case actionToggleFold:
		if !e.ws.ToggleFold(e.ws.Cursor().Position.Line) {
			e.statusMessage = "no fold here"
		}
	case actionSearch:
		e.mode = ModeSearch
		e.searchQuery = e.searchQuery[:0]
	case actionSearchNext:
		e.findNext()
	case actionSave:
		if err := e.ws.Save(); err != nil {
			logger.Warn("save failed", "error", err)
			e.statusMessage = err.Error()
		} else {
			e.statusMessage = "saved"
		}
	case actionQuit:
		return true
	default:
		logger.Debug("unknown action", "action", action)
	}
	return false
}

func (e *Editor) handleSearch(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		e.mode = ModeEdit
	case tcell.KeyEnter:
		e.mode = ModeEdit
		e.lastSearch = string(e.searchQuery)
		e.findNext()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(e.searchQuery); n > 0 {
			e.searchQuery = e.searchQuery[:n-1]
		}
	case tcell.KeyRune:
		e.searchQuery = append(e.searchQuery, ev.Rune())
	}
}

func (e *Editor) findNext() {
	if e.lastSearch == "" {
		return
	}
	if !e.ws.FindNext(e.lastSearch) {
		e.statusMessage = "not found: " + e.lastSearch
	}
}

func (e *Editor) scrollBy(rows int) {
	e.freeScroll = true
	e.scrollTop += rows
	if last := e.ws.Display().Len() - 1; e.scrollTop > last {
		e.scrollTop = last
	}
	if e.scrollTop < 0 {
		e.scrollTop = 0
	}
}

// Render draws the visible window of the active document, the status line
// and the message line.
func (e *Editor) Render(s tcell.Screen) {
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return
	}
	statusY := h - 2
	msgY := h - 1
	viewHeight := h - 2
	if h < 2 {
		statusY = h - 1
		msgY = h - 1
	}
	if viewHeight < 0 {
		viewHeight = 0
	}
	e.viewHeight = viewHeight
	e.ws.SetPageRows(viewHeight)

	s.SetStyle(e.styleMain)
	s.Clear()

	gutter := e.gutterWidth()
	textWidth := w - gutter
	if textWidth < 0 {
		textWidth = 0
	}
	if !e.freeScroll {
		e.ensureCursorVisible(viewHeight, textWidth)
	}
	win := e.ws.Frame(virtual.Viewport{
		ScrollTop:  e.scrollTop,
		ScrollLeft: e.scrollLeft,
		Height:     viewHeight,
		Width:      textWidth,
	})
	display := e.ws.Display()
	cursorLine := e.ws.Cursor().Position.Line
	for y := 0; y < viewHeight; y++ {
		row := e.scrollTop + y
		if row >= display.Len() || !win.Contains(row) {
			clearLine(s, y, w, e.styleMain)
			continue
		}
		entry := display.Entry(row)
		e.drawGutter(s, y, w, gutter, entry, cursorLine)
		e.drawRow(s, y, w, gutter, entry, win)
	}

	if statusY >= 0 {
		e.renderStatusline(s, w, statusY)
	}
	if msgY >= 0 && msgY != statusY {
		e.renderMessageLine(s, w, msgY)
	}

	if e.mode == ModeSearch {
		s.SetCursorStyle(tcell.CursorStyleSteadyBar)
		s.ShowCursor(min(1+len(e.searchQuery), w-1), msgY)
		s.Show()
		return
	}
	if !e.ws.CursorVisible(win) {
		s.HideCursor()
		s.Show()
		return
	}
	cx := gutter + e.ws.CaretColumn() - e.scrollLeft
	cy := display.RowForLine(cursorLine) - e.scrollTop
	if cx < gutter || cx >= w || cy < 0 || cy >= viewHeight {
		s.HideCursor()
		s.Show()
		return
	}
	s.SetCursorStyle(tcell.CursorStyleSteadyBar)
	s.ShowCursor(cx, cy)
	s.Show()
}

func (e *Editor) ensureCursorVisible(viewHeight, textWidth int) {
	if viewHeight <= 0 {
		return
	}
	row := e.ws.Display().RowForLine(e.ws.Cursor().Position.Line)
	// far away: center it
	if row < e.scrollTop-1 || row >= e.scrollTop+viewHeight+1 {
		e.scrollTop = row - viewHeight/2
		if e.scrollTop < 0 {
			e.scrollTop = 0
		}
	} else if row < e.scrollTop {
		e.scrollTop = row
	} else if row >= e.scrollTop+viewHeight {
		e.scrollTop = row - viewHeight + 1
	}

	if textWidth <= 0 {
		return
	}
	col := e.ws.CaretColumn()
	if col < e.scrollLeft {
		e.scrollLeft = col
	} else if col >= e.scrollLeft+textWidth {
		e.scrollLeft = col - textWidth + 1
	}
}

// drawRow draws the text of one display row. Cells carry the byte offset
// they came from, which keys the highlight, bracket and selection lookups.
func (e *Editor) drawRow(s tcell.Screen, y, w, gutter int, entry virtual.Entry, win virtual.Window) {
	doc := e.ws.Active()
	line := doc.Line(entry.Line)
	lineStart, _ := doc.LineRange(entry.Line)
	spans := e.ws.LineHighlights(entry)
	depths := e.ws.LineBracketDepths(entry)
	selStart, selEnd := e.selectionRange()

	colStart := max(e.scrollLeft, win.ColumnStart)
	colEnd := min(e.scrollLeft+w-gutter, win.ColumnEnd)
	for _, c := range virtual.Cells(line, colStart, colEnd, e.tabWidth) {
		x := gutter + c.Col - e.scrollLeft
		if x < gutter || x >= w {
			continue
		}
		style := e.styleMain
		if kind, ok := highlightKindAt(spans, c.Byte); ok {
			style = e.styleForHighlight(kind)
		}
		if depth, ok := depths[c.Byte]; ok && len(e.styleBrackets) > 0 {
			style = e.styleBrackets[depth%len(e.styleBrackets)]
		}
		if off := lineStart + c.Byte; off >= selStart && off < selEnd {
			_, selBg, _ := e.styleSelection.Decompose()
			fg, _, _ := style.Decompose()
			style = style.Foreground(fg).Background(selBg)
		}
		s.SetContent(x, y, c.Rune, nil, style)
	}
	if !entry.Collapsed {
		return
	}
	placeholder := foldPlaceholder + strings.TrimSpace(doc.Line(entry.FoldEnd))
	base := virtual.LineWidth(line, e.tabWidth)
	for _, c := range virtual.Cells(placeholder, 0, w, e.tabWidth) {
		x := gutter + base + c.Col - e.scrollLeft
		if x < gutter || x >= w {
			continue
		}
		s.SetContent(x, y, c.Rune, nil, e.styleFold)
	}
}

func (e *Editor) selectionRange() (int, int) {
	st := e.ws.Cursor()
	if len(st.Selections) == 0 {
		return 0, 0
	}
	return st.Selections[0].Range()
}

func (e *Editor) styleForHighlight(kind string) tcell.Style {
	if kind == errorKind {
		return e.styleError
	}
	if style, ok := e.styleSyntax[kind]; ok {
		return style
	}
	return e.styleMain
}

func highlightPriority(kind string) int {
	switch kind {
	case errorKind:
		return 8
	case "comment":
		return 7
	case "string":
		return 6
	case "keyword":
		return 5
	case "constant":
		return 4
	case "builtin":
		return 4
	case "parameter":
		return 3
	case "type", "function", "number":
		return 3
	case "field":
		return 2
	case "variable":
		return 2
	case "operator":
		return 1
	case "punctuation":
		return 1
	default:
		return 0
	}
}

func highlightKindAt(spans []HighlightSpan, col int) (string, bool) {
	bestKind := ""
	bestPriority := 0
	for _, span := range spans {
		if col < span.StartCol || col >= span.EndCol {
			continue
		}
		priority := highlightPriority(span.Kind)
		if priority > bestPriority {
			bestPriority = priority
			bestKind = span.Kind
		}
	}
	if bestKind == "" {
		return "", false
	}
	return bestKind, true
}

func parseLineNumberMode(value string) LineNumberMode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "relative", "rel":
		return LineNumberRelative
	case "off", "none", "false":
		return LineNumberOff
	default:
		return LineNumberAbsolute
	}
}

func (e *Editor) gutterWidth() int {
	if e.lineNumberMode == LineNumberOff {
		return 0
	}
	maxLine := 1
	if doc := e.ws.Active(); doc != nil {
		maxLine = doc.LineCount()
	}
	digits := len(strconv.Itoa(maxLine))
	if digits < 2 {
		digits = 2
	}
	// fold marker + digits + space
	return 1 + digits + 1
}

func (e *Editor) drawGutter(s tcell.Screen, y, w, gutter int, entry virtual.Entry, cursorLine int) {
	if gutter <= 0 {
		return
	}
	marker := ' '
	if entry.Collapsed {
		marker = '▸'
	} else if doc := e.ws.Active(); doc != nil {
		if _, ok := doc.FoldAt(entry.Line); ok {
			marker = '▾'
		}
	}
	s.SetContent(0, y, marker, nil, e.styleFold)

	digits := gutter - 2
	num := entry.Line + 1
	if e.lineNumberMode == LineNumberRelative && entry.Line != cursorLine {
		num = entry.Line - cursorLine
		if num < 0 {
			num = -num
		}
	}
	style := e.styleLineNumber
	if entry.Line == cursorLine {
		style = e.styleLineNumberActive
	}
	for i, r := range fmt.Sprintf("%*d", digits, num) {
		x := 1 + i
		if x >= gutter-1 || x >= w {
			break
		}
		s.SetContent(x, y, r, nil, style)
	}
	if gutter-1 < w {
		s.SetContent(gutter-1, y, ' ', nil, e.styleMain)
	}
}

func (e *Editor) renderStatusline(s tcell.Screen, w, y int) {
	name := "[No Name]"
	dirty := ""
	lang := ""
	if doc := e.ws.Active(); doc != nil {
		name = filepath.Base(doc.Path)
		if doc.Dirty() {
			dirty = "*"
		}
		lang = doc.Language
	}
	left := fmt.Sprintf(" %s%s ", name, dirty)
	st := e.ws.Cursor()
	right := fmt.Sprintf(" Ln %d, Col %d", st.Position.Line+1, e.ws.CaretColumn()+1)
	if lang != "" {
		right += " | " + lang
	}
	if e.ws.ParseState() == reparse.Pending {
		right += " | parsing"
	}
	right += " "

	line := composeStatusLine(left, right, w)
	for x, r := range line {
		if x >= w {
			break
		}
		s.SetContent(x, y, r, nil, e.styleStatus)
	}
}

func (e *Editor) renderMessageLine(s tcell.Screen, w, y int) {
	text := " " + e.statusMessage
	if e.mode == ModeSearch {
		text = "/" + string(e.searchQuery)
	}
	x := 0
	for _, r := range text {
		if x >= w {
			break
		}
		s.SetContent(x, y, r, nil, e.styleMain)
		x++
	}
	for ; x < w; x++ {
		s.SetContent(x, y, ' ', nil, e.styleMain)
	}
}

func composeStatusLine(left, right string, width int) []rune {
	if width <= 0 {
		return nil
	}
	leftRunes := []rune(left)
	rightRunes := []rune(right)
	if len(leftRunes)+len(rightRunes) > width {
		if len(rightRunes) >= width {
			rightRunes = rightRunes[len(rightRunes)-width:]
			leftRunes = nil
		} else {
			leftRunes = leftRunes[:width-len(rightRunes)]
		}
	}
	spaceCount := width - len(leftRunes) - len(rightRunes)
	line := make([]rune, 0, width)
	line = append(line, leftRunes...)
	for i := 0; i < spaceCount; i++ {
		line = append(line, ' ')
	}
	return append(line, rightRunes...)
}

func clearLine(s tcell.Screen, y, w int, style tcell.Style) {
	for x := 0; x < w; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

func parseColor(name string, fallback tcell.Color) tcell.Color {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if strings.HasPrefix(name, "#") && len(name) == 7 {
		r, err1 := strconv.ParseInt(name[1:3], 16, 32)
		g, err2 := strconv.ParseInt(name[3:5], 16, 32)
		b, err3 := strconv.ParseInt(name[5:7], 16, 32)
		if err1 == nil && err2 == nil && err3 == nil {
			return tcell.NewRGBColor(int32(r), int32(g), int32(b))
		}
		return fallback
	}
	name = strings.ToLower(name)
	if name == "default" {
		return tcell.ColorDefault
	}
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault {
		return fallback
	}
	return c
}
