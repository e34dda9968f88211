package editor

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestKeyString(t *testing.T) {
	cases := []struct {
		ev   *tcell.EventKey
		want string
	}{
		{tcell.NewEventKey(tcell.KeyEnter, 0, 0), "enter"},
		{tcell.NewEventKey(tcell.KeyBackspace2, 0, 0), "backspace"},
		{tcell.NewEventKey(tcell.KeyTab, 0, 0), "tab"},
		{tcell.NewEventKey(tcell.KeyEscape, 0, 0), "esc"},
		{tcell.NewEventKey(tcell.KeyCtrlF, 0, 0), "ctrl+f"},
		{tcell.NewEventKey(tcell.KeyRune, ' ', 0), "space"},
		{tcell.NewEventKey(tcell.KeyRune, 'x', 0), "x"},
		{tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModAlt), "alt+left"},
		{tcell.NewEventKey(tcell.KeyHome, 0, tcell.ModCtrl), "ctrl+home"},
		{tcell.NewEventKey(tcell.KeyPgDn, 0, 0), "pgdn"},
		{tcell.NewEventKey(tcell.KeyDelete, 0, 0), "del"},
	}
	for _, c := range cases {
		if got := keyString(c.ev); got != c.want {
			t.Fatalf("keyString(%v) = %q, want %q", c.ev.Name(), got, c.want)
		}
	}
}

func TestHandleKeyInsertsRunes(t *testing.T) {
	e := newTestEditor(t)
	e.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'x', 0))
	if got := e.ws.Active().Line(0); got != "xpackage main" {
		t.Fatalf("line 0 = %q", got)
	}
	e.HandleKey(tcell.NewEventKey(tcell.KeyBackspace2, 0, 0))
	if got := e.ws.Active().Line(0); got != "package main" {
		t.Fatalf("line 0 after backspace = %q", got)
	}
}

func TestHandleKeyTogglesFold(t *testing.T) {
	e := newTestEditor(t)
	e.ws.MoveTo(14)
	e.HandleKey(tcell.NewEventKey(tcell.KeyCtrlF, 0, 0))
	if !e.ws.Active().IsCollapsed(2) {
		t.Fatalf("fold not collapsed")
	}
	e.ws.MoveTo(0)
	e.HandleKey(tcell.NewEventKey(tcell.KeyCtrlF, 0, 0))
	if e.statusMessage != "no fold here" {
		t.Fatalf("status = %q", e.statusMessage)
	}
}

func TestHandleKeyQuit(t *testing.T) {
	e := newTestEditor(t)
	if !e.HandleKey(tcell.NewEventKey(tcell.KeyCtrlQ, 0, 0)) {
		t.Fatalf("ctrl+q should quit")
	}
	if e.HandleKey(tcell.NewEventKey(tcell.KeyDown, 0, 0)) {
		t.Fatalf("down should not quit")
	}
}

func TestSearchSelectsAndRepeats(t *testing.T) {
	e := newTestEditor(t)
	e.HandleKey(tcell.NewEventKey(tcell.KeyCtrlR, 0, 0))
	if e.mode != ModeSearch {
		t.Fatalf("mode = %v, want search", e.mode)
	}
	for _, r := range "maiz" {
		e.HandleKey(tcell.NewEventKey(tcell.KeyRune, r, 0))
	}
	e.HandleKey(tcell.NewEventKey(tcell.KeyBackspace2, 0, 0))
	e.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'n', 0))
	e.HandleKey(tcell.NewEventKey(tcell.KeyEnter, 0, 0))
	if e.mode != ModeEdit {
		t.Fatalf("mode = %v, want edit", e.mode)
	}
	st := e.ws.Cursor()
	if len(st.Selections) != 1 {
		t.Fatalf("selections = %+v", st.Selections)
	}
	if s, end := st.Selections[0].Range(); s != 8 || end != 12 {
		t.Fatalf("selection = [%d, %d), want [8, 12)", s, end)
	}

	e.HandleKey(tcell.NewEventKey(tcell.KeyCtrlN, 0, 0))
	if s, end := e.ws.Cursor().Selections[0].Range(); s != 19 || end != 23 {
		t.Fatalf("next selection = [%d, %d), want [19, 23)", s, end)
	}
}

func TestSearchMissReportsStatus(t *testing.T) {
	e := newTestEditor(t)
	e.HandleKey(tcell.NewEventKey(tcell.KeyCtrlR, 0, 0))
	for _, r := range "zzz" {
		e.HandleKey(tcell.NewEventKey(tcell.KeyRune, r, 0))
	}
	e.HandleKey(tcell.NewEventKey(tcell.KeyEnter, 0, 0))
	if e.statusMessage != "not found: zzz" {
		t.Fatalf("status = %q", e.statusMessage)
	}
	if e.ws.Active().Dirty() {
		t.Fatalf("search typed into the document")
	}
}
