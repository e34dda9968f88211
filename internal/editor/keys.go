package editor

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

// keyString names a key event the way keymaps spell it: "a", "space",
// "ctrl+f", "alt+left", "enter".
func keyString(ev *tcell.EventKey) string {
	mods := ev.Modifiers()
	if mods&tcell.ModAlt != 0 {
		switch ev.Key() {
		case tcell.KeyUp:
			return "alt+up"
		case tcell.KeyDown:
			return "alt+down"
		case tcell.KeyLeft:
			return "alt+left"
		case tcell.KeyRight:
			return "alt+right"
		case tcell.KeyRune:
			return "alt+" + strings.ToLower(string(ev.Rune()))
		}
	}
	if mods&tcell.ModCtrl != 0 {
		switch ev.Key() {
		case tcell.KeyHome:
			return "ctrl+home"
		case tcell.KeyEnd:
			return "ctrl+end"
		case tcell.KeyLeft:
			return "ctrl+left"
		case tcell.KeyRight:
			return "ctrl+right"
		case tcell.KeyRune:
			return "ctrl+" + strings.ToLower(string(ev.Rune()))
		}
	}
	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		if r == ' ' {
			return "space"
		}
		return string(r)
	}
	// Tab, Enter, Backspace and Escape share codes with ctrl+i, ctrl+m,
	// ctrl+h and ctrl+[; check them before ctrlKeyName.
	switch ev.Key() {
	case tcell.KeyTab:
		if mods&tcell.ModShift != 0 {
			return "shift+tab"
		}
		return "tab"
	case tcell.KeyBacktab:
		return "shift+tab"
	case tcell.KeyEnter:
		return "enter"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "backspace"
	case tcell.KeyEscape:
		return "esc"
	}
	if name := ctrlKeyName(ev.Key()); name != "" {
		return name
	}
	switch ev.Key() {
	case tcell.KeyUp:
		return "up"
	case tcell.KeyDown:
		return "down"
	case tcell.KeyLeft:
		return "left"
	case tcell.KeyRight:
		return "right"
	case tcell.KeyPgUp:
		return "pgup"
	case tcell.KeyPgDn:
		return "pgdn"
	case tcell.KeyHome:
		return "home"
	case tcell.KeyEnd:
		return "end"
	case tcell.KeyDelete:
		return "del"
	}
	return ""
}

// ctrlKeyName names ctrl+letter keys. Codes shared with tab, enter and
// backspace are taken before this is reached.
func ctrlKeyName(key tcell.Key) string {
	if key < tcell.KeyCtrlA || key > tcell.KeyCtrlZ {
		return ""
	}
	return "ctrl+" + string(rune('a'+int(key-tcell.KeyCtrlA)))
}
