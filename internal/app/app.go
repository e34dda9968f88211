package app

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/multierr"

	"github.com/kobzarvs/docsync/internal/config"
	"github.com/kobzarvs/docsync/internal/editor"
	"github.com/kobzarvs/docsync/internal/logger"
	"github.com/kobzarvs/docsync/internal/treesitter"
)

// tick paces background work: reparse outcomes and the width scan.
const tick = 40 * time.Millisecond

// App is the top-level runtime for docsync.
type App struct {
	args []string
}

func New(args []string) *App {
	return &App{args: args}
}

func (a *App) Run() (err error) {
	runtime.LockOSThread()
	if len(a.args) == 0 {
		return errors.New("usage: docsync <file> [file...]")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	langs, err := config.LoadLanguages()
	if err != nil {
		return err
	}
	if lerr := logger.Init(os.Getenv("DOCSYNC_DEBUG") != ""); lerr != nil {
		fmt.Fprintln(os.Stderr, "docsync: logging disabled:", lerr)
	}
	defer logger.Close()

	ts := treesitter.New(langs, cfg.Editor.MaxHighlightBytes)
	if err := ts.Start(); err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, ts.Stop()) }()

	ws := editor.NewWorkspace(cfg, langs, ts)
	defer ws.Close()
	for _, path := range a.args {
		if _, err := ws.OpenFile(path); err != nil {
			return err
		}
	}
	ws.SetActive(a.args[0])

	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = s.PostEvent(tcell.NewEventInterrupt(nil))
			}
		}
	}()

	ed := editor.New(cfg, ws)
	budget := time.Duration(cfg.View.ScanBudgetMs) * time.Millisecond
	scanDone := false
	ed.Render(s)
	rendered := ws.Version()
	for {
		redraw := false
		switch ev := s.PollEvent().(type) {
		case *tcell.EventKey:
			if ed.HandleKey(ev) {
				logger.Info("quit", "path", ws.ActivePath())
				return nil
			}
			redraw = true
		case *tcell.EventResize:
			s.Sync()
			redraw = true
		case *tcell.EventInterrupt:
			ws.Pump()
			if !scanDone {
				scanDone = ws.StepScan(time.Now().Add(budget))
			}
		case nil:
			return nil
		}
		if v := ws.Version(); v != rendered {
			// any change may have restarted the width scan
			scanDone = false
			rendered = v
			redraw = true
		}
		if redraw {
			ed.Render(s)
		}
	}
}
