// Package reparse reconciles optimistic, locally shifted annotations with
// results from an asynchronous incremental parser.
//
// Every method except the worker runs on the interactive goroutine. The
// parser runs on a single worker goroutine that handles requests in FIFO
// order, so an incremental parser sees each file's edits exactly once and
// in the order they were made.
package reparse

import (
	"context"
	"fmt"
	"sync"

	"github.com/kobzarvs/docsync/internal/annotation"
	"github.com/kobzarvs/docsync/internal/logger"
	"github.com/kobzarvs/docsync/internal/text"
)

// Request asks the parser for the annotations of Source. Edits lists the
// changes since the parser last saw the file; Full means the parser must
// not reuse anything it remembers about it.
type Request struct {
	ID     uint64
	Path   string
	Source string
	Edits  []text.Edit
	Full   bool
}

// Parser is an external incremental parser. A nil set with a nil error
// means there is nothing to report.
type Parser interface {
	Parse(ctx context.Context, req Request) (*annotation.Set, error)
}

// Outcome is what the worker delivers back for one request.
type Outcome struct {
	Path string
	ID   uint64
	Set  *annotation.Set
	Err  error
}

type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

type fileState struct {
	state     State
	pending   uint64
	unsent    []text.Edit
	needsFull bool
	cancel    context.CancelFunc
}

type job struct {
	ctx context.Context
	req Request
}

type Orchestrator struct {
	parser Parser

	files  map[string]*fileState
	active string
	nextID uint64

	mu    sync.Mutex
	queue []job

	wake     chan struct{}
	results  chan Outcome
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewOrchestrator(parser Parser) *Orchestrator {
	o := &Orchestrator{
		parser:  parser,
		files:   make(map[string]*fileState),
		wake:    make(chan struct{}, 1),
		results: make(chan Outcome, 64),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go o.loop()
	return o
}

// Results delivers outcomes. The interactive goroutine drains it and
// passes each outcome to Accept.
func (o *Orchestrator) Results() <-chan Outcome {
	return o.results
}

func (o *Orchestrator) file(path string) *fileState {
	fs, ok := o.files[path]
	if !ok {
		fs = &fileState{needsFull: true}
		o.files[path] = fs
	}
	return fs
}

// State reports the state of path and the ID it is waiting for.
func (o *Orchestrator) State(path string) (State, uint64) {
	fs, ok := o.files[path]
	if !ok {
		return Idle, 0
	}
	return fs.state, fs.pending
}

// Active returns the active file path.
func (o *Orchestrator) Active() string {
	return o.active
}

// Submit records an edit already applied to the file whose text is now
// source. Shiftable edits are only queued for the next request; anything
// else dispatches a request carrying every queued edit. It reports whether
// a request was dispatched.
func (o *Orchestrator) Submit(path string, edit text.Edit, source string) bool {
	fs := o.file(path)
	fs.unsent = append(fs.unsent, edit)
	if annotation.IsShiftableEdit(edit) {
		return false
	}
	o.dispatch(path, fs, source)
	return true
}

// Reparse dispatches a full parse of path.
func (o *Orchestrator) Reparse(path, source string) uint64 {
	fs := o.file(path)
	fs.needsFull = true
	return o.dispatch(path, fs, source)
}

func (o *Orchestrator) dispatch(path string, fs *fileState, source string) uint64 {
	// a superseded request is not cancelled: the parser still has to see
	// its edits
	o.nextID++
	req := Request{ID: o.nextID, Path: path, Source: source, Full: fs.needsFull}
	if !req.Full {
		req.Edits = fs.unsent
	}
	fs.unsent = nil
	fs.needsFull = false
	fs.state = Pending
	fs.pending = req.ID

	ctx, cancel := context.WithCancel(context.Background())
	fs.cancel = cancel

	o.mu.Lock()
	o.queue = append(o.queue, job{ctx: ctx, req: req})
	o.mu.Unlock()
	select {
	case o.wake <- struct{}{}:
	default:
	}
	logger.Document(path).Debugw("reparse dispatched", "id", req.ID, "edits", len(req.Edits), "full", req.Full)
	return req.ID
}

// SetActive makes path the active file. An in-flight request of the
// previously active file becomes irrelevant and is cancelled.
func (o *Orchestrator) SetActive(path string) {
	if path == o.active {
		return
	}
	if prev, ok := o.files[o.active]; ok && prev.state == Pending {
		if prev.cancel != nil {
			prev.cancel()
			prev.cancel = nil
		}
		prev.state = Idle
		prev.pending = 0
		// the cancelled request may never reach the parser
		prev.needsFull = true
		prev.unsent = nil
		logger.Document(o.active).Debugw("reparse abandoned")
	}
	o.active = path
}

// Accept decides whether an outcome may replace the file's annotations.
// Only the latest request of the active file is accepted; failures and
// empty results leave the last good annotations in place.
func (o *Orchestrator) Accept(out Outcome) (annotation.Set, bool) {
	fs, ok := o.files[out.Path]
	if !ok || out.Path != o.active || fs.state != Pending || out.ID != fs.pending {
		logger.Document(out.Path).Debugw("reparse outcome discarded", "id", out.ID, "active", o.active)
		return annotation.Set{}, false
	}
	fs.state = Idle
	fs.pending = 0
	fs.cancel = nil
	if out.Err != nil {
		logger.Document(out.Path).Warnw("reparse failed", "id", out.ID, "error", out.Err)
		fs.needsFull = true
		return annotation.Set{}, false
	}
	if out.Set == nil {
		logger.Document(out.Path).Debugw("reparse returned nothing", "id", out.ID)
		return annotation.Set{}, false
	}
	// the result describes the source at dispatch time; edits queued since
	// then have already been applied to the buffer
	set := *out.Set
	if len(fs.unsent) > 0 {
		set.Shift(fs.unsent)
	}
	return set, true
}

// Stop terminates the worker. Outcomes not yet delivered are dropped.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		for _, fs := range o.files {
			if fs.cancel != nil {
				fs.cancel()
			}
		}
		close(o.stopCh)
	})
	<-o.done
}

func (o *Orchestrator) loop() {
	defer close(o.done)
	for {
		j, ok := o.next()
		if !ok {
			select {
			case <-o.stopCh:
				return
			case <-o.wake:
				continue
			}
		}
		out := o.run(j)
		select {
		case o.results <- out:
		case <-o.stopCh:
			return
		}
	}
}

func (o *Orchestrator) next() (job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.queue) == 0 {
		return job{}, false
	}
	j := o.queue[0]
	o.queue[0] = job{}
	o.queue = o.queue[1:]
	return j, true
}

func (o *Orchestrator) run(j job) (out Outcome) {
	out = Outcome{Path: j.req.Path, ID: j.req.ID}
	if err := j.ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	defer func() {
		if r := recover(); r != nil {
			out.Set = nil
			out.Err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	out.Set, out.Err = o.parser.Parse(j.ctx, j.req)
	return out
}
