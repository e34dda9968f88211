package cursor

import (
	"github.com/kobzarvs/docsync/internal/logger"
	"github.com/kobzarvs/docsync/internal/text"
)

// Documents reports the current bounds of a file's document.
type Documents interface {
	Bounds(path string) (length int, starts text.LineStarts)
}

// Updater derives a patch from the previous state.
type Updater func(prev State) Patch

// Manager stores cursor state per file path. It is owned by the
// interactive goroutine and is not safe for concurrent use.
type Manager struct {
	docs    Documents
	states  map[string]State
	version uint64
}

func NewManager(docs Documents) *Manager {
	return &Manager{
		docs:   docs,
		states: make(map[string]State),
	}
}

// GetState returns the state for path, creating the default (no cursor)
// state on first access.
func (m *Manager) GetState(path string) State {
	s, ok := m.states[path]
	if !ok {
		s = State{}
		m.states[path] = s
	}
	return s.clone()
}

// UpdateState merges the updater's patch, re-clamps against the document
// and stores the result. It reports whether anything changed; unchanged
// results are not written and do not bump the version.
func (m *Manager) UpdateState(path string, fn Updater) bool {
	prev := m.GetState(path)
	next := fn(prev.clone()).apply(prev.clone())
	length, starts := m.docs.Bounds(path)
	next = Clamp(next, length, starts)
	if next.Equal(prev) {
		return false
	}
	m.states[path] = next
	m.version++
	logger.Debug("cursor updated", "path", path, "offset", next.Position.Offset, "selections", len(next.Selections))
	return true
}

// Version increments on every stored change, across all files.
func (m *Manager) Version() uint64 {
	return m.version
}
