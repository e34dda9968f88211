package document

import (
	"io"

	"github.com/kobzarvs/docsync/internal/text"
)

// Storage is the text backing a document. ApplyEdit returns the edited
// storage; implementations may share structure with the receiver but must
// not change what the receiver reports.
type Storage interface {
	Len() int
	TextInRange(start, end int) string
	ApplyEdit(edit text.Edit) Storage
}

// Buffer is an immutable string-backed Storage.
type Buffer struct {
	s string
}

func NewBuffer(s string) Buffer {
	return Buffer{s: s}
}

func (b Buffer) Len() int {
	return len(b.s)
}

// TextInRange returns the text in [start, end), clamped to the buffer.
func (b Buffer) TextInRange(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(b.s) {
		end = len(b.s)
	}
	if start >= end {
		return ""
	}
	return b.s[start:end]
}

func (b Buffer) ApplyEdit(edit text.Edit) Storage {
	return Buffer{s: b.s[:edit.StartIndex] + edit.InsertedText + b.s[edit.OldEndIndex:]}
}

func (b Buffer) String() string {
	return b.s
}

// ReadAt implements io.ReaderAt.
func (b Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, io.EOF
	}
	if off >= int64(len(b.s)) {
		return 0, io.EOF
	}
	n := copy(p, b.s[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
