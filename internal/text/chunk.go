package text

import (
	"errors"
	"io"
)

// Chunk is one window of a ChunkReader.
type Chunk struct {
	Offset int64
	Data   []byte
}

// ChunkReader walks an io.ReaderAt in fixed-size windows where consecutive
// windows share overlap bytes. An overlap that is not smaller than the
// chunk size is reduced to size-1 so every step advances.
type ChunkReader struct {
	r       io.ReaderAt
	size    int64
	chunk   int
	step    int
	offset  int64
	buf     []byte
	err     error
	started bool
}

// NewChunkReader returns a reader over the first size bytes of r.
func NewChunkReader(r io.ReaderAt, size int64, chunkSize, overlap int) *ChunkReader {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	return &ChunkReader{
		r:     r,
		size:  size,
		chunk: chunkSize,
		step:  chunkSize - overlap,
		buf:   make([]byte, chunkSize),
	}
}

// Next returns the next window. The returned Data is only valid until the
// following call. ok is false once the input is exhausted or failed.
func (c *ChunkReader) Next() (Chunk, bool) {
	if c.err != nil {
		return Chunk{}, false
	}
	if c.started {
		c.offset += int64(c.step)
	}
	c.started = true
	if c.offset >= c.size {
		return Chunk{}, false
	}
	n := int64(c.chunk)
	if c.offset+n > c.size {
		n = c.size - c.offset
	}
	read, err := c.r.ReadAt(c.buf[:n], c.offset)
	if err != nil && !(errors.Is(err, io.EOF) && int64(read) == n) {
		c.err = err
		return Chunk{}, false
	}
	return Chunk{Offset: c.offset, Data: c.buf[:read]}, true
}

// Err returns the first read error, if any.
func (c *ChunkReader) Err() error {
	return c.err
}
