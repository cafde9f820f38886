// Package data reads and writes ARD data files. An ARD is an opaque byte
// blob; all structure comes from the ranges a paired ARH index declares.
// Reads are random-access and exact; writes are sequential appends padded to
// an alignment boundary.
package data

import (
	"errors"
	"fmt"
	"io"

	"github.com/fennwald/xbarc/internal/errs"
	"github.com/fennwald/xbarc/internal/sizing"
)

// DefaultAlignment is the byte boundary entries are padded to when no
// alignment is configured.
const DefaultAlignment = 16

// ReadRange reads exactly length bytes at offset from r. A short read
// surfaces as io.ErrUnexpectedEOF, signalling a corrupt or mismatched
// ARD/ARH pair. Concurrent calls are safe when r's ReadAt is.
func ReadRange(r io.ReaderAt, offset uint64, length uint32) ([]byte, error) {
	off, err := sizing.ToInt64(offset)
	if err != nil {
		return nil, err
	}
	size, err := sizing.ToInt(uint64(length))
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	n, err := r.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read range [%d, %d): %w", offset, offset+uint64(length), err)
	}
	if n != size {
		return nil, fmt.Errorf("read range [%d, %d): %w (%d of %d bytes)", offset, offset+uint64(length), io.ErrUnexpectedEOF, n, size)
	}
	return buf, nil
}

// Appender writes entries sequentially to an ARD, zero-padding after each to
// the next alignment boundary. It is single-owner: callers serialize Append
// themselves, normally by funneling all writes through one goroutine.
type Appender struct {
	w      io.Writer
	align  uint64
	cursor uint64
	pad    []byte
}

// NewAppender wraps w with alignment-aware appends. alignment must be
// positive; archives conventionally use 16.
func NewAppender(w io.Writer, alignment uint32) (*Appender, error) {
	if alignment == 0 {
		return nil, errors.New("alignment must be positive")
	}
	return &Appender{
		w:     w,
		align: uint64(alignment),
		pad:   make([]byte, alignment),
	}, nil
}

// Append writes b at the current cursor followed by padding up to the next
// alignment boundary. It returns the pre-padding offset, the value an entry
// record stores.
func (a *Appender) Append(b []byte) (uint64, error) {
	offset := a.cursor

	if len(b) > 0 {
		if _, err := a.w.Write(b); err != nil {
			return 0, fmt.Errorf("append at %d: %w", offset, err)
		}
	}
	cursor, ok := sizing.Add(a.cursor, uint64(len(b)))
	if !ok {
		return 0, errs.ErrSizeOverflow
	}

	padding := (a.align - cursor%a.align) % a.align
	if padding > 0 {
		if _, err := a.w.Write(a.pad[:padding]); err != nil {
			return 0, fmt.Errorf("pad at %d: %w", cursor, err)
		}
		cursor += padding
	}

	a.cursor = cursor
	return offset, nil
}

// Cursor returns the position the next append will start at.
func (a *Appender) Cursor() uint64 {
	return a.cursor
}
