package xbarc

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/fennwald/xbarc/internal/data"
	"github.com/fennwald/xbarc/internal/index"
	"github.com/fennwald/xbarc/xbc1"
)

// Archive provides random access to the entries of an ARD/ARH pair.
//
// The index is held in memory; entry payloads are read from the data file
// on demand. An Archive is safe for concurrent reads.
type Archive struct {
	entries      []index.Entry
	ard          *os.File
	ardSize      uint64
	maxEntrySize uint64
	logger       *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Open opens an archive from its index and data files.
//
// The index file is read into memory and every entry is validated against
// the data file size before any payload is touched. The returned Archive
// must be closed to release the data file handle.
func Open(arhPath, ardPath string, opts ...Option) (*Archive, error) {
	arhData, err := os.ReadFile(arhPath) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("read index file: %w", err)
	}
	entries, err := index.Parse(arhData)
	if err != nil {
		return nil, fmt.Errorf("parse index %s: %w", arhPath, err)
	}

	ard, err := os.Open(ardPath) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	info, err := ard.Stat()
	if err != nil {
		ard.Close()
		return nil, fmt.Errorf("stat data file: %w", err)
	}

	a := &Archive{
		entries: entries,
		ard:     ard,
		ardSize: uint64(info.Size()),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := index.Validate(entries, a.ardSize, a.maxEntrySize); err != nil {
		ard.Close()
		return nil, fmt.Errorf("validate index %s: %w", arhPath, err)
	}

	a.log().Debug("archive opened", "entries", len(entries), "data_size", a.ardSize)
	return a, nil
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entries returns a copy of the entry records in index order.
func (a *Archive) Entries() []Entry {
	return slices.Clone(a.entries)
}

// ReadEntry reads and decodes the payload of the entry at index i.
//
// Container entries are decompressed and digest-verified; raw entries are
// returned as stored.
func (a *Archive) ReadEntry(i int) ([]byte, error) {
	if i < 0 || i >= len(a.entries) {
		return nil, fmt.Errorf("entry %d out of range [0, %d)", i, len(a.entries))
	}
	return a.readEntryData(a.entries[i])
}

// readEntryData fetches an entry's stored range and decodes it if flagged
// as a container.
func (a *Archive) readEntryData(e index.Entry) ([]byte, error) {
	stored, err := data.ReadRange(a.ard, e.Offset, e.StoredSize)
	if err != nil {
		return nil, err
	}
	if !e.Compressed() {
		return stored, nil
	}
	raw, err := xbc1.Decode(stored)
	if err != nil {
		return nil, err
	}
	if uint64(len(raw)) != uint64(e.RawSize) {
		return nil, fmt.Errorf("%w: index declares %d raw bytes, container holds %d", ErrFormat, e.RawSize, len(raw))
	}
	return raw, nil
}

// Close closes the underlying data file.
func (a *Archive) Close() error {
	if a.ard == nil {
		return nil
	}
	err := a.ard.Close()
	a.ard = nil
	return err
}
