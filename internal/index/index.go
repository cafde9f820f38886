// Package index parses and serializes ARH directory files. An ARH is a
// 16-byte header, a fixed-width record per entry, and an optional name
// table:
//
//	0x00  magic          "arh2"
//	0x04  entryCount     uint32
//	0x08  entriesOffset  uint32  first record position (16 when written here)
//	0x0C  namesOffset    uint32  0 = no name table
//
// Each 20-byte record holds the entry's location in the paired ARD:
//
//	+0x00  offset      uint64  multiple of the build alignment
//	+0x08  storedSize  uint32  bytes on disk
//	+0x0C  rawSize     uint32  decompressed size; equals storedSize when raw
//	+0x10  flags       uint32  bit 0 container flag, bits 16-31 type tag
//
// The name table, when present, is entryCount length-prefixed strings
// (uint16 length + UTF-8 bytes) in record order. All integers are
// little-endian.
package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fennwald/xbarc/internal/errs"
	"github.com/fennwald/xbarc/internal/sizing"
)

const (
	// HeaderSize is the fixed ARH header size in bytes.
	HeaderSize = 16

	// RecordSize is the fixed size of one entry record in bytes.
	RecordSize = 20
)

// magic identifies an ARH file.
var magic = []byte("arh2")

// TypeTag classifies an entry's content for metadata-only filtering.
// Zero means untyped; classifiers assign the rest at build time.
type TypeTag uint16

const (
	// TagNone is the untyped default.
	TagNone TypeTag = 0
	// TagBDAT marks entries recognized as BDAT data tables.
	TagBDAT TypeTag = 1
)

// String returns the conventional name of the tag.
func (t TypeTag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagBDAT:
		return "bdat"
	default:
		return fmt.Sprintf("tag(%d)", uint16(t))
	}
}

// Flags packs the container bit and type tag of an entry record.
type Flags uint32

// FlagContainer marks an entry whose stored bytes are an XBC1 container.
const FlagContainer Flags = 1 << 0

// MakeFlags builds a Flags value from its parts.
func MakeFlags(container bool, tag TypeTag) Flags {
	f := Flags(tag) << 16
	if container {
		f |= FlagContainer
	}
	return f
}

// Container reports whether the container bit is set.
func (f Flags) Container() bool {
	return f&FlagContainer != 0
}

// Tag returns the type tag bits.
func (f Flags) Tag() TypeTag {
	return TypeTag(f >> 16)
}

// Entry describes one archived file. The slice position in a parsed index is
// the entry's identity; extraction and naming key off it.
type Entry struct {
	Offset     uint64
	StoredSize uint32
	RawSize    uint32
	Flags      Flags

	// Name is the entry's relative path from the name table, or empty when
	// the index carries none.
	Name string
}

// Compressed reports whether the stored bytes are an XBC1 container.
func (e Entry) Compressed() bool {
	return e.Flags.Container()
}

// Tag returns the entry's type tag.
func (e Entry) Tag() TypeTag {
	return e.Flags.Tag()
}

// Parse decodes an ARH file. It fails with ErrFormat on a bad magic, a
// truncated header or record region, or a name table inconsistent with the
// entry count.
func Parse(b []byte) ([]Entry, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("%w: index truncated (%d of %d header bytes)", errs.ErrFormat, len(b), HeaderSize)
	}
	if !bytes.Equal(b[:4], magic) {
		return nil, fmt.Errorf("%w: bad index magic", errs.ErrFormat)
	}
	count := binary.LittleEndian.Uint32(b[4:8])
	entriesOffset := binary.LittleEndian.Uint32(b[8:12])
	namesOffset := binary.LittleEndian.Uint32(b[12:16])

	if entriesOffset < HeaderSize {
		return nil, fmt.Errorf("%w: entry records overlap header (offset %d)", errs.ErrFormat, entriesOffset)
	}
	end, ok := sizing.Add(uint64(entriesOffset), uint64(count)*RecordSize)
	if !ok || end > uint64(len(b)) {
		return nil, fmt.Errorf("%w: %d entries exceed index size (%d bytes)", errs.ErrFormat, count, len(b))
	}

	entries := make([]Entry, count)
	for i := range entries {
		rec := b[uint64(entriesOffset)+uint64(i)*RecordSize:]
		entries[i] = Entry{
			Offset:     binary.LittleEndian.Uint64(rec[0:8]),
			StoredSize: binary.LittleEndian.Uint32(rec[8:12]),
			RawSize:    binary.LittleEndian.Uint32(rec[12:16]),
			Flags:      Flags(binary.LittleEndian.Uint32(rec[16:20])),
		}
	}

	if namesOffset != 0 {
		if err := parseNames(b, namesOffset, entries); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func parseNames(b []byte, namesOffset uint32, entries []Entry) error {
	if uint64(namesOffset) > uint64(len(b)) {
		return fmt.Errorf("%w: name table offset %d beyond index size (%d bytes)", errs.ErrFormat, namesOffset, len(b))
	}
	pos := uint64(namesOffset)
	for i := range entries {
		if pos+2 > uint64(len(b)) {
			return fmt.Errorf("%w: name table truncated at entry %d", errs.ErrFormat, i)
		}
		n := uint64(binary.LittleEndian.Uint16(b[pos : pos+2]))
		pos += 2
		if pos+n > uint64(len(b)) {
			return fmt.Errorf("%w: name table truncated at entry %d", errs.ErrFormat, i)
		}
		entries[i].Name = string(b[pos : pos+n])
		pos += n
	}
	return nil
}

// Serialize encodes entries into ARH bytes in index order. The caller
// guarantees index order equals the final archive ordering. When withNames
// is set, the name table is appended and referenced from the header.
func Serialize(entries []Entry, withNames bool) ([]byte, error) {
	if uint64(len(entries)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d entries exceed 32-bit count field", errs.ErrFormat, len(entries))
	}

	size := HeaderSize + len(entries)*RecordSize
	if withNames {
		for i, e := range entries {
			if len(e.Name) > math.MaxUint16 {
				return nil, fmt.Errorf("%w: entry %d name of %d bytes exceeds 16-bit length field", errs.ErrFormat, i, len(e.Name))
			}
			size += 2 + len(e.Name)
		}
	}

	out := make([]byte, HeaderSize, size)
	copy(out, magic)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(entries)))
	binary.LittleEndian.PutUint32(out[8:12], HeaderSize)
	if withNames {
		binary.LittleEndian.PutUint32(out[12:16], uint32(HeaderSize+len(entries)*RecordSize))
	}

	var rec [RecordSize]byte
	for _, e := range entries {
		binary.LittleEndian.PutUint64(rec[0:8], e.Offset)
		binary.LittleEndian.PutUint32(rec[8:12], e.StoredSize)
		binary.LittleEndian.PutUint32(rec[12:16], e.RawSize)
		binary.LittleEndian.PutUint32(rec[16:20], uint32(e.Flags))
		out = append(out, rec[:]...)
	}

	if withNames {
		var n [2]byte
		for _, e := range entries {
			binary.LittleEndian.PutUint16(n[:], uint16(len(e.Name)))
			out = append(out, n[:]...)
			out = append(out, e.Name...)
		}
	}
	return out, nil
}

// Selected pairs an entry with its original index so filtered subsets keep
// their identity for fetching and naming.
type Selected struct {
	Index int
	Entry Entry
}

// Filter returns the entries keep accepts, preserving original indices and
// relative order. The source slice is never mutated.
func Filter(entries []Entry, keep func(Entry) bool) []Selected {
	selected := make([]Selected, 0, len(entries))
	for i, e := range entries {
		if keep == nil || keep(e) {
			selected = append(selected, Selected{Index: i, Entry: e})
		}
	}
	return selected
}

// Validate checks every entry against the paired data file size. It
// validates:
//   - Offset + storedSize does not overflow
//   - The stored range lies within dataSize
//   - Raw entries declare storedSize == rawSize
//   - Sizes respect maxEntrySize when the limit is non-zero
func Validate(entries []Entry, dataSize uint64, maxEntrySize uint64) error {
	for i, e := range entries {
		end, ok := sizing.Add(e.Offset, uint64(e.StoredSize))
		if !ok {
			return fmt.Errorf("entry %d: %w", i, errs.ErrSizeOverflow)
		}
		if end > dataSize {
			return fmt.Errorf("entry %d: %w: range [%d, %d) beyond data size %d", i, errs.ErrFormat, e.Offset, end, dataSize)
		}
		if !e.Compressed() && e.StoredSize != e.RawSize {
			return fmt.Errorf("entry %d: %w: raw entry declares %d stored but %d raw bytes", i, errs.ErrFormat, e.StoredSize, e.RawSize)
		}
		if maxEntrySize > 0 && (uint64(e.StoredSize) > maxEntrySize || uint64(e.RawSize) > maxEntrySize) {
			return fmt.Errorf("entry %d: %w", i, errs.ErrSizeOverflow)
		}
	}
	return nil
}
