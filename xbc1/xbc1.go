// Package xbc1 encodes and decodes XBC1 containers, the single-block
// compressed wrapper used throughout the asset pipeline. A container is a
// 48-byte header followed by the stored payload:
//
//	0x00  magic    "xbc1"
//	0x04  kind     uint32  compression kind (none, zlib, zstd)
//	0x08  rawSize  uint32  decompressed length
//	0x0C  compSize uint32  stored payload length
//	0x10  digest   uint32  byte-sum checksum of the decompressed content
//	0x14  name     [28]byte zero-padded label
//	0x30  payload  [compSize]byte
//
// All integers are little-endian. Containers may be embedded in larger
// buffers; bytes after the payload are ignored. Decode verifies the digest
// and the declared decompressed length before returning content.
package xbc1

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fennwald/xbarc/internal/errs"
	"github.com/fennwald/xbarc/internal/sizing"
)

// HeaderSize is the fixed size of an XBC1 header in bytes.
const HeaderSize = 48

// nameSize is the fixed size of the header's name field.
const nameSize = 28

// magic identifies an XBC1 container.
var magic = []byte("xbc1")

// Kind identifies the compression applied to a container's payload.
// The values are part of the on-disk format.
type Kind uint32

const (
	// KindNone stores the payload verbatim; compSize equals rawSize.
	KindNone Kind = 0

	// KindZlib stores a zlib stream.
	KindZlib Kind = 1

	// KindZstd stores a zstd frame.
	KindZstd Kind = 3
)

// String returns the conventional name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindZlib:
		return "zlib"
	case KindZstd:
		return "zstd"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

func (k Kind) known() bool {
	return k == KindNone || k == KindZlib || k == KindZstd
}

// Errors returned by this package. ErrFormat covers malformed headers and
// out-of-range fields, ErrIntegrity digest or size mismatches after
// decompression, ErrCompression rejected streams.
var (
	ErrFormat      = errs.ErrFormat
	ErrIntegrity   = errs.ErrIntegrity
	ErrCompression = errs.ErrCompression
)

// Header holds the decoded fields of a container header.
type Header struct {
	Kind     Kind
	RawSize  uint32
	CompSize uint32
	Digest   uint32
	Name     string
}

// IsContainer reports whether b begins with the XBC1 magic.
func IsContainer(b []byte) bool {
	return len(b) >= len(magic) && bytes.Equal(b[:len(magic)], magic)
}

// ParseHeader decodes the 48-byte header at the start of b. It validates the
// magic and header length but not the kind or payload bounds, so it can be
// used to inspect containers with unknown kinds.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header truncated (%d of %d bytes)", ErrFormat, len(b), HeaderSize)
	}
	if !IsContainer(b) {
		return Header{}, fmt.Errorf("%w: bad magic", ErrFormat)
	}
	h := Header{
		Kind:     Kind(binary.LittleEndian.Uint32(b[4:8])),
		RawSize:  binary.LittleEndian.Uint32(b[8:12]),
		CompSize: binary.LittleEndian.Uint32(b[12:16]),
		Digest:   binary.LittleEndian.Uint32(b[16:20]),
	}
	name := b[20:HeaderSize]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	h.Name = string(name)
	return h, nil
}

// Decode validates and unpacks the container at the start of b, returning the
// decompressed payload sized exactly to the header's rawSize.
func Decode(b []byte) ([]byte, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}
	if !h.Kind.known() {
		return nil, fmt.Errorf("%w: unknown compression kind %d", ErrFormat, uint32(h.Kind))
	}
	end, ok := sizing.Add(HeaderSize, uint64(h.CompSize))
	if !ok || end > uint64(len(b)) {
		return nil, fmt.Errorf("%w: payload of %d bytes extends past end of input (%d bytes)", ErrFormat, h.CompSize, len(b))
	}
	payload := b[HeaderSize:end]

	var raw []byte
	switch h.Kind {
	case KindNone:
		if h.CompSize != h.RawSize {
			return nil, fmt.Errorf("%w: uncompressed container declares %d stored but %d raw bytes", ErrFormat, h.CompSize, h.RawSize)
		}
		raw = bytes.Clone(payload)
	case KindZlib:
		raw, err = zlibDecompress(payload, h.RawSize)
	case KindZstd:
		raw, err = zstdDecompress(payload, h.RawSize)
	}
	if err != nil {
		return nil, err
	}
	if uint32(len(raw)) != h.RawSize {
		return nil, fmt.Errorf("%w: decompressed to %d bytes, header declares %d", ErrIntegrity, len(raw), h.RawSize)
	}
	if got := Checksum(raw); got != h.Digest {
		return nil, fmt.Errorf("%w: digest %08x, header declares %08x", ErrIntegrity, got, h.Digest)
	}
	return raw, nil
}

// encodeConfig holds optional Encode settings.
type encodeConfig struct {
	name string
}

// EncodeOption configures Encode.
type EncodeOption func(*encodeConfig)

// EncodeWithName sets the header's name label. Names longer than the 28-byte
// field are truncated.
func EncodeWithName(name string) EncodeOption {
	return func(c *encodeConfig) {
		c.name = name
	}
}

// Encode wraps payload in an XBC1 container using the given compression kind.
// The stored bytes are always the compressor's output, even when compression
// expands the payload.
func Encode(payload []byte, kind Kind, opts ...EncodeOption) ([]byte, error) {
	var cfg encodeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if !kind.known() {
		return nil, fmt.Errorf("%w: unknown compression kind %d", ErrFormat, uint32(kind))
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds 32-bit size field", ErrFormat, len(payload))
	}

	var stored []byte
	var err error
	switch kind {
	case KindNone:
		stored = payload
	case KindZlib:
		stored, err = zlibCompress(payload)
	case KindZstd:
		stored = zstdCompress(payload)
	}
	if err != nil {
		return nil, err
	}
	if uint64(len(stored)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: compressed size %d exceeds 32-bit size field", ErrFormat, len(stored))
	}

	out := make([]byte, HeaderSize+len(stored))
	copy(out, magic)
	binary.LittleEndian.PutUint32(out[4:8], uint32(kind))
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(payload)))
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(stored)))
	binary.LittleEndian.PutUint32(out[16:20], Checksum(payload))
	copy(out[20:HeaderSize], cfg.name)
	copy(out[HeaderSize:], stored)
	return out, nil
}
