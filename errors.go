package xbarc

import "github.com/fennwald/xbarc/internal/errs"

// Errors shared with the xbc1 subpackage.
var (
	// ErrFormat is returned when bytes do not parse as a valid container
	// or index: bad magic, truncation, or fields inconsistent with the
	// input size.
	ErrFormat = errs.ErrFormat

	// ErrIntegrity is returned when content decodes but fails its digest
	// or declared-size checks.
	ErrIntegrity = errs.ErrIntegrity

	// ErrCompression is returned when a decompressor rejects a stream.
	ErrCompression = errs.ErrCompression

	// ErrSizeOverflow is returned when a size value overflows a format
	// field or the host integer range.
	ErrSizeOverflow = errs.ErrSizeOverflow
)
