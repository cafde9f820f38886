// Package errs declares the error values shared by the xbc1 codec and the
// archive engine. Public packages re-export these so errors.Is works across
// layers without import cycles.
package errs

import "errors"

var (
	// ErrFormat is returned for malformed container or index bytes: wrong
	// magic, truncated headers, or fields inconsistent with the data size.
	ErrFormat = errors.New("xbarc: invalid format")

	// ErrIntegrity is returned when decompressed content does not match the
	// stored digest or declared size.
	ErrIntegrity = errors.New("xbarc: integrity check failed")

	// ErrCompression is returned when a compressor or decompressor rejects
	// its input.
	ErrCompression = errors.New("xbarc: compression failure")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("xbarc: size overflow")
)
