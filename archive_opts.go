package xbarc

import "log/slog"

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger used for debug output.
// By default, logging is discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithMaxEntrySize limits the per-entry stored and decompressed sizes
// accepted when opening an archive. Set limit to 0 to disable the limit.
func WithMaxEntrySize(limit uint64) Option {
	return func(a *Archive) {
		a.maxEntrySize = limit
	}
}
