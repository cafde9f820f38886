package xbarc

import (
	"errors"
	"fmt"
)

// EntryError records one entry's failure during extraction or verification.
type EntryError struct {
	// Index is the entry's position in the archive.
	Index int

	// Name is the entry's output name, when one was resolved.
	Name string

	// Err is the underlying failure.
	Err error
}

// Error implements error.
func (e *EntryError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("entry %d (%s): %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("entry %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *EntryError) Unwrap() error {
	return e.Err
}

// Report summarizes a multi-entry operation.
type Report struct {
	// Done is the number of entries processed successfully.
	Done int

	// Failed is the number of entries that errored.
	Failed int

	// Skipped is the number of selected entries not processed, e.g.
	// because the destination file already existed.
	Skipped int

	// Bytes is the total decoded payload bytes of successful entries.
	Bytes uint64

	// Failures holds one record per failed entry, in entry index order.
	Failures []*EntryError
}

// Err joins all failures into a single error, or returns nil when every
// entry succeeded.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	joined := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		joined[i] = f
	}
	return errors.Join(joined...)
}
