package xbarc

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/fennwald/xbarc/internal/index"
)

// InspectResult holds archive metadata read from an ARH index alone,
// without opening the paired ARD data file.
type InspectResult struct {
	entries []index.Entry

	// Lazy computed stats
	statsOnce   sync.Once
	totalStored uint64
	totalRaw    uint64
	ratio       float64
}

// Inspect reads and parses an ARH index file. The records are decoded
// structurally but not checked against a data file; Open performs that
// validation when both halves are available.
func Inspect(arhPath string) (*InspectResult, error) {
	raw, err := os.ReadFile(arhPath)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	entries, err := index.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &InspectResult{entries: entries}, nil
}

// Len returns the number of entries in the index.
func (r *InspectResult) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the index records in archive order.
func (r *InspectResult) Entries() []Entry {
	return slices.Clone(r.entries)
}

// TotalStoredSize returns the sum of all stored entry sizes. Alignment
// padding between entries is not counted.
// This requires iterating all entries on first call; the result is cached.
func (r *InspectResult) TotalStoredSize() uint64 {
	r.computeStats()
	return r.totalStored
}

// TotalRawSize returns the sum of all decompressed entry sizes.
// This requires iterating all entries on first call; the result is cached.
func (r *InspectResult) TotalRawSize() uint64 {
	r.computeStats()
	return r.totalRaw
}

// CompressionRatio returns the ratio of stored to decompressed bytes.
// Returns 1.0 for an empty index.
// This requires iterating all entries on first call; the result is cached.
func (r *InspectResult) CompressionRatio() float64 {
	r.computeStats()
	return r.ratio
}

// computeStats computes aggregate statistics by iterating all entries.
func (r *InspectResult) computeStats() {
	r.statsOnce.Do(func() {
		for _, e := range r.entries {
			r.totalStored += uint64(e.StoredSize)
			r.totalRaw += uint64(e.RawSize)
		}
		if r.totalRaw > 0 {
			r.ratio = float64(r.totalStored) / float64(r.totalRaw)
		} else {
			r.ratio = 1.0
		}
	})
}
