// Package sizing provides overflow-checked size arithmetic for the 64-bit
// offsets and 32-bit lengths used by the archive formats.
package sizing

import (
	"math"

	"github.com/fennwald/xbarc/internal/errs"
)

// ToInt converts v to int, returning ErrSizeOverflow if it does not fit.
func ToInt(v uint64) (int, error) {
	if v > uint64(math.MaxInt) {
		return 0, errs.ErrSizeOverflow
	}
	return int(v), nil
}

// ToInt64 converts v to int64, returning ErrSizeOverflow if it does not fit.
func ToInt64(v uint64) (int64, error) {
	if v > uint64(math.MaxInt64) {
		return 0, errs.ErrSizeOverflow
	}
	return int64(v), nil
}

// Add adds two uint64 values, returning (0, false) on wraparound.
func Add(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}
