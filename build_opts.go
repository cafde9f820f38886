package xbarc

import (
	"log/slog"

	"github.com/fennwald/xbarc/internal/data"
	"github.com/fennwald/xbarc/xbc1"
)

// DefaultAlignment is the data-file alignment used when no BuildWithAlignment
// option is set.
const DefaultAlignment = data.DefaultAlignment

// defaultZlibMax is the size threshold of the DefaultCompression heuristic.
const defaultZlibMax = 1 << 20

// CompressionFunc selects the container kind for an input, given its name
// and raw size. Returning KindNone stores the input raw, without a
// container.
type CompressionFunc func(name string, size uint64) xbc1.Kind

// CompressAll returns a CompressionFunc that applies one kind to every
// input.
func CompressAll(kind xbc1.Kind) CompressionFunc {
	return func(string, uint64) xbc1.Kind {
		return kind
	}
}

// DefaultCompression picks zlib for inputs at or below 1 MiB and zstd
// above, matching the established packing convention for these archives.
func DefaultCompression(_ string, size uint64) xbc1.Kind {
	if size <= defaultZlibMax {
		return xbc1.KindZlib
	}
	return xbc1.KindZstd
}

// ClassifierFunc assigns a type tag from an input's name and bytes.
// It is called once per input and should be inexpensive.
type ClassifierFunc func(name string, data []byte) TypeTag

// buildConfig holds configuration for archive construction.
type buildConfig struct {
	compression        CompressionFunc
	classifier         ClassifierFunc
	alignment          uint32
	workers            int
	nameTable          bool
	storeRawWhenLarger bool
	bufferBudget       uint64
	progress           ProgressFunc
	logger             *slog.Logger
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

// BuildWithCompression sets the per-input compression selector.
// Nil (the default) stores every input raw.
func BuildWithCompression(sel CompressionFunc) BuildOption {
	return func(c *buildConfig) {
		c.compression = sel
	}
}

// BuildWithClassifier sets the per-input type tag classifier.
// Nil (the default) leaves every entry untyped.
func BuildWithClassifier(fn ClassifierFunc) BuildOption {
	return func(c *buildConfig) {
		c.classifier = fn
	}
}

// BuildWithAlignment sets the data-file alignment. Entry offsets are
// multiples of this value. Must be positive; the default is 16.
func BuildWithAlignment(n uint32) BuildOption {
	return func(c *buildConfig) {
		c.alignment = n
	}
}

// BuildWithWorkers sets the number of encode workers.
// Values < 0 force serial encoding. Zero uses automatic heuristics.
func BuildWithWorkers(n int) BuildOption {
	return func(c *buildConfig) {
		c.workers = n
	}
}

// BuildWithNameTable controls whether the index carries entry names.
// Enabled by default; disable to produce indexes in the classic nameless
// layout.
func BuildWithNameTable(enabled bool) BuildOption {
	return func(c *buildConfig) {
		c.nameTable = enabled
	}
}

// BuildWithStoreRawWhenLarger stores an input raw when its encoded
// container would not be smaller than the input itself. Disabled by
// default: the compressor's output is stored unconditionally.
func BuildWithStoreRawWhenLarger(enabled bool) BuildOption {
	return func(c *buildConfig) {
		c.storeRawWhenLarger = enabled
	}
}

// BuildWithBufferBudget caps the total bytes of encoded entries buffered
// ahead of the data writer. A value of 0 disables the budget.
func BuildWithBufferBudget(limit uint64) BuildOption {
	return func(c *buildConfig) {
		c.bufferBudget = limit
	}
}

// BuildWithProgress registers a callback for progress updates.
func BuildWithProgress(fn ProgressFunc) BuildOption {
	return func(c *buildConfig) {
		c.progress = fn
	}
}

// BuildWithLogger sets the logger used for debug output.
// By default, logging is discarded.
func BuildWithLogger(logger *slog.Logger) BuildOption {
	return func(c *buildConfig) {
		c.logger = logger
	}
}
