package xbarc

// NamerFunc derives an output path for an entry the index carries no name
// for. The returned path must be relative and slash-separated.
type NamerFunc func(index int, e Entry) string

// extractConfig holds configuration for extraction and verification.
type extractConfig struct {
	filter       func(Entry) bool
	namer        NamerFunc
	workers      int
	overwrite    bool
	directWrites bool
	progress     ProgressFunc
}

// ExtractOption configures Extract and Verify operations.
type ExtractOption func(*extractConfig)

// ExtractWithFilter selects the entries to process. The predicate sees
// index metadata only; data ranges of rejected entries are never read.
// A nil predicate selects everything.
func ExtractWithFilter(keep func(Entry) bool) ExtractOption {
	return func(c *extractConfig) {
		c.filter = keep
	}
}

// ExtractWithNamer overrides how unnamed entries are named on disk.
// The default derives "%08x.bin" from the entry index.
func ExtractWithNamer(fn NamerFunc) ExtractOption {
	return func(c *extractConfig) {
		c.namer = fn
	}
}

// ExtractWithWorkers sets the number of workers for parallel processing.
// Values < 0 force serial processing. Zero uses automatic heuristics.
func ExtractWithWorkers(n int) ExtractOption {
	return func(c *extractConfig) {
		c.workers = n
	}
}

// ExtractWithOverwrite allows replacing existing files.
// By default, existing files are skipped and counted in Report.Skipped.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return func(c *extractConfig) {
		c.overwrite = overwrite
	}
}

// ExtractWithDirectWrites disables temp files and writes directly to the
// final paths. Interrupted extractions may leave partial files visible.
func ExtractWithDirectWrites(enabled bool) ExtractOption {
	return func(c *extractConfig) {
		c.directWrites = enabled
	}
}

// ExtractWithProgress registers a callback for progress updates.
func ExtractWithProgress(fn ProgressFunc) ExtractOption {
	return func(c *extractConfig) {
		c.progress = fn
	}
}
