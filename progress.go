package xbarc

// ProgressEvent represents a progress update during build, extraction, or
// verification.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the entry currently being processed, if applicable.
	Path string

	// BytesDone is the number of payload bytes completed so far.
	BytesDone uint64

	// FilesDone is the number of entries completed.
	FilesDone int

	// FilesTotal is the total number of entries.
	// Zero indicates the total is unknown (e.g., during enumeration).
	FilesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

const (
	// StageEnumerating indicates the operation is walking the input tree.
	StageEnumerating ProgressStage = iota

	// StageEncoding indicates entries are being compressed and appended.
	StageEncoding

	// StageWritingIndex indicates the ARH index is being written.
	StageWritingIndex

	// StageExtracting indicates entries are being decoded and written out.
	StageExtracting

	// StageVerifying indicates entries are being decoded and checked.
	StageVerifying
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageEnumerating:
		return "enumerating"
	case StageEncoding:
		return "encoding"
	case StageWritingIndex:
		return "writing index"
	case StageExtracting:
		return "extracting"
	case StageVerifying:
		return "verifying"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)

// report sends an event when a callback is configured.
func (f ProgressFunc) report(stage ProgressStage, path string, bytesDone uint64, filesDone, filesTotal int) {
	if f == nil {
		return
	}
	f(ProgressEvent{
		Stage:      stage,
		Path:       path,
		BytesDone:  bytesDone,
		FilesDone:  filesDone,
		FilesTotal: filesTotal,
	})
}
