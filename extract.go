package xbarc

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sync/atomic"

	"github.com/fennwald/xbarc/internal/batch"
	"github.com/fennwald/xbarc/internal/index"
	"github.com/fennwald/xbarc/internal/sink"
)

// defaultName derives the on-disk name for an entry without one.
func defaultName(i int, _ Entry) string {
	return fmt.Sprintf("%08x.bin", i)
}

// outputName resolves the on-disk relative path of an entry. Index names
// win when valid; otherwise the configured namer is consulted, then the
// index-derived default.
func (a *Archive) outputName(cfg *extractConfig, i int, e Entry) string {
	if e.Name != "" {
		if fs.ValidPath(e.Name) {
			return e.Name
		}
		a.log().Warn("ignoring invalid entry name", "index", i, "name", e.Name)
	}
	if cfg.namer != nil {
		if name := cfg.namer(i, e); name != "" && fs.ValidPath(name) {
			return name
		}
	}
	return defaultName(i, e)
}

// Extract decodes the selected entries and writes them under destDir.
//
// Entries are processed in parallel. One entry's failure does not abort
// the others: every failure is recorded in the Report and joined into the
// returned error. The error is nil only when every selected entry was
// written or skipped.
//
// Existing files are skipped unless ExtractWithOverwrite is set. Writes go
// through temp files renamed into place on success, so interrupted
// extractions never leave partial files at final paths (unless
// ExtractWithDirectWrites is set).
func (a *Archive) Extract(ctx context.Context, destDir string, opts ...ExtractOption) (*Report, error) {
	cfg := extractConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	selected := index.Filter(a.entries, cfg.filter)
	a.log().Info("extracting archive", "dest", destDir, "selected", len(selected), "total", len(a.entries))

	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return nil, fmt.Errorf("create destination directory: %w", err)
	}
	snk := sink.New(destDir,
		sink.WithOverwrite(cfg.overwrite),
		sink.WithDirectWrites(cfg.directWrites),
	)

	// Resolve names and drop already-present files before dispatch.
	type job struct {
		sel  index.Selected
		name string
	}
	report := &Report{}
	jobs := make([]job, 0, len(selected))
	for _, sel := range selected {
		name := a.outputName(&cfg, sel.Index, sel.Entry)
		if !snk.ShouldProcess(name) {
			a.log().Debug("skipping existing file", "path", name)
			report.Skipped++
			continue
		}
		jobs = append(jobs, job{sel: sel, name: name})
	}

	var done atomic.Int64
	var bytesDone atomic.Uint64
	results := batch.Run(ctx, len(jobs), batch.Options{Workers: cfg.workers}, func(ctx context.Context, i int) (uint64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		j := jobs[i]
		raw, err := a.readEntryData(j.sel.Entry)
		if err != nil {
			return 0, err
		}
		w, err := snk.Writer(j.name)
		if err != nil {
			return 0, err
		}
		if _, err := w.Write(raw); err != nil {
			_ = w.Discard() //nolint:errcheck // best-effort cleanup
			return 0, err
		}
		if err := w.Commit(); err != nil {
			return 0, err
		}
		cfg.progress.report(StageExtracting, j.name, bytesDone.Add(uint64(len(raw))), int(done.Add(1)), len(jobs))
		return uint64(len(raw)), nil
	})

	for i, res := range results {
		j := jobs[i]
		if res.Err != nil {
			a.log().Warn("entry failed", "index", j.sel.Index, "path", j.name, "error", res.Err)
			report.Failed++
			report.Failures = append(report.Failures, &EntryError{Index: j.sel.Index, Name: j.name, Err: res.Err})
			continue
		}
		report.Done++
		report.Bytes += res.Bytes
	}

	a.log().Info("extraction finished", "done", report.Done, "failed", report.Failed, "skipped", report.Skipped, "bytes", report.Bytes)
	return report, report.Err()
}
