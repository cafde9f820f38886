package xbarc

import (
	"context"
	"sync/atomic"

	"github.com/fennwald/xbarc/internal/batch"
	"github.com/fennwald/xbarc/internal/index"
)

// Verify decodes every selected entry and checks its bounds, stream, and
// digest without writing anything.
//
// Verify accepts the same options as Extract; sink-related options
// (overwrite, direct writes, namer) have no effect. The Report and error
// follow Extract's semantics: per-entry failures are collected, not fatal.
func (a *Archive) Verify(ctx context.Context, opts ...ExtractOption) (*Report, error) {
	cfg := extractConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	selected := index.Filter(a.entries, cfg.filter)
	a.log().Info("verifying archive", "selected", len(selected), "total", len(a.entries))

	var done atomic.Int64
	var bytesDone atomic.Uint64
	results := batch.Run(ctx, len(selected), batch.Options{Workers: cfg.workers}, func(ctx context.Context, i int) (uint64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		sel := selected[i]
		raw, err := a.readEntryData(sel.Entry)
		if err != nil {
			return 0, err
		}
		cfg.progress.report(StageVerifying, sel.Entry.Name, bytesDone.Add(uint64(len(raw))), int(done.Add(1)), len(selected))
		return uint64(len(raw)), nil
	})

	report := &Report{}
	for i, res := range results {
		sel := selected[i]
		if res.Err != nil {
			a.log().Warn("entry failed", "index", sel.Index, "error", res.Err)
			report.Failed++
			report.Failures = append(report.Failures, &EntryError{Index: sel.Index, Name: sel.Entry.Name, Err: res.Err})
			continue
		}
		report.Done++
		report.Bytes += res.Bytes
	}

	a.log().Info("verification finished", "done", report.Done, "failed", report.Failed)
	return report, report.Err()
}
