package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fennwald/xbarc"
)

const extractUsage = "<archive.ard> <archive.arh> [outdir]"

// runExtract writes the selected archive entries under outdir. Per-entry
// failures are reported but do not abort the remaining entries.
func runExtract(args []string) error {
	flags := newFlagSet("extract")
	bdatOnly := flags.Bool("only-bdat", false, "extract only entries tagged as BDAT tables")
	workers := flags.IntP("workers", "j", 0, "worker count: <0 serial, 0 auto, >0 fixed")
	overwrite := flags.Bool("overwrite", false, "replace existing output files")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging and per-file progress")

	rest, err := parseArgs(flags, args, 2, 3, extractUsage)
	if err != nil || rest == nil {
		return err
	}
	ardPath, arhPath := rest[0], rest[1]
	outDir := "output"
	if len(rest) == 3 {
		outDir = rest[2]
	}
	logger := newLogger(*verbose)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := xbarc.Open(arhPath, ardPath, xbarc.WithLogger(logger))
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []xbarc.ExtractOption{
		xbarc.ExtractWithNamer(bdatName),
		xbarc.ExtractWithWorkers(*workers),
		xbarc.ExtractWithOverwrite(*overwrite),
	}
	if *bdatOnly {
		opts = append(opts, xbarc.ExtractWithFilter(onlyBDAT))
	}
	if *verbose {
		opts = append(opts, xbarc.ExtractWithProgress(printProgress))
	}

	report, err := a.Extract(ctx, outDir, opts...)
	if report == nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Extracted %d entries (%d bytes) to %s, %d skipped\n",
		report.Done, report.Bytes, outDir, report.Skipped)
	return failuresError(report)
}

// failuresError prints one line per failed entry and returns a compact
// summary error, or nil when every entry succeeded.
func failuresError(report *xbarc.Report) error {
	if report.Failed == 0 {
		return nil
	}
	for _, f := range report.Failures {
		fmt.Fprintf(os.Stderr, "  failed: %v\n", f)
	}
	total := report.Done + report.Failed + report.Skipped
	return fmt.Errorf("%d of %d entries failed", report.Failed, total)
}
