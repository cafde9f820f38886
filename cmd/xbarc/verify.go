package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fennwald/xbarc"
)

const verifyUsage = "<archive.ard> <archive.arh>"

// runVerify decodes every selected entry and checks digests without
// writing anything to disk.
func runVerify(args []string) error {
	flags := newFlagSet("verify")
	bdatOnly := flags.Bool("only-bdat", false, "verify only entries tagged as BDAT tables")
	workers := flags.IntP("workers", "j", 0, "worker count: <0 serial, 0 auto, >0 fixed")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")

	rest, err := parseArgs(flags, args, 2, 2, verifyUsage)
	if err != nil || rest == nil {
		return err
	}
	ardPath, arhPath := rest[0], rest[1]
	logger := newLogger(*verbose)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := xbarc.Open(arhPath, ardPath, xbarc.WithLogger(logger))
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []xbarc.ExtractOption{
		xbarc.ExtractWithWorkers(*workers),
	}
	if *bdatOnly {
		opts = append(opts, xbarc.ExtractWithFilter(onlyBDAT))
	}

	report, err := a.Verify(ctx, opts...)
	if report == nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Verified %d entries (%d bytes)\n", report.Done, report.Bytes)
	return failuresError(report)
}
