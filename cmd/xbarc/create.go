package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fennwald/xbarc"
)

const createUsage = "<inputdir> <out.ard> <out.arh>"

// runCreate builds an archive pair from a directory tree. Entries are
// ordered by their slash-separated relative paths.
func runCreate(args []string) error {
	flags := newFlagSet("create")
	compress := flags.Bool("compress", false, "compress entries (zlib up to 1 MiB, zstd above)")
	kindName := flags.String("kind", "", "force one compression kind for every entry: zlib or zstd")
	storeRaw := flags.Bool("store-raw-when-larger", false, "store entries raw when compression does not shrink them")
	align := flags.Uint32("align", xbarc.DefaultAlignment, "data offset alignment in bytes")
	workers := flags.IntP("workers", "j", 0, "worker count: <0 serial, 0 auto, >0 fixed")
	noNames := flags.Bool("no-names", false, "omit the entry name table from the index")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging and per-file progress")

	rest, err := parseArgs(flags, args, 3, 3, createUsage)
	if err != nil || rest == nil {
		return err
	}
	inputDir, ardPath, arhPath := rest[0], rest[1], rest[2]
	logger := newLogger(*verbose)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputs, err := xbarc.EnumerateDir(inputDir)
	if err != nil {
		return err
	}

	opts := []xbarc.BuildOption{
		xbarc.BuildWithClassifier(classifyBDAT),
		xbarc.BuildWithAlignment(*align),
		xbarc.BuildWithWorkers(*workers),
		xbarc.BuildWithNameTable(!*noNames),
		xbarc.BuildWithStoreRawWhenLarger(*storeRaw),
		xbarc.BuildWithLogger(logger),
	}
	switch {
	case *kindName != "":
		kind, err := parseKind(*kindName)
		if err != nil {
			return err
		}
		opts = append(opts, xbarc.BuildWithCompression(xbarc.CompressAll(kind)))
	case *compress:
		opts = append(opts, xbarc.BuildWithCompression(xbarc.DefaultCompression))
	}
	if *verbose {
		opts = append(opts, xbarc.BuildWithProgress(printProgress))
	}

	if err := xbarc.Build(ctx, inputs, ardPath, arhPath, opts...); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Created %s and %s (%d entries)\n", ardPath, arhPath, len(inputs))
	return nil
}

// printProgress renders one stderr line per progress event.
func printProgress(ev xbarc.ProgressEvent) {
	fmt.Fprintf(os.Stderr, "  [%d/%d] %s %s\n", ev.FilesDone, ev.FilesTotal, ev.Stage, ev.Path)
}
