// xbarc packs and unpacks ARD/ARH split archives and the XBC1 compressed
// containers stored inside them.
//
// The ARD file holds the entry payloads at aligned offsets; the paired ARH
// file is the index that locates them. Single files can also be compressed
// to or decompressed from standalone XBC1 containers.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/fennwald/xbarc/xbc1"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.As(err, new(usageError)) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		printUsage()
		return usagef("subcommand required")
	}

	subcommand := args[0]
	switch subcommand {
	case "compress":
		return runCompress(args[1:])
	case "decompress":
		return runDecompress(args[1:])
	case "create":
		return runCreate(args[1:])
	case "extract":
		return runExtract(args[1:])
	case "list":
		return runList(args[1:])
	case "verify":
		return runVerify(args[1:])
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return usagef("unknown subcommand: %q", subcommand)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: xbarc <subcommand> [flags] <args>

Subcommands:
  compress    Compress a single file into an XBC1 container
  decompress  Decompress a single XBC1 container
  create      Build an ARD/ARH archive pair from a directory
  extract     Extract entries from an ARD/ARH archive pair
  list        Print the entries of an ARH index
  verify      Decode every entry without writing files

Run 'xbarc <subcommand> --help' for subcommand flags.
`)
}

// usageError marks command-line mistakes so main can exit with status 2
// instead of the generic failure status.
type usageError struct {
	msg string
}

func (e usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// newFlagSet returns a flag set that reports parse failures instead of
// exiting, so they can be mapped to the usage exit status.
func newFlagSet(name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	return flags
}

// parseArgs runs the flag set over args and returns the positional
// arguments, which must number between minArgs and maxArgs. A nil slice
// with a nil error means --help was requested and printed.
func parseArgs(flags *pflag.FlagSet, args []string, minArgs, maxArgs int, usage string) ([]string, error) {
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printCommandHelp(flags, usage)
			return nil, nil
		}
		return nil, usagef("%s: %v", flags.Name(), err)
	}
	rest := flags.Args()
	if len(rest) < minArgs || len(rest) > maxArgs {
		printCommandHelp(flags, usage)
		return nil, usagef("%s: expected %s", flags.Name(), usage)
	}
	return rest, nil
}

func printCommandHelp(flags *pflag.FlagSet, usage string) {
	fmt.Fprintf(os.Stderr, "Usage: xbarc %s %s\n", flags.Name(), usage)
	if flags.HasFlags() {
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flags.PrintDefaults()
	}
}

// newLogger builds the stderr logger shared by all subcommands. Verbose
// mode lowers the threshold to debug so the engine's internal transitions
// become visible.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func parseKind(name string) (xbc1.Kind, error) {
	switch name {
	case "zlib":
		return xbc1.KindZlib, nil
	case "zstd":
		return xbc1.KindZstd, nil
	default:
		return 0, usagef("unknown compression kind %q (want zlib or zstd)", name)
	}
}
