package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fennwald/xbarc/xbc1"
)

const compressUsage = "<input> [output]"

// runCompress wraps a single file in an XBC1 container. The default
// output path appends ".xbc1" to the input path.
func runCompress(args []string) error {
	flags := newFlagSet("compress")
	kindName := flags.String("kind", "zstd", "compression kind: zlib or zstd")
	label := flags.String("name", "", "container name label (default: input basename)")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")

	rest, err := parseArgs(flags, args, 1, 2, compressUsage)
	if err != nil || rest == nil {
		return err
	}

	input := rest[0]
	output := input + ".xbc1"
	if len(rest) == 2 {
		output = rest[1]
	}
	kind, err := parseKind(*kindName)
	if err != nil {
		return err
	}
	logger := newLogger(*verbose)

	raw, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	name := *label
	if name == "" {
		name = filepath.Base(input)
	}

	encoded, err := xbc1.Encode(raw, kind, xbc1.EncodeWithName(name))
	if err != nil {
		return fmt.Errorf("compress %s: %w", input, err)
	}
	if err := os.WriteFile(output, encoded, 0o644); err != nil { //nolint:gosec // archive output is world-readable
		return err
	}

	logger.Debug("container written", "name", name, "kind", kind.String())
	fmt.Fprintf(os.Stderr, "%s -> %s (%d -> %d bytes, %s)\n",
		input, output, len(raw), len(encoded), kind)
	return nil
}
