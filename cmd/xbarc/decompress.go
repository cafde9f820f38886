package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fennwald/xbarc/xbc1"
)

const decompressUsage = "<input> [output]"

// runDecompress unpacks a single XBC1 container. The default output path
// strips a ".xbc1" suffix when present, otherwise appends ".dec".
func runDecompress(args []string) error {
	flags := newFlagSet("decompress")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")

	rest, err := parseArgs(flags, args, 1, 2, decompressUsage)
	if err != nil || rest == nil {
		return err
	}

	input := rest[0]
	output := input + ".dec"
	if stripped, ok := strings.CutSuffix(input, ".xbc1"); ok {
		output = stripped
	}
	if len(rest) == 2 {
		output = rest[1]
	}
	logger := newLogger(*verbose)

	encoded, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	hdr, err := xbc1.ParseHeader(encoded)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", input, err)
	}
	logger.Debug("container header",
		"name", hdr.Name, "kind", hdr.Kind.String(),
		"raw_size", hdr.RawSize, "comp_size", hdr.CompSize)

	raw, err := xbc1.Decode(encoded)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", input, err)
	}
	if err := os.WriteFile(output, raw, 0o644); err != nil { //nolint:gosec // extracted output is world-readable
		return err
	}

	fmt.Fprintf(os.Stderr, "%s -> %s (%d -> %d bytes, %s)\n",
		input, output, len(encoded), len(raw), hdr.Kind)
	return nil
}
