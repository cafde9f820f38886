package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fennwald/xbarc"
)

const listUsage = "<archive.arh>"

// listEntry is the JSON projection of one index record.
type listEntry struct {
	Index      int    `json:"index"`
	Offset     uint64 `json:"offset"`
	StoredSize uint32 `json:"stored_size"`
	RawSize    uint32 `json:"raw_size"`
	Compressed bool   `json:"compressed"`
	Tag        string `json:"tag"`
	Name       string `json:"name,omitempty"`
}

// runList prints the records of an ARH index. The data file is not
// touched, so listing works on an index alone.
func runList(args []string) error {
	flags := newFlagSet("list")
	asJSON := flags.Bool("json", false, "emit JSON instead of a table")

	rest, err := parseArgs(flags, args, 1, 1, listUsage)
	if err != nil || rest == nil {
		return err
	}

	result, err := xbarc.Inspect(rest[0])
	if err != nil {
		return err
	}
	entries := result.Entries()

	if *asJSON {
		out := make([]listEntry, len(entries))
		for i, e := range entries {
			out[i] = listEntry{
				Index:      i,
				Offset:     e.Offset,
				StoredSize: e.StoredSize,
				RawSize:    e.RawSize,
				Compressed: e.Compressed(),
				Tag:        e.Tag().String(),
				Name:       e.Name,
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("%6s %12s %12s %12s  %-5s %-5s %s\n", "INDEX", "OFFSET", "STORED", "RAW", "FORM", "TAG", "NAME")
	for i, e := range entries {
		form := "raw"
		if e.Compressed() {
			form = "xbc1"
		}
		fmt.Printf("%6d %12d %12d %12d  %-5s %-5s %s\n", i, e.Offset, e.StoredSize, e.RawSize, form, e.Tag(), e.Name)
	}
	fmt.Fprintf(os.Stderr, "%d entries, %d stored / %d raw bytes (ratio %.2f)\n",
		result.Len(), result.TotalStoredSize(), result.TotalRawSize(), result.CompressionRatio())
	return nil
}
