// Package xbarc reads and writes split game archives: an ARD data file
// holding concatenated entry payloads and an ARH index file describing
// where each entry lives. Entries may be stored raw or wrapped in XBC1
// compressed containers; the [xbc1] subpackage implements that codec and
// can be used on its own for standalone container files.
//
// # Quick Start
//
// Build an archive from a directory:
//
//	inputs, err := xbarc.EnumerateDir("./assets")
//	if err != nil {
//	    return err
//	}
//	err = xbarc.Build(ctx, inputs, "game.ard", "game.arh",
//	    xbarc.BuildWithCompression(xbarc.DefaultCompression),
//	)
//
// Open and extract:
//
//	a, err := xbarc.Open("game.arh", "game.ard")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	report, err := a.Extract(ctx, "./out")
//
// Extraction tolerates individual entry failures: the returned Report
// carries per-entry outcomes and the error joins them. Construction is
// all-or-nothing; a failed Build publishes no output files.
//
// # Filtering
//
// Extraction and verification accept metadata predicates that select
// entries without touching their data ranges:
//
//	report, err := a.Extract(ctx, "./tables",
//	    xbarc.ExtractWithFilter(func(e xbarc.Entry) bool {
//	        return e.Tag() == xbarc.TagBDAT
//	    }),
//	)
package xbarc
