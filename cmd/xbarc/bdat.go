package main

import (
	"bytes"
	"fmt"

	"github.com/fennwald/xbarc"
)

// bdatMagic starts every BDAT data table.
var bdatMagic = []byte("BDAT")

// classifyBDAT tags inputs whose decoded bytes are BDAT tables, so
// extraction can filter on the tag without decoding anything.
func classifyBDAT(_ string, data []byte) xbarc.TypeTag {
	if bytes.HasPrefix(data, bdatMagic) {
		return xbarc.TagBDAT
	}
	return xbarc.TagNone
}

// bdatName derives an output name for entries the index carries no name
// for, using the conventional extensions: ".bdat" for tagged tables,
// ".dec" for everything else.
func bdatName(i int, e xbarc.Entry) string {
	ext := ".dec"
	if e.Tag() == xbarc.TagBDAT {
		ext = ".bdat"
	}
	return fmt.Sprintf("%08x%s", i, ext)
}

// onlyBDAT keeps entries tagged as BDAT tables.
func onlyBDAT(e xbarc.Entry) bool {
	return e.Tag() == xbarc.TagBDAT
}
