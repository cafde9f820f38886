package xbarc

import "github.com/fennwald/xbarc/internal/index"

// --- Re-exports from internal/index ---

// Entry describes one archived file: its location in the ARD, stored and
// decompressed sizes, flags, and optional name.
type Entry = index.Entry

// Flags packs an entry's container bit and type tag.
type Flags = index.Flags

// TypeTag classifies an entry's content for metadata-only filtering.
type TypeTag = index.TypeTag

// FlagContainer marks an entry whose stored bytes are an XBC1 container.
const FlagContainer = index.FlagContainer

// TagNone is the untyped default tag.
const TagNone = index.TagNone

// TagBDAT marks entries recognized as BDAT data tables.
const TagBDAT = index.TagBDAT

// MakeFlags builds a Flags value from its parts.
var MakeFlags = index.MakeFlags
