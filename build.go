package xbarc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path"
	"path/filepath"

	"github.com/fennwald/xbarc/internal/batch"
	"github.com/fennwald/xbarc/internal/data"
	"github.com/fennwald/xbarc/internal/index"
	"github.com/fennwald/xbarc/xbc1"
)

// Input names one file to archive. Name becomes the entry's index name
// (a slash-separated relative path); Path locates the bytes on disk.
type Input struct {
	Name string
	Path string
}

// Build constructs an ARD/ARH pair from inputs.
//
// Input order is entry order: inputs[i] becomes entry i. Inputs are read
// and encoded in parallel but appended to the data file strictly in input
// order, so builds are reproducible.
//
// Build is all-or-nothing. Output is written to temp files next to the
// final paths and renamed on success, data file first, index last; any
// failure removes the temp files and publishes nothing.
func Build(ctx context.Context, inputs []Input, ardPath, arhPath string, opts ...BuildOption) error {
	cfg := buildConfig{
		alignment: DefaultAlignment,
		nameTable: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.alignment == 0 {
		return errors.New("alignment must be positive")
	}

	b := &builder{cfg: cfg, logger: cfg.logger}
	return b.build(ctx, inputs, ardPath, arhPath)
}

// builder holds state for archive construction.
type builder struct {
	cfg    buildConfig
	logger *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (b *builder) log() *slog.Logger {
	if b.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.logger
}

// entryMeta carries the encode outcome a producer knows but the appending
// consumer does not: the decompressed size and flags of entry i. Producers
// write only their own index.
type entryMeta struct {
	rawSize uint32
	flags   index.Flags
}

func (b *builder) build(ctx context.Context, inputs []Input, ardPath, arhPath string) error {
	b.log().Info("building archive", "inputs", len(inputs), "data", ardPath, "index", arhPath)

	for _, dir := range []string{filepath.Dir(ardPath), filepath.Dir(arhPath)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create destination directory: %w", err)
		}
	}

	ardTemp, err := os.CreateTemp(filepath.Dir(ardPath), ".xbarc-ard-*")
	if err != nil {
		return fmt.Errorf("create data temp file: %w", err)
	}
	ardTempPath := ardTemp.Name()
	published := false
	defer func() {
		if !published {
			_ = ardTemp.Close()        //nolint:errcheck // best-effort cleanup
			_ = os.Remove(ardTempPath) //nolint:errcheck // best-effort cleanup
		}
	}()

	bw := bufio.NewWriter(ardTemp)
	appender, err := data.NewAppender(bw, b.cfg.alignment)
	if err != nil {
		return err
	}

	entries := make([]index.Entry, len(inputs))
	metas := make([]entryMeta, len(inputs))

	var filesDone int
	var bytesDone uint64
	err = batch.Pipeline(ctx, len(inputs),
		batch.PipelineOptions{Workers: b.cfg.workers, BudgetBytes: b.cfg.bufferBudget},
		func(ctx context.Context, i int) ([]byte, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			payload, meta, err := b.encodeInput(inputs[i])
			if err != nil {
				return nil, fmt.Errorf("input %s: %w", inputs[i].Name, err)
			}
			metas[i] = meta
			return payload, nil
		},
		func(i int, payload []byte) error {
			offset, err := appender.Append(payload)
			if err != nil {
				return fmt.Errorf("append %s: %w", inputs[i].Name, err)
			}
			entries[i] = index.Entry{
				Offset:     offset,
				StoredSize: uint32(len(payload)),
				RawSize:    metas[i].rawSize,
				Flags:      metas[i].flags,
				Name:       inputs[i].Name,
			}
			filesDone++
			bytesDone += uint64(len(payload))
			b.cfg.progress.report(StageEncoding, inputs[i].Name, bytesDone, filesDone, len(inputs))
			return nil
		})
	if err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush data file: %w", err)
	}
	if err := ardTemp.Close(); err != nil {
		return fmt.Errorf("close data temp file: %w", err)
	}

	b.log().Debug("archive data written", "entries", len(entries), "data_size", appender.Cursor())
	b.cfg.progress.report(StageWritingIndex, "", bytesDone, filesDone, len(inputs))

	arhData, err := index.Serialize(entries, b.cfg.nameTable)
	if err != nil {
		return err
	}
	arhTemp, err := os.CreateTemp(filepath.Dir(arhPath), ".xbarc-arh-*")
	if err != nil {
		return fmt.Errorf("create index temp file: %w", err)
	}
	arhTempPath := arhTemp.Name()
	defer func() {
		if !published {
			_ = arhTemp.Close()        //nolint:errcheck // best-effort cleanup
			_ = os.Remove(arhTempPath) //nolint:errcheck // best-effort cleanup
		}
	}()
	if _, err := arhTemp.Write(arhData); err != nil {
		return fmt.Errorf("write index temp file: %w", err)
	}
	if err := arhTemp.Close(); err != nil {
		return fmt.Errorf("close index temp file: %w", err)
	}

	// Publish data first, index last: readers key off the index, so a
	// plausible pair only appears once both renames land.
	if err := os.Rename(ardTempPath, ardPath); err != nil {
		return fmt.Errorf("publish data file: %w", err)
	}
	if err := os.Rename(arhTempPath, arhPath); err != nil {
		_ = os.Remove(ardPath) //nolint:errcheck // avoid a mismatched pair
		return fmt.Errorf("publish index file: %w", err)
	}
	published = true

	b.log().Info("archive built", "entries", len(entries), "data_size", bytesDone)
	return nil
}

// encodeInput reads one input and produces its stored payload and record
// metadata.
func (b *builder) encodeInput(in Input) ([]byte, entryMeta, error) {
	raw, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, entryMeta{}, err
	}

	var tag index.TypeTag
	if b.cfg.classifier != nil {
		tag = b.cfg.classifier(in.Name, raw)
	}

	// Inputs that already are containers pass through untouched, never
	// double-wrapped.
	if xbc1.IsContainer(raw) {
		hdr, err := xbc1.ParseHeader(raw)
		if err != nil {
			return nil, entryMeta{}, err
		}
		if uint64(len(raw)) > math.MaxUint32 {
			return nil, entryMeta{}, ErrSizeOverflow
		}
		return raw, entryMeta{rawSize: hdr.RawSize, flags: index.MakeFlags(true, tag)}, nil
	}

	kind := xbc1.KindNone
	if b.cfg.compression != nil {
		kind = b.cfg.compression(in.Name, uint64(len(raw)))
	}
	if kind == xbc1.KindNone {
		return rawEntry(raw, tag)
	}

	enc, err := xbc1.Encode(raw, kind, xbc1.EncodeWithName(path.Base(in.Name)))
	if err != nil {
		return nil, entryMeta{}, err
	}
	if b.cfg.storeRawWhenLarger && len(enc) >= len(raw) {
		return rawEntry(raw, tag)
	}
	return enc, entryMeta{rawSize: uint32(len(raw)), flags: index.MakeFlags(true, tag)}, nil
}

// rawEntry stores bytes without a container; stored and raw sizes match.
func rawEntry(raw []byte, tag index.TypeTag) ([]byte, entryMeta, error) {
	if uint64(len(raw)) > math.MaxUint32 {
		return nil, entryMeta{}, ErrSizeOverflow
	}
	return raw, entryMeta{rawSize: uint32(len(raw)), flags: index.MakeFlags(false, tag)}, nil
}
