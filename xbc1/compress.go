package xbc1

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/fennwald/xbarc/internal/sizing"
)

// maxRawSize bounds decompressed output to what the 32-bit rawSize field can
// declare. The package-level decoder enforces it so a hostile frame cannot
// allocate past the format's own limit.
const maxRawSize = uint64(1) << 32

// zstdEncoder and zstdDecoder are reused across calls. Both are safe for
// concurrent use through EncodeAll/DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
	)
	if err != nil {
		panic("xbc1: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxRawSize),
	)
	if err != nil {
		panic("xbc1: zstd decoder initialization failed: " + err.Error())
	}
}

func zstdCompress(payload []byte) []byte {
	return zstdEncoder.EncodeAll(payload, nil)
}

func zstdDecompress(payload []byte, rawSize uint32) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, rawSize))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCompression, err)
	}
	return out, nil
}

func zlibCompress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(payload)/2 + 64)
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("%w: zlib: %v", ErrCompression, err)
	}
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("%w: zlib: %v", ErrCompression, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: zlib: %v", ErrCompression, err)
	}
	return buf.Bytes(), nil
}

func zlibDecompress(payload []byte, rawSize uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib: %v", ErrCompression, err)
	}
	defer zr.Close()

	size, err := sizing.ToInt(uint64(rawSize))
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("%w: zlib: %v", ErrCompression, err)
	}
	if err := ensureNoExtra(zr); err != nil {
		return nil, err
	}
	return out, nil
}

// ensureNoExtra reports ErrIntegrity if r still has data, catching streams
// that decompress past the declared size.
func ensureNoExtra(r io.Reader) error {
	var scratch [1]byte
	n, err := r.Read(scratch[:])
	if n > 0 {
		return fmt.Errorf("%w: stream continues past declared size", ErrIntegrity)
	}
	if err == io.EOF || err == nil {
		return nil
	}
	return fmt.Errorf("%w: zlib: %v", ErrCompression, err)
}
