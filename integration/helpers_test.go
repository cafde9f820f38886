//go:build integration

package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fennwald/xbarc"
	"github.com/stretchr/testify/require"
)

// --- Corpus Helpers ---

// createTestFiles writes test files to a directory.
func createTestFiles(tb testing.TB, dir string, files map[string][]byte) {
	tb.Helper()
	for path, content := range files {
		fullPath := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(tb, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(tb, os.WriteFile(fullPath, content, 0o644))
	}
}

// makeCompressibleContent creates content that benefits from compression.
func makeCompressibleContent(size int) []byte {
	pattern := []byte("This is a repeating pattern for compression testing. ")
	result := make([]byte, 0, size)
	for len(result) < size {
		result = append(result, pattern...)
	}
	return result[:size]
}

// makeRandomContent creates random binary content.
func makeRandomContent(size int) []byte {
	data := make([]byte, size)
	_, _ = rand.Read(data)
	return data
}

// makeBDATContent creates content carrying the BDAT magic so the
// classifier tags it.
func makeBDATContent(size int) []byte {
	data := make([]byte, 0, size+4)
	data = append(data, "BDAT"...)
	data = binary.LittleEndian.AppendUint32(data, uint32(size))
	for row := uint32(0); len(data) < size; row++ {
		data = binary.LittleEndian.AppendUint32(data, row)
	}
	return data[:max(size, 8)]
}

// --- Standard Corpora ---

// smallCorpus is a simple flat corpus of small files.
var smallCorpus = map[string][]byte{
	"hello.txt":   []byte("Hello, World!"),
	"readme.md":   []byte("# Test Archive\n\nThis is a test."),
	"config.json": []byte(`{"version": 1, "name": "test"}`),
}

// mixedCorpus builds a corpus spanning the interesting shapes: nested
// directories, an empty file, tagged data tables, highly compressible text,
// incompressible binaries, and one file past the 1 MiB threshold where the
// default compression selector switches codecs.
func mixedCorpus() map[string][]byte {
	files := map[string][]byte{
		"root.txt":              []byte("root file"),
		"empty.dat":             {},
		"tiny.bin":              {0x42},
		"bdat/monsters.bdat":    makeBDATContent(4 * 1024),
		"bdat/items.bdat":       makeBDATContent(512),
		"map/ma01a/terrain.bin": makeRandomContent(64 * 1024),
		"map/ma01a/props.bin":   makeRandomContent(8 * 1024),
		"script/main.txt":       makeCompressibleContent(256 * 1024),
		"movie/intro.dat":       makeCompressibleContent(1536 * 1024),
	}
	for i := range 20 {
		files[fmt.Sprintf("chunk/%04d.dat", i)] = makeRandomContent(2048)
	}
	return files
}

// --- Build Helpers ---

// classifyBDAT tags inputs whose bytes start with the BDAT magic.
func classifyBDAT(_ string, data []byte) xbarc.TypeTag {
	if bytes.HasPrefix(data, []byte("BDAT")) {
		return xbarc.TagBDAT
	}
	return xbarc.TagNone
}

// buildArchive enumerates srcDir and builds an ARD/ARH pair in a fresh
// temp directory, returning both paths.
func buildArchive(tb testing.TB, srcDir string, opts ...xbarc.BuildOption) (ardPath, arhPath string) {
	tb.Helper()

	inputs, err := xbarc.EnumerateDir(srcDir)
	require.NoError(tb, err, "EnumerateDir")

	outDir := tb.TempDir()
	ardPath = filepath.Join(outDir, "archive.ard")
	arhPath = filepath.Join(outDir, "archive.arh")
	require.NoError(tb, xbarc.Build(context.Background(), inputs, ardPath, arhPath, opts...), "Build")
	return ardPath, arhPath
}

// openArchive opens an ARD/ARH pair and closes it when the test finishes.
func openArchive(tb testing.TB, arhPath, ardPath string) *xbarc.Archive {
	tb.Helper()

	a, err := xbarc.Open(arhPath, ardPath)
	require.NoError(tb, err, "Open")
	tb.Cleanup(func() { a.Close() })
	return a
}

// flipByte inverts one byte of a file in place.
func flipByte(tb testing.TB, path string, offset int64) {
	tb.Helper()

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(tb, err, "open %s for corruption", path)
	defer f.Close()

	buf := make([]byte, 1)
	_, err = f.ReadAt(buf, offset)
	require.NoError(tb, err, "read byte at %d", offset)
	buf[0] ^= 0xFF
	_, err = f.WriteAt(buf, offset)
	require.NoError(tb, err, "write byte at %d", offset)
}

// --- Assertion Helpers ---

// assertDirContents verifies that a directory contains the expected files
// with correct content.
func assertDirContents(tb testing.TB, dir string, expected map[string][]byte) {
	tb.Helper()

	for path, expectedContent := range expected {
		fullPath := filepath.Join(dir, filepath.FromSlash(path))
		gotContent, err := os.ReadFile(fullPath)
		require.NoError(tb, err, "ReadFile(%q)", fullPath)
		require.Equal(tb, expectedContent, gotContent, "content mismatch for %q", path)
	}
}
