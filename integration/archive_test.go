//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fennwald/xbarc"
	"github.com/fennwald/xbarc/xbc1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Round Trips ---

func TestRoundTrip_MixedCorpus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	corpus := mixedCorpus()

	dir := t.TempDir()
	createTestFiles(t, dir, corpus)

	ardPath, arhPath := buildArchive(t, dir,
		xbarc.BuildWithCompression(xbarc.DefaultCompression),
		xbarc.BuildWithClassifier(classifyBDAT),
	)
	archive := openArchive(t, arhPath, ardPath)
	require.Equal(t, len(corpus), archive.Len(), "entry count")

	tagged := 0
	for _, e := range archive.Entries() {
		if e.Tag() == xbarc.TagBDAT {
			tagged++
		}
	}
	assert.Equal(t, 2, tagged, "tagged data tables")

	destDir := t.TempDir()
	report, err := archive.Extract(ctx, destDir)
	require.NoError(t, err, "Extract")
	assert.Equal(t, len(corpus), report.Done)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Skipped)

	var rawTotal uint64
	for _, content := range corpus {
		rawTotal += uint64(len(content))
	}
	assert.Equal(t, rawTotal, report.Bytes, "decoded bytes")

	assertDirContents(t, destDir, corpus)
}

func TestRoundTrip_CompressionKinds(t *testing.T) {
	t.Parallel()

	corpus := map[string][]byte{
		"text/large.txt": makeCompressibleContent(100 * 1024),
		"bin/noise.bin":  makeRandomContent(32 * 1024),
		"empty.dat":      {},
	}
	for path, content := range smallCorpus {
		corpus[path] = content
	}

	cases := []struct {
		name string
		opts []xbarc.BuildOption
	}{
		{name: "raw"},
		{name: "zlib", opts: []xbarc.BuildOption{xbarc.BuildWithCompression(xbarc.CompressAll(xbc1.KindZlib))}},
		{name: "zstd", opts: []xbarc.BuildOption{xbarc.BuildWithCompression(xbarc.CompressAll(xbc1.KindZstd))}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			createTestFiles(t, dir, corpus)

			ardPath, arhPath := buildArchive(t, dir, tc.opts...)
			archive := openArchive(t, arhPath, ardPath)

			destDir := t.TempDir()
			report, err := archive.Extract(context.Background(), destDir)
			require.NoError(t, err, "Extract")
			assert.Equal(t, len(corpus), report.Done)

			assertDirContents(t, destDir, corpus)
		})
	}
}

// --- Build Properties ---

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	createTestFiles(t, dir, mixedCorpus())

	ard1, arh1 := buildArchive(t, dir,
		xbarc.BuildWithCompression(xbarc.DefaultCompression),
		xbarc.BuildWithClassifier(classifyBDAT),
	)
	ard2, arh2 := buildArchive(t, dir,
		xbarc.BuildWithCompression(xbarc.DefaultCompression),
		xbarc.BuildWithClassifier(classifyBDAT),
	)

	data1, err := os.ReadFile(ard1)
	require.NoError(t, err)
	data2, err := os.ReadFile(ard2)
	require.NoError(t, err)
	assert.Equal(t, data1, data2, "data files differ between identical builds")

	idx1, err := os.ReadFile(arh1)
	require.NoError(t, err)
	idx2, err := os.ReadFile(arh2)
	require.NoError(t, err)
	assert.Equal(t, idx1, idx2, "index files differ between identical builds")
}

func TestBuild_Alignment(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	createTestFiles(t, dir, mixedCorpus())

	const align = 64
	_, arhPath := buildArchive(t, dir,
		xbarc.BuildWithCompression(xbarc.DefaultCompression),
		xbarc.BuildWithAlignment(align),
	)

	info, err := xbarc.Inspect(arhPath)
	require.NoError(t, err, "Inspect")
	for i, e := range info.Entries() {
		assert.Zero(t, e.Offset%align, "entry %d offset %d not aligned", i, e.Offset)
	}
}

// --- Extraction ---

func TestExtract_OnlyTagged(t *testing.T) {
	t.Parallel()

	corpus := mixedCorpus()
	dir := t.TempDir()
	createTestFiles(t, dir, corpus)

	ardPath, arhPath := buildArchive(t, dir,
		xbarc.BuildWithCompression(xbarc.DefaultCompression),
		xbarc.BuildWithClassifier(classifyBDAT),
	)
	archive := openArchive(t, arhPath, ardPath)

	destDir := t.TempDir()
	report, err := archive.Extract(context.Background(), destDir,
		xbarc.ExtractWithFilter(func(e xbarc.Entry) bool { return e.Tag() == xbarc.TagBDAT }),
	)
	require.NoError(t, err, "Extract")
	assert.Equal(t, 2, report.Done)

	assertDirContents(t, destDir, map[string][]byte{
		"bdat/monsters.bdat": corpus["bdat/monsters.bdat"],
		"bdat/items.bdat":    corpus["bdat/items.bdat"],
	})

	_, err = os.Stat(filepath.Join(destDir, "root.txt"))
	assert.True(t, os.IsNotExist(err), "untagged entry should not be extracted")
}

func TestExtract_SkipsExisting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	createTestFiles(t, dir, smallCorpus)

	ardPath, arhPath := buildArchive(t, dir,
		xbarc.BuildWithCompression(xbarc.DefaultCompression),
	)
	archive := openArchive(t, arhPath, ardPath)

	destDir := t.TempDir()
	existing := filepath.Join(destDir, "hello.txt")
	require.NoError(t, os.WriteFile(existing, []byte("original"), 0o644))

	report, err := archive.Extract(ctx, destDir)
	require.NoError(t, err, "Extract without overwrite")
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, len(smallCorpus)-1, report.Done)

	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), content, "existing file must survive")

	report, err = archive.Extract(ctx, destDir, xbarc.ExtractWithOverwrite(true))
	require.NoError(t, err, "Extract with overwrite")
	assert.Zero(t, report.Skipped)

	assertDirContents(t, destDir, smallCorpus)
}

func TestExtract_ManyWorkers(t *testing.T) {
	t.Parallel()

	corpus := make(map[string][]byte, 200)
	for i := range 200 {
		corpus[fmt.Sprintf("data/%02d/file%03d.dat", i%10, i)] = makeRandomContent(1024 + i)
	}

	dir := t.TempDir()
	createTestFiles(t, dir, corpus)

	ardPath, arhPath := buildArchive(t, dir,
		xbarc.BuildWithCompression(xbarc.CompressAll(xbc1.KindZstd)),
	)
	archive := openArchive(t, arhPath, ardPath)

	destDir := t.TempDir()
	report, err := archive.Extract(context.Background(), destDir, xbarc.ExtractWithWorkers(8))
	require.NoError(t, err, "Extract")
	assert.Equal(t, len(corpus), report.Done)

	assertDirContents(t, destDir, corpus)
}

// --- Verification ---

func TestVerify_CleanArchive(t *testing.T) {
	t.Parallel()

	corpus := mixedCorpus()
	dir := t.TempDir()
	createTestFiles(t, dir, corpus)

	ardPath, arhPath := buildArchive(t, dir,
		xbarc.BuildWithCompression(xbarc.DefaultCompression),
	)
	archive := openArchive(t, arhPath, ardPath)

	report, err := archive.Verify(context.Background())
	require.NoError(t, err, "Verify")
	assert.Equal(t, len(corpus), report.Done)
	assert.Zero(t, report.Failed)

	var rawTotal uint64
	for _, content := range corpus {
		rawTotal += uint64(len(content))
	}
	assert.Equal(t, rawTotal, report.Bytes)
}

func TestVerify_DetectsCorruption(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	createTestFiles(t, dir, map[string][]byte{
		"payload.bin": makeCompressibleContent(64 * 1024),
	})

	ardPath, arhPath := buildArchive(t, dir,
		xbarc.BuildWithCompression(xbarc.CompressAll(xbc1.KindZstd)),
	)

	info, err := xbarc.Inspect(arhPath)
	require.NoError(t, err, "Inspect")
	entry := info.Entries()[0]
	require.True(t, entry.Compressed(), "fixture entry must be stored in a container")

	flipByte(t, ardPath, int64(entry.Offset)+xbc1.HeaderSize)

	archive := openArchive(t, arhPath, ardPath)
	report, err := archive.Verify(context.Background())
	require.Error(t, err, "Verify must fail on corrupted payload")
	assert.Equal(t, 1, report.Failed)
	assert.True(t, errors.Is(err, xbarc.ErrCompression) || errors.Is(err, xbarc.ErrIntegrity),
		"corruption surfaces as a compression or integrity error, got %v", err)
}

// --- Index Inspection ---

func TestInspect_MatchesOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	createTestFiles(t, dir, mixedCorpus())

	ardPath, arhPath := buildArchive(t, dir,
		xbarc.BuildWithCompression(xbarc.DefaultCompression),
	)

	info, err := xbarc.Inspect(arhPath)
	require.NoError(t, err, "Inspect")

	archive := openArchive(t, arhPath, ardPath)
	assert.Equal(t, archive.Entries(), info.Entries(), "Inspect and Open must agree on records")

	var stored, raw uint64
	for _, e := range info.Entries() {
		stored += uint64(e.StoredSize)
		raw += uint64(e.RawSize)
	}
	assert.Equal(t, stored, info.TotalStoredSize())
	assert.Equal(t, raw, info.TotalRawSize())
	assert.Less(t, info.TotalStoredSize(), info.TotalRawSize(), "mixed corpus must compress overall")
}
