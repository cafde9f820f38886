package xbarc

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennwald/xbarc/internal/index"
)

// tagBDATFiles tags .bdat inputs during builds that need a typed subset.
func tagBDATFiles(name string, _ []byte) TypeTag {
	if strings.HasSuffix(name, ".bdat") {
		return TagBDAT
	}
	return 0
}

// corruptDigest flips the stored digest of a container entry so decoding
// fails with ErrIntegrity.
func corruptDigest(t *testing.T, ardPath string, e Entry) {
	t.Helper()
	require.True(t, e.Compressed())

	f, err := os.OpenFile(ardPath, os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()

	var d [4]byte
	_, err = f.ReadAt(d[:], int64(e.Offset)+16)
	require.NoError(t, err)
	for i := range d {
		d[i] ^= 0xFF
	}
	_, err = f.WriteAt(d[:], int64(e.Offset)+16)
	require.NoError(t, err)
}

// trashRange overwrites an entry's whole stored range with filler.
func trashRange(t *testing.T, ardPath string, e Entry) {
	t.Helper()
	if e.StoredSize == 0 {
		return
	}
	f, err := os.OpenFile(ardPath, os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteAt(bytes.Repeat([]byte{0xFF}, int(e.StoredSize)), int64(e.Offset))
	require.NoError(t, err)
}

func TestExtractFilterSelectsSubset(t *testing.T) {
	t.Parallel()

	files := sampleFiles()
	ard, arh := buildArchive(t, files,
		BuildWithCompression(DefaultCompression),
		BuildWithClassifier(tagBDATFiles),
	)

	got := extractAll(t, arh, ard, ExtractWithFilter(func(e Entry) bool {
		return e.Tag() == TagBDAT
	}))

	want := map[string][]byte{
		"data/monsters.bdat": files["data/monsters.bdat"],
		"data/items.bdat":    files["data/items.bdat"],
	}
	assert.Equal(t, want, got)
}

func TestExtractFilterNeverReadsExcluded(t *testing.T) {
	t.Parallel()

	files := sampleFiles()
	ard, arh := buildArchive(t, files,
		BuildWithCompression(DefaultCompression),
		BuildWithClassifier(tagBDATFiles),
	)

	// Destroy every excluded entry's range. Extraction of the tagged
	// subset must not notice.
	a, err := Open(arh, ard)
	require.NoError(t, err)
	entries := a.Entries()
	require.NoError(t, a.Close())
	for _, e := range entries {
		if e.Tag() != TagBDAT {
			trashRange(t, ard, e)
		}
	}

	got := extractAll(t, arh, ard, ExtractWithFilter(func(e Entry) bool {
		return e.Tag() == TagBDAT
	}))
	assert.Len(t, got, 2)
	assert.Equal(t, files["data/monsters.bdat"], got["data/monsters.bdat"])
	assert.Equal(t, files["data/items.bdat"], got["data/items.bdat"])
}

func TestExtractPartialFailure(t *testing.T) {
	t.Parallel()

	files := sampleFiles()
	ard, arh := buildArchive(t, files, BuildWithCompression(DefaultCompression))

	a, err := Open(arh, ard)
	require.NoError(t, err)
	victim := a.Entries()[0]
	require.NoError(t, a.Close())
	corruptDigest(t, ard, victim)

	a, err = Open(arh, ard)
	require.NoError(t, err)
	defer a.Close()

	destDir := t.TempDir()
	report, err := a.Extract(context.Background(), destDir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntegrity)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, len(files)-1, report.Done)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 0, report.Failures[0].Index)
	assert.Equal(t, victim.Name, report.Failures[0].Name)
	assert.ErrorIs(t, report.Failures[0], ErrIntegrity)

	got := readTree(t, destDir)
	assert.Len(t, got, len(files)-1)
	for name, content := range files {
		if name == victim.Name {
			assert.NotContains(t, got, name)
			continue
		}
		assert.Equal(t, content, got[name])
	}
}

func TestExtractSkipExisting(t *testing.T) {
	t.Parallel()

	files := sampleFiles()
	ard, arh := buildArchive(t, files)

	a, err := Open(arh, ard)
	require.NoError(t, err)
	defer a.Close()

	destDir := t.TempDir()
	report, err := a.Extract(context.Background(), destDir)
	require.NoError(t, err)
	assert.Equal(t, len(files), report.Done)

	// Second pass skips everything.
	report, err = a.Extract(context.Background(), destDir)
	require.NoError(t, err)
	assert.Zero(t, report.Done)
	assert.Equal(t, len(files), report.Skipped)

	// Overwrite processes everything again.
	report, err = a.Extract(context.Background(), destDir, ExtractWithOverwrite(true))
	require.NoError(t, err)
	assert.Equal(t, len(files), report.Done)
	assert.Zero(t, report.Skipped)
}

func TestExtractDirectWrites(t *testing.T) {
	t.Parallel()

	files := sampleFiles()
	ard, arh := buildArchive(t, files, BuildWithCompression(DefaultCompression))
	got := extractAll(t, arh, ard, ExtractWithDirectWrites(true))
	assert.Equal(t, files, got)
}

func TestExtractIndexDerivedNames(t *testing.T) {
	t.Parallel()

	files := map[string][]byte{
		"a.bin": patternBytes(64),
		"b.bin": patternBytes(128),
	}
	ard, arh := buildArchive(t, files, BuildWithNameTable(false))

	t.Run("default namer", func(t *testing.T) {
		t.Parallel()
		got := extractAll(t, arh, ard)
		assert.Equal(t, map[string][]byte{
			"00000000.bin": files["a.bin"],
			"00000001.bin": files["b.bin"],
		}, got)
	})

	t.Run("custom namer", func(t *testing.T) {
		t.Parallel()
		got := extractAll(t, arh, ard, ExtractWithNamer(func(i int, _ Entry) string {
			return strings.Repeat("x", i+1) + ".dat"
		}))
		assert.Equal(t, map[string][]byte{
			"x.dat":  files["a.bin"],
			"xx.dat": files["b.bin"],
		}, got)
	})
}

func TestExtractHostileEntryName(t *testing.T) {
	t.Parallel()

	// Hand-craft an index whose name tries to escape the destination.
	payload := []byte{1, 2, 3, 4}
	dir := t.TempDir()
	ard := filepath.Join(dir, "evil.ard")
	arh := filepath.Join(dir, "evil.arh")
	require.NoError(t, os.WriteFile(ard, payload, 0o600))

	arhData, err := index.Serialize([]index.Entry{{
		StoredSize: 4,
		RawSize:    4,
		Name:       "../escape.bin",
	}}, true)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(arh, arhData, 0o600))

	a, err := Open(arh, ard)
	require.NoError(t, err)
	defer a.Close()

	destDir := filepath.Join(t.TempDir(), "dest")
	report, err := a.Extract(context.Background(), destDir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Done)

	// Written under the fallback name, inside the destination.
	got := readTree(t, destDir)
	assert.Equal(t, map[string][]byte{"00000000.bin": payload}, got)
	_, err = os.Stat(filepath.Join(filepath.Dir(destDir), "escape.bin"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtractProgress(t *testing.T) {
	t.Parallel()

	files := sampleFiles()
	ard, arh := buildArchive(t, files, BuildWithCompression(DefaultCompression))

	a, err := Open(arh, ard)
	require.NoError(t, err)
	defer a.Close()

	var mu sync.Mutex
	var events []ProgressEvent
	_, err = a.Extract(context.Background(), t.TempDir(), ExtractWithProgress(func(ev ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}))
	require.NoError(t, err)

	require.Len(t, events, len(files))
	var maxDone int
	for _, ev := range events {
		assert.Equal(t, StageExtracting, ev.Stage)
		assert.Equal(t, len(files), ev.FilesTotal)
		assert.NotEmpty(t, ev.Path)
		maxDone = max(maxDone, ev.FilesDone)
	}
	assert.Equal(t, len(files), maxDone)
}

func TestExtractCanceledContext(t *testing.T) {
	t.Parallel()

	ard, arh := buildArchive(t, sampleFiles())
	a, err := Open(arh, ard)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := a.Extract(ctx, t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Done)
}
