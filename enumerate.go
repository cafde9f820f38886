package xbarc

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// EnumerateDir lists the regular files under dir as Build inputs, sorted
// lexicographically by their slash-separated relative paths. The order is
// deterministic: two runs over the same tree number entries identically.
//
// Symbolic links and other non-regular files are skipped. Empty
// directories are not preserved.
func EnumerateDir(dir string) ([]Input, error) {
	var inputs []Input
	err := fs.WalkDir(os.DirFS(dir), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		inputs = append(inputs, Input{
			Name: p,
			Path: filepath.Join(dir, filepath.FromSlash(p)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", dir, err)
	}
	slices.SortFunc(inputs, func(a, b Input) int {
		return strings.Compare(a.Name, b.Name)
	})
	return inputs, nil
}
