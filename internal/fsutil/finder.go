// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
)

// FindFiles recursively collects the regular files under root whose
// extension is one of exts, in lexical walk order. A root that is itself a
// file is returned as is, whatever its extension.
func FindFiles(root string, exts ...string) ([]string, error) {
	if len(exts) == 0 {
		return nil, errors.New("fsutil: no extensions given")
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root && !d.IsDir() {
			files = append(files, path)
			return nil
		}
		if !d.IsDir() && slices.Contains(exts, filepath.Ext(path)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
