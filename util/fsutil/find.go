package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FindFile walks the tree rooted at "root" in lexical order and returns the
// path of the first regular file whose base name is "name".
// An empty string is returned when no file matches.
func FindFile(root, name string) (string, error) {
	if dinfo, err := os.Stat(root); err != nil || !dinfo.IsDir() {
		return "", fmt.Errorf("%s does not exist or is not a directory", root)
	}

	var found string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable directories are skipped
			if d != nil && d.IsDir() && p != root {
				return fs.SkipDir
			}
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	return found, err
}
