// Package fsutil contains small file system helpers.
package fsutil

import (
	"os"
	"path/filepath"
)

// Exists returns whether the given file or directory exists or not.
func Exists(p string) (bool, error) {
	_, err := os.Stat(p)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return true, err
}

// EnsureDir ensures a directory exists.
func EnsureDir(p string) error {
	e, err := Exists(p)
	if err != nil {
		return err
	}
	if !e {
		return os.MkdirAll(p, 0775)
	}
	return nil
}

// EnsurePath ensures a directory exists, given a file path. This calls filepath.Dir(p)
func EnsurePath(p string) error {
	return EnsureDir(filepath.Dir(p))
}
