// Package pset locates the framework parameter-set files referenced by
// submission configs.
package pset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cms-top/crabgen/util/fsutil"
)

// FileName returns the parameter-set file name for a production tag and era.
func FileName(productionTag, era string) string {
	return fmt.Sprintf("topNano_%s_%s_cfg.py", productionTag, era)
}

// Find returns the absolute path of the parameter-set file "name".
// An existing file path is used as is, otherwise the tree under
// "searchRoot" is searched for a file with the same base name.
func Find(name, searchRoot string) (string, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return filepath.Abs(name)
	}

	base := filepath.Base(name)
	var found string
	if searchRoot != "" {
		var err error
		found, err = fsutil.FindFile(searchRoot, base)
		if err != nil {
			return "", fmt.Errorf("searching for configuration file %q: %w", base, err)
		}
	}
	if found == "" {
		return "", fmt.Errorf("configuration file %q not found: %w", base, os.ErrNotExist)
	}
	return filepath.Abs(found)
}
