package change_detector

import (
	"iter"
	"os"
	"path/filepath"

	"github.com/meysamhadeli/reviewmentor/utils"
)

// Walk lazily yields the absolute path of every file below root, skipping
// directories whose base name is in ignore. Entries are classified with
// os.Stat, so symlinks are followed; a symlink cycle recurses without bound.
// Directories that cannot be read are skipped silently. Within one directory
// entries come in os.ReadDir order, which is sorted by name.
func Walk(root string, ignore *utils.IgnoreSet) iter.Seq[string] {
	return func(yield func(string) bool) {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return
		}
		walkDir(absRoot, ignore, yield)
	}
}

// walkDir returns false once the consumer stops the iteration.
func walkDir(dir string, ignore *utils.IgnoreSet, yield func(string) bool) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return true
	}

	for _, entry := range entries {
		fullPath := filepath.Join(dir, entry.Name())

		info, err := os.Stat(fullPath)
		if err != nil {
			continue
		}

		if info.IsDir() {
			if ignore.IsIgnoredDir(entry.Name()) {
				continue
			}
			if !walkDir(fullPath, ignore, yield) {
				return false
			}
			continue
		}

		if !yield(fullPath) {
			return false
		}
	}
	return true
}

// ListFiles collects Walk into a slice.
func ListFiles(root string, ignore *utils.IgnoreSet) []string {
	var files []string
	for path := range Walk(root, ignore) {
		files = append(files, path)
	}
	return files
}
