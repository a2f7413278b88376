// Package fsutil provides the small filesystem helpers shared by the spec
// loaders.
package fsutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension walks root and returns every file whose name carries
// the given extension, in lexical path order so multi-file spec loading is
// deterministic. A missing or unreadable root is an error; loaders report it
// with the path the operator gave them.
func FindFilesByExtension(root, ext string) ([]string, error) {
	if !strings.HasPrefix(ext, ".") {
		return nil, fmt.Errorf("file extension %q must start with a dot", ext)
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for %s files: %w", root, ext, err)
	}

	sort.Strings(files)
	return files, nil
}
