package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	t.Run("recursive lexical order", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"z.hcl", "a.hcl", "nested/b.hcl", "nested/skip.txt"} {
			path := filepath.Join(dir, name)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			require.NoError(t, os.WriteFile(path, nil, 0o644))
		}

		files, err := FindFilesByExtension(dir, ".hcl")
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a.hcl"),
			filepath.Join(dir, "nested", "b.hcl"),
			filepath.Join(dir, "z.hcl"),
		}, files)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "nope"), ".hcl")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("extension without a dot", func(t *testing.T) {
		_, err := FindFilesByExtension(t.TempDir(), "hcl")
		assert.ErrorContains(t, err, "must start with a dot")
	})
}
