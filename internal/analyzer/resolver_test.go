package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/onepack/internal/manifest"
)

// writeFiles materializes relative-path → content pairs under root.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestResolveModule(t *testing.T) {
	t.Run("plain module", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{"engine.py": "x = 1\n"})

		r := newResolver([]string{root})
		ref, found, err := r.resolveModule("engine")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, manifest.KindSource, ref.Kind)
		assert.Equal(t, filepath.Join(root, "engine.py"), ref.Path)
	})

	t.Run("package resolves to its init module", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{"game/__init__.py": ""})

		r := newResolver([]string{root})
		ref, found, err := r.resolveModule("game")
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, isPackage(ref))
	})

	t.Run("native extension", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{"fastmath.so": "\x7fELF"})

		r := newResolver([]string{root})
		ref, found, err := r.resolveModule("fastmath")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, manifest.KindNative, ref.Kind)
	})

	t.Run("first root wins", func(t *testing.T) {
		r1, r2 := t.TempDir(), t.TempDir()
		writeFiles(t, r1, map[string]string{"x.py": "one"})
		writeFiles(t, r2, map[string]string{"x.py": "two"})

		r := newResolver([]string{r1, r2})
		ref, found, err := r.resolveModule("x")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, filepath.Join(r1, "x.py"), ref.Path)
	})

	t.Run("falls through the root order", func(t *testing.T) {
		r1, r2 := t.TempDir(), t.TempDir()
		writeFiles(t, r2, map[string]string{"x.py": "two"})

		r := newResolver([]string{r1, r2})
		ref, found, err := r.resolveModule("x")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, filepath.Join(r2, "x.py"), ref.Path)
	})

	t.Run("two forms in one root are ambiguous", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"x.py":          "module form",
			"x/__init__.py": "package form",
		})

		r := newResolver([]string{root})
		_, _, err := r.resolveModule("x")
		var ambiguous *AmbiguousReferenceError
		require.ErrorAs(t, err, &ambiguous)
		assert.Equal(t, "x", ambiguous.ID)
		assert.Len(t, ambiguous.Candidates, 2)
	})

	t.Run("missing module is a clean miss", func(t *testing.T) {
		r := newResolver([]string{t.TempDir()})
		_, found, err := r.resolveModule("ghost")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("misses are cached", func(t *testing.T) {
		root := t.TempDir()
		r := newResolver([]string{root})
		_, found, _ := r.resolveModule("late")
		require.False(t, found)

		// The module appears after the first miss; the cached answer stands
		// for the rest of the build.
		writeFiles(t, root, map[string]string{"late.py": ""})
		_, found, _ = r.resolveModule("late")
		assert.False(t, found)
	})
}

func TestResolveData(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"assets/icon.png": "PNG"})

	r := newResolver([]string{root})
	ref, found := r.resolveData("assets/icon.png")
	require.True(t, found)
	assert.Equal(t, "assets/icon.png", ref.ID)
	assert.Equal(t, manifest.KindData, ref.Kind)

	_, found = r.resolveData("assets/missing.png")
	assert.False(t, found)
}
