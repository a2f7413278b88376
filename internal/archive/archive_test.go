package archive

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/onepack/internal/manifest"
)

func buildArchive(t *testing.T, payloads map[manifest.Ref][]byte, order []manifest.Ref) *Archive {
	t.Helper()
	w := NewWriter()
	for _, ref := range order {
		require.NoError(t, w.Add(ref, payloads[ref]))
	}
	arc, err := w.Close()
	require.NoError(t, err)
	return arc
}

func TestArchiveRoundTrip(t *testing.T) {
	source := []byte(strings.Repeat("def update(dt):\n    pass\n", 64))
	native := []byte("\x7fELF native payload")
	data := []byte("PNG already compressed")

	refs := []manifest.Ref{
		{ID: "assets/logo.png", Kind: manifest.KindData, Path: "assets/logo.png"},
		{ID: "engine", Kind: manifest.KindSource, Path: "src/engine.py"},
		{ID: "fastmath", Kind: manifest.KindNative, Path: "vendor/fastmath.so"},
	}
	payloads := map[manifest.Ref][]byte{
		refs[0]: data,
		refs[1]: source,
		refs[2]: native,
	}
	arc := buildArchive(t, payloads, refs)

	r, err := OpenBlob(arc.Blob)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())

	for ref, want := range payloads {
		got, err := r.Read(ref.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got, ref.ID)
	}
	assert.NoError(t, r.Verify())
}

func TestCompressionPolicy(t *testing.T) {
	source := []byte(strings.Repeat("the same line of source text\n", 128))

	t.Run("source payloads compress", func(t *testing.T) {
		arc := buildArchive(t,
			map[manifest.Ref][]byte{{ID: "m", Kind: manifest.KindSource, Path: "m.py"}: source},
			[]manifest.Ref{{ID: "m", Kind: manifest.KindSource, Path: "m.py"}})
		require.Len(t, arc.Index, 1)
		assert.True(t, arc.Index[0].Compressed)
		assert.Less(t, arc.Index[0].StoredLen, arc.Index[0].RawLen)
	})

	t.Run("native payloads stay raw", func(t *testing.T) {
		ref := manifest.Ref{ID: "n", Kind: manifest.KindNative, Path: "n.so"}
		arc := buildArchive(t, map[manifest.Ref][]byte{ref: source}, []manifest.Ref{ref})
		assert.False(t, arc.Index[0].Compressed)
		assert.Equal(t, arc.Index[0].RawLen, arc.Index[0].StoredLen)
	})

	t.Run("already-compressed data stays raw", func(t *testing.T) {
		ref := manifest.Ref{ID: "a.png", Kind: manifest.KindData, Path: "assets/a.png"}
		arc := buildArchive(t, map[manifest.Ref][]byte{ref: source}, []manifest.Ref{ref})
		assert.False(t, arc.Index[0].Compressed)
	})

	t.Run("incompressible source stays raw", func(t *testing.T) {
		ref := manifest.Ref{ID: "m", Kind: manifest.KindSource, Path: "m.py"}
		arc := buildArchive(t, map[manifest.Ref][]byte{ref: []byte("x")}, []manifest.Ref{ref})
		assert.False(t, arc.Index[0].Compressed)
	})
}

func TestDeduplication(t *testing.T) {
	payload := []byte(strings.Repeat("shared payload bytes\n", 32))
	a := manifest.Ref{ID: "pkg.a", Kind: manifest.KindSource, Path: "pkg/a.py"}
	b := manifest.Ref{ID: "pkg.b", Kind: manifest.KindSource, Path: "pkg/b.py"}

	arc := buildArchive(t, map[manifest.Ref][]byte{a: payload, b: payload}, []manifest.Ref{a, b})

	require.Len(t, arc.Index, 2)
	assert.Equal(t, arc.Index[0].Offset, arc.Index[1].Offset)
	assert.Equal(t, arc.Index[0].StoredLen, arc.Index[1].StoredLen)

	r, err := OpenBlob(arc.Blob)
	require.NoError(t, err)
	got, err := r.Read("pkg.b")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestWriterOrdering(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.Add(manifest.Ref{ID: "b", Kind: manifest.KindSource}, []byte("b")))

	t.Run("out of order rejected", func(t *testing.T) {
		assert.ErrorContains(t, w.Add(manifest.Ref{ID: "a", Kind: manifest.KindSource}, []byte("a")), "identifier order")
	})
	t.Run("duplicate rejected", func(t *testing.T) {
		assert.ErrorContains(t, w.Add(manifest.Ref{ID: "b", Kind: manifest.KindSource}, []byte("b")), "identifier order")
	})
}

func TestDeterministicBlob(t *testing.T) {
	refs := []manifest.Ref{
		{ID: "a", Kind: manifest.KindSource, Path: "a.py"},
		{ID: "b", Kind: manifest.KindData, Path: "b.dat"},
	}
	payloads := map[manifest.Ref][]byte{
		refs[0]: []byte(strings.Repeat("alpha\n", 50)),
		refs[1]: []byte("beta"),
	}

	first := buildArchive(t, payloads, refs)
	second := buildArchive(t, payloads, refs)
	assert.True(t, bytes.Equal(first.Blob, second.Blob))
}

func TestCorruption(t *testing.T) {
	ref := manifest.Ref{ID: "m", Kind: manifest.KindNative, Path: "m.so"}
	arc := buildArchive(t, map[manifest.Ref][]byte{ref: []byte("payload bytes here")}, []manifest.Ref{ref})

	t.Run("bad magic", func(t *testing.T) {
		blob := append([]byte(nil), arc.Blob...)
		blob[len(blob)-1] ^= 0xff
		_, err := OpenBlob(blob)
		var corrupt *CorruptError
		require.ErrorAs(t, err, &corrupt)
	})

	t.Run("truncated blob", func(t *testing.T) {
		_, err := OpenBlob(arc.Blob[:FooterSize-1])
		var corrupt *CorruptError
		require.ErrorAs(t, err, &corrupt)
	})

	t.Run("flipped payload byte", func(t *testing.T) {
		blob := append([]byte(nil), arc.Blob...)
		blob[0] ^= 0xff
		r, err := OpenBlob(blob)
		require.NoError(t, err)

		_, err = r.Read("m")
		var corrupt *CorruptError
		require.ErrorAs(t, err, &corrupt)
		assert.Equal(t, "m", corrupt.ID)
		assert.Error(t, r.Verify())
	})

	t.Run("tampered index checksum", func(t *testing.T) {
		blob := append([]byte(nil), arc.Blob...)
		blob[len(blob)-16] ^= 0xff
		_, err := OpenBlob(blob)
		var corrupt *CorruptError
		require.ErrorAs(t, err, &corrupt)
		assert.Contains(t, corrupt.Detail, "index checksum")
	})
}

func TestReaderLookups(t *testing.T) {
	ref := manifest.Ref{ID: "m", Kind: manifest.KindSource, Path: "m.py"}
	arc := buildArchive(t, map[manifest.Ref][]byte{ref: []byte("x = 1\n")}, []manifest.Ref{ref})

	r, err := OpenBlob(arc.Blob)
	require.NoError(t, err)

	assert.True(t, r.Contains("m"))
	assert.False(t, r.Contains("ghost"))

	_, err = r.Read("ghost")
	var notFound *ErrNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.ID)
}
