package manifest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryRef() Ref {
	return Ref{ID: "main", Kind: KindSource, Path: "src/main.py"}
}

func TestNew(t *testing.T) {
	m := New(entryRef())
	require.NotNil(t, m)
	assert.Equal(t, "main", m.EntryID())
	assert.Equal(t, 1, m.Len())
	assert.True(t, m.Contains("main"))
}

func TestAdd(t *testing.T) {
	t.Run("first discovery wins", func(t *testing.T) {
		m := New(entryRef())

		first := Ref{ID: "engine", Kind: KindSource, Path: "src/engine.py"}
		second := Ref{ID: "engine", Kind: KindNative, Path: "vendor/engine.so"}

		assert.True(t, m.Add(first))
		assert.False(t, m.Add(second))

		got, ok := m.Lookup("engine")
		require.True(t, ok)
		assert.Equal(t, first, got)
	})

	t.Run("entry cannot be displaced", func(t *testing.T) {
		m := New(entryRef())
		assert.False(t, m.Add(Ref{ID: "main", Kind: KindData, Path: "elsewhere"}))
		assert.Equal(t, entryRef(), m.Entry())
	})

	t.Run("concurrent inserts collapse to one module", func(t *testing.T) {
		m := New(entryRef())
		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				m.Add(Ref{ID: "engine", Kind: KindSource, Path: fmt.Sprintf("root%d/engine.py", i)})
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 2, m.Len())
	})
}

func TestAddEdge(t *testing.T) {
	m := New(entryRef())
	require.True(t, m.Add(Ref{ID: "engine", Kind: KindSource}))

	t.Run("valid edge", func(t *testing.T) {
		err := m.AddEdge(Edge{From: "main", To: "engine", Provenance: StaticScan})
		require.NoError(t, err)
		edges := m.RequiredBy("engine")
		require.Len(t, edges, 1)
		assert.Equal(t, "main", edges[0].From)
		assert.Equal(t, StaticScan, edges[0].Provenance)
	})

	t.Run("unknown endpoints are rejected", func(t *testing.T) {
		assert.ErrorContains(t, m.AddEdge(Edge{From: "ghost", To: "engine"}), "not in manifest")
		assert.ErrorContains(t, m.AddEdge(Edge{From: "engine", To: "ghost"}), "not in manifest")
	})

	t.Run("entry never gains incoming edges", func(t *testing.T) {
		assert.ErrorContains(t, m.AddEdge(Edge{From: "engine", To: "main"}), "entry module")
	})
}

func TestModulesSortedByIdentifier(t *testing.T) {
	m := New(entryRef())
	for _, id := range []string{"zeta", "alpha", "omega"} {
		require.True(t, m.Add(Ref{ID: id, Kind: KindSource}))
		require.NoError(t, m.AddEdge(Edge{From: "main", To: id, Provenance: StaticScan}))
	}

	var ids []string
	for _, ref := range m.Modules() {
		ids = append(ids, ref.ID)
	}
	assert.Equal(t, []string{"alpha", "main", "omega", "zeta"}, ids)
}

func TestVerify(t *testing.T) {
	t.Run("entry-only manifest verifies", func(t *testing.T) {
		assert.NoError(t, New(entryRef()).Verify())
	})

	t.Run("orphan module fails", func(t *testing.T) {
		m := New(entryRef())
		require.True(t, m.Add(Ref{ID: "orphan", Kind: KindSource}))
		assert.ErrorContains(t, m.Verify(), "no incoming edge")
	})
}
