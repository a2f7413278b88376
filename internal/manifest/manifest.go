package manifest

import (
	"fmt"
	"sort"
	"sync"
)

// Manifest is the dependency closure handed from the analyzer to the archive
// builder: the entry module plus every transitively reachable module, with
// the edge list that justifies each inclusion.
type Manifest struct {
	entryID string

	mu      sync.Mutex
	modules map[string]Ref
	edges   []Edge
}

// New creates an empty manifest rooted at the given entry module. The entry
// is pinned first so nothing can displace its metadata.
func New(entry Ref) *Manifest {
	m := &Manifest{
		entryID: entry.ID,
		modules: make(map[string]Ref),
	}
	m.modules[entry.ID] = entry
	return m
}

// EntryID returns the identifier of the entry module.
func (m *Manifest) EntryID() string {
	return m.entryID
}

// Entry returns the entry module's reference.
func (m *Manifest) Entry() Ref {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modules[m.entryID]
}

// Add inserts a module reference, returning true if the reference was new.
// Concurrent discoveries of the same identifier collapse to one entry with
// first-discovery-wins metadata; resolution is deterministic regardless, so
// the winner only matters for which goroutine proceeds to scan the module.
func (m *Manifest) Add(ref Ref) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.modules[ref.ID]; ok {
		return false
	}
	m.modules[ref.ID] = ref
	return true
}

// AddEdge records a dependency discovery. Both endpoints must already be
// present; callers insert the referenced module before its edge.
func (m *Manifest) AddEdge(e Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.modules[e.From]; !ok {
		return fmt.Errorf("edge referrer %q not in manifest", e.From)
	}
	if _, ok := m.modules[e.To]; !ok {
		return fmt.Errorf("edge target %q not in manifest", e.To)
	}
	if e.To == m.entryID {
		return fmt.Errorf("edge target %q is the entry module", e.To)
	}
	m.edges = append(m.edges, e)
	return nil
}

// Contains reports whether the identifier is in the module set.
func (m *Manifest) Contains(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.modules[id]
	return ok
}

// Lookup returns the reference for an identifier, if present.
func (m *Manifest) Lookup(id string) (Ref, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref, ok := m.modules[id]
	return ref, ok
}

// Len returns the module count, entry included.
func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.modules)
}

// Modules returns every module reference sorted by identifier. The sorted
// order, not discovery order, drives archive layout so that builds are
// deterministic.
func (m *Manifest) Modules() []Ref {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := make([]Ref, 0, len(m.modules))
	for _, ref := range m.modules {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs
}

// Edges returns a copy of the edge list in discovery order.
func (m *Manifest) Edges() []Edge {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Edge(nil), m.edges...)
}

// RequiredBy returns the edges whose target is the given identifier, the
// evidence for its inclusion.
func (m *Manifest) RequiredBy(id string) []Edge {
	m.mu.Lock()
	defer m.mu.Unlock()
	var incoming []Edge
	for _, e := range m.edges {
		if e.To == id {
			incoming = append(incoming, e)
		}
	}
	return incoming
}

// Verify checks the manifest's reachability invariants: the entry has no
// incoming edges, and every other module has at least one. A violation is a
// bug in the analyzer, not an operator error.
func (m *Manifest) Verify() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	incoming := make(map[string]int, len(m.modules))
	for _, e := range m.edges {
		incoming[e.To]++
	}
	if incoming[m.entryID] > 0 {
		return fmt.Errorf("entry module %q has incoming edges", m.entryID)
	}
	for id := range m.modules {
		if id == m.entryID {
			continue
		}
		if incoming[id] == 0 {
			return fmt.Errorf("module %q has no incoming edge", id)
		}
	}
	return nil
}
