// Package manifest models the output of the dependency analyzer: the closed,
// deduplicated set of module references required to run an entry module,
// together with the dependency edges that explain why each module is there.
//
// The manifest is a flat set, not an executable graph. Edges are retained
// purely for diagnostics ("why was X included?") and for validating the
// reachability invariants: the entry module has no incoming edges, and every
// other module has at least one.
//
// The set is safe for concurrent insertion. A module reference may be
// discovered many times via different edges during a parallel scan; it is
// collapsed to a single entry with first-discovery-wins semantics for its
// metadata and a union of its incoming edges.
package manifest
