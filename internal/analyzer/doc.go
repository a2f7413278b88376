// Package analyzer computes the dependency closure of an entry script.
//
// The closure is a breadth-first scan of the entry's static import surface:
// every literal import statement is resolved against the bundle's ordered
// search roots, added to the manifest with a diagnostic edge, and — when it
// is itself source — queued for its own scan. Independent modules are
// scanned concurrently by a worker pool; the final module set is a pure
// function of the configuration and the filesystem, never of scheduling.
//
// Static analysis is best-effort by design: references constructed from
// runtime-computed strings or loaded reflectively are invisible to it. The
// bundle's hidden-import list is the first-class escape hatch, not a bolted
// on heuristic — declared hints travel the exact same resolve-and-scan path
// as static discoveries, producing the same edges and the same errors.
package analyzer
