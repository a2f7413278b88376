package analyzer

import (
	"fmt"

	"github.com/vk/onepack/internal/manifest"
)

// UnresolvedReferenceError reports a statically referenced module that could
// not be located on any search root. The edge names the true referrer, even
// when the module was only reached transitively through a declared hint.
type UnresolvedReferenceError struct {
	ID   string
	Edge manifest.Edge
}

// Error implements the error interface.
func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %q (required by %q via %s)", e.ID, e.Edge.From, e.Edge.Provenance)
}

// AmbiguousReferenceError reports an identifier matching more than one
// payload form within a single search root, where explicit root ordering
// cannot disambiguate.
type AmbiguousReferenceError struct {
	ID         string
	Root       string
	Candidates []string
}

// Error implements the error interface.
func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("ambiguous reference %q under root %q: matches %v", e.ID, e.Root, e.Candidates)
}

// RequiredModuleExcludedError reports an exclude-list entry that the entry
// module directly requires. This is a configuration contradiction, never
// silently tolerated.
type RequiredModuleExcludedError struct {
	ID   string
	Edge manifest.Edge
}

// Error implements the error interface.
func (e *RequiredModuleExcludedError) Error() string {
	return fmt.Sprintf("excluded module %q is directly required by the entry module (via %s edge from %q)", e.ID, e.Edge.Provenance, e.Edge.From)
}
