package analyzer

import (
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vk/onepack/internal/manifest"
)

// resolverCacheSize bounds the resolution cache. Closures revisit the same
// identifiers constantly (ancestor pinning, diamond imports), so hits
// dominate once the scan warms up.
const resolverCacheSize = 4096

// moduleCandidates are the payload forms an identifier may take inside one
// root, relative to the identifier's slash path.
var moduleCandidates = []struct {
	suffix string
	kind   manifest.Kind
}{
	{"/__init__.py", manifest.KindSource},
	{".py", manifest.KindSource},
	{".so", manifest.KindNative},
	{".pyd", manifest.KindNative},
}

// resolution is a cached resolver outcome. Misses are cached too; a missing
// module is asked about once per build, not once per edge.
type resolution struct {
	ref   manifest.Ref
	found bool
	err   error
}

// resolver locates module identifiers and data paths on the ordered search
// roots. Resolution is a pure function of (identifier, root order) and is
// therefore safe to cache and to call from concurrent scan workers.
type resolver struct {
	roots []string
	cache *lru.Cache[string, resolution]
}

// newResolver creates a resolver over the given ordered roots.
func newResolver(roots []string) *resolver {
	cache, err := lru.New[string, resolution](resolverCacheSize)
	if err != nil {
		// Only a non-positive size can fail; that is a bug.
		panic(err)
	}
	return &resolver{roots: roots, cache: cache}
}

// resolveModule locates a dotted identifier. The first root containing the
// identifier wins, falling through to later roots when earlier ones lack it.
// More than one candidate form inside a single root is ambiguous: root order
// is the only sanctioned tie-breaker, and it cannot apply within one root.
func (r *resolver) resolveModule(id string) (manifest.Ref, bool, error) {
	if cached, ok := r.cache.Get(id); ok {
		return cached.ref, cached.found, cached.err
	}

	rel := strings.ReplaceAll(id, ".", "/")
	for _, root := range r.roots {
		var matches []manifest.Ref
		for _, c := range moduleCandidates {
			path := filepath.Join(root, rel+c.suffix)
			// The __init__.py candidate lives under the package directory.
			if c.suffix == "/__init__.py" {
				path = filepath.Join(root, rel, "__init__.py")
			}
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				matches = append(matches, manifest.Ref{ID: id, Kind: c.kind, Path: path})
			}
		}
		if len(matches) > 1 {
			var candidates []string
			for _, m := range matches {
				candidates = append(candidates, m.Path)
			}
			err := &AmbiguousReferenceError{ID: id, Root: root, Candidates: candidates}
			r.cache.Add(id, resolution{err: err})
			return manifest.Ref{}, false, err
		}
		if len(matches) == 1 {
			r.cache.Add(id, resolution{ref: matches[0], found: true})
			return matches[0], true, nil
		}
	}

	r.cache.Add(id, resolution{})
	return manifest.Ref{}, false, nil
}

// resolveData locates a data-resource path against the roots. Data
// identifiers keep their slash-separated relative path.
func (r *resolver) resolveData(rel string) (manifest.Ref, bool) {
	rel = filepath.ToSlash(rel)
	for _, root := range r.roots {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return manifest.Ref{ID: rel, Kind: manifest.KindData, Path: path}, true
		}
	}
	return manifest.Ref{}, false
}

// isPackage reports whether a resolved reference is a package (its payload
// is the package's __init__ module), which affects relative-import bases.
func isPackage(ref manifest.Ref) bool {
	return strings.HasSuffix(ref.Path, "__init__.py")
}
