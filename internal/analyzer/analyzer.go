package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/vk/onepack/internal/config"
	"github.com/vk/onepack/internal/ctxlog"
	"github.com/vk/onepack/internal/manifest"
)

// Analyzer computes the module closure for one bundle. It owns module
// discovery exclusively; the manifest it produces is handed off by value and
// never written to again.
type Analyzer struct {
	cfg      *config.Bundle
	workers  int
	resolver *resolver
	entryID  string
}

// New creates an analyzer for the given immutable bundle configuration.
func New(cfg *config.Bundle, workers int) *Analyzer {
	if workers < 1 {
		workers = 1
	}
	return &Analyzer{
		cfg:      cfg,
		workers:  workers,
		resolver: newResolver(cfg.SearchPath),
	}
}

// Analyze runs the closure computation: the static scan from the entry
// module, then the declared hints (same code path, same edges, same errors),
// then declared data resources and the optional icon entry.
//
// When a declared hint names a module the static scan already found, the
// static discovery's metadata stands and the hint contributes only an extra
// required-by edge; resolution never depends on provenance.
func (a *Analyzer) Analyze(ctx context.Context) (*manifest.Manifest, error) {
	logger := ctxlog.FromContext(ctx)

	entryRef := manifest.Ref{
		ID:   entryIdentifier(a.cfg.Entry),
		Kind: manifest.KindSource,
		Path: a.cfg.Entry,
	}
	if info, err := os.Stat(a.cfg.Entry); err != nil || info.IsDir() {
		return nil, fmt.Errorf("entry script %s is not a readable file", a.cfg.Entry)
	}
	a.entryID = entryRef.ID
	man := manifest.New(entryRef)
	logger.Debug("Analyzer started.", "entry", entryRef.ID, "roots", len(a.cfg.SearchPath))

	if err := a.scanClosure(ctx, man, []manifest.Ref{entryRef}); err != nil {
		return nil, err
	}
	logger.Debug("Static scan stabilized.", "modules", man.Len())

	if err := a.applyHints(ctx, man); err != nil {
		return nil, err
	}
	if err := a.applyData(ctx, man); err != nil {
		return nil, err
	}
	if err := a.applyIcon(ctx, man); err != nil {
		return nil, err
	}

	if err := man.Verify(); err != nil {
		return nil, fmt.Errorf("manifest invariant violated: %w", err)
	}
	logger.Debug("Analyzer finished.", "modules", man.Len(), "edges", len(man.Edges()))
	return man, nil
}

// scanClosure drives the breadth-first scan: each wave's modules are parsed
// and resolved concurrently by the worker pool, newly discovered source
// modules form the next wave, and the first error cancels in-flight work.
// Discovery order varies across runs; the resulting set does not.
func (a *Analyzer) scanClosure(ctx context.Context, man *manifest.Manifest, frontier []manifest.Ref) error {
	logger := ctxlog.FromContext(ctx)

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		readyChan := make(chan manifest.Ref, len(frontier))
		for _, ref := range frontier {
			readyChan <- ref
		}
		close(readyChan)

		waveCtx, cancel := context.WithCancel(ctx)
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			next     []manifest.Ref
			firstErr error
		)

		workers := min(a.workers, len(frontier))
		logger.Debug("Scanning wave.", "modules", len(frontier), "workers", workers)
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func(workerID int) {
				defer wg.Done()
				for ref := range readyChan {
					if waveCtx.Err() != nil {
						continue
					}
					discovered, err := a.scanModule(waveCtx, man, ref)
					mu.Lock()
					if err != nil {
						if firstErr == nil {
							firstErr = err
							cancel()
						}
					} else {
						next = append(next, discovered...)
					}
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		cancel()

		if firstErr != nil {
			return firstErr
		}

		// Wave composition is scheduling-dependent; order it for stable logs.
		sort.Slice(next, func(i, j int) bool { return next[i].ID < next[j].ID })
		frontier = next
	}
	return nil
}

// scanModule parses one source module and resolves every reference it makes.
// It returns the references newly added to the manifest that still need
// their own scan.
func (a *Analyzer) scanModule(ctx context.Context, man *manifest.Manifest, ref manifest.Ref) ([]manifest.Ref, error) {
	logger := ctxlog.FromContext(ctx)

	src, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module %q from %s: %w", ref.ID, ref.Path, err)
	}

	imports := scanImports(src)
	logger.Debug("Module scanned.", "module", ref.ID, "imports", len(imports))

	var discovered []manifest.Ref
	for _, imp := range imports {
		targets, err := a.targetsFor(ref, imp)
		if err != nil {
			return nil, err
		}
		for _, id := range targets {
			added, err := a.addReference(ctx, man, ref.ID, id, manifest.StaticScan)
			if err != nil {
				return nil, err
			}
			discovered = append(discovered, added...)
		}
	}
	return discovered, nil
}

// targetsFor translates one import statement into the module identifiers it
// requires. A from-import requires its base module, plus any listed name
// that resolves to a module of its own.
func (a *Analyzer) targetsFor(ref manifest.Ref, imp importRef) ([]string, error) {
	base := imp.Module
	if imp.Level > 0 {
		pkg, ok := relativeBase(ref, imp.Level)
		if !ok {
			return nil, &UnresolvedReferenceError{
				ID:   strings.Repeat(".", imp.Level) + imp.Module,
				Edge: manifest.Edge{From: ref.ID, To: imp.Module, Provenance: manifest.StaticScan},
			}
		}
		base = joinIdentifier(pkg, imp.Module)
	}

	var targets []string
	if base != "" {
		targets = append(targets, base)
	}
	for _, name := range imp.Names {
		candidate := joinIdentifier(base, name)
		if candidate == "" {
			continue
		}
		// A name that is merely an attribute of the base module is a clean
		// miss; an ambiguous candidate is a real resolution failure.
		_, found, err := a.resolver.resolveModule(candidate)
		if err != nil {
			return nil, err
		}
		if found {
			targets = append(targets, candidate)
		}
	}
	return targets, nil
}

// addReference resolves an identifier, pins its ancestor packages, and
// records the module and its required-by edge. It returns the newly added
// source references that still need scanning.
func (a *Analyzer) addReference(ctx context.Context, man *manifest.Manifest, fromID, id string, prov manifest.Provenance) ([]manifest.Ref, error) {
	logger := ctxlog.FromContext(ctx)

	if ex := a.excludedBy(id); ex != "" {
		if fromID == a.entryID && prov == manifest.StaticScan {
			return nil, &RequiredModuleExcludedError{
				ID:   ex,
				Edge: manifest.Edge{From: fromID, To: ex, Provenance: prov},
			}
		}
		logger.Debug("Reference withheld by exclude list.", "id", id, "exclude", ex, "referrer", fromID)
		return nil, nil
	}

	edge := manifest.Edge{From: fromID, To: id, Provenance: prov}
	ref, found, err := a.resolver.resolveModule(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &UnresolvedReferenceError{ID: id, Edge: edge}
	}

	var discovered []manifest.Ref

	// Importing a.b.c pins the ancestor packages a and a.b as well.
	// Ancestors that do not resolve are tolerated as namespace packages.
	parts := strings.Split(id, ".")
	for i := 1; i < len(parts); i++ {
		ancestor := strings.Join(parts[:i], ".")
		if ancestor == a.entryID || a.excludedBy(ancestor) != "" {
			continue
		}
		ancestorRef, found, err := a.resolver.resolveModule(ancestor)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		added, err := a.insert(man, ancestorRef, manifest.Edge{From: fromID, To: ancestor, Provenance: prov})
		if err != nil {
			return nil, err
		}
		if added {
			discovered = append(discovered, ancestorRef)
		}
	}

	if id == a.entryID {
		// A module shadowing the entry's identifier resolves to the entry
		// itself, which is already pinned.
		return discovered, nil
	}
	added, err := a.insert(man, ref, edge)
	if err != nil {
		return nil, err
	}
	if added && ref.Kind == manifest.KindSource {
		discovered = append(discovered, ref)
	}
	return discovered, nil
}

// insert adds a module and its edge under first-discovery-wins semantics.
func (a *Analyzer) insert(man *manifest.Manifest, ref manifest.Ref, edge manifest.Edge) (bool, error) {
	added := man.Add(ref)
	if err := man.AddEdge(edge); err != nil {
		return false, fmt.Errorf("analyzer produced an invalid edge: %w", err)
	}
	return added, nil
}

// applyHints unions the declared hidden imports into the closure. Each hint
// is attributed to the entry module and re-scanned transitively; a missing
// dependency found underneath a hint is reported as its own unresolved
// reference, not blamed on the hint.
func (a *Analyzer) applyHints(ctx context.Context, man *manifest.Manifest) error {
	logger := ctxlog.FromContext(ctx)

	var frontier []manifest.Ref
	for _, hint := range a.cfg.HiddenImports {
		if ex := a.excludedBy(hint); ex != "" {
			logger.Warn("Declared hint is also excluded; the exclude wins.", "hint", hint, "exclude", ex)
			continue
		}
		discovered, err := a.addReference(ctx, man, a.entryID, hint, manifest.DeclaredHint)
		if err != nil {
			return err
		}
		frontier = append(frontier, discovered...)
	}
	if len(frontier) == 0 {
		return nil
	}
	logger.Debug("Scanning declared hints transitively.", "modules", len(frontier))
	return a.scanClosure(ctx, man, frontier)
}

// applyData embeds the declared data resources.
func (a *Analyzer) applyData(ctx context.Context, man *manifest.Manifest) error {
	for _, rel := range a.cfg.Data {
		ref, found := a.resolver.resolveData(rel)
		edge := manifest.Edge{From: a.entryID, To: ref.ID, Provenance: manifest.DeclaredHint}
		if !found {
			return &UnresolvedReferenceError{
				ID:   rel,
				Edge: manifest.Edge{From: a.entryID, To: rel, Provenance: manifest.DeclaredHint},
			}
		}
		if _, err := a.insert(man, ref, edge); err != nil {
			return err
		}
	}
	return nil
}

// applyIcon pins the configured icon as the reserved data entry the platform
// stub applies at startup.
func (a *Analyzer) applyIcon(ctx context.Context, man *manifest.Manifest) error {
	if a.cfg.Icon == "" {
		return nil
	}
	if info, err := os.Stat(a.cfg.Icon); err != nil || info.IsDir() {
		return fmt.Errorf("icon resource %s is not a readable file", a.cfg.Icon)
	}
	ref := manifest.Ref{ID: manifest.IconID, Kind: manifest.KindData, Path: a.cfg.Icon}
	edge := manifest.Edge{From: a.entryID, To: manifest.IconID, Provenance: manifest.PlatformStub}
	_, err := a.insert(man, ref, edge)
	return err
}

// excludedBy returns the exclude-list entry covering the identifier, either
// the identifier itself or an ancestor package, or "" when none does.
func (a *Analyzer) excludedBy(id string) string {
	for _, ex := range a.cfg.Excludes {
		if id == ex || strings.HasPrefix(id, ex+".") {
			return ex
		}
	}
	return ""
}

// relativeBase computes the package identifier a relative import resolves
// against. One dot is the referrer's own package; each extra dot ascends one
// level. It reports false when the import escapes the root package.
func relativeBase(ref manifest.Ref, level int) (string, bool) {
	parts := strings.Split(ref.ID, ".")
	if !isPackage(ref) {
		parts = parts[:len(parts)-1]
	}
	up := level - 1
	if up > len(parts) || len(parts) == 0 {
		return "", false
	}
	parts = parts[:len(parts)-up]
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "."), true
}

// joinIdentifier joins dotted identifier fragments, tolerating empty parts.
func joinIdentifier(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "." + b
}

// entryIdentifier derives the entry module's manifest identifier from the
// entry script's file name.
func entryIdentifier(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
