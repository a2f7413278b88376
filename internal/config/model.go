package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"
)

// Mode selects the presentation of the generated executable.
type Mode string

const (
	// ModeConsole attaches a console/terminal to the launched application.
	ModeConsole Mode = "console"
	// ModeWindowed runs the application without an attached console.
	ModeWindowed Mode = "windowed"
)

// Platform identifies the target operating system and architecture of the
// generated launcher.
type Platform struct {
	OS   string
	Arch string
}

// String returns the canonical "os/arch" form used in spec files and stub
// file names.
func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// ParsePlatform parses the canonical "os/arch" form.
func ParsePlatform(s string) (Platform, error) {
	os, arch, ok := strings.Cut(s, "/")
	if !ok || os == "" || arch == "" {
		return Platform{}, fmt.Errorf("invalid platform %q: expected \"os/arch\"", s)
	}
	return Platform{OS: os, Arch: arch}, nil
}

// Bundle is the immutable Build Configuration for a single pipeline
// invocation. It is constructed once by a loader and never mutated mid-build.
type Bundle struct {
	// Name is the bundle's label and the stem of the output artifact name.
	Name string

	// Entry is the path to the entry-point script.
	Entry string

	// SearchPath is the ordered list of roots against which module
	// identifiers are resolved. Order is significant: the first root
	// containing an identifier wins, with fall-through to later roots.
	SearchPath []string

	// HiddenImports lists module identifiers the static scan cannot see.
	// Each is resolved and re-scanned transitively on the same code path
	// as statically discovered references.
	HiddenImports []string

	// Excludes lists module identifiers to withhold from the closure.
	Excludes []string

	// Data lists data-resource paths to embed, resolved against SearchPath.
	Data []string

	Platform Platform
	Mode     Mode

	// Icon is an optional icon resource path, embedded for the stub to
	// apply at startup.
	Icon string

	// OutputDir receives the finished artifact. Outputs are staged in a
	// temporary file and renamed into place on success only.
	OutputDir string

	// ReadTimeout bounds every payload filesystem read; an expired read
	// fails the build rather than hang.
	ReadTimeout time.Duration
}

// OutputName returns the artifact file name for this bundle, appending the
// Windows executable suffix when required.
func (b *Bundle) OutputName() string {
	name := b.Name
	if b.Platform.OS == "windows" && filepath.Ext(name) != ".exe" {
		name += ".exe"
	}
	return name
}

// Validate checks the structural integrity of the bundle. It reports the
// first problem found; loaders call this before handing a bundle to the
// pipeline.
func (b *Bundle) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("bundle has no name")
	}
	if b.Entry == "" {
		return fmt.Errorf("bundle %q: entry is required", b.Name)
	}
	if len(b.SearchPath) == 0 {
		return fmt.Errorf("bundle %q: search_path must list at least one root", b.Name)
	}
	if b.Platform.OS == "" || b.Platform.Arch == "" {
		return fmt.Errorf("bundle %q: platform is required", b.Name)
	}
	switch b.Mode {
	case ModeConsole, ModeWindowed:
	default:
		return fmt.Errorf("bundle %q: mode must be %q or %q, got %q", b.Name, ModeConsole, ModeWindowed, b.Mode)
	}
	if b.ReadTimeout <= 0 {
		return fmt.Errorf("bundle %q: read timeout must be positive", b.Name)
	}
	return nil
}

// Model is the loader's complete output: every bundle declared across the
// loaded spec files plus the evaluated locals they were built from.
type Model struct {
	Locals  map[string]cty.Value
	Bundles map[string]*Bundle
}

// SortedBundles returns the bundles in name order, the order in which the
// pipeline processes them.
func (m *Model) SortedBundles() []*Bundle {
	names := make([]string, 0, len(m.Bundles))
	for name := range m.Bundles {
		names = append(names, name)
	}
	sort.Strings(names)

	bundles := make([]*Bundle, 0, len(names))
	for _, name := range names {
		bundles = append(bundles, m.Bundles[name])
	}
	return bundles
}
