package manifest

// Kind classifies a module reference's payload.
type Kind int

const (
	// KindSource is script source or bytecode.
	KindSource Kind = iota
	// KindNative is a compiled extension; its payload is alignment-sensitive
	// and is never compressed in the archive.
	KindNative
	// KindData is an opaque data resource.
	KindData
)

// String returns a short human-readable kind tag.
func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindNative:
		return "native"
	case KindData:
		return "data"
	}
	return "unknown"
}

// IconID is the reserved identifier of the icon resource entry. The platform
// stub looks it up at startup; no operator-declared module may claim it.
const IconID = "__icon__"

// Provenance records how a dependency edge was discovered.
type Provenance int

const (
	// StaticScan marks an edge found by parsing a literal import statement.
	StaticScan Provenance = iota
	// DeclaredHint marks an edge introduced by the operator's hidden-import
	// or data list.
	DeclaredHint
	// PlatformStub marks an edge synthesized for a platform-specific
	// substitute module.
	PlatformStub
)

// String returns a short human-readable provenance tag.
func (p Provenance) String() string {
	switch p {
	case StaticScan:
		return "static-scan"
	case DeclaredHint:
		return "declared-hint"
	case PlatformStub:
		return "platform-stub"
	}
	return "unknown"
}

// Ref uniquely identifies one module within a manifest. Identifiers are
// dotted module paths for code and slash-separated paths for data resources.
type Ref struct {
	// ID is the identifier the launcher resolves at run time.
	ID string
	// Kind classifies the payload.
	Kind Kind
	// Path is the resolved filesystem location of the payload, recorded by
	// whichever search root won resolution.
	Path string
}

// Edge is one (referrer → referenced) dependency discovery. Edges never
// affect the module set; they exist so diagnostics can answer why a module
// was included.
type Edge struct {
	From       string
	To         string
	Provenance Provenance
}
