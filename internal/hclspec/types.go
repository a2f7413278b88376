package hclspec

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes all recognized top-level blocks from any spec file.
type fileRoot struct {
	Locals  []*localsBlock `hcl:"locals,block"`
	Bundles []*bundleBlock `hcl:"bundle,block"`
	Remain  hcl.Body       `hcl:",remain"`
}

// localsBlock holds the raw body of a `locals` block; its attributes are
// evaluated lazily so files can be decoded in any order.
type localsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// bundleBlock is the raw form of a `bundle` block. Attributes stay as
// expressions until translation so they can reference locals.
type bundleBlock struct {
	Name          string         `hcl:"name,label"`
	Entry         hcl.Expression `hcl:"entry"`
	SearchPath    hcl.Expression `hcl:"search_path"`
	HiddenImports hcl.Expression `hcl:"hidden_imports,optional"`
	Excludes      hcl.Expression `hcl:"excludes,optional"`
	Data          hcl.Expression `hcl:"data,optional"`
	Platform      hcl.Expression `hcl:"platform"`
	Mode          hcl.Expression `hcl:"mode,optional"`
	Icon          hcl.Expression `hcl:"icon,optional"`
	Output        hcl.Expression `hcl:"output,optional"`
	ReadTimeout   hcl.Expression `hcl:"read_timeout,optional"`
}
