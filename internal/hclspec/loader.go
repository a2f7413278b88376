package hclspec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/onepack/internal/config"
	"github.com/vk/onepack/internal/ctxlog"
	"github.com/vk/onepack/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL spec loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load orchestrates the entire spec loading process: file discovery, parsing,
// locals evaluation, and translation of every bundle block into the
// format-agnostic model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL spec loader started.", "path_count", len(paths))

	specFiles, err := l.findSpecFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(specFiles) == 0 {
		return nil, fmt.Errorf("no .hcl spec files found under %v", paths)
	}
	logger.Debug("Discovered spec files.", "count", len(specFiles))

	parser := hclparse.NewParser()
	var roots []*fileRoot

	for _, file := range specFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse spec file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode spec file %s: %w", file, diags)
		}
		roots = append(roots, &root)
	}

	locals, err := l.evaluateLocals(roots)
	if err != nil {
		return nil, err
	}
	logger.Debug("Locals evaluated.", "count", len(locals))

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"local": cty.ObjectVal(locals),
		},
	}

	model := &config.Model{
		Locals:  locals,
		Bundles: make(map[string]*config.Bundle),
	}
	for _, root := range roots {
		for _, block := range root.Bundles {
			bundle, err := l.translateBundle(block, evalCtx)
			if err != nil {
				return nil, err
			}
			if _, exists := model.Bundles[bundle.Name]; exists {
				return nil, fmt.Errorf("duplicate bundle %q declared", bundle.Name)
			}
			if err := bundle.Validate(); err != nil {
				return nil, err
			}
			model.Bundles[bundle.Name] = bundle
		}
	}

	if len(model.Bundles) == 0 {
		return nil, fmt.Errorf("spec files declare no bundle blocks")
	}

	logger.Debug("Spec loading complete.", "bundles", len(model.Bundles))
	return model, nil
}

// evaluateLocals collects every attribute of every locals block into one
// namespace. Locals are literal values; a local may not reference another
// local. Duplicate names across files are rejected.
func (l *Loader) evaluateLocals(roots []*fileRoot) (map[string]cty.Value, error) {
	locals := make(map[string]cty.Value)
	for _, root := range roots {
		for _, block := range root.Locals {
			attrs, diags := block.Body.JustAttributes()
			if diags.HasErrors() {
				return nil, fmt.Errorf("invalid locals block: %w", diags)
			}
			for name, attr := range attrs {
				if _, exists := locals[name]; exists {
					return nil, fmt.Errorf("duplicate local %q declared", name)
				}
				val, diags := attr.Expr.Value(nil)
				if diags.HasErrors() {
					return nil, fmt.Errorf("failed to evaluate local %q: %w", name, diags)
				}
				locals[name] = val
			}
		}
	}
	return locals, nil
}

// findSpecFiles accepts files and directories and returns the flat,
// deduplicated list of .hcl files they contain.
func (l *Loader) findSpecFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})

	add := func(file string) {
		if _, dup := seen[file]; !dup {
			all = append(all, file)
			seen[file] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing spec path %s: %w", path, err)
		}

		if info.IsDir() {
			files, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, err
			}
			for _, file := range files {
				add(file)
			}
			continue
		}
		if filepath.Ext(path) != ".hcl" {
			return nil, fmt.Errorf("spec file %s does not have the .hcl extension", path)
		}
		add(path)
	}
	return all, nil
}
