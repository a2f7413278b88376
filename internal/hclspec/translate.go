package hclspec

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/onepack/internal/config"
)

// defaultReadTimeout bounds payload filesystem reads when the spec does not
// set read_timeout.
const defaultReadTimeout = 30 * time.Second

// translateBundle evaluates a raw bundle block into an immutable
// config.Bundle, applying defaults for the optional attributes.
func (l *Loader) translateBundle(block *bundleBlock, evalCtx *hcl.EvalContext) (*config.Bundle, error) {
	fail := func(attr string, err error) error {
		return fmt.Errorf("bundle %q: attribute %q: %w", block.Name, attr, err)
	}

	entry, err := evalString(block.Entry, evalCtx)
	if err != nil {
		return nil, fail("entry", err)
	}
	searchPath, err := evalStringList(block.SearchPath, evalCtx)
	if err != nil {
		return nil, fail("search_path", err)
	}
	hidden, err := evalStringList(block.HiddenImports, evalCtx)
	if err != nil {
		return nil, fail("hidden_imports", err)
	}
	excludes, err := evalStringList(block.Excludes, evalCtx)
	if err != nil {
		return nil, fail("excludes", err)
	}
	data, err := evalStringList(block.Data, evalCtx)
	if err != nil {
		return nil, fail("data", err)
	}
	platformStr, err := evalString(block.Platform, evalCtx)
	if err != nil {
		return nil, fail("platform", err)
	}
	platform, err := config.ParsePlatform(platformStr)
	if err != nil {
		return nil, fail("platform", err)
	}
	modeStr, err := evalString(block.Mode, evalCtx)
	if err != nil {
		return nil, fail("mode", err)
	}
	if modeStr == "" {
		modeStr = string(config.ModeConsole)
	}
	icon, err := evalString(block.Icon, evalCtx)
	if err != nil {
		return nil, fail("icon", err)
	}
	output, err := evalString(block.Output, evalCtx)
	if err != nil {
		return nil, fail("output", err)
	}
	if output == "" {
		output = "dist"
	}
	timeoutStr, err := evalString(block.ReadTimeout, evalCtx)
	if err != nil {
		return nil, fail("read_timeout", err)
	}
	timeout := defaultReadTimeout
	if timeoutStr != "" {
		timeout, err = time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fail("read_timeout", err)
		}
	}

	return &config.Bundle{
		Name:          block.Name,
		Entry:         entry,
		SearchPath:    searchPath,
		HiddenImports: hidden,
		Excludes:      excludes,
		Data:          data,
		Platform:      platform,
		Mode:          config.Mode(modeStr),
		Icon:          icon,
		OutputDir:     output,
		ReadTimeout:   timeout,
	}, nil
}

// evalString evaluates an optional string attribute. A nil expression (the
// attribute was omitted) yields the empty string.
func evalString(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	if expr == nil {
		return "", nil
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", diags
	}
	if val.IsNull() {
		return "", nil
	}
	val, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", err
	}
	return val.AsString(), nil
}

// evalStringList evaluates an optional list-of-strings attribute. A nil
// expression yields a nil slice.
func evalStringList(expr hcl.Expression, evalCtx *hcl.EvalContext) ([]string, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.CanIterateElements() {
		return nil, fmt.Errorf("expected a list of strings")
	}

	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		elem, err := convert.Convert(elem, cty.String)
		if err != nil {
			return nil, err
		}
		out = append(out, elem.AsString())
	}
	return out, nil
}
