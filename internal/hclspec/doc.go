// Package hclspec is the HCL implementation of the config.Loader interface.
//
// It discovers .hcl spec files under the given paths, decodes their `locals`
// and `bundle` blocks, evaluates bundle attributes with the locals in scope,
// and translates the result into the immutable config.Model the pipeline
// consumes. All parsing and expression evaluation happens here; downstream
// stages never see HCL types.
package hclspec
