// Package config defines the format-agnostic Build Configuration model.
//
// A Bundle is the immutable input set for one pipeline invocation: it is
// constructed exactly once by a Loader from the operator's declarative spec
// files, validated, and then consumed read-only by the analyzer, the archive
// builder and the launcher generator. There is no mid-build reconfiguration;
// any field that needs to vary requires a new Bundle and a new build.
//
// Keeping the model separate from the HCL adapter mirrors the split between
// "what the operator wrote" and "what the pipeline consumes": the loader owns
// parsing and expression evaluation, this package owns shape and validation.
package config
