package config

import "context"

// Loader is the interface for a format-specific configuration loader. It
// reads spec files from the given paths, evaluates them, and returns the
// validated, format-agnostic model.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}
