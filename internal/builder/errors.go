package builder

import "fmt"

// PayloadReadError reports a module whose backing file could not be read
// during archive assembly, after the analyzer had already resolved it.
type PayloadReadError struct {
	ID   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PayloadReadError) Error() string {
	return fmt.Sprintf("failed to read payload for %q from %s: %v", e.ID, e.Path, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *PayloadReadError) Unwrap() error {
	return e.Err
}
