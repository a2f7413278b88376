package launcher

import (
	"fmt"

	"github.com/vk/onepack/internal/config"
)

// UnsupportedPlatformError reports a bundle targeting a platform and
// presentation mode with no corresponding bootstrap stub.
type UnsupportedPlatformError struct {
	Platform config.Platform
	Mode     config.Mode
}

// Error implements the error interface.
func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("no bootstrap stub for platform %s in %s mode", e.Platform, e.Mode)
}
