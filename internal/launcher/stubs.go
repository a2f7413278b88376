package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/onepack/internal/config"
	"github.com/vk/onepack/internal/ctxlog"
)

// stubKey identifies one stub variant.
type stubKey struct {
	platform config.Platform
	mode     config.Mode
}

// Stubs is the registry of prebuilt bootstrap stubs, populated from the
// stubs directory at startup and then read-only. File names follow
// stub_<os>_<arch>_<mode>, with an optional .exe suffix for Windows hosts.
type Stubs struct {
	paths map[stubKey]string
}

// LoadStubs scans the stubs directory and registers every stub it finds.
// Unrecognized files are skipped with a debug note; a missing directory
// yields an empty registry, surfacing later as UnsupportedPlatformError for
// whichever bundle first needs a stub.
func LoadStubs(ctx context.Context, dir string) (*Stubs, error) {
	logger := ctxlog.FromContext(ctx)
	stubs := &Stubs{paths: make(map[stubKey]string)}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		logger.Warn("Stubs directory not found; no platforms available.", "dir", dir)
		return stubs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stubs directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, ok := parseStubName(entry.Name())
		if !ok {
			logger.Debug("Skipping unrecognized file in stubs directory.", "file", entry.Name())
			continue
		}
		if prev, dup := stubs.paths[key]; dup {
			return nil, fmt.Errorf("duplicate stub for %s/%s: %s and %s", key.platform, key.mode, prev, entry.Name())
		}
		stubs.paths[key] = filepath.Join(dir, entry.Name())
	}

	logger.Debug("Stub registry populated.", "stubs", len(stubs.paths), "dir", dir)
	return stubs, nil
}

// Lookup returns the stub path for a platform and presentation mode.
func (s *Stubs) Lookup(platform config.Platform, mode config.Mode) (string, error) {
	path, ok := s.paths[stubKey{platform: platform, mode: mode}]
	if !ok {
		return "", &UnsupportedPlatformError{Platform: platform, Mode: mode}
	}
	return path, nil
}

// Len returns the number of registered stubs.
func (s *Stubs) Len() int {
	return len(s.paths)
}

// parseStubName decodes stub_<os>_<arch>_<mode>[.exe].
func parseStubName(name string) (stubKey, bool) {
	name = strings.TrimSuffix(name, ".exe")
	parts := strings.Split(name, "_")
	if len(parts) != 4 || parts[0] != "stub" {
		return stubKey{}, false
	}
	mode := config.Mode(parts[3])
	if mode != config.ModeConsole && mode != config.ModeWindowed {
		return stubKey{}, false
	}
	return stubKey{
		platform: config.Platform{OS: parts[1], Arch: parts[2]},
		mode:     mode,
	}, true
}
