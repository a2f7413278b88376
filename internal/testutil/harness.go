// Package testutil provides the shared harness for integration tests: it
// materializes a spec-and-source tree in a temporary directory, supplies
// fake bootstrap stubs, and runs the full pipeline against it.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/onepack/internal/app"
	"github.com/vk/onepack/internal/hclspec"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// FakeStub is the payload written for every fake bootstrap stub. Generated
// test artifacts begin with these bytes.
var FakeStub = []byte("#!fake-stub\x00onepack-test-bootstrap\x00")

// StubFileName returns the registry file name for a stub variant.
func StubFileName(osName, arch, mode string) string {
	return fmt.Sprintf("stub_%s_%s_%s", osName, arch, mode)
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Dir       string
}

// WriteTree writes the given relative-path → content map under a fresh
// temporary directory and returns its root.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	tmpDir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return tmpDir
}

// RunPipelineTest provides a standardized harness for running integration
// tests using a default background context.
func RunPipelineTest(t *testing.T, files map[string]string) *HarnessResult {
	t.Helper()
	return RunPipelineTestWithContext(context.Background(), t, files)
}

// RunPipelineTestWithContext materializes the file tree, provisions fake
// stubs for the common test platforms unless the tree brings its own, and
// runs the application against it. Spec files may use paths relative to the
// tree root; the harness switches the working directory accordingly.
func RunPipelineTestWithContext(ctx context.Context, t *testing.T, files map[string]string) *HarnessResult {
	t.Helper()

	tmpDir := WriteTree(t, files)

	hasStubs := false
	for name := range files {
		if filepath.Dir(name) == "stubs" {
			hasStubs = true
			break
		}
	}
	if !hasStubs {
		stubsDir := filepath.Join(tmpDir, "stubs")
		require.NoError(t, os.MkdirAll(stubsDir, 0o755))
		for _, platform := range [][2]string{{"linux", "amd64"}, {"windows", "amd64"}} {
			for _, mode := range []string{"console", "windowed"} {
				name := StubFileName(platform[0], platform[1], mode)
				require.NoError(t, os.WriteFile(filepath.Join(stubsDir, name), FakeStub, 0o755))
			}
		}
	}

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	appConfig, err := app.NewConfig(app.Config{
		SpecPath:    ".",
		StubsPath:   "stubs",
		LogFormat:   "text",
		LogLevel:    "debug",
		WorkerCount: 4,
	})
	require.NoError(t, err)

	result := &HarnessResult{Dir: tmpDir}
	var buf SafeBuffer

	// app.NewApp panics on spec load failures; fold those into the result
	// the way main does.
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked: %v", r)
			}
		}()
		pipelineApp := app.NewApp(&buf, appConfig, hclspec.NewLoader())
		result.App = pipelineApp
		result.Err = pipelineApp.Run(ctx)
	}()

	result.LogOutput = buf.String()
	return result
}
