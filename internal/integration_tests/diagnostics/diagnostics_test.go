package integration_tests

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/onepack/internal/app"
	"github.com/vk/onepack/internal/hclspec"
	"github.com/vk/onepack/internal/launcher"
	"github.com/vk/onepack/internal/testutil"
)

// buildArtifact runs the full pipeline once and returns the published
// artifact path.
func buildArtifact(t *testing.T) string {
	t.Helper()
	result := testutil.RunPipelineTest(t, map[string]string{
		"bundle.hcl": `
bundle "app" {
  entry       = "src/main.py"
  search_path = ["src"]
  platform    = "linux/amd64"
}
`,
		"src/main.py":   "import engine\n",
		"src/engine.py": "x = 1\n",
	})
	require.NoError(t, result.Err, result.LogOutput)
	return filepath.Join(result.Dir, "dist", "app")
}

// runDiagnostics executes the app in one of the artifact diagnostics modes.
func runDiagnostics(t *testing.T, cfg app.Config) (string, error) {
	t.Helper()
	cfg.LogFormat = "text"
	cfg.LogLevel = "error"
	cfg.WorkerCount = 1

	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	var buf testutil.SafeBuffer
	diagApp := app.NewApp(&buf, appConfig, hclspec.NewLoader())
	runErr := diagApp.Run(context.Background())
	return buf.String(), runErr
}

// Test for: inspect dumps the archive index of a built artifact without
// re-running any pipeline stage.
func TestDiagnostics_Inspect(t *testing.T) {
	// --- Arrange ---
	artifact := buildArtifact(t)

	// --- Act ---
	out, err := runDiagnostics(t, app.Config{InspectPath: artifact})

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, out, "2 entries")
	assert.Contains(t, out, "entry=main")
	assert.Contains(t, out, "engine")
	assert.Contains(t, out, "kind=source")
}

// Test for: verify passes on an intact artifact.
func TestDiagnostics_VerifyIntact(t *testing.T) {
	// --- Arrange ---
	artifact := buildArtifact(t)

	// --- Act ---
	out, err := runDiagnostics(t, app.Config{VerifyPath: artifact})

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, out, "archive verified")
}

// Test for: verify maps a corrupted archive to the launcher's own exit code.
func TestDiagnostics_VerifyCorrupted(t *testing.T) {
	// --- Arrange ---
	artifact := buildArtifact(t)
	data, err := os.ReadFile(artifact)
	require.NoError(t, err)
	data[len(testutil.FakeStub)] ^= 0xff
	require.NoError(t, os.WriteFile(artifact, data, 0o755))

	// --- Act ---
	_, runErr := runDiagnostics(t, app.Config{VerifyPath: artifact})

	// --- Assert ---
	var coded *app.CodedError
	require.ErrorAs(t, runErr, &coded)
	assert.Equal(t, launcher.ExitCorruptedArchive, coded.Code)
}

// Test for: an artifact whose recorded entry module is absent from the
// archive maps to the launcher's missing-entry exit code.
func TestDiagnostics_VerifyMissingEntry(t *testing.T) {
	// --- Arrange ---
	artifact := buildArtifact(t)
	data, err := os.ReadFile(artifact)
	require.NoError(t, err)

	// The entry identifier sits immediately before the fixed trailer;
	// rewrite it in place with an identifier the archive does not contain.
	entryStart := len(data) - launcher.TrailerSize - len("main")
	copy(data[entryStart:], "nope")
	require.NoError(t, os.WriteFile(artifact, data, 0o755))

	// --- Act ---
	_, runErr := runDiagnostics(t, app.Config{VerifyPath: artifact})

	// --- Assert ---
	var coded *app.CodedError
	require.ErrorAs(t, runErr, &coded)
	assert.Equal(t, launcher.ExitMissingEntryModule, coded.Code)
	assert.Contains(t, coded.Error(), `"nope"`)
}

// Test for: verify on something that is not an artifact at all is still a
// corrupted-archive condition.
func TestDiagnostics_VerifyNonArtifact(t *testing.T) {
	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "random")
	require.NoError(t, os.WriteFile(path, make([]byte, 128), 0o644))

	// --- Act ---
	_, runErr := runDiagnostics(t, app.Config{VerifyPath: path})

	// --- Assert ---
	var coded *app.CodedError
	require.ErrorAs(t, runErr, &coded)
	assert.Equal(t, launcher.ExitCorruptedArchive, coded.Code)
}

// Test for: inspect on a missing file reports a plain error, not a panic.
func TestDiagnostics_InspectMissingFile(t *testing.T) {
	_, runErr := runDiagnostics(t, app.Config{InspectPath: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, runErr)
	assert.True(t, errors.Is(runErr, os.ErrNotExist))
}
