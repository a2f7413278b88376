package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/onepack/internal/archive"
	"github.com/vk/onepack/internal/config"
	"github.com/vk/onepack/internal/ctxlog"
)

// Generator assembles the final executable artifact for one bundle.
type Generator struct {
	cfg   *config.Bundle
	stubs *Stubs
}

// New creates a generator for the given immutable bundle configuration.
func New(cfg *config.Bundle, stubs *Stubs) *Generator {
	return &Generator{cfg: cfg, stubs: stubs}
}

// Generate writes stub + archive + trailer to the bundle's output directory
// and returns the artifact path. The artifact is staged under a temporary
// name and renamed into place only after it verifies end to end, so a failed
// or cancelled build never leaves a partial artifact as the current output.
func (g *Generator) Generate(ctx context.Context, arch *archive.Archive, entryID string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	stubPath, err := g.stubs.Lookup(g.cfg.Platform, g.cfg.Mode)
	if err != nil {
		return "", err
	}
	stub, err := os.ReadFile(stubPath)
	if err != nil {
		return "", fmt.Errorf("failed to read bootstrap stub %s: %w", stubPath, err)
	}
	logger.Debug("Bootstrap stub selected.", "stub", stubPath, "platform", g.cfg.Platform, "mode", g.cfg.Mode)

	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	finalPath := filepath.Join(g.cfg.OutputDir, g.cfg.OutputName())
	tmpPath := filepath.Join(g.cfg.OutputDir, ".tmp-"+g.cfg.OutputName())

	artifact := make([]byte, 0, len(stub)+len(arch.Blob)+len(entryID)+TrailerSize)
	artifact = append(artifact, stub...)
	artifact = append(artifact, arch.Blob...)
	artifact = append(artifact, encodeTrailer(uint64(len(stub)), uint64(len(arch.Blob)), entryID)...)

	if err := os.WriteFile(tmpPath, artifact, 0o755); err != nil {
		return "", fmt.Errorf("failed to stage artifact: %w", err)
	}
	// Best effort: remove the staged file on any failure past this point.
	defer os.Remove(tmpPath)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Re-open the staged artifact exactly as the stub will and run the full
	// integrity pass. A generator that cannot read its own output back must
	// not publish it.
	reader, stagedEntry, err := OpenArtifact(tmpPath)
	if err != nil {
		return "", fmt.Errorf("staged artifact failed verification: %w", err)
	}
	if stagedEntry != entryID {
		return "", fmt.Errorf("staged artifact records entry %q, expected %q", stagedEntry, entryID)
	}
	if !reader.Contains(entryID) {
		return "", fmt.Errorf("staged artifact is missing the entry module %q", entryID)
	}
	if err := reader.Verify(); err != nil {
		return "", fmt.Errorf("staged artifact failed verification: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("failed to publish artifact: %w", err)
	}
	logger.Debug("Artifact published.", "path", finalPath, "bytes", len(artifact))
	return finalPath, nil
}
