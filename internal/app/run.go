package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vk/onepack/internal/analyzer"
	"github.com/vk/onepack/internal/archive"
	"github.com/vk/onepack/internal/builder"
	"github.com/vk/onepack/internal/config"
	"github.com/vk/onepack/internal/ctxlog"
	"github.com/vk/onepack/internal/launcher"
)

// CodedError carries a specific process exit code up to main, used by the
// diagnostics verify mode to mirror the generated launcher's exit contract.
type CodedError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	return e.Err.Error()
}

// Unwrap exposes the underlying cause.
func (e *CodedError) Unwrap() error {
	return e.Err
}

// Run executes the main application logic: either one of the diagnostics
// modes, or the full pipeline for every bundle in the loaded spec.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.InspectPath != "" {
		return a.inspect(a.config.InspectPath)
	}
	if a.config.VerifyPath != "" {
		return a.verify(a.config.VerifyPath)
	}

	bundles := a.model.SortedBundles()
	a.logger.Info("🚀 Starting bundle pipeline...", "bundles", len(bundles))

	for _, bundle := range bundles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.runBundle(ctx, bundle); err != nil {
			return fmt.Errorf("bundle %q failed: %w", bundle.Name, err)
		}
	}

	a.logger.Info("🏁 All bundles built.")
	a.logger.Debug("App.Run method finished.")
	return nil
}

// runBundle drives one bundle through the three stages in strict order. The
// manifest is the sole input to the builder and the archive the sole payload
// of the generator; nothing flows backwards.
func (a *App) runBundle(ctx context.Context, bundle *config.Bundle) error {
	buildID := uuid.NewString()
	logger := a.logger.With("bundle", bundle.Name, "build_id", buildID)
	ctx = ctxlog.WithLogger(ctx, logger)

	logger.Info("Building bundle.", "entry", bundle.Entry, "platform", bundle.Platform.String(), "mode", string(bundle.Mode))

	man, err := analyzer.New(bundle, a.config.WorkerCount).Analyze(ctx)
	if err != nil {
		return err
	}
	logger.Info("Dependency closure computed.", "modules", man.Len(), "edges", len(man.Edges()))

	arch, err := builder.New(bundle, a.config.WorkerCount).Build(ctx, man)
	if err != nil {
		return err
	}
	logger.Info("Archive assembled.", "entries", len(arch.Index), "bytes", len(arch.Blob))

	path, err := launcher.New(bundle, a.stubs).Generate(ctx, arch, man.EntryID())
	if err != nil {
		return err
	}
	logger.Info("Artifact ready.", "path", path)
	return nil
}

// inspect prints the archive index of an already-built artifact, the stable
// introspection surface for external diagnostics tooling.
func (a *App) inspect(path string) error {
	reader, entryID, err := launcher.OpenArtifact(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.outW, "%s: %d entries, entry=%s\n", path, reader.Len(), entryID)
	for _, e := range reader.Index() {
		fmt.Fprintf(a.outW, "%s\tkind=%s offset=%d len=%d raw=%d checksum=%016x compressed=%t\n",
			e.ID, e.Kind, e.Offset, e.StoredLen, e.RawLen, e.Checksum, e.Compressed)
	}
	return nil
}

// verify runs the launcher's startup checks over an artifact, exiting with
// the launcher's own codes so external tooling can treat build-side and
// run-side failures uniformly: corrupted archives map to the corruption
// code, an archive whose recorded entry module is absent to the
// missing-entry code.
func (a *App) verify(path string) error {
	reader, entryID, err := launcher.OpenArtifact(path)
	if err == nil {
		if !reader.Contains(entryID) {
			return &CodedError{
				Code: launcher.ExitMissingEntryModule,
				Err:  fmt.Errorf("artifact %s is missing its entry module %q", path, entryID),
			}
		}
		err = reader.Verify()
	}
	if err != nil {
		var corrupt *archive.CorruptError
		if errors.As(err, &corrupt) {
			return &CodedError{Code: launcher.ExitCorruptedArchive, Err: err}
		}
		return err
	}
	fmt.Fprintf(a.outW, "%s: archive verified (entry %s)\n", path, entryID)
	return nil
}
