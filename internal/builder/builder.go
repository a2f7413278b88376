package builder

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/vk/onepack/internal/archive"
	"github.com/vk/onepack/internal/config"
	"github.com/vk/onepack/internal/ctxlog"
	"github.com/vk/onepack/internal/manifest"
)

// Builder assembles the archive for one bundle. It consumes the manifest
// read-only and owns archive-entry construction exclusively.
type Builder struct {
	cfg     *config.Bundle
	workers int
}

// New creates a builder for the given immutable bundle configuration.
func New(cfg *config.Bundle, workers int) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{cfg: cfg, workers: workers}
}

// Build reads every manifest module's payload concurrently, then assembles
// the archive in identifier order. The first read failure cancels in-flight
// work and fails the build.
func (b *Builder) Build(ctx context.Context, man *manifest.Manifest) (*archive.Archive, error) {
	logger := ctxlog.FromContext(ctx)

	refs := man.Modules()
	payloads := make([][]byte, len(refs))
	logger.Debug("Builder started.", "entries", len(refs), "workers", b.workers)

	readyChan := make(chan int, len(refs))
	for i := range refs {
		readyChan <- i
	}
	close(readyChan)

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	workers := min(b.workers, len(refs))
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(workerID int) {
			defer wg.Done()
			for i := range readyChan {
				if readCtx.Err() != nil {
					continue
				}
				ref := refs[i]
				payload, err := readPayload(readCtx, ref.Path, b.cfg.ReadTimeout)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = &PayloadReadError{ID: ref.ID, Path: ref.Path, Err: err}
						cancel()
					}
					mu.Unlock()
					continue
				}
				payloads[i] = payload
			}
		}(w)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// All per-entry work is done; assembly is sequential and ordered.
	w := archive.NewWriter()
	for i, ref := range refs {
		if err := w.Add(ref, payloads[i]); err != nil {
			return nil, err
		}
	}
	arch, err := w.Close()
	if err != nil {
		return nil, err
	}

	logger.Debug("Builder finished.", "entries", len(arch.Index), "bytes", len(arch.Blob))
	return arch, nil
}

// readPayload reads one payload file, bounded by the configured timeout so a
// stalled filesystem fails the build instead of hanging it.
func readPayload(ctx context.Context, path string, timeout time.Duration) ([]byte, error) {
	readCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := os.ReadFile(path)
		done <- result{data: data, err: err}
	}()

	select {
	case <-readCtx.Done():
		return nil, readCtx.Err()
	case r := <-done:
		return r.data, r.err
	}
}
