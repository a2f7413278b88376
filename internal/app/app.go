package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/onepack/internal/config"
	"github.com/vk/onepack/internal/ctxlog"
	"github.com/vk/onepack/internal/launcher"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	model  *config.Model
	stubs  *launcher.Stubs
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, the loaded spec
// model and the populated stub registry. Diagnostics modes skip spec
// loading; they operate on an already-built artifact.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) *App {
	logger := newLogger(appConfig, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	app := &App{
		outW:   outW,
		logger: logger,
		config: appConfig,
	}
	if appConfig.InspectPath != "" || appConfig.VerifyPath != "" {
		return app
	}

	model, err := loader.Load(ctx, appConfig.SpecPath)
	if err != nil {
		// A failure to load the spec is a fatal startup error.
		panic(fmt.Errorf("failed to load spec: %w", err))
	}
	logger.Debug("Spec loaded and translated into unified model.", "bundles", len(model.Bundles))

	stubs, err := launcher.LoadStubs(ctx, appConfig.StubsPath)
	if err != nil {
		panic(fmt.Errorf("failed to load stub registry: %w", err))
	}

	app.model = model
	app.stubs = stubs
	return app
}

// Model returns the loaded spec model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
