package app

import (
	"io"
	"log/slog"

	"github.com/atmogrid/atmogrid/internal/loader"
	"github.com/atmogrid/atmogrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader *loader.Loader
	packs  []registry.Pack
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger. When no packs are
// given, the compiled-in core packs are used, parameterized by the
// configured conversion options.
func NewApp(outW io.Writer, logW io.Writer, cfg *Config, packs ...registry.Pack) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		loader: loader.New(),
		packs:  packs,
	}
}

// Logger returns the application's logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
