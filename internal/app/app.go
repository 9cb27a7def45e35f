package app

import (
	"io"

	"go.uber.org/zap"
)

// Options configures the top-level controller.
type Options struct {
	// Logger receives diagnostics; nil discards them.
	Logger *zap.Logger
	// Out receives report lines; nil discards them.
	Out io.Writer
	// Color styles result tags.
	Color bool
}

// App exposes the operations the CLI and TUI share.
type App struct {
	logger *zap.Logger
	out    io.Writer
	color  bool
}

// New constructs the shared controller facade.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	return &App{
		logger: logger,
		out:    out,
		color:  opts.Color,
	}
}
