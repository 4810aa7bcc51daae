package tui

import (
	"log/slog"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/ports"
)

// Deps wires the run browser to the workspace on disk. Nil funcs and
// interfaces surface as toasts rather than panics.
type Deps struct {
	WorkspaceLocator     ports.WorkspaceLocator
	WorkspaceInitializer ports.WorkspaceInitializer
	OpenCatalog          func(root string) (ports.RunCatalog, error)

	// StartDir is where the workspace search and "init here" start.
	// Empty means the working directory.
	StartDir string

	Logger *slog.Logger
	Debug  bool
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger.With("component", "tui")
}
