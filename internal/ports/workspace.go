package ports

import "github.com/RomanPilyushin/Backtesting-Engine/internal/domain"

// WorkspaceLocator resolves the workspace root that contains startDir.
type WorkspaceLocator interface {
	FindRoot(startDir string) (string, error)
}

// WorkspaceInitializer lays out a new workspace on disk.
type WorkspaceInitializer interface {
	Init(spec domain.WorkspaceSpec, force bool) error
}
