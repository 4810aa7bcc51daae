package ports

import "github.com/RomanPilyushin/Backtesting-Engine/internal/domain"

// ArtifactStore persists run artifacts for reproducibility.
type ArtifactStore interface {
	SaveRun(run domain.RunArtifact) (id string, err error)
}

// RunCatalog lists and reads saved runs.
type RunCatalog interface {
	ListRuns() ([]domain.RunRef, error)
	LoadRun(id string) (domain.RunArtifact, error)
}
