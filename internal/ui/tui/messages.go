package tui

import "github.com/RomanPilyushin/Backtesting-Engine/internal/domain"

type workspaceRefreshedMsg struct {
	cwd   string
	found bool
	root  string
	err   error
}

type initWorkspaceDoneMsg struct {
	root string
	err  error
}

type runsLoadedMsg struct {
	root string
	refs []domain.RunRef
	err  error
}

type runLoadedMsg struct {
	id  string
	run domain.RunArtifact
	err error
}
