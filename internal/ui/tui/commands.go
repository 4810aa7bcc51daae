package tui

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/usecase"
)

func cmdRefreshWorkspace(deps Deps) tea.Cmd {
	return func() tea.Msg {
		wd := deps.StartDir
		if wd == "" {
			var err error
			if wd, err = os.Getwd(); err != nil {
				return workspaceRefreshedMsg{cwd: "", found: false, err: fmt.Errorf("getwd: %w", err)}
			}
		}
		if deps.WorkspaceLocator == nil {
			return workspaceRefreshedMsg{cwd: wd, found: false, err: errors.New("WorkspaceLocator is nil")}
		}

		root, findErr := deps.WorkspaceLocator.FindRoot(wd)
		if findErr != nil {
			return workspaceRefreshedMsg{cwd: wd, found: false, err: findErr}
		}

		return workspaceRefreshedMsg{cwd: wd, found: true, root: root, err: nil}
	}
}

func cmdInitWorkspaceHere(deps Deps, root string) tea.Cmd {
	return func() tea.Msg {
		abs, err := usecase.NewInitWorkspace(deps.WorkspaceInitializer).Execute(root, false)
		if err != nil {
			return initWorkspaceDoneMsg{root: root, err: err}
		}
		return initWorkspaceDoneMsg{root: abs}
	}
}

func cmdLoadRuns(deps Deps, root string) tea.Cmd {
	return func() tea.Msg {
		if deps.OpenCatalog == nil {
			return runsLoadedMsg{root: root, err: errors.New("OpenCatalog is nil")}
		}
		catalog, err := deps.OpenCatalog(root)
		if err != nil {
			return runsLoadedMsg{root: root, err: err}
		}

		refs, err := catalog.ListRuns()
		return runsLoadedMsg{root: root, refs: refs, err: err}
	}
}

func cmdLoadRun(deps Deps, root, id string) tea.Cmd {
	return func() tea.Msg {
		if deps.OpenCatalog == nil {
			return runLoadedMsg{id: id, err: errors.New("OpenCatalog is nil")}
		}
		catalog, err := deps.OpenCatalog(root)
		if err != nil {
			return runLoadedMsg{id: id, err: err}
		}

		run, err := catalog.LoadRun(id)
		return runLoadedMsg{id: id, run: run, err: err}
	}
}
