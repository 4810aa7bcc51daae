package usecase

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/ports"
)

// InitWorkspace creates backtest.yaml, secrets.local.yaml, the runs and data
// dirs and the .gitignore entries of a workspace.
type InitWorkspace struct {
	initializer ports.WorkspaceInitializer
	getwd       func() (string, error)
}

func NewInitWorkspace(initializer ports.WorkspaceInitializer) *InitWorkspace {
	return &InitWorkspace{initializer: initializer, getwd: os.Getwd}
}

// Execute initialises root, or the working directory when root is empty, and
// returns the absolute root it used.
func (uc *InitWorkspace) Execute(root string, force bool) (string, error) {
	if uc.initializer == nil {
		return "", &domain.OpError{Op: "workspace.init", Kind: domain.KindInvalidConfig,
			Err: errors.New("no workspace initializer")}
	}
	if root == "" {
		wd, err := uc.getwd()
		if err != nil {
			return "", &domain.OpError{Op: "workspace.init", Kind: domain.KindExecution,
				Err: fmt.Errorf("get working directory: %w", err)}
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &domain.OpError{Op: "workspace.init", Kind: domain.KindInvalidConfig, Path: root, Err: err}
	}
	if st, err := os.Stat(abs); err == nil && !st.IsDir() {
		return "", &domain.OpError{Op: "workspace.init", Kind: domain.KindInvalidConfig, Path: abs,
			Err: errors.New("path exists and is not a directory")}
	}

	if err := uc.initializer.Init(domain.WorkspaceSpec{Root: abs}, force); err != nil {
		return "", err
	}
	return abs, nil
}
