package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/fsworkspace"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/logger"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/runstore"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/workspacefinder"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/ports"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/ui/tui"
)

// Exit codes by error kind. Anything unclassified exits 1.
const (
	exitFailure      = 1
	exitUsage        = 2
	exitNotFound     = 3
	exitInsufficient = 4
)

func Execute() {
	if err := newRoot().execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidConfig, domain.KindMissingVar:
		return exitUsage
	case domain.KindNotFound:
		return exitNotFound
	case domain.KindInsufficientData:
		return exitInsufficient
	}
	if errors.Is(err, domain.ErrInvalidConfig) {
		return exitUsage
	}
	return exitFailure
}

// root owns the command tree and the log file its pre-run hook opens.
type root struct {
	cmd      *cobra.Command
	closeLog func() error
}

// execute runs the command tree and closes the log file even when a command fails.
func (r *root) execute() error {
	defer func() {
		if r.closeLog != nil {
			_ = r.closeLog()
			r.closeLog = nil
		}
	}()
	return r.cmd.Execute()
}

func newRootCmd() *cobra.Command { return newRoot().cmd }

func newRoot() *root {
	var debug bool
	var workspace string
	r := &root{}

	cmd := &cobra.Command{
		Use:          "backtest",
		Short:        "Backtest trading strategies on historical daily prices",
		SilenceUsage: true,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			if c.Name() == "version" {
				return
			}
			r.closeLog, _ = logger.Setup(logger.Config{
				Root:  logRoot(workspace),
				Debug: debug,
			})
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			deps, err := tuiDeps(workspace, debug)
			if err != nil {
				return err
			}
			return tui.Run(deps)
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose logging to .backtest/logs/backtest.log")
	cmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")

	cmd.AddCommand(runCmd())
	cmd.AddCommand(validateCmd())
	cmd.AddCommand(pricesCmd())
	cmd.AddCommand(runsCmd())
	cmd.AddCommand(initCmd())
	cmd.AddCommand(versionCmd())
	r.cmd = cmd
	return r
}

// tuiDeps pins the browser to the --workspace directory when one is given;
// otherwise it searches upward from the working directory.
func tuiDeps(workspace string, debug bool) (tui.Deps, error) {
	deps := tui.Deps{
		WorkspaceLocator:     workspacefinder.NewFinder(),
		WorkspaceInitializer: fsworkspace.NewInitializer(),
		OpenCatalog:          openCatalog,
		Logger:               logger.L(),
		Debug:                debug,
	}
	if w := strings.TrimSpace(workspace); w != "" {
		abs, err := filepath.Abs(w)
		if err != nil {
			return tui.Deps{}, &domain.OpError{Op: "cli.workspace", Kind: domain.KindInvalidConfig, Path: w, Err: err}
		}
		deps.StartDir = abs
		deps.WorkspaceLocator = workspacefinder.NewFinder(workspacefinder.WithLookupEnv(
			func(k string) (string, bool) {
				if k == workspacefinder.EnvWorkspace {
					return abs, true
				}
				return "", false
			}))
	}
	return deps, nil
}

// logRoot is the workspace root when one is found, else the working directory.
func logRoot(workspace string) string {
	if root, err := resolveWorkspaceRoot(workspace); err == nil {
		return root
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	wd, _ = filepath.Abs(wd)
	return wd
}

func openCatalog(root string) (ports.RunCatalog, error) {
	cfg, err := workspacefinder.LoadConfig(root)
	if err != nil {
		return nil, err
	}
	return runstore.NewJSONStore(root, cfg), nil
}
