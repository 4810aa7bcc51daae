package workspacefinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

// EnvWorkspace pins the workspace root and disables the upward search.
const EnvWorkspace = "BACKTEST_WORKSPACE"

// Finder locates a workspace root: the directory holding backtest.yaml,
// searched from a start directory upward unless EnvWorkspace is set.
type Finder struct {
	ConfigFile string
	lookupEnv  func(string) (string, bool)
}

type FinderOption func(*Finder)

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) FinderOption {
	return func(f *Finder) { f.lookupEnv = fn }
}

func NewFinder(opts ...FinderOption) *Finder {
	f := &Finder{ConfigFile: ConfigFile, lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Finder) FindRoot(startDir string) (string, error) {
	if pinned, ok := f.lookupEnv(EnvWorkspace); ok && pinned != "" {
		return f.pinned(pinned)
	}
	if startDir == "" {
		return "", findErr(domain.KindInvalidConfig, "", errors.New("start directory is empty"))
	}

	dir, err := dirOf(startDir)
	if err != nil {
		return "", findErr(domain.KindExecution, startDir, err)
	}
	for {
		if f.holdsConfig(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", findErr(domain.KindNotFound, startDir, domain.ErrNotFound)
		}
		dir = parent
	}
}

func (f *Finder) pinned(path string) (string, error) {
	dir, err := dirOf(path)
	if err != nil {
		return "", findErr(domain.KindExecution, path, err)
	}
	if !f.holdsConfig(dir) {
		return "", findErr(domain.KindNotFound, dir,
			fmt.Errorf("%s points at a directory without %s: %w", EnvWorkspace, f.ConfigFile, domain.ErrNotFound))
	}
	return dir, nil
}

func (f *Finder) holdsConfig(dir string) bool {
	st, err := os.Stat(filepath.Join(dir, f.ConfigFile))
	return err == nil && !st.IsDir()
}

// dirOf makes p absolute and, when p names a file, returns its directory.
func dirOf(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if st, err := os.Stat(abs); err == nil && !st.IsDir() {
		abs = filepath.Dir(abs)
	}
	return filepath.Clean(abs), nil
}

func findErr(kind domain.ErrorKind, path string, err error) error {
	return &domain.OpError{Op: "workspacefinder.findroot", Kind: kind, Path: path, Err: err}
}
