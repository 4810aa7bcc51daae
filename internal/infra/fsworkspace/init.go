package fsworkspace

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/ports"
)

// Directories created under every workspace root.
var workspaceDirs = []string{
	"runs",
	"data",
	filepath.Join(".backtest", "logs"),
}

// Lines the workspace .gitignore must carry, under ignoreHeader.
const ignoreHeader = "# backtest"

var ignoreEntries = []string{
	"runs/",
	".backtest/",
	"secrets.local.yaml",
}

type Initializer struct{}

func NewInitializer() *Initializer {
	return &Initializer{}
}

var _ ports.WorkspaceInitializer = (*Initializer)(nil)

// Init lays out a workspace at spec.Root. Existing files are kept unless force is set.
func (i *Initializer) Init(spec domain.WorkspaceSpec, force bool) error {
	root := filepath.Clean(spec.Root)

	for _, d := range workspaceDirs {
		dir := filepath.Join(root, d)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return initErr("fsworkspace.mkdir", dir, err)
		}
	}
	if err := ensureGitignore(root); err != nil {
		return initErr("fsworkspace.gitignore", root, err)
	}

	entries, err := fs.ReadDir(templatesFS, "templates")
	if err != nil {
		return initErr("fsworkspace.templates", "", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		dst := filepath.Join(root, e.Name())
		if err := writeTemplate(e.Name(), dst, force); err != nil {
			return initErr("fsworkspace.template", dst, err)
		}
	}
	return nil
}

// writeTemplate copies templates/name to dst. Secrets files are owner-only.
func writeTemplate(name, dst string, force bool) error {
	if !force {
		if _, err := os.Stat(dst); err == nil {
			return nil
		}
	}
	b, err := fs.ReadFile(templatesFS, path.Join("templates", name))
	if err != nil {
		return err
	}

	mode := fs.FileMode(0o644)
	if strings.Contains(strings.ToLower(name), "secrets") {
		mode = 0o600
	}
	if err := os.WriteFile(dst, b, mode); err != nil {
		return err
	}
	// an overwritten file keeps its old mode otherwise
	return os.Chmod(dst, mode)
}

func initErr(op, p string, err error) error {
	return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: p, Err: err}
}

func ensureGitignore(root string) error {
	p := filepath.Join(root, ".gitignore")
	b, err := os.ReadFile(p)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	merged, changed := mergeIgnore(string(b), ignoreEntries)
	if !changed {
		return nil
	}
	return os.WriteFile(p, []byte(merged), 0o644)
}

// mergeIgnore appends the entries missing from existing, preceded by
// ignoreHeader unless it is already present.
func mergeIgnore(existing string, entries []string) (string, bool) {
	have := make(map[string]struct{})
	for _, line := range strings.Split(existing, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			have[line] = struct{}{}
		}
	}

	var block []string
	if _, ok := have[ignoreHeader]; !ok {
		block = append(block, ignoreHeader)
	}
	missing := 0
	for _, e := range entries {
		if _, ok := have[e]; !ok {
			block = append(block, e)
			missing++
		}
	}
	if missing == 0 {
		return existing, false
	}

	var sb strings.Builder
	if existing != "" {
		sb.WriteString(existing)
		if !strings.HasSuffix(existing, "\n") {
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	for _, l := range block {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String(), true
}
