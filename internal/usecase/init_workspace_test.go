package usecase

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

type fakeInitializer struct {
	got   []domain.WorkspaceSpec
	force bool
	err   error
}

func (f *fakeInitializer) Init(spec domain.WorkspaceSpec, force bool) error {
	f.got = append(f.got, spec)
	f.force = force
	return f.err
}

func TestInitWorkspace_ResolvesAbsoluteRoot(t *testing.T) {
	dir := t.TempDir()
	fi := &fakeInitializer{}

	root, err := NewInitWorkspace(fi).Execute(filepath.Join(dir, "ws", ".."), true)
	require.NoError(t, err)
	assert.Equal(t, dir, root)
	require.Len(t, fi.got, 1)
	assert.Equal(t, dir, fi.got[0].Root)
	assert.True(t, fi.force)
}

func TestInitWorkspace_EmptyRootUsesWorkingDir(t *testing.T) {
	dir := t.TempDir()
	fi := &fakeInitializer{}
	uc := NewInitWorkspace(fi)
	uc.getwd = func() (string, error) { return dir, nil }

	root, err := uc.Execute("", false)
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}

func TestInitWorkspace_Errors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewInitWorkspace(&fakeInitializer{}).Execute(file, false)
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig), "got %v", err)

	_, err = NewInitWorkspace(nil).Execute(t.TempDir(), false)
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig), "got %v", err)

	boom := errors.New("disk full")
	_, err = NewInitWorkspace(&fakeInitializer{err: boom}).Execute(t.TempDir(), false)
	assert.ErrorIs(t, err, boom)
}
