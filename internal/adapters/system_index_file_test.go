package adapters

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSystemIndexFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "system-index.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadFileSystemIndex_ReadsAptAndPip(t *testing.T) {
	path := writeSystemIndexFile(t, `
apt_packages:
  gcc:
    - "9.1"
    - "9.4"
pip_packages:
  requests:
    - "2.31.0"
`)
	idx, err := LoadFileSystemIndex(path)
	require.NoError(t, err)

	apt, err := idx.AptPackages(context.Background(), "gcc")
	require.NoError(t, err)
	require.Equal(t, []string{"9.1", "9.4"}, apt)

	pip, err := idx.PipPackages(context.Background(), "requests")
	require.NoError(t, err)
	require.Equal(t, []string{"2.31.0"}, pip)

	missing, err := idx.AptPackages(context.Background(), "nonexistent")
	require.NoError(t, err)
	require.Empty(t, missing)
}

func TestLoadFileSystemIndex_MissingFile(t *testing.T) {
	_, err := LoadFileSystemIndex(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestFileSystemIndex_ReloadPicksUpChanges(t *testing.T) {
	path := writeSystemIndexFile(t, "apt_packages:\n  gcc:\n    - \"9.1\"\n")
	idx, err := LoadFileSystemIndex(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("apt_packages:\n  gcc:\n    - \"9.1\"\n    - \"9.4\"\n"), 0o644))
	require.NoError(t, idx.Reload(path))

	apt, err := idx.AptPackages(context.Background(), "gcc")
	require.NoError(t, err)
	require.Equal(t, []string{"9.1", "9.4"}, apt)
}
