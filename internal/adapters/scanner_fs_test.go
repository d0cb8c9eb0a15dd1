package adapters

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeDefinition(t *testing.T, dir, relPath, contents string) {
	t.Helper()
	full := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(contents), 0o644))
}

func TestFSScanner_RefreshDiscoversPackages(t *testing.T) {
	root := t.TempDir()
	writeDefinition(t, root, "app/package.yaml", "name: app\nversion: 1.0.0\n")
	writeDefinition(t, root, "lib/package.yaml", "name: lib\nversion: 2.0.0\n")

	scanner := NewFSScanner([]string{root}, 2)
	require.NoError(t, scanner.Refresh(context.Background()))

	names, err := scanner.Names(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"app", "lib"}, names)

	candidates, err := scanner.Candidates(context.Background(), "app")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "1.0.0", candidates[0].Version)
	require.NotEmpty(t, candidates[0].ContentHash, "scanner should content-hash discovered packages")
}

func TestFSScanner_Get(t *testing.T) {
	root := t.TempDir()
	writeDefinition(t, root, "app/package.yaml", "name: app\nversion: 1.0.0\n")

	scanner := NewFSScanner([]string{root}, 1)
	require.NoError(t, scanner.Refresh(context.Background()))

	pkg, ok, err := scanner.Get(context.Background(), "app", "1.0.0")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "app", pkg.Name)

	_, ok, err = scanner.Get(context.Background(), "app", "9.9.9")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFSScanner_SkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeDefinition(t, root, "app/package.yaml", "name: app\nversion: 1.0.0\n")
	writeDefinition(t, root, "build/package.yaml", "name: should-not-appear\nversion: 1.0.0\n")

	scanner := NewFSScanner([]string{root}, 1)
	require.NoError(t, scanner.Refresh(context.Background()))

	names, err := scanner.Names(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"app"}, names)
}

func TestFSScanner_ReusesCacheForUnmodifiedFiles(t *testing.T) {
	root := t.TempDir()
	writeDefinition(t, root, "app/package.yaml", "name: app\nversion: 1.0.0\n")

	scanner := NewFSScanner([]string{root}, 1)
	require.NoError(t, scanner.Refresh(context.Background()))
	require.EqualValues(t, 1, scanner.FilesExamined())

	require.NoError(t, scanner.Refresh(context.Background()))
	require.EqualValues(t, 1, scanner.FilesExamined(), "unmodified file should not be reparsed")

	writeDefinition(t, root, "lib/package.yaml", "name: lib\nversion: 1.0.0\n")
	require.NoError(t, scanner.Refresh(context.Background()))
	require.EqualValues(t, 2, scanner.FilesExamined())
}
