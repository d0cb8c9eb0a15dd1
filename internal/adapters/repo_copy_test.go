package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"avular-packages/internal/core"
	"avular-packages/internal/types"
)

func TestContentAddressedRepo_PutIsIdempotent(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "bin"), []byte("binary"), 0o644))

	pkg := core.WithContentHash(types.Package{Name: "app", Version: "1.0.0"})
	repo := NewContentAddressedRepo(t.TempDir())

	dir1, err := repo.Put(pkg, srcDir, nil)
	require.NoError(t, err)
	dir2, err := repo.Put(pkg, srcDir, nil)
	require.NoError(t, err)
	require.Equal(t, dir1, dir2)

	manifest, err := repo.Manifest(pkg.ContentHash)
	require.NoError(t, err)
	require.Equal(t, "app", manifest.Name)
	require.Equal(t, pkg.ContentHash, manifest.ContentHash)
}

func TestContentAddressedRepo_ObjectDirRejectsShortHash(t *testing.T) {
	repo := NewContentAddressedRepo(t.TempDir())
	_, err := repo.objectDir("a")
	require.Error(t, err)
}

func TestContentAddressedRepo_CopyPreservesManifest(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "bin"), []byte("binary"), 0o644))
	pkg := core.WithContentHash(types.Package{Name: "app", Version: "1.0.0"})

	src := NewContentAddressedRepo(t.TempDir())
	_, err := src.Put(pkg, srcDir, nil)
	require.NoError(t, err)

	dest := NewContentAddressedRepo(t.TempDir())
	require.NoError(t, src.Copy(pkg.ContentHash, dest))

	manifest, err := dest.Manifest(pkg.ContentHash)
	require.NoError(t, err)
	require.Equal(t, pkg.ContentHash, manifest.ContentHash)

	destData, err := os.ReadFile(filepath.Join(mustObjectDir(t, dest, pkg.ContentHash), "bin"))
	require.NoError(t, err)
	require.Equal(t, "binary", string(destData))
}

func TestContentAddressedRepo_MoveRemovesSource(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "bin"), []byte("binary"), 0o644))
	pkg := core.WithContentHash(types.Package{Name: "app", Version: "1.0.0"})

	src := NewContentAddressedRepo(t.TempDir())
	_, err := src.Put(pkg, srcDir, nil)
	require.NoError(t, err)

	dest := NewContentAddressedRepo(t.TempDir())
	require.NoError(t, src.Move(pkg.ContentHash, dest))

	_, err = src.Manifest(pkg.ContentHash)
	require.Error(t, err)
	_, err = dest.Manifest(pkg.ContentHash)
	require.NoError(t, err)
}

func TestContentAddressedRepo_RemoveDeletesObject(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "bin"), []byte("binary"), 0o644))
	pkg := core.WithContentHash(types.Package{Name: "app", Version: "1.0.0"})

	repo := NewContentAddressedRepo(t.TempDir())
	_, err := repo.Put(pkg, srcDir, nil)
	require.NoError(t, err)

	require.NoError(t, repo.Remove(pkg.ContentHash))
	_, err = repo.Manifest(pkg.ContentHash)
	require.Error(t, err)
}

func mustObjectDir(t *testing.T, repo ContentAddressedRepo, contentHash string) string {
	t.Helper()
	dir, err := repo.objectDir(contentHash)
	require.NoError(t, err)
	return dir
}
