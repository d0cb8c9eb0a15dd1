package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"avular-packages/internal/adapters"
	"avular-packages/internal/core"
	"avular-packages/internal/types"
)

func writeInstalledFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func TestPutCopyMoveRemoveInfo_RoundTrip(t *testing.T) {
	srcInstall := t.TempDir()
	writeInstalledFile(t, srcInstall, "app", "#!/bin/sh\necho hi\n")

	pkg := core.WithContentHash(types.Package{Name: "app", Version: "1.0.0"})

	rootA := t.TempDir()
	rootB := t.TempDir()
	svc := Service{}

	contentHash, err := svc.Put(pkg, srcInstall, rootA, nil)
	require.NoError(t, err)
	require.NotEmpty(t, contentHash)

	info, err := svc.Info(rootA, pkg.ContentHash)
	require.NoError(t, err)
	require.Equal(t, "app", info.Name)
	require.Equal(t, "1.0.0", info.Version)
	require.Equal(t, pkg.ContentHash, info.ContentHash)

	err = svc.Copy(RepoCopyRequest{ContentHash: pkg.ContentHash, SourceRoot: rootA, DestRoot: rootB})
	require.NoError(t, err)
	_, err = svc.Info(rootB, pkg.ContentHash)
	require.NoError(t, err)

	rootC := t.TempDir()
	err = svc.Move(RepoCopyRequest{ContentHash: pkg.ContentHash, SourceRoot: rootB, DestRoot: rootC})
	require.NoError(t, err)
	_, err = svc.Info(rootB, pkg.ContentHash)
	require.Error(t, err, "moved object should no longer exist at the source root")
	_, err = svc.Info(rootC, pkg.ContentHash)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(rootC, pkg.ContentHash))
	_, err = svc.Info(rootC, pkg.ContentHash)
	require.Error(t, err)
}

func TestCopy_RequiresContentHash(t *testing.T) {
	svc := Service{}
	err := svc.Copy(RepoCopyRequest{SourceRoot: t.TempDir(), DestRoot: t.TempDir()})
	require.Error(t, err)
}

// resolvedPkg builds a ResolvedPackage fixture. parents names the
// already-resolved packages that require this one, mirroring what the
// solver's withParents pass records on a real resolution.
func resolvedPkg(name, version string, parents ...string) types.ResolvedPackage {
	return types.ResolvedPackage{
		Package: types.Package{Name: name, Version: version},
		Parents: parents,
	}
}

func TestDepends_FindsTransitiveDependents(t *testing.T) {
	dir := t.TempDir()
	files := adapters.NewContextFileAdapter(dir)
	// app requires lib requires base: base.Parents=[lib], lib.Parents=[app].
	err := files.Save("dev", types.ResolvedContext{
		Resolved: []types.ResolvedPackage{
			resolvedPkg("app", "1.0.0"),
			resolvedPkg("lib", "1.0.0", "app"),
			resolvedPkg("base", "1.0.0", "lib"),
		},
	})
	require.NoError(t, err)

	svc := Service{ContextFiles: files}
	result, err := svc.Depends(DependsRequest{ContextName: "dev", Name: "base"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"app", "lib"}, result.Dependents)
}

func TestDepends_NoDependents(t *testing.T) {
	dir := t.TempDir()
	files := adapters.NewContextFileAdapter(dir)
	err := files.Save("dev", types.ResolvedContext{
		Resolved: []types.ResolvedPackage{resolvedPkg("app", "1.0.0")},
	})
	require.NoError(t, err)

	svc := Service{ContextFiles: files}
	result, err := svc.Depends(DependsRequest{ContextName: "dev", Name: "app"})
	require.NoError(t, err)
	require.Empty(t, result.Dependents)
}

func TestDiff_ReportsAddedRemovedChanged(t *testing.T) {
	dir := t.TempDir()
	files := adapters.NewContextFileAdapter(dir)
	require.NoError(t, files.Save("a", types.ResolvedContext{
		Resolved: []types.ResolvedPackage{
			{Package: types.Package{Name: "app", Version: "1.0.0"}},
			{Package: types.Package{Name: "only-a", Version: "1.0.0"}},
		},
	}))
	require.NoError(t, files.Save("b", types.ResolvedContext{
		Resolved: []types.ResolvedPackage{
			{Package: types.Package{Name: "app", Version: "2.0.0"}},
			{Package: types.Package{Name: "only-b", Version: "1.0.0"}},
		},
	}))

	svc := Service{ContextFiles: files}
	result, err := svc.Diff(DiffRequest{ContextNameA: "a", ContextNameB: "b"})
	require.NoError(t, err)
	require.Equal(t, []string{"only-b"}, result.Added)
	require.Equal(t, []string{"only-a"}, result.Removed)
	require.Equal(t, []string{"app: 1.0.0 -> 2.0.0"}, result.Changed)
}

func TestSearch_AllAndByName(t *testing.T) {
	repo := stubRepository{packages: map[string][]types.Package{
		"app": {{Name: "app", Version: "1.0.0"}},
		"lib": {{Name: "lib", Version: "1.0.0"}, {Name: "lib", Version: "2.0.0"}},
	}}
	svc := Service{Repository: repo}

	all, err := svc.Search(context.Background(), SearchRequest{})
	require.NoError(t, err)
	require.Len(t, all.Packages, 3)

	byName, err := svc.Search(context.Background(), SearchRequest{Name: "lib"})
	require.NoError(t, err)
	require.Len(t, byName.Packages, 2)
}

func TestStatus_CountsPackagesAcrossNames(t *testing.T) {
	repo := stubRepository{packages: map[string][]types.Package{
		"app": {{Name: "app", Version: "1.0.0"}},
		"lib": {{Name: "lib", Version: "1.0.0"}, {Name: "lib", Version: "2.0.0"}},
	}}
	svc := Service{Repository: repo, Roots: []string{"/repo"}}

	result, err := svc.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, result.PackageCount)
	require.Equal(t, []string{"/repo"}, result.RootsScanned)
}
