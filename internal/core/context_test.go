package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"avular-packages/internal/types"
)

func TestBuildContext_ExpandsRootAndAppendsToProcessEnv(t *testing.T) {
	resolved := []types.ResolvedPackage{
		{
			Package: types.Package{
				Name:     "base",
				Version:  "1.0.0",
				Commands: "setenv BASE_ROOT {root}\nappendenv PATH {root}/bin\nalias base run-base",
			},
			RootPath: "/workspace/base",
		},
		{
			Package: types.Package{
				Name:     "app",
				Version:  "1.0.0",
				Commands: "setenv APP_ROOT {root}\nprependenv PATH {root}/bin",
			},
			RootPath: "/workspace/app",
		},
	}

	env, aliases, err := BuildContext(resolved, map[string]string{"PATH": "/usr/bin"})
	require.NoError(t, err)
	require.Equal(t, "/workspace/base", env["BASE_ROOT"])
	require.Equal(t, "/workspace/app", env["APP_ROOT"])
	require.Equal(t, "/workspace/app/bin:/usr/bin:/workspace/base/bin", env["PATH"])
	require.Equal(t, []types.AliasEntry{{Name: "base", Command: "run-base"}}, aliases)
}

func TestBuildContext_UnsetenvRemovesVariable(t *testing.T) {
	resolved := []types.ResolvedPackage{
		{Package: types.Package{Name: "app", Commands: "unsetenv PATH"}},
	}
	env, _, err := BuildContext(resolved, map[string]string{"PATH": "/usr/bin"})
	require.NoError(t, err)
	_, ok := env["PATH"]
	require.False(t, ok)
}

func TestBuildContext_RejectsUnrecognizedOperation(t *testing.T) {
	resolved := []types.ResolvedPackage{
		{Package: types.Package{Name: "app", Commands: "frobnicate PATH"}},
	}
	_, _, err := BuildContext(resolved, nil)
	require.Error(t, err)
}

func TestTools_MapsToolNameToOwningPackageRoot(t *testing.T) {
	resolved := []types.ResolvedPackage{
		{Package: types.Package{Name: "app", Tools: []string{"app-cli"}}, RootPath: "/workspace/app"},
	}
	tools := Tools(resolved)
	require.Equal(t, "/workspace/app", tools["app-cli"])
}

func TestSummary_ListsPackagesAndSystemPackages(t *testing.T) {
	ctx := types.ResolvedContext{
		Platform: "linux",
		Arch:     "amd64",
		Resolved: []types.ResolvedPackage{
			{Package: types.Package{Name: "app", Version: "1.0.0"}},
		},
		Metadata: map[string]any{
			"system_packages": map[string]string{"gcc": "9.4"},
		},
	}
	summary := Summary(ctx)
	require.Contains(t, summary, "resolved context (1 packages, platform=linux arch=amd64)")
	require.Contains(t, summary, "app==1.0.0")
	require.Contains(t, summary, "system packages:")
	require.Contains(t, summary, "gcc==9.4")
}

func TestSummary_OmitsSystemPackagesSectionWhenAbsent(t *testing.T) {
	ctx := types.ResolvedContext{
		Resolved: []types.ResolvedPackage{
			{Package: types.Package{Name: "app", Version: "1.0.0"}},
		},
	}
	summary := Summary(ctx)
	require.NotContains(t, summary, "system packages:")
}
