package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"avular-packages/internal/ports"
	"avular-packages/internal/types"
)

// stubRepo is an in-memory ports.Repository for exercising the solver
// without a filesystem scan, following the teacher's testRepoIndex
// stub-repo pattern (internal/core/resolver_test.go).
type stubRepo struct {
	packages map[string][]types.Package
}

func (r stubRepo) Candidates(_ context.Context, name string) ([]types.Package, error) {
	return r.packages[name], nil
}

func (r stubRepo) Get(_ context.Context, name, version string) (types.Package, bool, error) {
	for _, p := range r.packages[name] {
		if p.Version == version {
			return p, true, nil
		}
	}
	return types.Package{}, false, nil
}

func (r stubRepo) Names(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(r.packages))
	for name := range r.packages {
		names = append(names, name)
	}
	return names, nil
}

func (r stubRepo) Refresh(_ context.Context) error { return nil }

var _ ports.Repository = stubRepo{}

func requireReq(t *testing.T, s string) types.Requirement {
	t.Helper()
	req, err := ParseRequirement(s)
	require.NoError(t, err)
	return req
}

func TestSolverResolvesDirectRequirement(t *testing.T) {
	repo := stubRepo{packages: map[string][]types.Package{
		"app": {{Name: "app", Version: "1.0.0"}},
	}}
	solver := NewSolver(repo)

	result, err := solver.Resolve(context.Background(), types.ResolveRequest{
		Requirements: []types.Requirement{requireReq(t, "app")},
		Strategy:     types.ConflictStrategyLatestWins,
	})
	require.NoError(t, err)
	require.Len(t, result.Packages, 1)
	require.Equal(t, "app", result.Packages[0].Package.Name)
	require.True(t, result.Packages[0].Requested)
}

func TestSolverPicksLatestCompatibleVersion(t *testing.T) {
	repo := stubRepo{packages: map[string][]types.Package{
		"lib": {
			{Name: "lib", Version: "1.0.0"},
			{Name: "lib", Version: "1.2.0"},
			{Name: "lib", Version: "2.0.0"},
		},
	}}
	solver := NewSolver(repo)

	result, err := solver.Resolve(context.Background(), types.ResolveRequest{
		Requirements: []types.Requirement{requireReq(t, "lib<2.0.0")},
		Strategy:     types.ConflictStrategyLatestWins,
	})
	require.NoError(t, err)
	require.Len(t, result.Packages, 1)
	require.Equal(t, "1.2.0", result.Packages[0].Package.Version)
}

func TestSolverRecordsParentsAcrossTransitiveRequires(t *testing.T) {
	repo := stubRepo{packages: map[string][]types.Package{
		"app": {{
			Name:     "app",
			Version:  "1.0.0",
			Requires: []types.Requirement{requireReq(t, "lib")},
		}},
		"lib": {{
			Name:     "lib",
			Version:  "1.0.0",
			Requires: []types.Requirement{requireReq(t, "base")},
		}},
		"base": {{Name: "base", Version: "1.0.0"}},
	}}
	solver := NewSolver(repo)

	result, err := solver.Resolve(context.Background(), types.ResolveRequest{
		Requirements: []types.Requirement{requireReq(t, "app")},
		Strategy:     types.ConflictStrategyLatestWins,
	})
	require.NoError(t, err)

	byName := map[string]types.ResolvedPackage{}
	for _, rp := range result.Packages {
		byName[rp.Package.Name] = rp
	}
	require.Empty(t, byName["app"].Parents, "app is a root requirement, no parents")
	require.Equal(t, []string{"app"}, byName["lib"].Parents)
	require.Equal(t, []string{"lib"}, byName["base"].Parents)
}

func TestSolverCarriesRootPathFromScannedPackage(t *testing.T) {
	repo := stubRepo{packages: map[string][]types.Package{
		"app": {{Name: "app", Version: "1.0.0", RootPath: "/workspace/app"}},
	}}
	solver := NewSolver(repo)

	result, err := solver.Resolve(context.Background(), types.ResolveRequest{
		Requirements: []types.Requirement{requireReq(t, "app")},
		Strategy:     types.ConflictStrategyLatestWins,
	})
	require.NoError(t, err)
	require.Len(t, result.Packages, 1)
	require.Equal(t, "/workspace/app", result.Packages[0].RootPath)
}

func TestSolverUnsatisfiableWhenNoCandidateExists(t *testing.T) {
	repo := stubRepo{packages: map[string][]types.Package{}}
	solver := NewSolver(repo)

	_, err := solver.Resolve(context.Background(), types.ResolveRequest{
		Requirements: []types.Requirement{requireReq(t, "missing")},
		Strategy:     types.ConflictStrategyFailOnConflict,
	})
	require.Error(t, err)
}

func TestSolverDetectsCircularDependency(t *testing.T) {
	repo := stubRepo{packages: map[string][]types.Package{
		"a": {{Name: "a", Version: "1.0.0", Requires: []types.Requirement{requireReq(t, "c")}}},
		"c": {{Name: "c", Version: "1.0.0", Requires: []types.Requirement{requireReq(t, "a")}}},
	}}
	solver := NewSolver(repo)

	_, err := solver.Resolve(context.Background(), types.ResolveRequest{
		Requirements: []types.Requirement{requireReq(t, "a")},
		Strategy:     types.ConflictStrategyLatestWins,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "transitively requires itself")
}

func TestSolverDoesNotFlagDiamondConvergenceAsACycle(t *testing.T) {
	repo := stubRepo{packages: map[string][]types.Package{
		"a": {{Name: "a", Version: "1.0.0", Requires: []types.Requirement{requireReq(t, "b"), requireReq(t, "d")}}},
		"b": {{Name: "b", Version: "1.0.0", Requires: []types.Requirement{requireReq(t, "e")}}},
		"d": {{Name: "d", Version: "1.0.0", Requires: []types.Requirement{requireReq(t, "e")}}},
		"e": {{Name: "e", Version: "1.0.0"}},
	}}
	solver := NewSolver(repo)

	result, err := solver.Resolve(context.Background(), types.ResolveRequest{
		Requirements: []types.Requirement{requireReq(t, "a")},
		Strategy:     types.ConflictStrategyLatestWins,
	})
	require.NoError(t, err)
	require.Len(t, result.Packages, 4)
}

func TestSolverBacktracksToEarlierVersionWhenLatestDeadEnds(t *testing.T) {
	repo := stubRepo{packages: map[string][]types.Package{
		"a": {
			{Name: "a", Version: "1.0.0", Requires: []types.Requirement{requireReq(t, "b==2.0.0")}},
			{Name: "a", Version: "2.0.0", Requires: []types.Requirement{requireReq(t, "ghost")}},
		},
		"b": {{Name: "b", Version: "2.0.0"}},
	}}
	solver := NewSolver(repo)

	result, err := solver.Resolve(context.Background(), types.ResolveRequest{
		Requirements: []types.Requirement{requireReq(t, "a")},
		Strategy:     types.ConflictStrategyLatestWins,
	})
	require.NoError(t, err)

	byName := map[string]types.ResolvedPackage{}
	for _, rp := range result.Packages {
		byName[rp.Package.Name] = rp
	}
	require.Equal(t, "1.0.0", byName["a"].Package.Version)
	require.Equal(t, "2.0.0", byName["b"].Package.Version)
}

func TestSolverRespectsExcludes(t *testing.T) {
	repo := stubRepo{packages: map[string][]types.Package{
		"lib": {{Name: "lib", Version: "1.0.0"}},
	}}
	solver := NewSolver(repo)

	_, err := solver.Resolve(context.Background(), types.ResolveRequest{
		Requirements: []types.Requirement{requireReq(t, "lib")},
		Excludes:     []string{"lib"},
		Strategy:     types.ConflictStrategyFailOnConflict,
	})
	require.Error(t, err)
}
