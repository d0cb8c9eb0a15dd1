package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"avular-packages/internal/adapters"
	"avular-packages/internal/core"
	"avular-packages/internal/types"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return t }
}

func TestResolve_RequiresAtLeastOneRequirement(t *testing.T) {
	svc := Service{Clock: fixedClock()}
	_, err := svc.Resolve(context.Background(), ResolveRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least one requirement")
}

func TestResolve_RejectsUnparsableRequirement(t *testing.T) {
	svc := Service{Clock: fixedClock()}
	_, err := svc.Resolve(context.Background(), ResolveRequest{Requirements: []string{"!!!"}})
	require.Error(t, err)
}

func TestResolve_BuildsAndSavesContext(t *testing.T) {
	repo := stubRepository{packages: map[string][]types.Package{
		"app": {{Name: "app", Version: "1.0.0", Commands: "setenv APP_ROOT {root}\nalias app run-app"}},
	}}
	dir := t.TempDir()
	svc := Service{
		Repository:   repo,
		Solver:       core.NewSolver(repo),
		ContextFiles: adapters.NewContextFileAdapter(dir),
		Clock:        fixedClock(),
	}

	result, err := svc.Resolve(context.Background(), ResolveRequest{
		Requirements: []string{"app"},
		ContextName:  "dev",
	})
	require.NoError(t, err)
	require.Len(t, result.Context.Resolved, 1)
	require.Equal(t, "app", result.Context.Resolved[0].Package.Name)

	saved, err := svc.ContextFiles.Load("dev")
	require.NoError(t, err)
	require.Equal(t, result.Context.Resolved[0].Package.Name, saved.Resolved[0].Package.Name)
}

func TestResolve_MergesSystemPackagesIntoMetadata(t *testing.T) {
	aptReq, err := core.ParseRequirement("gcc@apt:>=9")
	require.NoError(t, err)
	repo := stubRepository{packages: map[string][]types.Package{
		"app": {{Name: "app", Version: "1.0.0", BuildRequires: []types.Requirement{aptReq}}},
	}}
	dir := t.TempDir()
	svc := Service{
		Repository:   repo,
		Solver:       core.NewSolver(repo),
		ContextFiles: adapters.NewContextFileAdapter(dir),
		SystemIndex:  stubSystemIndex{apt: map[string][]string{"gcc": {"9.1", "9.4"}}},
		Clock:        fixedClock(),
	}

	result, err := svc.Resolve(context.Background(), ResolveRequest{Requirements: []string{"app"}})
	require.NoError(t, err)

	systemPackages, ok := result.Context.Metadata["system_packages"].(map[string]string)
	require.True(t, ok, "expected system_packages metadata to be a map[string]string")
	require.Equal(t, "9.4", systemPackages["gcc"])
}

func TestResolve_OmitsSystemPackagesMetadataWithoutSystemIndex(t *testing.T) {
	aptReq, err := core.ParseRequirement("gcc@apt:>=9")
	require.NoError(t, err)
	repo := stubRepository{packages: map[string][]types.Package{
		"app": {{Name: "app", Version: "1.0.0", BuildRequires: []types.Requirement{aptReq}}},
	}}
	dir := t.TempDir()
	svc := Service{
		Repository:   repo,
		Solver:       core.NewSolver(repo),
		ContextFiles: adapters.NewContextFileAdapter(dir),
		Clock:        fixedClock(),
	}

	result, err := svc.Resolve(context.Background(), ResolveRequest{Requirements: []string{"app"}})
	require.NoError(t, err)
	require.NotContains(t, result.Context.Metadata, "system_packages")
}

func TestResolve_DoesNotSaveWithoutContextName(t *testing.T) {
	repo := stubRepository{packages: map[string][]types.Package{
		"app": {{Name: "app", Version: "1.0.0"}},
	}}
	dir := t.TempDir()
	svc := Service{
		Repository:   repo,
		Solver:       core.NewSolver(repo),
		ContextFiles: adapters.NewContextFileAdapter(dir),
		Clock:        fixedClock(),
	}

	_, err := svc.Resolve(context.Background(), ResolveRequest{Requirements: []string{"app"}})
	require.NoError(t, err)

	_, err = svc.ContextFiles.Load("dev")
	require.Error(t, err)
}

// stubRepository is the shared in-memory ports.Repository stub used
// across internal/app's tests.
type stubRepository struct {
	packages map[string][]types.Package
}

func (r stubRepository) Candidates(_ context.Context, name string) ([]types.Package, error) {
	return r.packages[name], nil
}

func (r stubRepository) Get(_ context.Context, name, version string) (types.Package, bool, error) {
	for _, p := range r.packages[name] {
		if p.Version == version {
			return p, true, nil
		}
	}
	return types.Package{}, false, nil
}

func (r stubRepository) Names(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(r.packages))
	for name := range r.packages {
		names = append(names, name)
	}
	return names, nil
}

func (r stubRepository) Refresh(_ context.Context) error { return nil }
