package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"avular-packages/internal/app"
	"avular-packages/internal/core"
	"avular-packages/internal/ports"
	"avular-packages/internal/types"
)

// recordingBuildSystem records the request it ran with, standing in
// for a real toolchain invocation so this test exercises system
// package resolution without depending on host build tools.
type recordingBuildSystem struct {
	name    string
	lastReq ports.BuildRequest
}

func (b *recordingBuildSystem) Name() string { return b.name }

func (b *recordingBuildSystem) Build(_ context.Context, req ports.BuildRequest) error {
	b.lastReq = req
	return nil
}

// TestResolveContextBuildIntegration exercises the scanner, solver,
// context persistence/shell rendering, and SAT-based build-toolchain
// resolution end to end over the on-disk fixture workspace
// (fixtures/workspace: app -> lib -> base), mirroring the teacher's
// own internal/integration/resolve_integration_test.go shape of
// driving real adapters against fixture files rather than stubs.
func TestResolveContextBuildIntegration(t *testing.T) {
	root := repoRoot(t)
	workspace := filepath.Join(root, "fixtures", "workspace")
	systemIndexPath := filepath.Join(root, "fixtures", "system-index.yaml")

	svc, err := app.NewService([]string{workspace}, systemIndexPath, t.TempDir())
	require.NoError(t, err)

	contextName := "it-dev"
	resolveResult, err := svc.Resolve(context.Background(), app.ResolveRequest{
		Requirements: []string{"app"},
		Strategy:     types.ConflictStrategyLatestWins,
		ContextName:  contextName,
	})
	require.NoError(t, err)
	require.Len(t, resolveResult.Context.Resolved, 3)

	byName := map[string]types.ResolvedPackage{}
	for _, rp := range resolveResult.Context.Resolved {
		byName[rp.Package.Name] = rp
	}
	require.Equal(t, "1.0.0", byName["app"].Package.Version)
	require.Equal(t, "1.2.0", byName["lib"].Package.Version)
	require.Equal(t, "1.0.0", byName["base"].Package.Version)
	require.Equal(t, []string{"app"}, byName["lib"].Parents)
	require.Equal(t, []string{"lib"}, byName["base"].Parents)
	require.NotEmpty(t, byName["app"].RootPath, "resolved package should carry the directory it was scanned from")

	envResult, err := svc.Env(app.EnvRequest{ContextName: contextName, Shell: string(core.ShellBash)})
	require.NoError(t, err)
	require.Contains(t, envResult.Script, "export APP_ROOT='"+byName["app"].RootPath+"'")
	require.Contains(t, envResult.Script, "export LIB_ROOT='"+byName["lib"].RootPath+"'")
	require.Contains(t, envResult.Script, "alias app='run-app'")

	summary, err := svc.View(contextName)
	require.NoError(t, err)
	require.Contains(t, summary, "app==1.0.0")
	require.Contains(t, summary, "lib==1.2.0")

	bs := &recordingBuildSystem{name: "make"}
	svc.BuildSystems = map[string]ports.BuildSystem{"make": bs}
	buildResult, err := svc.Build(context.Background(), app.BuildRequest{
		Package: types.Package{
			Name:          "app",
			Version:       "1.0.0",
			BuildSystem:   "make",
			BuildRequires: byName["app"].Package.BuildRequires,
		},
		SourcePath:  workspace,
		BuildPath:   t.TempDir(),
		InstallPath: t.TempDir(),
		ExtraEnv:    map[string]string{},
	})
	require.NoError(t, err)
	require.Equal(t, "9.4", buildResult.ToolchainVersions["gcc"], "SAT solver should pick the newest apt candidate satisfying >=9")
	require.Contains(t, bs.lastReq.Env["REZ_BUILD_SYSTEM_PACKAGES"], "gcc=9.4")
}

func repoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}
