package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"avular-packages/internal/adapters"
	"avular-packages/internal/types"
)

func TestEnv_RequiresContextName(t *testing.T) {
	svc := Service{ContextFiles: adapters.NewContextFileAdapter(t.TempDir())}
	_, err := svc.Env(EnvRequest{})
	require.Error(t, err)
}

func TestEnv_RendersSavedContextAsBash(t *testing.T) {
	dir := t.TempDir()
	files := adapters.NewContextFileAdapter(dir)
	err := files.Save("dev", types.ResolvedContext{
		Env:     map[string]string{"APP_ROOT": "/opt/app"},
		Aliases: []types.AliasEntry{{Name: "app", Command: "run-app"}},
	})
	require.NoError(t, err)

	svc := Service{ContextFiles: files}
	result, err := svc.Env(EnvRequest{ContextName: "dev"})
	require.NoError(t, err)
	require.Contains(t, result.Script, "APP_ROOT")
	require.Contains(t, result.Script, "app")
}

func TestEnv_UnknownContextErrors(t *testing.T) {
	svc := Service{ContextFiles: adapters.NewContextFileAdapter(t.TempDir())}
	_, err := svc.Env(EnvRequest{ContextName: "missing"})
	require.Error(t, err)
}

func TestView_RequiresContextName(t *testing.T) {
	svc := Service{ContextFiles: adapters.NewContextFileAdapter(t.TempDir())}
	_, err := svc.View("")
	require.Error(t, err)
}

func TestView_SummarizesSavedContext(t *testing.T) {
	dir := t.TempDir()
	files := adapters.NewContextFileAdapter(dir)
	err := files.Save("dev", types.ResolvedContext{
		Resolved: []types.ResolvedPackage{
			{Package: types.Package{Name: "app", Version: "1.0.0"}},
		},
		Platform: "linux",
		Arch:     "amd64",
	})
	require.NoError(t, err)

	svc := Service{ContextFiles: files}
	summary, err := svc.View("dev")
	require.NoError(t, err)
	require.Contains(t, summary, "app==1.0.0")
}
