package adapters

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"avular-packages/internal/types"
)

func TestContextFileAdapter_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	adapter := NewContextFileAdapter(dir)

	ctx := types.ResolvedContext{
		Resolved: []types.ResolvedPackage{
			{Package: types.Package{Name: "app", Version: "1.0.0"}},
		},
		Env: map[string]string{"APP_ROOT": "/opt/app"},
	}
	require.NoError(t, adapter.Save("dev", ctx))

	loaded, err := adapter.Load("dev")
	require.NoError(t, err)
	require.Equal(t, ctx.Resolved, loaded.Resolved)
	require.Equal(t, ctx.Env, loaded.Env)
}

func TestContextFileAdapter_LoadMissingErrors(t *testing.T) {
	adapter := NewContextFileAdapter(t.TempDir())
	_, err := adapter.Load("nonexistent")
	require.Error(t, err)
}

func TestContextFileAdapter_SaveRejectsEmptyDir(t *testing.T) {
	adapter := NewContextFileAdapter("")
	err := adapter.Save("dev", types.ResolvedContext{})
	require.Error(t, err)
}

func TestContextFileAdapter_SaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "contexts")
	adapter := NewContextFileAdapter(dir)
	require.NoError(t, adapter.Save("dev", types.ResolvedContext{}))

	_, err := adapter.Load("dev")
	require.NoError(t, err)
}
