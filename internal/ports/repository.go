package ports

import (
	"context"

	"avular-packages/internal/types"
)

// Repository is implemented by the Repository Scanner adapter (§4.3)
// and is the Solver's and app layer's sole view onto discovered
// packages. Candidates returns every known version/variant of name,
// in no particular order; callers filter and sort.
type Repository interface {
	Candidates(ctx context.Context, name string) ([]types.Package, error)
	Get(ctx context.Context, name, version string) (types.Package, bool, error)
	Names(ctx context.Context) ([]string, error)
	Refresh(ctx context.Context) error
}

// SystemIndex is implemented by the adapter that loads the system
// package index (§6 "system package index file") backing @apt/@pip
// requirement resolution for build toolchains (§4.7.1).
type SystemIndex interface {
	AptPackages(ctx context.Context, name string) ([]string, error) // available versions
	PipPackages(ctx context.Context, name string) ([]string, error)
}

// BuildSystem is implemented by a build-tool adapter invoked by the
// Build Orchestrator (§4.7) for a package's build_system value.
type BuildSystem interface {
	Name() string
	Build(ctx context.Context, req BuildRequest) error
}

// BuildRequest carries everything a BuildSystem implementation needs
// to invoke a package's build.
type BuildRequest struct {
	Package    types.Package
	SourcePath string
	BuildPath  string
	InstallPath string
	Env        map[string]string
	Args       []string
}
