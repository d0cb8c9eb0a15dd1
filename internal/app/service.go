package app

import (
	"context"
	"encoding/json"
	"path/filepath"
	"time"

	"avular-packages/internal/adapters"
	"avular-packages/internal/core"
	"avular-packages/internal/ports"
	"avular-packages/internal/types"
)

// packageCacheCapacity is the L1/L2 entry-count capacity for the
// package candidate cache, generous enough for a workstation-sized
// repository without tuning.
const packageCacheCapacity = 4096

// defaultMaxConcurrentBuilds bounds the Build Orchestrator's
// concurrency when a caller does not configure max_concurrent_builds.
const defaultMaxConcurrentBuilds = 4

// Service wires ports and core logic into the operations the CLI
// surface calls, following the teacher's Service struct shape
// (service.go): one field per port dependency plus a Clock for
// deterministic timestamps in tests.
type Service struct {
	Roots        []string
	Repository   ports.Repository
	SystemIndex  ports.SystemIndex
	BuildSystems map[string]ports.BuildSystem
	ContextFiles adapters.ContextFileAdapter
	Solver       *core.Solver
	PackageCache *core.Cache[string, []types.Package]
	Preheater    *core.Preheater
	Tuner        *core.Tuner
	BuildLimiter *core.BuildSemaphore
	Clock        func() time.Time
}

// NewService wires the default adapters: a filesystem Repository
// Scanner over roots, a YAML system index loaded from systemIndexPath
// (skipped if empty), a context directory, a disk-backed package
// candidate cache under contextDir, and the standard build system
// executables (make, cmake, python3 — the ones the corpus's
// own build tooling invokes).
func NewService(roots []string, systemIndexPath string, contextDir string) (Service, error) {
	repo := adapters.NewFSScanner(roots, 0)
	if err := repo.Refresh(context.Background()); err != nil {
		return Service{}, err
	}

	var sysIndex ports.SystemIndex
	if systemIndexPath != "" {
		idx, err := adapters.LoadFileSystemIndex(systemIndexPath)
		if err != nil {
			return Service{}, err
		}
		sysIndex = idx
	}

	builds := map[string]ports.BuildSystem{
		"make":   adapters.NewExecBuildSystem("make", "make"),
		"cmake":  adapters.NewExecBuildSystem("cmake", "cmake"),
		"python": adapters.NewExecBuildSystem("python", "python3"),
	}

	l2, err := adapters.NewFileL2Store(filepath.Join(contextDir, "pkgcache.log"))
	if err != nil {
		return Service{}, err
	}
	codec := core.Codec[[]types.Package]{
		Encode: func(pkgs []types.Package) ([]byte, error) { return json.Marshal(pkgs) },
		Decode: func(b []byte) ([]types.Package, error) {
			var pkgs []types.Package
			err := json.Unmarshal(b, &pkgs)
			return pkgs, err
		},
	}
	packageCache := core.NewCache[string, []types.Package](
		packageCacheCapacity, packageCacheCapacity, l2, codec,
		func(name string) string { return name },
	)

	return Service{
		Roots:        roots,
		Repository:   repo,
		SystemIndex:  sysIndex,
		BuildSystems: builds,
		ContextFiles: adapters.NewContextFileAdapter(contextDir),
		Solver:       core.NewSolver(repo),
		PackageCache: packageCache,
		Preheater:    core.NewPreheater(1024),
		Tuner:        core.NewTuner(),
		BuildLimiter: core.NewBuildSemaphore(defaultMaxConcurrentBuilds),
		Clock:        time.Now,
	}, nil
}
