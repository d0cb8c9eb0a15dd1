package app

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/core"
	"avular-packages/internal/ports"
)

// Build drives the Build Orchestrator end to end (§4.7): resolve the
// package's build_requires against the system index, then invoke the
// build system named by the package's BuildSystem field with a
// composed BuildRequest.
func (s Service) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	pkg := req.Package
	if pkg.BuildSystem == "" {
		return BuildResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package " + pkg.Name + " has no build_system")
	}
	bs, ok := s.BuildSystems[pkg.BuildSystem]
	if !ok {
		return BuildResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("unknown build system: " + pkg.BuildSystem)
	}

	versions := map[string]string{}
	if s.SystemIndex != nil && len(pkg.BuildRequires) > 0 {
		apt, err := core.ResolveAptRequirements(ctx, s.SystemIndex, pkg.BuildRequires)
		if err != nil {
			return BuildResult{}, err
		}
		for name, v := range apt {
			versions[name] = v
		}
		pip, err := core.ResolvePipRequirements(ctx, s.SystemIndex, pkg.BuildRequires)
		if err != nil {
			return BuildResult{}, err
		}
		for name, v := range pip {
			versions[name] = v
		}
	}

	env := map[string]string{}
	for k, v := range req.ExtraEnv {
		env[k] = v
	}
	if len(versions) > 0 {
		env["REZ_BUILD_SYSTEM_PACKAGES"] = core.FormatSystemPackages(versions)
	}

	buildReq := ports.BuildRequest{
		Package:     pkg,
		SourcePath:  req.SourcePath,
		BuildPath:   req.BuildPath,
		InstallPath: req.InstallPath,
		Env:         env,
		Args:        req.Args,
	}

	if err := s.BuildLimiter.Acquire(ctx); err != nil {
		return BuildResult{}, err
	}
	defer s.BuildLimiter.Release()

	if err := bs.Build(ctx, buildReq); err != nil {
		return BuildResult{}, err
	}

	return BuildResult{ToolchainVersions: versions}, nil
}
