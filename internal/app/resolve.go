package app

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/core"
	"avular-packages/internal/types"
)

// toolVersion is the value stamped into ResolvedContext.ToolVersion,
// following the teacher's own single build-time version constant.
const toolVersion = "dev"

// Resolve parses the requested requirement strings, runs the solver
// against s.Repository, reifies the result into a ResolvedContext via
// core.BuildContext, and optionally saves it under req.ContextName.
func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	if len(req.Requirements) == 0 {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("at least one requirement is required")
	}

	reqs := make([]types.Requirement, 0, len(req.Requirements))
	for _, raw := range req.Requirements {
		parsed, err := core.ParseRequirement(raw)
		if err != nil {
			return ResolveResult{}, err
		}
		reqs = append(reqs, parsed)
	}

	solveReq := types.ResolveRequest{
		Requirements:    reqs,
		Excludes:        req.Excludes,
		Platform:        defaultString(req.Platform, runtime.GOOS),
		Arch:            defaultString(req.Arch, runtime.GOARCH),
		AllowPrerelease: req.AllowPrerelease,
		Strategy:        req.Strategy,
		HeuristicScenario: req.Scenario,
	}

	result, err := s.Solver.Resolve(ctx, solveReq)
	if err != nil {
		return ResolveResult{}, err
	}

	processEnv := environToMap(os.Environ())
	env, aliases, err := core.BuildContext(result.Packages, processEnv)
	if err != nil {
		return ResolveResult{}, err
	}

	metadata := result.Metadata
	if s.SystemIndex != nil {
		systemPackages, err := s.resolveSystemPackages(ctx, result.Packages)
		if err != nil {
			return ResolveResult{}, err
		}
		if len(systemPackages) > 0 {
			if metadata == nil {
				metadata = map[string]any{}
			}
			metadata["system_packages"] = systemPackages
		}
	}

	now := s.Clock()
	resolvedCtx := types.ResolvedContext{
		Requirements: reqs,
		Resolved:     result.Packages,
		Env:          env,
		Aliases:      aliases,
		Timestamp:    now,
		User:         currentUser(),
		Host:         currentHost(),
		Platform:     solveReq.Platform,
		Arch:         solveReq.Arch,
		ToolVersion:  toolVersion,
		Metadata:     metadata,
	}

	if req.ContextName != "" {
		if err := s.ContextFiles.Save(req.ContextName, resolvedCtx); err != nil {
			return ResolveResult{}, err
		}
	}

	return ResolveResult{
		Context:        resolvedCtx,
		StatesExplored: result.StatesExplored,
		ResolutionMs:   result.ResolutionTimeMs,
	}, nil
}

// resolveSystemPackages collects every build_requires entry carrying a
// System constraint across the resolved package set and resolves it
// against s.SystemIndex (§4.7.1), so a saved context's metadata
// carries the same toolchain set the Build Orchestrator would select
// for these packages.
func (s Service) resolveSystemPackages(ctx context.Context, resolved []types.ResolvedPackage) (map[string]string, error) {
	var sysReqs []types.Requirement
	for _, rp := range resolved {
		for _, r := range rp.Package.BuildRequires {
			if r.System != nil {
				sysReqs = append(sysReqs, r)
			}
		}
	}
	if len(sysReqs) == 0 {
		return nil, nil
	}

	versions := map[string]string{}
	apt, err := core.ResolveAptRequirements(ctx, s.SystemIndex, sysReqs)
	if err != nil {
		return nil, err
	}
	for name, v := range apt {
		versions[name] = v
	}
	pip, err := core.ResolvePipRequirements(ctx, s.SystemIndex, sysReqs)
	if err != nil {
		return nil, err
	}
	for name, v := range pip {
		versions[name] = v
	}
	return versions, nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func environToMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		out[name] = value
	}
	return out
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return os.Getenv("USERNAME")
}

func currentHost() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}
