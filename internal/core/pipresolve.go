package core

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/ports"
	"avular-packages/internal/types"
)

// ResolvePipRequirements greedily selects the newest available version
// satisfying each pip system requirement (§4.7.1). Unlike the apt
// toolchain path, pip's own dependency metadata isn't modeled here, so
// a SAT formulation would add no value over a direct per-package
// pick — this mirrors how the teacher's own pip index builder treats
// pip packages as a flat name/version list with no Depends graph.
func ResolvePipRequirements(ctx context.Context, index ports.SystemIndex, reqs []types.Requirement) (map[string]string, error) {
	cache := newSystemVersionCache()
	selected := map[string]string{}
	for _, req := range reqs {
		if req.System == nil || req.System.Ecosystem != types.SystemEcosystemPip {
			continue
		}
		versions, err := index.PipPackages(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		best := ""
		for _, v := range versions {
			ok, err := satisfiesSystemWith(cache, v, *req.System)
			if err != nil || !ok {
				continue
			}
			if best == "" {
				best = v
				continue
			}
			newer, err := pepNewer(cache, v, best)
			if err == nil && newer {
				best = v
			}
		}
		if best == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("no pip candidates satisfy " + req.Name)
		}
		selected[req.Name] = best
	}
	return selected, nil
}

// pepNewer reports whether candidate is newer than current, expressed
// as a ">current" specifier check rather than a direct comparison
// method — the only pep440 surface the teacher's own code exercises
// is Parse/NewSpecifiers/Specifiers.Check, so this stays on that
// grounded surface instead of guessing at a Version comparison method.
func pepNewer(cache *systemVersionCache, candidate, current string) (bool, error) {
	vc, err := cache.pepVersion(candidate)
	if err != nil {
		return false, err
	}
	spec, err := cache.pepSpec(">" + current)
	if err != nil {
		return false, err
	}
	return spec.Check(vc), nil
}
