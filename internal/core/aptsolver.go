package core

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/crillab/gophersat/solver"

	"avular-packages/internal/ports"
	"avular-packages/internal/types"
)

// ResolveAptRequirements selects one version per named apt package
// satisfying the given system requirements, via a SAT solver (§4.7.1):
// an at-most-one clause per package plus a root-demand clause per
// requirement, minimized toward the newest available version of each
// package. This is the secondary solver the Build Orchestrator uses
// for build-toolchain resolution; it never touches the internal
// Version model or the A* solver in solver.go.
func ResolveAptRequirements(ctx context.Context, index ports.SystemIndex, reqs []types.Requirement) (map[string]string, error) {
	if len(reqs) == 0 {
		return map[string]string{}, nil
	}
	cache := newSystemVersionCache()

	nameToVarID := map[string]map[string]int{}
	varMeta := map[int]struct {
		name    string
		version string
	}{}
	packageVars := map[string][]int{}
	var costLits []solver.Lit
	var costWeights []int
	varID := 0
	sawApt := false

	for _, req := range reqs {
		if req.System == nil || req.System.Ecosystem != types.SystemEcosystemApt {
			continue
		}
		sawApt = true
		if _, seen := packageVars[req.Name]; seen {
			continue
		}
		versions, err := index.AptPackages(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		ordered := sortDebVersions(versions, cache)
		ids := make([]int, 0, len(ordered))
		for i, v := range ordered {
			varID++
			id := varID
			if nameToVarID[req.Name] == nil {
				nameToVarID[req.Name] = map[string]int{}
			}
			nameToVarID[req.Name][v] = id
			varMeta[id] = struct {
				name    string
				version string
			}{name: req.Name, version: v}
			ids = append(ids, id)
			weight := i // ordered is newest first: 0 for the newest version, preferred by minimization
			costLits = append(costLits, solver.IntToLit(int32(id)))
			costWeights = append(costWeights, weight)
		}
		if len(ids) > 0 {
			packageVars[req.Name] = ids
		}
	}
	if !sawApt {
		return map[string]string{}, nil
	}
	if varID == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("apt solver found no candidate versions for the requested packages")
	}

	var clauses [][]int
	for _, ids := range packageVars {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				clauses = append(clauses, []int{-ids[i], -ids[j]})
			}
		}
	}
	for _, req := range reqs {
		if req.System == nil || req.System.Ecosystem != types.SystemEcosystemApt {
			continue
		}
		ids, ok := packageVars[req.Name]
		if !ok {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("no apt candidates satisfy %s", req.Name))
		}
		var demand []int
		for _, id := range ids {
			meta := varMeta[id]
			ok, err := SatisfiesSystem(meta.version, *req.System)
			if err != nil {
				return nil, err
			}
			if ok {
				demand = append(demand, id)
			}
		}
		if len(demand) == 0 {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("no apt candidates satisfy %s", req.Name))
		}
		clauses = append(clauses, demand)
	}

	problem := solver.ParseSliceNb(clauses, varID)
	problem.SetCostFunc(costLits, costWeights)
	sat := solver.New(problem)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if cost := sat.Minimize(); cost < 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("apt solver found no satisfiable solution")
	}
	model := sat.Model()
	selected := map[string]string{}
	for id, meta := range varMeta {
		if id-1 < 0 || id-1 >= len(model) {
			continue
		}
		if model[id-1] {
			selected[meta.name] = meta.version
		}
	}
	return selected, nil
}

func sortDebVersions(versions []string, cache *systemVersionCache) []string {
	ordered := append([]string(nil), versions...)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0; j-- {
			less, err := debLess(ordered[j-1], ordered[j], cache)
			if err != nil || !less {
				break
			}
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
		}
	}
	return ordered
}

func debLess(a, b string, cache *systemVersionCache) (bool, error) {
	va, err := cache.debVersion(a)
	if err != nil {
		return a < b, nil
	}
	vb, err := cache.debVersion(b)
	if err != nil {
		return a < b, nil
	}
	return va.Compare(vb) < 0, nil
}
