package core

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/ports"
	"avular-packages/internal/types"
)

// searchState is the solver-internal node of §4.5's "Search state".
// stateHash depends only on the resolved (name,version) pairs, the
// sorted pending requirement strings, and the conflict signatures, so
// equal content always hashes equal.
type searchState struct {
	id         int
	parentID   int // -1 for the root
	resolved   map[string]types.ResolvedPackage
	pending    []types.Requirement
	conflicts  []types.Conflict
	gCost      float64
	fCost      float64
	depth      int
	stateHash  string
	chosenName string // the package this state's expansion selected, empty for the root
}

func stateHash(resolved map[string]types.ResolvedPackage, pending []types.Requirement, conflicts []types.Conflict) string {
	names := make([]string, 0, len(resolved))
	for name := range resolved {
		names = append(names, name)
	}
	sort.Strings(names)
	h := ""
	for _, name := range names {
		rp := resolved[name]
		h += name + "@" + rp.Package.Version + "|"
	}
	h += "#"
	pendingStrs := make([]string, len(pending))
	for i, p := range pending {
		pendingStrs[i] = FormatRequirement(p)
	}
	sort.Strings(pendingStrs)
	for _, p := range pendingStrs {
		h += p + "|"
	}
	h += "#"
	conflictStrs := make([]string, len(conflicts))
	for i, c := range conflicts {
		conflictStrs[i] = fmt.Sprintf("%s:%s", c.Kind, c.Name)
	}
	sort.Strings(conflictStrs)
	for _, c := range conflictStrs {
		h += c + "|"
	}
	return h
}

// stateHeap is a min-heap over searchState ordered by fCost, the open
// set of §4.5's A* loop.
type stateHeap []*searchState

func (h stateHeap) Len() int            { return len(h) }
func (h stateHeap) Less(i, j int) bool  { return h[i].fCost < h[j].fCost }
func (h stateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *stateHeap) Push(x interface{}) { *h = append(*h, x.(*searchState)) }
func (h *stateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func hasFatalConflict(conflicts []types.Conflict) bool {
	for _, c := range conflicts {
		if c.Kind == types.ConflictKindMissingPackage || c.Kind == types.ConflictKindCircularDependency {
			return true
		}
	}
	return false
}

// Solver runs the A* search of §4.5 over a Repository's candidate
// packages.
type Solver struct {
	repo ports.Repository
}

// NewSolver constructs a Solver backed by repo.
func NewSolver(repo ports.Repository) *Solver {
	return &Solver{repo: repo}
}

const defaultMaxCandidatesPerStep = 50

// Resolve runs the solver to completion or to a budget/unsatisfiable
// outcome (§4.5).
func (s *Solver) Resolve(ctx context.Context, req types.ResolveRequest) (types.ResolutionResult, error) {
	start := time.Now()
	maxCandidates := req.MaxCandidatesPerStep
	if maxCandidates <= 0 {
		maxCandidates = defaultMaxCandidatesPerStep
	}
	strategy := NewConflictStrategy(req.Strategy)
	requirementCount := len(req.Requirements) + len(req.Constraints)
	heuristic := HeuristicFactory(req.HeuristicScenario, requirementCount)

	pending := append([]types.Requirement{}, req.Requirements...)
	pending = append(pending, req.Constraints...)

	root := &searchState{
		id:        0,
		parentID:  -1,
		resolved:  map[string]types.ResolvedPackage{},
		pending:   pending,
		conflicts: nil,
		gCost:     0,
		depth:     0,
	}
	root.stateHash = stateHash(root.resolved, root.pending, root.conflicts)
	root.fCost = root.gCost + heuristic.Calculate(heuristicInputFor(root))

	open := &stateHeap{root}
	heap.Init(open)
	closed := map[string]bool{}
	nextID := 1
	statesByID := map[int]*searchState{0: root}

	var statesExplored int64
	var best *searchState

	for open.Len() > 0 {
		if req.MaxStatesExplored > 0 && statesExplored >= req.MaxStatesExplored {
			return types.ResolutionResult{}, budgetExhaustedErr("max_states_explored")
		}
		if req.MaxSearchTimeMs > 0 && time.Since(start).Milliseconds() >= req.MaxSearchTimeMs {
			return types.ResolutionResult{}, budgetExhaustedErr("max_search_time_ms")
		}
		select {
		case <-ctx.Done():
			return types.ResolutionResult{}, ctx.Err()
		default:
		}

		current := heap.Pop(open).(*searchState)
		if closed[current.stateHash] {
			continue
		}
		closed[current.stateHash] = true
		statesExplored++
		if best == nil || len(current.pending) < len(best.pending) ||
			(len(current.pending) == len(best.pending) && len(current.conflicts) > len(best.conflicts)) {
			best = current
		}

		if len(current.pending) == 0 && len(current.conflicts) == 0 {
			packages := reconstructPath(current, statesByID)
			return types.ResolutionResult{
				Packages:          packages,
				ConflictsResolved: len(current.conflicts) == 0,
				ResolutionTimeMs:  time.Since(start).Milliseconds(),
				StatesExplored:    statesExplored,
			}, nil
		}
		if hasFatalConflict(current.conflicts) {
			continue
		}

		reqIdx := pickExpansionIndex(current.pending)
		picked := current.pending[reqIdx]

		candidates, err := s.repo.Candidates(ctx, picked.Name)
		if err != nil {
			return types.ResolutionResult{}, err
		}
		candidates = filterCandidates(candidates, req, picked)

		// The strategy only collapses candidates when more than one
		// pending requirement actually constrains this name (§4.5
		// "Conflict strategy application happens during expansion: on a
		// version conflict for a name"). Absent a competing requirement,
		// every range-satisfying candidate gets its own successor so A*
		// can explore and, if needed, backtrack across versions.
		pendingRanges := rangesForName(current.pending, picked.Name)
		var selected []types.Package
		if len(pendingRanges) > 1 {
			selected, err = strategy.SelectCandidates(candidates, pendingRanges)
			if err != nil {
				return types.ResolutionResult{}, err
			}
		} else {
			selected = filterByAnyRange(candidates, pendingRanges)
		}
		selected = sortByPreference(selected, req)
		if len(selected) > maxCandidates {
			selected = selected[:maxCandidates]
		}
		preferLatest := req.Strategy != types.ConflictStrategyEarliestWins

		if len(selected) == 0 {
			if req.Strategy == types.ConflictStrategyFailOnConflict {
				continue
			}
			successor := expandMissing(current, reqIdx, picked, nextID)
			successor.id = nextID
			nextID++
			successor.fCost = successor.gCost + heuristic.Calculate(heuristicInputFor(successor))
			statesByID[successor.id] = successor
			if !closed[successor.stateHash] {
				heap.Push(open, successor)
			}
			continue
		}

		for variantIndex := range variantChoicesFor(selected) {
			for idx, candidate := range selected {
				rankCost := preferenceRankCost(idx, len(selected), preferLatest)
				for _, vi := range viableVariants(candidate, variantIndex) {
					successor := expandCandidate(current, reqIdx, picked, candidate, vi, rankCost)
					successor.id = nextID
					nextID++
					successor.fCost = successor.gCost + heuristic.Calculate(heuristicInputFor(successor))
					statesByID[successor.id] = successor
					if !closed[successor.stateHash] {
						heap.Push(open, successor)
					}
				}
			}
		}
	}

	// A fatal conflict (missing package, circular dependency) is
	// unsatisfiable under any strategy, not only FailOnConflict: no
	// version-selection policy can repair a structural cycle.
	if best != nil && len(best.conflicts) > 0 {
		return types.ResolutionResult{}, unsatisfiableErr(best.conflicts)
	}
	return types.ResolutionResult{}, unsatisfiableErr(nil)
}

func heuristicInputFor(s *searchState) heuristicInput {
	sevs := make([]float64, len(s.conflicts))
	for i, c := range s.conflicts {
		sevs[i] = c.Severity
	}
	return heuristicInput{
		PendingCount:       len(s.pending),
		ConflictSeverities: sevs,
		AverageBranching:   1.5,
		EstimatedDepth:     len(s.pending),
	}
}

// pickExpansionIndex chooses the next pending requirement to expand:
// tie-break by name, then original position (§4.5 step 4).
func pickExpansionIndex(pending []types.Requirement) int {
	best := 0
	for i := 1; i < len(pending); i++ {
		if pending[i].Name < pending[best].Name {
			best = i
		}
	}
	return best
}

func rangesForName(pending []types.Requirement, name string) []types.VersionRange {
	var out []types.VersionRange
	for _, p := range pending {
		if p.Name != name || p.System != nil {
			continue
		}
		if p.Range != nil {
			out = append(out, *p.Range)
		} else {
			out = append(out, AnyRange())
		}
	}
	return out
}

// filterByAnyRange keeps candidates accepted by at least one of ranges
// (or all candidates, if ranges is empty), without collapsing to a
// single winner.
func filterByAnyRange(candidates []types.Package, ranges []types.VersionRange) []types.Package {
	var out []types.Package
	for i := range candidates {
		if anyRangeAccepts(candidates[i].Version, ranges) {
			out = append(out, candidates[i])
		}
	}
	return out
}

// preferenceRankCost turns a candidate's position in a
// preference-sorted (latest-first) slice into a small gCost nudge, so
// ties between otherwise-equal successors break toward the preferred
// end of the range deterministically without forbidding the solver
// from exploring and backtracking into the other candidates.
func preferenceRankCost(index, total int, preferLatest bool) float64 {
	if total <= 1 {
		return 0
	}
	rank := float64(index) / float64(total-1)
	if !preferLatest {
		rank = 1 - rank
	}
	return rank * 0.01
}

func filterCandidates(candidates []types.Package, req types.ResolveRequest, picked types.Requirement) []types.Package {
	excluded := map[string]bool{}
	for _, e := range req.Excludes {
		excluded[e] = true
	}
	var out []types.Package
	for _, c := range candidates {
		if excluded[c.Name] {
			continue
		}
		if !req.AllowPrerelease && isPrerelease(c.Version) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// isPrerelease treats an alphanumeric-leading final token as a
// prerelease marker, e.g. "1.0.0-rc1".
func isPrerelease(version string) bool {
	v, err := ParseVersion(version)
	if err != nil || len(v.Tokens) == 0 {
		return false
	}
	last := v.Tokens[len(v.Tokens)-1]
	return last.Kind == types.TokenAlphanumeric
}

func sortByPreference(candidates []types.Package, req types.ResolveRequest) []types.Package {
	out := append([]types.Package{}, candidates...)
	sort.Slice(out, func(i, j int) bool {
		vi, erri := ParseVersion(out[i].Version)
		vj, errj := ParseVersion(out[j].Version)
		if erri != nil || errj != nil {
			return out[i].Version > out[j].Version
		}
		return CompareVersions(vi, vj) > 0 // latest first by default
	})
	return out
}

// variantChoicesFor returns the maximum variant count across
// candidates, so the caller can fork one successor per viable variant
// index, plus the sentinel -1 for "no variant".
func variantChoicesFor(candidates []types.Package) []int {
	maxVariants := 0
	for _, c := range candidates {
		if len(c.Variants) > maxVariants {
			maxVariants = len(c.Variants)
		}
	}
	if maxVariants == 0 {
		return []int{-1}
	}
	indices := make([]int, 0, maxVariants+1)
	indices = append(indices, -1)
	for i := 0; i < maxVariants; i++ {
		indices = append(indices, i)
	}
	return indices
}

func viableVariants(candidate types.Package, variantIndex int) []int {
	if variantIndex == -1 {
		return []int{-1}
	}
	if variantIndex < len(candidate.Variants) {
		return []int{variantIndex}
	}
	return nil
}

func expandCandidate(current *searchState, reqIdx int, picked types.Requirement, candidate types.Package, variantIndex int, rankCost float64) *searchState {
	resolved := cloneResolved(current.resolved)
	vi := variantIndex
	var viPtr *int
	if vi >= 0 {
		viPtr = &vi
	}
	resolved[candidate.Name] = types.ResolvedPackage{
		Package:      candidate,
		VariantIndex: viPtr,
		RootPath:     candidate.RootPath,
		Requested:    !picked.Weak,
	}

	pending := dropIndex(current.pending, reqIdx)
	pending = append(pending, candidate.Requires...)
	pending = append(pending, candidate.VariantRequirements(variantIndex)...)

	conflicts := append([]types.Conflict{}, current.conflicts...)
	if dependencyCycleExists(resolved, candidate.Name) {
		conflicts = append(conflicts, types.Conflict{
			Kind:     types.ConflictKindCircularDependency,
			Name:     candidate.Name,
			Severity: 1.0,
			Detail:   candidate.Name + " transitively requires itself",
		})
	}
	conflicts = append(conflicts, detectConflicts(resolved, pending)...)

	cost := 1.0 + 0.1*float64(len(candidate.Requires)) + rankCost
	for _, c := range conflicts {
		cost += conflictPenalty(c.Severity)
	}

	s := &searchState{
		parentID:   current.id,
		resolved:   resolved,
		pending:    pending,
		conflicts:  conflicts,
		gCost:      current.gCost + cost,
		depth:      current.depth + 1,
		chosenName: candidate.Name,
	}
	s.stateHash = stateHash(s.resolved, s.pending, s.conflicts)
	return s
}

func expandMissing(current *searchState, reqIdx int, picked types.Requirement, nextID int) *searchState {
	pending := dropIndex(current.pending, reqIdx)
	conflicts := append([]types.Conflict{}, current.conflicts...)
	conflicts = append(conflicts, types.Conflict{
		Kind:     types.ConflictKindMissingPackage,
		Name:     picked.Name,
		Severity: 1.0,
		Detail:   "no candidate satisfies " + FormatRequirement(picked),
	})
	s := &searchState{
		parentID:  current.id,
		resolved:  cloneResolved(current.resolved),
		pending:   pending,
		conflicts: conflicts,
		gCost:     current.gCost + 1.0 + conflictPenalty(1.0),
		depth:     current.depth + 1,
	}
	s.stateHash = stateHash(s.resolved, s.pending, s.conflicts)
	return s
}

func conflictPenalty(severity float64) float64 {
	return severity * 5.0
}

func cloneResolved(in map[string]types.ResolvedPackage) map[string]types.ResolvedPackage {
	out := make(map[string]types.ResolvedPackage, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func dropIndex(s []types.Requirement, idx int) []types.Requirement {
	out := make([]types.Requirement, 0, len(s)-1)
	out = append(out, s[:idx]...)
	out = append(out, s[idx+1:]...)
	return out
}

// detectConflicts checks the freshly-updated resolved set and pending
// list for version clashes: a resolved package whose version doesn't
// satisfy a remaining pending requirement on the same name.
func detectConflicts(resolved map[string]types.ResolvedPackage, pending []types.Requirement) []types.Conflict {
	var out []types.Conflict
	for _, p := range pending {
		if p.System != nil {
			continue
		}
		rp, ok := resolved[p.Name]
		if !ok {
			continue
		}
		ok2, err := Accepts(p, rp.Package.Version)
		if err != nil || ok2 {
			continue
		}
		out = append(out, types.Conflict{
			Kind:     types.ConflictKindVersion,
			Name:     p.Name,
			Severity: 0.7,
			Detail:   "resolved " + rp.Package.Version + " does not satisfy " + FormatRequirement(p),
		})
	}
	return out
}

// dependencyCycleExists reports whether start's own requires graph,
// followed only through packages already present in resolved, leads
// back to start (§9 "detection uses a visited-set along the candidate
// expansion path, never a direct reference cycle"). Packages not yet
// resolved can't form a concrete edge, so a true cycle is only
// detected once every package on the loop has been added — exactly
// when the loop actually closes.
func dependencyCycleExists(resolved map[string]types.ResolvedPackage, start string) bool {
	visited := map[string]bool{}
	var visit func(name string) bool
	visit = func(name string) bool {
		if name == start {
			return true
		}
		if visited[name] {
			return false
		}
		visited[name] = true
		rp, ok := resolved[name]
		if !ok {
			return false
		}
		for _, req := range requiresOf(rp) {
			if visit(req.Name) {
				return true
			}
		}
		return false
	}
	rp, ok := resolved[start]
	if !ok {
		return false
	}
	for _, req := range requiresOf(rp) {
		if visit(req.Name) {
			return true
		}
	}
	return false
}

func requiresOf(rp types.ResolvedPackage) []types.Requirement {
	reqs := rp.Package.Requires
	if rp.VariantIndex != nil {
		reqs = append(append([]types.Requirement{}, reqs...), rp.Package.VariantRequirements(*rp.VariantIndex)...)
	}
	return reqs
}

// reconstructPath walks parentID back to the root and returns the
// resolved packages of the goal state in dependency order: each
// package comes after the packages it requires, and names are taken in
// sorted order wherever the requirements leave the order open (the
// full chain is still traversed to keep parent_id load-bearing per the
// invariant, even though the goal state's own `resolved` map already
// holds the answer).
func reconstructPath(goal *searchState, byID map[int]*searchState) []types.ResolvedPackage {
	cur := goal
	for cur.parentID != -1 {
		cur = byID[cur.parentID]
	}
	names := make([]string, 0, len(goal.resolved))
	for name := range goal.resolved {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]types.ResolvedPackage, 0, len(names))
	placed := map[string]bool{}
	var place func(name string)
	place = func(name string) {
		rp, ok := goal.resolved[name]
		if !ok || placed[name] {
			return
		}
		placed[name] = true
		for _, req := range requiresOf(rp) {
			place(req.Name)
		}
		out = append(out, rp)
	}
	for _, name := range names {
		place(name)
	}
	return withParents(out)
}

// withParents fills each resolved package's Parents from the final
// resolved set's own Requires/variant requirements: if A requires B,
// B records A's name as a parent. Computed post-hoc from the goal
// state rather than threaded through search-state expansion, since
// the final version/variant choices are what Parents describes.
func withParents(resolved []types.ResolvedPackage) []types.ResolvedPackage {
	byName := map[string]int{}
	for i, rp := range resolved {
		byName[rp.Package.Name] = i
	}
	for _, rp := range resolved {
		for _, req := range requiresOf(rp) {
			idx, ok := byName[req.Name]
			if !ok || req.Name == rp.Package.Name {
				continue
			}
			resolved[idx].Parents = append(resolved[idx].Parents, rp.Package.Name)
		}
	}
	for i := range resolved {
		sort.Strings(resolved[i].Parents)
	}
	return resolved
}

func budgetExhaustedErr(budget string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("solver budget exhausted: " + budget)
}

func unsatisfiableErr(conflicts []types.Conflict) error {
	detail := "no resolution satisfies the given requirements"
	if len(conflicts) > 0 {
		detail += ": " + conflicts[0].Detail
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(detail)
}
