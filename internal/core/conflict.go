package core

import (
	"avular-packages/internal/types"
)

// ConflictStrategy decides, for a package name with more than one
// pending requirement, which candidate versions are viable (§4.5
// "Conflict strategy application"). pendingRanges holds every
// requirement range currently outstanding for the name, including the
// one about to be expanded.
type ConflictStrategy interface {
	Name() types.ConflictStrategyName
	SelectCandidates(candidates []types.Package, pendingRanges []types.VersionRange) ([]types.Package, error)
}

// LatestWinsStrategy keeps only the highest-versioned candidate that
// satisfies at least one pending range, biasing resolution toward the
// newest acceptable version.
type LatestWinsStrategy struct{}

func (LatestWinsStrategy) Name() types.ConflictStrategyName { return types.ConflictStrategyLatestWins }

func (LatestWinsStrategy) SelectCandidates(candidates []types.Package, ranges []types.VersionRange) ([]types.Package, error) {
	return pickExtreme(candidates, ranges, true)
}

// EarliestWinsStrategy mirrors LatestWinsStrategy but prefers the
// lowest-versioned acceptable candidate.
type EarliestWinsStrategy struct{}

func (EarliestWinsStrategy) Name() types.ConflictStrategyName {
	return types.ConflictStrategyEarliestWins
}

func (EarliestWinsStrategy) SelectCandidates(candidates []types.Package, ranges []types.VersionRange) ([]types.Package, error) {
	return pickExtreme(candidates, ranges, false)
}

func pickExtreme(candidates []types.Package, ranges []types.VersionRange, latest bool) ([]types.Package, error) {
	var best *types.Package
	var bestVersion types.Version
	for i := range candidates {
		c := candidates[i]
		if !anyRangeAccepts(c.Version, ranges) {
			continue
		}
		v, err := ParseVersion(c.Version)
		if err != nil {
			continue
		}
		if best == nil {
			best = &candidates[i]
			bestVersion = v
			continue
		}
		cmp := CompareVersions(v, bestVersion)
		if (latest && cmp > 0) || (!latest && cmp < 0) {
			best = &candidates[i]
			bestVersion = v
		}
	}
	if best == nil {
		return nil, nil
	}
	return []types.Package{*best}, nil
}

// FailOnConflictStrategy rejects the expansion outright when more than
// one pending range constrains the same name and no single candidate
// satisfies all of them simultaneously.
type FailOnConflictStrategy struct{}

func (FailOnConflictStrategy) Name() types.ConflictStrategyName {
	return types.ConflictStrategyFailOnConflict
}

func (FailOnConflictStrategy) SelectCandidates(candidates []types.Package, ranges []types.VersionRange) ([]types.Package, error) {
	var out []types.Package
	for i := range candidates {
		if allRangesAccept(candidates[i].Version, ranges) {
			out = append(out, candidates[i])
		}
	}
	return out, nil
}

// FindCompatibleStrategy intersects every pending range for the name
// and enumerates candidates within that intersection only (§4.5).
type FindCompatibleStrategy struct{}

func (FindCompatibleStrategy) Name() types.ConflictStrategyName {
	return types.ConflictStrategyFindCompatible
}

func (FindCompatibleStrategy) SelectCandidates(candidates []types.Package, ranges []types.VersionRange) ([]types.Package, error) {
	if len(ranges) == 0 {
		return candidates, nil
	}
	intersection := ranges[0]
	for _, r := range ranges[1:] {
		intersection = IntersectRanges(intersection, r)
	}
	if IsEmptyRange(intersection) {
		return nil, nil
	}
	var out []types.Package
	for i := range candidates {
		v, err := ParseVersion(candidates[i].Version)
		if err != nil {
			continue
		}
		if Contains(intersection, v) {
			out = append(out, candidates[i])
		}
	}
	return out, nil
}

func anyRangeAccepts(version string, ranges []types.VersionRange) bool {
	v, err := ParseVersion(version)
	if err != nil {
		return false
	}
	for _, r := range ranges {
		if Contains(r, v) {
			return true
		}
	}
	return len(ranges) == 0
}

func allRangesAccept(version string, ranges []types.VersionRange) bool {
	v, err := ParseVersion(version)
	if err != nil {
		return false
	}
	for _, r := range ranges {
		if !Contains(r, v) {
			return false
		}
	}
	return true
}

// NewConflictStrategy is the factory named in §4.5's enumerated
// conflict strategies.
func NewConflictStrategy(name types.ConflictStrategyName) ConflictStrategy {
	switch name {
	case types.ConflictStrategyEarliestWins:
		return EarliestWinsStrategy{}
	case types.ConflictStrategyFailOnConflict:
		return FailOnConflictStrategy{}
	case types.ConflictStrategyFindCompatible:
		return FindCompatibleStrategy{}
	default:
		return LatestWinsStrategy{}
	}
}
