package core

import (
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"

	"avular-packages/internal/types"
)

// systemVersionCache memoizes parsed apt/pip version and specifier
// objects so repeated satisfaction checks against the same candidate
// set don't reparse. One cache is shared across a single solve.
type systemVersionCache struct {
	deb  map[string]debversion.Version
	pep  map[string]pep440.Version
	spec map[string]pep440.Specifiers
}

func newSystemVersionCache() *systemVersionCache {
	return &systemVersionCache{
		deb:  map[string]debversion.Version{},
		pep:  map[string]pep440.Version{},
		spec: map[string]pep440.Specifiers{},
	}
}

func (c *systemVersionCache) debVersion(value string) (debversion.Version, error) {
	if v, ok := c.deb[value]; ok {
		return v, nil
	}
	v, err := debversion.NewVersion(value)
	if err != nil {
		return debversion.Version{}, err
	}
	c.deb[value] = v
	return v, nil
}

func (c *systemVersionCache) pepVersion(value string) (pep440.Version, error) {
	if v, ok := c.pep[value]; ok {
		return v, nil
	}
	v, err := pep440.Parse(value)
	if err != nil {
		return pep440.Version{}, err
	}
	c.pep[value] = v
	return v, nil
}

func (c *systemVersionCache) pepSpec(value string) (pep440.Specifiers, error) {
	if v, ok := c.spec[value]; ok {
		return v, nil
	}
	v, err := pep440.NewSpecifiers(value)
	if err != nil {
		return pep440.Specifiers{}, err
	}
	c.spec[value] = v
	return v, nil
}

// globalSystemVersionCache backs the package-level SatisfiesSystem
// helper. ResolveAptRequirements and ResolvePipRequirements each also
// create a per-call cache for their own version sorting; the A*
// Solver holds no system version cache.
var globalSystemVersionCache = newSystemVersionCache()

// SatisfiesSystem reports whether version satisfies the given system
// constraint, delegating comparison to the named ecosystem's own
// library rather than the internal Version model (§4.2.1).
func SatisfiesSystem(version string, c types.SystemConstraint) (bool, error) {
	return satisfiesSystemWith(globalSystemVersionCache, version, c)
}

func satisfiesSystemWith(cache *systemVersionCache, version string, c types.SystemConstraint) (bool, error) {
	if c.Op == types.ConstraintOpNone {
		return true, nil
	}
	switch c.Ecosystem {
	case types.SystemEcosystemApt:
		return satisfiesDeb(cache, version, c)
	case types.SystemEcosystemPip:
		return satisfiesPep440(cache, version, c)
	default:
		return false, parseErr("unknown system ecosystem", string(c.Ecosystem))
	}
}

func satisfiesDeb(cache *systemVersionCache, version string, c types.SystemConstraint) (bool, error) {
	v, err := cache.debVersion(version)
	if err != nil {
		return false, err
	}
	bound, err := cache.debVersion(c.Version)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case types.ConstraintOpEq, types.ConstraintOpEq2:
		return v.Equal(bound), nil
	case types.ConstraintOpNe:
		return !v.Equal(bound), nil
	case types.ConstraintOpGte:
		return v.Equal(bound) || v.GreaterThan(bound), nil
	case types.ConstraintOpLte:
		return v.Equal(bound) || v.LessThan(bound), nil
	case types.ConstraintOpGt:
		return v.GreaterThan(bound), nil
	case types.ConstraintOpLt:
		return v.LessThan(bound), nil
	default:
		return false, parseErr("unsupported apt constraint operator", string(c.Op))
	}
}

func satisfiesPep440(cache *systemVersionCache, version string, c types.SystemConstraint) (bool, error) {
	parsed, err := cache.pepVersion(version)
	if err != nil {
		return false, err
	}
	spec, err := cache.pepSpec(toPep440SpecString(c))
	if err != nil {
		return false, err
	}
	return spec.Check(parsed), nil
}

func toPep440SpecString(c types.SystemConstraint) string {
	op := string(c.Op)
	if c.Op == types.ConstraintOpEq {
		op = "=="
	}
	return strings.TrimSpace(op + " " + c.Version)
}
