package core

import (
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/types"
)

// ParseRequirement parses a requirement string per §4.2: an optional
// "~" (weak) or "!" (conflict) prefix, a package name, and an optional
// range. The system ecosystem interop extension (§4.2.1) is triggered
// by an "@apt:" or "@pip:" suffix on the name, e.g. "name@apt:>=1.4".
func ParseRequirement(s string) (types.Requirement, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return types.Requirement{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty requirement")
	}

	req := types.Requirement{}
	switch raw[0] {
	case '~':
		req.Weak = true
		raw = raw[1:]
	case '!':
		req.Conflict = true
		raw = raw[1:]
	}
	if raw == "" {
		return types.Requirement{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("requirement has modifier but no name")
	}

	if idx := strings.Index(raw, "@apt:"); idx >= 0 {
		return finishSystemRequirement(req, raw, idx, len("@apt:"), types.SystemEcosystemApt)
	}
	if idx := strings.Index(raw, "@pip:"); idx >= 0 {
		return finishSystemRequirement(req, raw, idx, len("@pip:"), types.SystemEcosystemPip)
	}

	name, rangeStr := splitNameAndRange(raw)
	req.Name = name
	if rangeStr != "" {
		r, err := ParseRange(rangeStr)
		if err != nil {
			return types.Requirement{}, err
		}
		req.Range = &r
	}
	return req, validateRequirement(req)
}

func finishSystemRequirement(req types.Requirement, raw string, idx, tagLen int, eco types.SystemEcosystem) (types.Requirement, error) {
	req.Name = raw[:idx]
	if req.Name == "" {
		return types.Requirement{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("system requirement missing name")
	}
	expr := strings.TrimSpace(raw[idx+tagLen:])
	constraint, err := parseSystemConstraintExpr(eco, expr)
	if err != nil {
		return types.Requirement{}, err
	}
	req.System = &constraint
	return req, validateRequirement(req)
}

// parseSystemConstraintExpr parses the operator+version tail of a
// system interop requirement, e.g. ">=1.4" or "~=2.0". An empty tail
// means "any version of the named system package".
func parseSystemConstraintExpr(eco types.SystemEcosystem, expr string) (types.SystemConstraint, error) {
	if expr == "" {
		return types.SystemConstraint{Ecosystem: eco}, nil
	}
	ops := []types.ConstraintOp{
		types.ConstraintOpEq2, types.ConstraintOpGte, types.ConstraintOpLte,
		types.ConstraintOpNe, types.ConstraintOpCompat, types.ConstraintOpEq,
		types.ConstraintOpGt, types.ConstraintOpLt,
	}
	for _, op := range ops {
		if strings.HasPrefix(expr, string(op)) {
			return types.SystemConstraint{
				Ecosystem: eco,
				Op:        op,
				Version:   strings.TrimSpace(expr[len(op):]),
			}, nil
		}
	}
	return types.SystemConstraint{}, errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("unrecognized system constraint operator: " + expr)
}

// splitNameAndRange splits "name>=1.0" into ("name", ">=1.0"). The name
// is everything up to the first character that can start a range
// expression ('<', '>', '=' or '~').
func splitNameAndRange(s string) (string, string) {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '<' || b == '>' || b == '=' || b == '~' {
			return s[:i], s[i:]
		}
	}
	return s, ""
}

func validateRequirement(r types.Requirement) error {
	if r.Name == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("requirement missing package name")
	}
	if first := r.Name[0]; !(first == '_' || (first >= 'A' && first <= 'Z') || (first >= 'a' && first <= 'z')) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("requirement name must start with a letter or underscore: " + r.Name)
	}
	if r.Weak && r.Conflict {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("requirement cannot be both weak and conflict")
	}
	return nil
}

// SatisfiedBy reports whether candidateVersion satisfies r. For a
// system requirement, candidateVersion is checked against the
// requirement's external ecosystem comparator (§4.2.1) rather than
// being parsed as an internal Version. A conflict requirement is
// satisfied by the absence of a match, so SatisfiedBy here answers
// "does this candidate match the requirement's own version test" —
// callers combine that with Conflict to decide acceptance.
func SatisfiedBy(r types.Requirement, candidateVersion string) (bool, error) {
	if r.System != nil {
		return SatisfiesSystem(candidateVersion, *r.System)
	}
	v, err := ParseVersion(candidateVersion)
	if err != nil {
		return false, err
	}
	if r.Range == nil {
		return true, nil
	}
	return Contains(*r.Range, v), nil
}

// Accepts reports whether a resolved candidate is acceptable for r,
// folding in the weak/conflict modifiers: a conflict requirement
// rejects any candidate version matching its range, a weak requirement
// never forces a resolution failure on its own (callers treat it as
// advisory), everything else requires SatisfiedBy to hold.
func Accepts(r types.Requirement, candidateVersion string) (bool, error) {
	matched, err := SatisfiedBy(r, candidateVersion)
	if err != nil {
		return false, err
	}
	if r.Conflict {
		return !matched, nil
	}
	return matched, nil
}

// CompatibleWith reports whether two requirements on the same package
// name can be jointly satisfied: their ranges intersect, or either is
// system-routed. The weak and conflict modifiers are not considered.
func CompatibleWith(a, b types.Requirement) bool {
	if a.Name != b.Name {
		return true
	}
	if a.System != nil || b.System != nil {
		// System-routed requirements are compared by the caller via the
		// ecosystem comparator against a specific candidate; at the
		// requirement-pair level they're always treated as compatible.
		return true
	}
	ra := types.VersionRange{Any: true, Intervals: []types.Interval{{Low: types.Bound{Kind: types.BoundNone}, High: types.Bound{Kind: types.BoundNone}}}}
	rb := ra
	if a.Range != nil {
		ra = *a.Range
	}
	if b.Range != nil {
		rb = *b.Range
	}
	merged := IntersectRanges(ra, rb)
	return !IsEmptyRange(merged)
}

// ConflictsWith reports whether two requirements on the same package
// name can never both be satisfied: per §3, this holds when their
// ranges have an empty intersection and neither requirement is weak. A
// weak requirement is advisory and never forces a conflict on its own.
func ConflictsWith(a, b types.Requirement) bool {
	if a.Name != b.Name {
		return false
	}
	if a.Weak || b.Weak {
		return false
	}
	if a.System != nil || b.System != nil {
		return false
	}
	ra := types.VersionRange{Any: true, Intervals: []types.Interval{{Low: types.Bound{Kind: types.BoundNone}, High: types.Bound{Kind: types.BoundNone}}}}
	rb := ra
	if a.Range != nil {
		ra = *a.Range
	}
	if b.Range != nil {
		rb = *b.Range
	}
	merged := IntersectRanges(ra, rb)
	return IsEmptyRange(merged)
}

// FormatRequirement renders r back to its canonical string form.
func FormatRequirement(r types.Requirement) string {
	var b strings.Builder
	if r.Weak {
		b.WriteByte('~')
	}
	if r.Conflict {
		b.WriteByte('!')
	}
	b.WriteString(r.Name)
	if r.System != nil {
		b.WriteByte('@')
		b.WriteString(string(r.System.Ecosystem))
		b.WriteByte(':')
		if r.System.Op != types.ConstraintOpNone {
			b.WriteString(string(r.System.Op))
			b.WriteString(r.System.Version)
		}
		return b.String()
	}
	if r.Range != nil {
		b.WriteString(FormatRange(*r.Range))
	}
	return b.String()
}
