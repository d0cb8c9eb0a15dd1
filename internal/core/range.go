package core

import (
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/types"
)

// AnyRange returns the unconstrained range (contains every version).
func AnyRange() types.VersionRange {
	return types.VersionRange{Any: true, Intervals: []types.Interval{unboundedInterval()}}
}

// EmptyRange returns the unsatisfiable range (contains no version).
func EmptyRange() types.VersionRange {
	return types.VersionRange{}
}

func unboundedInterval() types.Interval {
	return types.Interval{Low: types.Bound{Kind: types.BoundNone}, High: types.Bound{Kind: types.BoundNone}}
}

// ParseRange parses a single-interval range expression: "==v", ">v",
// ">=v", "<v", "<=v", "~=v" (compatible release: >=v within the same
// leading component), "a,b" meaning ">=a,<b", and the trailing-"+"
// shorthand ("1.0+" == ">=1.0").
func ParseRange(s string) (types.VersionRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AnyRange(), nil
	}

	if strings.Contains(s, ",") {
		parts := strings.SplitN(s, ",", 2)
		lo, err := parseBoundExpr(strings.TrimSpace(parts[0]), true)
		if err != nil {
			return types.VersionRange{}, err
		}
		hi, err := parseBoundExpr(strings.TrimSpace(parts[1]), false)
		if err != nil {
			return types.VersionRange{}, err
		}
		return normalizeRange([]types.Interval{{Low: lo, High: hi}})
	}

	if strings.HasSuffix(s, "+") {
		v, err := ParseVersion(strings.TrimSuffix(s, "+"))
		if err != nil {
			return types.VersionRange{}, err
		}
		return normalizeRange([]types.Interval{{
			Low:  types.Bound{Kind: types.BoundInclusive, Version: v},
			High: types.Bound{Kind: types.BoundNone},
		}})
	}

	switch {
	case strings.HasPrefix(s, "~="):
		return parseCompatibleRange(strings.TrimSpace(s[2:]))
	case strings.HasPrefix(s, ">="):
		v, err := ParseVersion(strings.TrimSpace(s[2:]))
		if err != nil {
			return types.VersionRange{}, err
		}
		return normalizeRange([]types.Interval{{Low: types.Bound{Kind: types.BoundInclusive, Version: v}, High: types.Bound{Kind: types.BoundNone}}})
	case strings.HasPrefix(s, "<="):
		v, err := ParseVersion(strings.TrimSpace(s[2:]))
		if err != nil {
			return types.VersionRange{}, err
		}
		return normalizeRange([]types.Interval{{Low: types.Bound{Kind: types.BoundNone}, High: types.Bound{Kind: types.BoundInclusive, Version: v}}})
	case strings.HasPrefix(s, "=="):
		v, err := ParseVersion(strings.TrimSpace(s[2:]))
		if err != nil {
			return types.VersionRange{}, err
		}
		return normalizeRange([]types.Interval{{Low: types.Bound{Kind: types.BoundInclusive, Version: v}, High: types.Bound{Kind: types.BoundInclusive, Version: v}}})
	case strings.HasPrefix(s, ">"):
		v, err := ParseVersion(strings.TrimSpace(s[1:]))
		if err != nil {
			return types.VersionRange{}, err
		}
		return normalizeRange([]types.Interval{{Low: types.Bound{Kind: types.BoundExclusive, Version: v}, High: types.Bound{Kind: types.BoundNone}}})
	case strings.HasPrefix(s, "<"):
		v, err := ParseVersion(strings.TrimSpace(s[1:]))
		if err != nil {
			return types.VersionRange{}, err
		}
		return normalizeRange([]types.Interval{{Low: types.Bound{Kind: types.BoundNone}, High: types.Bound{Kind: types.BoundExclusive, Version: v}}})
	default:
		// Bare version: treated as an exact-match shorthand, "==v".
		v, err := ParseVersion(s)
		if err != nil {
			return types.VersionRange{}, err
		}
		return normalizeRange([]types.Interval{{Low: types.Bound{Kind: types.BoundInclusive, Version: v}, High: types.Bound{Kind: types.BoundInclusive, Version: v}}})
	}
}

func parseBoundExpr(s string, isLow bool) (types.Bound, error) {
	switch {
	case strings.HasPrefix(s, ">="):
		v, err := ParseVersion(strings.TrimSpace(s[2:]))
		return types.Bound{Kind: types.BoundInclusive, Version: v}, err
	case strings.HasPrefix(s, ">"):
		v, err := ParseVersion(strings.TrimSpace(s[1:]))
		return types.Bound{Kind: types.BoundExclusive, Version: v}, err
	case strings.HasPrefix(s, "<="):
		v, err := ParseVersion(strings.TrimSpace(s[2:]))
		return types.Bound{Kind: types.BoundInclusive, Version: v}, err
	case strings.HasPrefix(s, "<"):
		v, err := ParseVersion(strings.TrimSpace(s[1:]))
		return types.Bound{Kind: types.BoundExclusive, Version: v}, err
	default:
		v, err := ParseVersion(s)
		if err != nil {
			return types.Bound{}, err
		}
		if isLow {
			return types.Bound{Kind: types.BoundInclusive, Version: v}, nil
		}
		return types.Bound{Kind: types.BoundExclusive, Version: v}, nil
	}
}

// parseCompatibleRange implements "~=": the version must be >= v and
// share v's leading (first-token) component, i.e. it is
// equivalent to ">=v,<(leading component bumped)".
func parseCompatibleRange(raw string) (types.VersionRange, error) {
	v, err := ParseVersion(raw)
	if err != nil {
		return types.VersionRange{}, err
	}
	if len(v.Tokens) == 0 {
		return types.VersionRange{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("compatible range requires a non-empty version")
	}
	upper := bumpLeadingComponent(v)
	return normalizeRange([]types.Interval{{
		Low:  types.Bound{Kind: types.BoundInclusive, Version: v},
		High: types.Bound{Kind: types.BoundExclusive, Version: upper},
	}})
}

// bumpLeadingComponent returns the version formed by incrementing the
// first token's numeric value by one and dropping everything after it
// (the leading component for "~=" purposes).
func bumpLeadingComponent(v types.Version) types.Version {
	first := v.Tokens[0]
	bumped := first
	if first.Kind == types.TokenNumeric {
		bumped.Numeric = first.Numeric + 1
		bumped.Text = itoa(bumped.Numeric)
	}
	return types.Version{Form: types.VersionNormal, Tokens: []types.Token{bumped}}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Contains reports whether r contains v, via binary search over the
// sorted, disjoint interval list.
func Contains(r types.VersionRange, v types.Version) bool {
	idx := sort.Search(len(r.Intervals), func(i int) bool {
		return !intervalBefore(r.Intervals[i], v)
	})
	if idx >= len(r.Intervals) {
		return false
	}
	return intervalContains(r.Intervals[idx], v)
}

func intervalBefore(iv types.Interval, v types.Version) bool {
	if iv.High.Kind == types.BoundNone {
		return false
	}
	c := CompareVersions(iv.High.Version, v)
	if iv.High.Kind == types.BoundInclusive {
		return c < 0
	}
	return c <= 0
}

func intervalContains(iv types.Interval, v types.Version) bool {
	if iv.Low.Kind != types.BoundNone {
		c := CompareVersions(v, iv.Low.Version)
		if iv.Low.Kind == types.BoundInclusive && c < 0 {
			return false
		}
		if iv.Low.Kind == types.BoundExclusive && c <= 0 {
			return false
		}
	}
	if iv.High.Kind != types.BoundNone {
		c := CompareVersions(v, iv.High.Version)
		if iv.High.Kind == types.BoundInclusive && c > 0 {
			return false
		}
		if iv.High.Kind == types.BoundExclusive && c >= 0 {
			return false
		}
	}
	return true
}

// IsAny reports whether r contains every version.
func IsAny(r types.VersionRange) bool {
	return len(r.Intervals) == 1 &&
		r.Intervals[0].Low.Kind == types.BoundNone &&
		r.Intervals[0].High.Kind == types.BoundNone
}

// IsEmptyRange reports whether r contains no version.
func IsEmptyRange(r types.VersionRange) bool { return len(r.Intervals) == 0 }

// IntersectRanges returns the intersection of a and b, normalized to a
// sorted, disjoint interval list. The empty intersection is
// representable and means "unsatisfiable".
func IntersectRanges(a, b types.VersionRange) types.VersionRange {
	var out []types.Interval
	for _, x := range a.Intervals {
		for _, y := range b.Intervals {
			if iv, ok := intersectInterval(x, y); ok {
				out = append(out, iv)
			}
		}
	}
	merged, _ := normalizeRange(out)
	return merged
}

func intersectInterval(a, b types.Interval) (types.Interval, bool) {
	low := tighterLow(a.Low, b.Low)
	high := tighterHigh(a.High, b.High)
	if low.Kind != types.BoundNone && high.Kind != types.BoundNone {
		c := CompareVersions(low.Version, high.Version)
		if c > 0 {
			return types.Interval{}, false
		}
		if c == 0 && (low.Kind == types.BoundExclusive || high.Kind == types.BoundExclusive) {
			return types.Interval{}, false
		}
	}
	return types.Interval{Low: low, High: high}, true
}

func tighterLow(a, b types.Bound) types.Bound {
	if a.Kind == types.BoundNone {
		return b
	}
	if b.Kind == types.BoundNone {
		return a
	}
	c := CompareVersions(a.Version, b.Version)
	switch {
	case c > 0:
		return a
	case c < 0:
		return b
	default:
		if a.Kind == types.BoundExclusive || b.Kind == types.BoundExclusive {
			return types.Bound{Kind: types.BoundExclusive, Version: a.Version}
		}
		return a
	}
}

func tighterHigh(a, b types.Bound) types.Bound {
	if a.Kind == types.BoundNone {
		return b
	}
	if b.Kind == types.BoundNone {
		return a
	}
	c := CompareVersions(a.Version, b.Version)
	switch {
	case c < 0:
		return a
	case c > 0:
		return b
	default:
		if a.Kind == types.BoundExclusive || b.Kind == types.BoundExclusive {
			return types.Bound{Kind: types.BoundExclusive, Version: a.Version}
		}
		return a
	}
}

// normalizeRange sorts the interval list and merges overlapping or
// touching intervals so the invariant "sorted and non-overlapping"
// holds.
func normalizeRange(intervals []types.Interval) (types.VersionRange, error) {
	if len(intervals) == 0 {
		return types.VersionRange{}, nil
	}
	sort.Slice(intervals, func(i, j int) bool {
		return lowLess(intervals[i].Low, intervals[j].Low)
	})
	var merged []types.Interval
	cur := intervals[0]
	for _, iv := range intervals[1:] {
		if overlapsOrTouches(cur, iv) {
			cur = mergeIntervals(cur, iv)
			continue
		}
		merged = append(merged, cur)
		cur = iv
	}
	merged = append(merged, cur)
	return types.VersionRange{Intervals: merged, Any: len(merged) == 1 && merged[0].Low.Kind == types.BoundNone && merged[0].High.Kind == types.BoundNone}, nil
}

func lowLess(a, b types.Bound) bool {
	if a.Kind == types.BoundNone {
		return b.Kind != types.BoundNone
	}
	if b.Kind == types.BoundNone {
		return false
	}
	c := CompareVersions(a.Version, b.Version)
	if c != 0 {
		return c < 0
	}
	return a.Kind == types.BoundInclusive && b.Kind == types.BoundExclusive
}

func overlapsOrTouches(a, b types.Interval) bool {
	if a.High.Kind == types.BoundNone {
		return true
	}
	if b.Low.Kind == types.BoundNone {
		return true
	}
	c := CompareVersions(a.High.Version, b.Low.Version)
	if c > 0 {
		return true
	}
	if c == 0 && (a.High.Kind == types.BoundInclusive || b.Low.Kind == types.BoundInclusive) {
		return true
	}
	return false
}

func mergeIntervals(a, b types.Interval) types.Interval {
	high := a.High
	if a.High.Kind != types.BoundNone && b.High.Kind != types.BoundNone {
		if highLess(a.High, b.High) {
			high = b.High
		}
	} else if b.High.Kind == types.BoundNone {
		high = b.High
	}
	return types.Interval{Low: a.Low, High: high}
}

func highLess(a, b types.Bound) bool {
	if a.Kind == types.BoundNone {
		return false
	}
	if b.Kind == types.BoundNone {
		return true
	}
	c := CompareVersions(a.Version, b.Version)
	if c != 0 {
		return c < 0
	}
	return a.Kind == types.BoundExclusive && b.Kind == types.BoundInclusive
}

// FormatRange renders r back to its canonical string form.
func FormatRange(r types.VersionRange) string {
	if IsAny(r) {
		return ""
	}
	if IsEmptyRange(r) {
		return "<empty>"
	}
	parts := make([]string, 0, len(r.Intervals))
	for _, iv := range r.Intervals {
		parts = append(parts, formatInterval(iv))
	}
	return strings.Join(parts, "|")
}

func formatInterval(iv types.Interval) string {
	if iv.Low.Kind == types.BoundInclusive && iv.High.Kind == types.BoundInclusive &&
		EqualVersions(iv.Low.Version, iv.High.Version) {
		return "==" + FormatVersion(iv.Low.Version)
	}
	var lo, hi string
	switch iv.Low.Kind {
	case types.BoundInclusive:
		lo = ">=" + FormatVersion(iv.Low.Version)
	case types.BoundExclusive:
		lo = ">" + FormatVersion(iv.Low.Version)
	}
	switch iv.High.Kind {
	case types.BoundInclusive:
		hi = "<=" + FormatVersion(iv.High.Version)
	case types.BoundExclusive:
		hi = "<" + FormatVersion(iv.High.Version)
	}
	switch {
	case lo != "" && hi != "":
		return lo + "," + hi
	case lo != "":
		return lo
	case hi != "":
		return hi
	default:
		return ""
	}
}
