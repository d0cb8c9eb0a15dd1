// Package core implements the version, requirement, package, cache,
// solver, and context logic described by the system's component design.
// Data shapes live in internal/types; this package is where the
// behavior lives, matching the split the rest of the codebase uses
// between typed records and the logic that acts on them.
package core

import (
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/types"
)

const separatorChars = ".-_+"

func isSeparator(b byte) bool {
	return strings.IndexByte(separatorChars, b) >= 0
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// reservedTokens may not appear as a bare token value; they are reserved
// for range syntax and the inf singleton.
var reservedTokens = map[string]struct{}{
	"inf": {},
}

// ParseVersion parses a version string into a Version per §4.1. Empty
// input is allowed and yields the epsilon singleton.
func ParseVersion(s string) (types.Version, error) {
	if s == "" {
		return types.Version{Form: types.VersionEmpty}, nil
	}
	if s == "inf" {
		return types.Version{Form: types.VersionInf}, nil
	}
	if isSeparator(s[0]) {
		return types.Version{}, parseErr("leading separator", s)
	}
	if isSeparator(s[len(s)-1]) {
		return types.Version{}, parseErr("trailing separator", s)
	}

	var tokens []types.Token
	var separators []byte

	start := 0
	for i := 0; i <= len(s); i++ {
		atEnd := i == len(s)
		if !atEnd && !isSeparator(s[i]) {
			continue
		}
		raw := s[start:i]
		if raw == "" {
			return types.Version{}, parseErr("empty token", s)
		}
		tok, err := parseToken(raw, s)
		if err != nil {
			return types.Version{}, err
		}
		tokens = append(tokens, tok)
		if !atEnd {
			separators = append(separators, s[i])
			start = i + 1
		}
	}

	return types.Version{Form: types.VersionNormal, Tokens: tokens, Separators: separators}, nil
}

func parseErr(reason string, fragment string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("version parse error: " + reason + ": " + fragment)
}

func parseToken(raw string, whole string) (types.Token, error) {
	if _, reserved := reservedTokens[raw]; reserved {
		return types.Token{}, parseErr("reserved token in value position", whole)
	}
	if allDigits(raw) {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			// Overflows fall back to alphanumeric-style comparison by
			// original spelling only; still a valid Numeric token per
			// spec, just compared without an int64 fast path.
			n = 0
		}
		return types.Token{Kind: types.TokenNumeric, Text: raw, Numeric: n}, nil
	}
	if !isValidAlnumToken(raw) {
		return types.Token{}, parseErr("invalid character", whole)
	}
	return types.Token{Kind: types.TokenAlphanumeric, Text: raw, Subtokens: splitSubtokens(raw)}, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isValidAlnumToken(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if isDigit(b) || b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') {
			continue
		}
		return false
	}
	return true
}

// splitSubtokens splits an alphanumeric token into alternating alpha and
// numeric runs.
func splitSubtokens(s string) []types.Subtoken {
	var subs []types.Subtoken
	start := 0
	curDigit := isDigit(s[0])
	for i := 1; i <= len(s); i++ {
		if i < len(s) && isDigit(s[i]) == curDigit {
			continue
		}
		subs = append(subs, makeSubtoken(s[start:i], curDigit))
		if i < len(s) {
			start = i
			curDigit = isDigit(s[i])
		}
	}
	return subs
}

func makeSubtoken(raw string, digit bool) types.Subtoken {
	if !digit {
		return types.Subtoken{Kind: types.SubtokenAlpha, Text: raw}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		n = 0
	}
	return types.Subtoken{Kind: types.SubtokenNumeric, Text: raw, Numeric: n}
}

// CompareVersions implements the total order of §4.1.
func CompareVersions(a, b types.Version) int {
	if a.Form != types.VersionNormal || b.Form != types.VersionNormal {
		return compareForms(a.Form, b.Form)
	}
	n := len(a.Tokens)
	if len(b.Tokens) < n {
		n = len(b.Tokens)
	}
	for i := 0; i < n; i++ {
		if c := compareTokens(a.Tokens[i], b.Tokens[i]); c != 0 {
			return c
		}
	}
	// Epsilon extension rule: the shorter sequence is less.
	return intCompare(len(a.Tokens), len(b.Tokens))
}

func compareForms(a, b types.VersionForm) int {
	rank := func(f types.VersionForm) int {
		switch f {
		case types.VersionEmpty:
			return 0
		case types.VersionNormal:
			return 1
		case types.VersionInf:
			return 2
		default:
			return 1
		}
	}
	ra, rb := rank(a), rank(b)
	if a == types.VersionNormal {
		ra = 1
	}
	if b == types.VersionNormal {
		rb = 1
	}
	return intCompare(ra, rb)
}

func compareTokens(a, b types.Token) int {
	if a.Kind != b.Kind {
		if a.Kind == types.TokenNumeric {
			return -1
		}
		return 1
	}
	if a.Kind == types.TokenNumeric {
		return compareNumericSpelling(a.Numeric, a.Text, b.Numeric, b.Text)
	}
	return compareSubtokenLists(a.Subtokens, b.Subtokens)
}

// compareNumericSpelling compares by integer value first, then by
// original spelling so "01" < "1" (the padding rule).
func compareNumericSpelling(va int64, ta string, vb int64, tb string) int {
	if c := intCompare64(va, vb); c != 0 {
		return c
	}
	return strings.Compare(ta, tb)
}

func compareSubtokenLists(a, b []types.Subtoken) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := compareSubtoken(a[i], b[i]); c != 0 {
			return c
		}
	}
	return intCompare(len(a), len(b))
}

func compareSubtoken(a, b types.Subtoken) int {
	if a.Kind != b.Kind {
		if a.Kind == types.SubtokenAlpha {
			return -1
		}
		return 1
	}
	if a.Kind == types.SubtokenAlpha {
		return compareCodePoints(a.Text, b.Text)
	}
	return compareNumericSpelling(a.Numeric, a.Text, b.Numeric, b.Text)
}

// compareCodePoints orders by raw Unicode code point with no locale
// folding, per §4.1 and the Open Question decision recorded in
// DESIGN.md: '_' (0x5F) sits between uppercase and lowercase ASCII.
func compareCodePoints(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	n := len(ra)
	if len(rb) < n {
		n = len(rb)
	}
	for i := 0; i < n; i++ {
		if ra[i] != rb[i] {
			if ra[i] < rb[i] {
				return -1
			}
			return 1
		}
	}
	return intCompare(len(ra), len(rb))
}

func intCompare(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func intCompare64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// IsEmpty reports whether v is the epsilon singleton.
func IsEmpty(v types.Version) bool { return v.Form == types.VersionEmpty }

// IsInf reports whether v is the inf singleton.
func IsInf(v types.Version) bool { return v.Form == types.VersionInf }

// EqualVersions reports whether a and b compare equal.
func EqualVersions(a, b types.Version) bool { return CompareVersions(a, b) == 0 }

// HashVersion returns a hash consistent with CompareVersions equality:
// equal versions always hash equally.
func HashVersion(v types.Version) uint64 {
	var h uint64 = 1469598103934665603 // FNV offset basis
	const prime uint64 = 1099511628211
	mix := func(s string) {
		for i := 0; i < len(s); i++ {
			h ^= uint64(s[i])
			h *= prime
		}
	}
	switch v.Form {
	case types.VersionEmpty:
		mix("\x00epsilon")
		return h
	case types.VersionInf:
		mix("\x00inf")
		return h
	}
	for _, tok := range v.Tokens {
		if tok.Kind == types.TokenNumeric {
			mix("N")
			mix(strconv.FormatInt(tok.Numeric, 10))
			mix("\x01")
			mix(tok.Text)
		} else {
			mix("A")
			for _, sub := range tok.Subtokens {
				if sub.Kind == types.SubtokenAlpha {
					mix("a")
					mix(sub.Text)
				} else {
					mix("n")
					mix(strconv.FormatInt(sub.Numeric, 10))
					mix("\x01")
					mix(sub.Text)
				}
			}
		}
		mix("\x02")
	}
	return h
}

// FormatVersion renders v back to its canonical string form. Formatting
// a version parsed from input preserves every token's original spelling
// and every separator, so parse(format(v)) == v.
func FormatVersion(v types.Version) string {
	switch v.Form {
	case types.VersionEmpty:
		return ""
	case types.VersionInf:
		return "inf"
	}
	var b strings.Builder
	for i, tok := range v.Tokens {
		if i > 0 {
			b.WriteByte(v.Separators[i-1])
		}
		b.WriteString(tok.Text)
	}
	return b.String()
}
