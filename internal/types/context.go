package types

import "time"

// ResolvedPackage is one entry in a ResolvedContext: a chosen package,
// its variant (if any), where it lives on disk, and why it's present.
type ResolvedPackage struct {
	Package      Package
	VariantIndex *int // nil if the package has no chosen variant
	RootPath     string
	Requested    bool     // true if named directly in the original request
	Parents      []string // names of resolved packages that require this one
}

// ResolvedContext is the deterministic reification of a solver result
// into environment variables and shell code (§4.6).
type ResolvedContext struct {
	Requirements []Requirement
	Resolved     []ResolvedPackage
	Env          map[string]string
	Aliases      []AliasEntry
	Timestamp    time.Time
	User         string
	Host         string
	Platform     string
	Arch         string
	ToolVersion  string
	Metadata     map[string]any
}

// AliasEntry records one alias emitted by a resolved package's
// commands script (§4.6), carried on ResolvedContext so a saved
// context can be rendered to shell code again without re-resolving.
type AliasEntry struct {
	Name    string
	Command string
}
