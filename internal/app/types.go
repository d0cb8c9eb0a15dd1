package app

import "avular-packages/internal/types"

// ResolveRequest is the CLI/app-facing input to Service.Resolve,
// wrapping types.ResolveRequest with the extra fields an interactive
// invocation needs (where to scan from, what context to save as).
type ResolveRequest struct {
	Roots        []string
	Requirements []string // unparsed requirement strings, per §4.2
	Excludes     []string
	Platform     string
	Arch         string
	AllowPrerelease bool
	Strategy     types.ConflictStrategyName
	Scenario     string
	ContextName  string // if non-empty, the result is saved via ContextFiles.Save
}

type ResolveResult struct {
	Context        types.ResolvedContext
	StatesExplored int64
	ResolutionMs   int64
}

// EnvRequest renders a saved or freshly resolved context as shell code.
type EnvRequest struct {
	ContextName string
	Shell       string
}

type EnvResult struct {
	Script string
}

// BuildRequest drives the Build Orchestrator end to end: resolve build
// toolchain requirements, then invoke the package's build system.
type BuildRequest struct {
	Package       types.Package
	SourcePath    string
	BuildPath     string
	InstallPath   string
	ExtraEnv      map[string]string
	Args          []string
}

type BuildResult struct {
	ToolchainVersions map[string]string // apt/pip packages resolved for build_requires
}

// SearchRequest lists known versions of a package name from the
// Repository Scanner's index.
type SearchRequest struct {
	Name string
}

type SearchResult struct {
	Packages []types.Package
}

// DependsRequest reports, for a resolved context, which packages
// require the named package (direct or transitive).
type DependsRequest struct {
	ContextName string
	Name        string
}

type DependsResult struct {
	Dependents []string
}

// RepoCopyRequest drives cp/mv/rm over the content-addressed layout.
type RepoCopyRequest struct {
	ContentHash string
	SourceRoot  string
	SourceDir   string // only used by Put
	DestRoot    string
	VariantIndex *int
}

type StatusResult struct {
	RootsScanned  []string
	PackageCount  int
	FilesExamined int64
}

type DiffRequest struct {
	ContextNameA string
	ContextNameB string
}

type DiffResult struct {
	Added   []string
	Removed []string
	Changed []string // "name: oldVersion -> newVersion"
}
