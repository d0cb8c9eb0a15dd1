package types

// Conflict is a detected tension between the resolved set / pending
// requirements and a candidate or each other. MissingPackage and
// CircularDependency are fatal (§3 "Search state").
type Conflict struct {
	Kind     ConflictKind
	Name     string
	Severity float64 // in [0,1]
	Detail   string
}

// ResolveRequest is the input to the Solver (§4.5).
type ResolveRequest struct {
	Requirements []Requirement
	Constraints  []Requirement // additional constraints merged in like requirements
	Excludes     []string      // package names never to select
	Platform     string
	Arch         string
	AllowPrerelease bool
	Metadata     map[string]any

	Strategy            ConflictStrategyName
	HeuristicScenario   string // "", "fast", "thorough", "conflict_heavy" — empty picks by complexity
	MaxCandidatesPerStep int   // 0 means default (50)
	MaxSearchTimeMs      int64 // 0 means unlimited
	MaxStatesExplored    int64 // 0 means unlimited
}

// ResolutionResult is the output of a successful Solver.Resolve.
type ResolutionResult struct {
	Packages         []ResolvedPackage
	ConflictsResolved bool
	ResolutionTimeMs int64
	StatesExplored   int64
	Metadata         map[string]any
}
