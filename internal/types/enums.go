package types

// SystemEcosystem identifies the external version scheme a system
// requirement (§4.2.1) is checked against.
type SystemEcosystem string

const (
	SystemEcosystemApt SystemEcosystem = "apt"
	SystemEcosystemPip SystemEcosystem = "pip"
)

// ConstraintOp is the relational operator used by a system (apt/pip)
// constraint string, e.g. "libfoo (>= 1.0)" or "numpy>=1.0,<2.0".
type ConstraintOp string

const (
	ConstraintOpNone   ConstraintOp = ""
	ConstraintOpEq     ConstraintOp = "="
	ConstraintOpEq2    ConstraintOp = "=="
	ConstraintOpNe     ConstraintOp = "!="
	ConstraintOpCompat ConstraintOp = "~="
	ConstraintOpGte    ConstraintOp = ">="
	ConstraintOpLte    ConstraintOp = "<="
	ConstraintOpGt     ConstraintOp = ">"
	ConstraintOpLt     ConstraintOp = "<"
)

// ConflictStrategyName selects how the solver resolves a version
// conflict on a single package name during expansion.
type ConflictStrategyName string

const (
	ConflictStrategyLatestWins     ConflictStrategyName = "latest_wins"
	ConflictStrategyEarliestWins   ConflictStrategyName = "earliest_wins"
	ConflictStrategyFailOnConflict ConflictStrategyName = "fail_on_conflict"
	ConflictStrategyFindCompatible ConflictStrategyName = "find_compatible"
)

// ConflictKind classifies a detected conflict. MissingPackage and
// CircularDependency are fatal: a state carrying either must not be
// expanded.
type ConflictKind string

const (
	ConflictKindVersion            ConflictKind = "version"
	ConflictKindMissingPackage     ConflictKind = "missing_package"
	ConflictKindCircularDependency ConflictKind = "circular_dependency"
	ConflictKindRequirementClash   ConflictKind = "requirement_clash"
)

// CacheLevel identifies which tier of the Intelligent Cache holds an
// entry.
type CacheLevel int

const (
	CacheLevelL1 CacheLevel = iota
	CacheLevelL2
	CacheLevelL3
)

// Severity ranks how serious an error is, independent of its recoverability.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// HeuristicProfile selects a preset weighting for the Composite heuristic.
type HeuristicProfile string

const (
	HeuristicProfileFast     HeuristicProfile = "fast"
	HeuristicProfileDefault  HeuristicProfile = "default"
	HeuristicProfileThorough HeuristicProfile = "thorough"
)
