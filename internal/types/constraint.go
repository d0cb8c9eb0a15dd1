package types

// SystemConstraint is a single relational test against an external
// ecosystem's version scheme (apt or pip), used by the system-interop
// branch of Requirement (§4.2.1). Op is empty for a bare name reference.
type SystemConstraint struct {
	Ecosystem SystemEcosystem
	Op        ConstraintOp
	Version   string
}
