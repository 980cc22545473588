package service

// HashCostProvider supplies the password-hashing cost factor.
// The orchestrator reads the cost at call time rather than capturing it at
// construction, so configuration changes apply to subsequent registrations.
type HashCostProvider interface {
	HashCost() int
}
