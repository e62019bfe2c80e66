package match

import "errors"

// Sentinel errors returned by the engine. Callers test them with errors.Is;
// returned errors usually wrap one of these with context.
var (
	// ErrInvalidInput marks empty or malformed engine input.
	ErrInvalidInput = errors.New("match: invalid input")

	// ErrNoFeasibleMatch means no driver can reach any rider's pickup.
	ErrNoFeasibleMatch = errors.New("match: no feasible match")

	// ErrInternal marks a broken invariant inside the solver (overflow,
	// inconsistent assignment). It is never caused by well-formed input.
	ErrInternal = errors.New("match: internal error")
)
