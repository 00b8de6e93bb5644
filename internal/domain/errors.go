package domain

import "errors"

var (
	// ErrInvalidConfig marks a run configuration rejected before any offer
	// processing (non-positive target, negative starting balance).
	ErrInvalidConfig = errors.New("invalid optimizer config")

	// ErrNegativePoints marks an arithmetic precondition violation in the
	// points calculator: negative base points or a negative cumulative
	// balance indicate malformed offer data upstream and must propagate.
	ErrNegativePoints = errors.New("negative points input")

	// ErrUnknownStrategy marks an unrecognized strategy identifier.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrBadTierTable marks a tier table whose thresholds or multipliers
	// are not strictly increasing.
	ErrBadTierTable = errors.New("malformed bonus tier table")
)
