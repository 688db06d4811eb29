package filter

import "errors"

var (
	// ErrNonPositiveDefinite is returned when a covariance matrix fails
	// its square root factorization.
	ErrNonPositiveDefinite = errors.New("covariance matrix is not positive semi-definite")

	// ErrNumericalDivergence is returned when a non-finite value is
	// detected in propagated sigma points, gain or covariance.
	ErrNumericalDivergence = errors.New("non-finite value detected")

	// ErrDimensionMismatch is returned when vector or matrix dimensions
	// are inconsistent with the configured model dimensions.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
