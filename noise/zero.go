package noise

import (
	"fmt"

	filter "github.com/milosgajdos/go-sigma"
	"gonum.org/v1/gonum/mat"
)

// Zero is zero noise: zero mean and zero covariance of a fixed dimension.
// Its covariance block still takes part in the augmented distribution, it
// just contributes no spread.
type Zero struct {
	// mean stores zero mean values
	mean []float64
	// cov is zero covariance matrix
	cov *mat.SymDense
}

// NewZero creates new zero noise of the given dimension.
// It returns error if size is not a positive integer.
func NewZero(size int) (*Zero, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid noise dimension %d: %w", size, filter.ErrDimensionMismatch)
	}

	mean := make([]float64, size)
	cov := mat.NewSymDense(size, nil)

	return &Zero{
		mean: mean,
		cov:  cov,
	}, nil
}

// Sample returns a zero sample: a vector with zero values.
func (z *Zero) Sample() mat.Vector {
	return mat.NewVecDense(len(z.mean), nil)
}

// Cov returns zero covariance matrix.
func (z *Zero) Cov() mat.Symmetric {
	cov := mat.NewSymDense(z.cov.Symmetric(), nil)
	cov.CopySym(z.cov)

	return cov
}

// Mean returns Zero mean.
func (z *Zero) Mean() []float64 {
	mean := make([]float64, len(z.mean))
	copy(mean, z.mean)

	return mean
}

// Reset does nothing: it is here to implement filter.Noise interface.
func (z *Zero) Reset() {}

// String implements the Stringer interface.
func (z *Zero) String() string {
	return fmt.Sprintf("Zero{\nMean=%v\nCov=%v\n}", z.Mean(), mat.Formatted(z.Cov(), mat.Prefix("    "), mat.Squeeze()))
}
