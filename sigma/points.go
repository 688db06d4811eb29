package sigma

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-sigma"
	"gonum.org/v1/gonum/mat"
)

// Points is a set of 2L+1 sigma points drawn deterministically from an
// augmented distribution, stored column wise in a single contiguous buffer.
// The state, process noise and observation noise row ranges of the buffer are
// exposed as aliasing views, so propagating the state block in place never
// copies or reallocates.
type Points struct {
	// nx is state dimension, nz is observation dimension
	nx, nz int
	// dim is the augmented dimension L, num is the point count 2L+1
	dim, num int
	// pts stores the sigma points in its columns
	pts *mat.Dense
}

// NewPoints creates new sigma point set for state dimension nx and
// observation dimension nz and returns it.
// It returns error if either dimension is not a positive integer.
func NewPoints(nx, nz int) (*Points, error) {
	if nx <= 0 || nz <= 0 {
		return nil, fmt.Errorf("invalid sigma point dimensions [%d, %d]: %w", nx, nz, filter.ErrDimensionMismatch)
	}

	dim := 2*nx + nz

	return &Points{
		nx:  nx,
		nz:  nz,
		dim: dim,
		num: 2*dim + 1,
		pts: mat.NewDense(dim, 2*dim+1, nil),
	}, nil
}

// Generate fills the set from the augmented mean, the square root factor of
// the augmented covariance and the policy supplied scaling factor gamma.
// The central point equals the mean; point i in 1..L equals the mean plus the
// scaled i-1th factor column and point i+L equals the mean minus the same
// column. Recombining the generated points with matching weights reproduces
// the augmented mean and covariance.
func (p *Points) Generate(mean mat.Vector, sqrtCov mat.Matrix, gamma float64) error {
	if mean.Len() != p.dim {
		return fmt.Errorf("augmented mean [%d]: %w", mean.Len(), filter.ErrDimensionMismatch)
	}
	if r, c := sqrtCov.Dims(); r != p.dim || c != p.dim {
		return fmt.Errorf("augmented square root [%d x %d]: %w", r, c, filter.ErrDimensionMismatch)
	}
	if gamma <= 0 {
		return fmt.Errorf("invalid sigma point scaling factor: %v", gamma)
	}

	spread := math.Sqrt(gamma)
	for i := 0; i < p.dim; i++ {
		m := mean.AtVec(i)
		p.pts.Set(i, 0, m)
		for j := 1; j <= p.dim; j++ {
			d := spread * sqrtCov.At(i, j-1)
			p.pts.Set(i, j, m+d)
			p.pts.Set(i, j+p.dim, m-d)
		}
	}

	return nil
}

// Len returns the number of sigma points in the set.
func (p *Points) Len() int {
	return p.num
}

// Aug returns the full augmented sigma point matrix.
// The returned matrix aliases the set buffer.
func (p *Points) Aug() *mat.Dense {
	return p.pts
}

// State returns the state rows of the sigma point matrix.
// The returned matrix aliases the set buffer.
func (p *Points) State() *mat.Dense {
	return p.pts.Slice(0, p.nx, 0, p.num).(*mat.Dense)
}

// ProcNoise returns the process noise rows of the sigma point matrix.
// The returned matrix aliases the set buffer.
func (p *Points) ProcNoise() *mat.Dense {
	return p.pts.Slice(p.nx, 2*p.nx, 0, p.num).(*mat.Dense)
}

// ObsNoise returns the observation noise rows of the sigma point matrix.
// The returned matrix aliases the set buffer.
func (p *Points) ObsNoise() *mat.Dense {
	return p.pts.Slice(2*p.nx, p.dim, 0, p.num).(*mat.Dense)
}
