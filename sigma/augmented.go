package sigma

import (
	"fmt"

	filter "github.com/milosgajdos/go-sigma"
	"github.com/milosgajdos/go-sigma/matrix"
	"gonum.org/v1/gonum/mat"
)

// Augmented assembles the augmented mean vector and the block diagonal square
// root of the augmented covariance from state, process noise and observation
// noise moments. The augmented dimension is L = 2*nx + nz. Because the three
// covariance blocks are mutually independent the square root of the augmented
// covariance is itself block diagonal, each block being the lower triangular
// factor of the corresponding covariance block.
type Augmented struct {
	// nx is state dimension, nz is observation dimension
	nx, nz int
	// dim is the augmented dimension L
	dim int
	// mean is the augmented mean vector
	mean *mat.VecDense
	// sqrt is the block diagonal augmented covariance square root
	sqrt *mat.Dense
	// cholState, cholProc and cholObs are the factor blocks
	cholState *mat.TriDense
	cholProc  *mat.TriDense
	cholObs   *mat.TriDense
}

// NewAugmented creates new Augmented builder for state dimension nx and
// observation dimension nz and returns it.
// It returns error if either dimension is not a positive integer.
func NewAugmented(nx, nz int) (*Augmented, error) {
	if nx <= 0 || nz <= 0 {
		return nil, fmt.Errorf("invalid augmented dimensions [%d, %d]: %w", nx, nz, filter.ErrDimensionMismatch)
	}

	dim := 2*nx + nz

	return &Augmented{
		nx:        nx,
		nz:        nz,
		dim:       dim,
		mean:      mat.NewVecDense(dim, nil),
		sqrt:      mat.NewDense(dim, dim, nil),
		cholState: mat.NewTriDense(nx, mat.Lower, nil),
		cholProc:  mat.NewTriDense(nx, mat.Lower, nil),
		cholObs:   mat.NewTriDense(nz, mat.Lower, nil),
	}, nil
}

// Build refactors the three covariance blocks and assembles the augmented
// mean and the block diagonal square root. procMean and obsMean are the
// process and observation noise means; they are conventionally zero and may
// be passed as nil. Build must be called afresh every time the state
// covariance changes. It returns ErrDimensionMismatch if the moments do not
// match the configured dimensions and ErrNonPositiveDefinite if either
// covariance block fails factorization.
func (a *Augmented) Build(state mat.Vector, stateCov mat.Symmetric, procMean mat.Vector, procCov mat.Symmetric, obsMean mat.Vector, obsCov mat.Symmetric) error {
	if state.Len() != a.nx || stateCov.Symmetric() != a.nx {
		return fmt.Errorf("state moments [%d, %d x %d]: %w", state.Len(), stateCov.Symmetric(), stateCov.Symmetric(), filter.ErrDimensionMismatch)
	}
	if procCov.Symmetric() != a.nx {
		return fmt.Errorf("process noise covariance [%d x %d]: %w", procCov.Symmetric(), procCov.Symmetric(), filter.ErrDimensionMismatch)
	}
	if obsCov.Symmetric() != a.nz {
		return fmt.Errorf("observation noise covariance [%d x %d]: %w", obsCov.Symmetric(), obsCov.Symmetric(), filter.ErrDimensionMismatch)
	}
	if procMean != nil && procMean.Len() != a.nx {
		return fmt.Errorf("process noise mean [%d]: %w", procMean.Len(), filter.ErrDimensionMismatch)
	}
	if obsMean != nil && obsMean.Len() != a.nz {
		return fmt.Errorf("observation noise mean [%d]: %w", obsMean.Len(), filter.ErrDimensionMismatch)
	}

	if err := Factor(a.cholState, stateCov); err != nil {
		return fmt.Errorf("state covariance: %w", err)
	}
	if err := Factor(a.cholProc, procCov); err != nil {
		return fmt.Errorf("process noise covariance: %w", err)
	}
	if err := Factor(a.cholObs, obsCov); err != nil {
		return fmt.Errorf("observation noise covariance: %w", err)
	}

	for i := 0; i < a.nx; i++ {
		a.mean.SetVec(i, state.AtVec(i))
		if procMean != nil {
			a.mean.SetVec(a.nx+i, procMean.AtVec(i))
		} else {
			a.mean.SetVec(a.nx+i, 0)
		}
	}
	for i := 0; i < a.nz; i++ {
		if obsMean != nil {
			a.mean.SetVec(2*a.nx+i, obsMean.AtVec(i))
		} else {
			a.mean.SetVec(2*a.nx+i, 0)
		}
	}

	matrix.BlockDiag(a.sqrt, a.cholState, a.cholProc, a.cholObs)

	return nil
}

// Dim returns the augmented dimension L.
func (a *Augmented) Dim() int {
	return a.dim
}

// Mean returns the augmented mean vector.
// The returned vector is a view into the builder scratch: it is only valid
// until the next call to Build.
func (a *Augmented) Mean() mat.Vector {
	return a.mean
}

// SqrtCov returns the block diagonal square root of the augmented covariance.
// The returned matrix is a view into the builder scratch: it is only valid
// until the next call to Build.
func (a *Augmented) SqrtCov() mat.Matrix {
	return a.sqrt
}
