package sigma

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-sigma"
	"github.com/milosgajdos/go-sigma/matrix"
	"gonum.org/v1/gonum/mat"
)

// ridgeEps is the relative diagonal ridge applied to a singular innovation
// covariance before inversion. It keeps the Kalman gain defined in degenerate
// zero innovation covariance scenarios, where the gain collapses to zero
// instead of dividing by zero.
const ridgeEps = 1e-12

// Recombiner computes the covariance quantities needed for the correction
// step from propagated sigma point sets: each is a weighted outer product sum
// of the sigma point deviations from their recombined means.
type Recombiner struct {
	w filter.Weights
}

// NewRecombiner creates new Recombiner with recombination weights w and
// returns it.
func NewRecombiner(w filter.Weights) *Recombiner {
	return &Recombiner{w: w}
}

// Covariance returns the weighted outer product sum of the deviations of the
// pts columns from mean. With pts holding propagated state sigma points this
// is the process covariance; with propagated observation sigma points it is
// the innovation covariance. Because noise enters through the augmented sigma
// points no additive noise term is needed on top of the sum.
// It returns ErrNumericalDivergence if the result is not finite.
func (rc *Recombiner) Covariance(pts *mat.Dense, mean mat.Vector) (*mat.SymDense, error) {
	rows, cols := pts.Dims()
	if mean.Len() != rows {
		return nil, fmt.Errorf("recombination mean [%d] for [%d x %d] sigma points: %w", mean.Len(), rows, cols, filter.ErrDimensionMismatch)
	}

	cov := mat.NewSymDense(rows, nil)
	outer := mat.NewDense(rows, rows, nil)
	dev := mat.NewVecDense(rows, nil)

	for c := 0; c < cols; c++ {
		dev.CopyVec(pts.ColView(c))
		dev.SubVec(dev, mean)
		outer.Mul(dev, dev.T())

		if c == 0 {
			outer.Scale(rc.w.Cov0, outer)
		} else {
			outer.Scale(rc.w.Cov, outer)
		}

		for i := 0; i < rows; i++ {
			for j := i; j < rows; j++ {
				cov.SetSym(i, j, cov.At(i, j)+outer.At(i, j))
			}
		}
	}

	if !matrix.Finite(cov) {
		return nil, fmt.Errorf("recombined covariance: %w", filter.ErrNumericalDivergence)
	}

	return cov, nil
}

// CrossCovariance returns the weighted sum of outer products of xPts column
// deviations from xMean with yPts column deviations from yMean.
// It returns ErrNumericalDivergence if the result is not finite.
func (rc *Recombiner) CrossCovariance(xPts *mat.Dense, xMean mat.Vector, yPts *mat.Dense, yMean mat.Vector) (*mat.Dense, error) {
	xRows, xCols := xPts.Dims()
	yRows, yCols := yPts.Dims()
	if xCols != yCols || xMean.Len() != xRows || yMean.Len() != yRows {
		return nil, fmt.Errorf("cross covariance operands [%d x %d], [%d x %d]: %w", xRows, xCols, yRows, yCols, filter.ErrDimensionMismatch)
	}

	cov := mat.NewDense(xRows, yRows, nil)
	outer := mat.NewDense(xRows, yRows, nil)
	xDev := mat.NewVecDense(xRows, nil)
	yDev := mat.NewVecDense(yRows, nil)

	for c := 0; c < xCols; c++ {
		xDev.CopyVec(xPts.ColView(c))
		xDev.SubVec(xDev, xMean)

		yDev.CopyVec(yPts.ColView(c))
		yDev.SubVec(yDev, yMean)

		outer.Mul(xDev, yDev.T())

		if c == 0 {
			outer.Scale(rc.w.Cov0, outer)
		} else {
			outer.Scale(rc.w.Cov, outer)
		}

		cov.Add(cov, outer)
	}

	if !matrix.Finite(cov) {
		return nil, fmt.Errorf("recombined cross covariance: %w", filter.ErrNumericalDivergence)
	}

	return cov, nil
}

// Gain returns the Kalman gain computed as the product of the cross
// covariance with the inverse of the innovation covariance. A singular
// innovation covariance is regularized with a small diagonal ridge before
// inversion, so a zero innovation covariance yields a zero gain.
// It returns ErrNumericalDivergence if the gain cannot be computed or is not
// finite.
func (rc *Recombiner) Gain(crossCov mat.Matrix, innCov mat.Symmetric) (*mat.Dense, error) {
	rows, cols := crossCov.Dims()
	if innCov.Symmetric() != cols {
		return nil, fmt.Errorf("innovation covariance [%d x %d] for [%d x %d] cross covariance: %w", innCov.Symmetric(), innCov.Symmetric(), rows, cols, filter.ErrDimensionMismatch)
	}

	var inv mat.Dense
	if err := inv.Inverse(innCov); err != nil {
		if err := inv.Inverse(ridge(innCov)); err != nil {
			if _, ok := err.(mat.Condition); !ok {
				return nil, fmt.Errorf("failed to invert innovation covariance: %w", filter.ErrNumericalDivergence)
			}
		}
	}

	gain := mat.NewDense(rows, cols, nil)
	gain.Mul(crossCov, &inv)

	if !matrix.Finite(gain) {
		return nil, fmt.Errorf("kalman gain: %w", filter.ErrNumericalDivergence)
	}

	return gain, nil
}

// ridge returns a copy of cov with a small ridge added to its diagonal.
// The ridge is relative to the largest diagonal entry of cov.
func ridge(cov mat.Symmetric) *mat.SymDense {
	n := cov.Symmetric()
	reg := mat.NewSymDense(n, nil)
	reg.CopySym(cov)

	maxDiag := 0.0
	for i := 0; i < n; i++ {
		if d := math.Abs(cov.At(i, i)); d > maxDiag {
			maxDiag = d
		}
	}

	eps := ridgeEps
	if maxDiag > 0 {
		eps *= maxDiag
	}
	for i := 0; i < n; i++ {
		reg.SetSym(i, i, reg.At(i, i)+eps)
	}

	return reg
}
