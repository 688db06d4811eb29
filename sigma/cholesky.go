package sigma

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-sigma"
	"gonum.org/v1/gonum/mat"
)

// pivotTol is the relative tolerance below which a negative factorization
// pivot is treated as a rounding artifact of a positive semi-definite matrix.
const pivotTol = 1e-12

// Factor computes the lower triangular factor of cov such that the product of
// the factor with its transpose equals cov. It reads only the lower triangle
// of cov and stores the factor in dst. Unlike mat.Cholesky, Factor accepts
// positive semi-definite input: a zero pivot yields a zero factor column,
// which is what the augmented formulation needs for zero noise covariance
// blocks. It returns ErrNonPositiveDefinite if a negative pivot is
// encountered and ErrDimensionMismatch if dst dimensions do not match cov.
func Factor(dst *mat.TriDense, cov mat.Symmetric) error {
	n := cov.Symmetric()
	if dst.IsEmpty() {
		*dst = *mat.NewTriDense(n, mat.Lower, nil)
	} else if r, _ := dst.Dims(); r != n {
		return fmt.Errorf("factor target [%d x %d] for [%d x %d] covariance: %w", r, r, n, n, filter.ErrDimensionMismatch)
	}

	for j := 0; j < n; j++ {
		d := cov.At(j, j)
		for k := 0; k < j; k++ {
			d -= dst.At(j, k) * dst.At(j, k)
		}

		if d < -pivotTol*math.Max(1, math.Abs(cov.At(j, j))) {
			return fmt.Errorf("pivot %g at index %d: %w", d, j, filter.ErrNonPositiveDefinite)
		}
		if d < 0 {
			d = 0
		}
		pivot := math.Sqrt(d)
		dst.SetTri(j, j, pivot)

		for i := j + 1; i < n; i++ {
			s := cov.At(i, j)
			for k := 0; k < j; k++ {
				s -= dst.At(i, k) * dst.At(j, k)
			}
			if pivot > 0 {
				dst.SetTri(i, j, s/pivot)
			} else {
				dst.SetTri(i, j, 0)
			}
		}
	}

	return nil
}
