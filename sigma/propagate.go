package sigma

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-sigma"
	"gonum.org/v1/gonum/mat"
)

// PropagateProcess pushes every state sigma point of p together with its
// process noise sigma point through the process model f, overwriting the
// state block of p in place, and returns the weighted predicted state mean.
// It returns ErrNumericalDivergence if any propagated value is not finite:
// a diverged sigma point must never be folded into the mean silently.
func PropagateProcess(p *Points, u mat.Vector, dt float64, f filter.ProcessModel, w filter.Weights) (*mat.VecDense, error) {
	xs := p.State()
	qs := p.ProcNoise()

	nx, cols := xs.Dims()
	mean := mat.NewVecDense(nx, nil)

	for c := 0; c < cols; c++ {
		next, err := f.Propagate(xs.ColView(c), u, qs.ColView(c), dt)
		if err != nil {
			return nil, fmt.Errorf("failed to propagate sigma point %d: %w", c, err)
		}
		if next.Len() != nx {
			return nil, fmt.Errorf("propagated sigma point %d has length %d: %w", c, next.Len(), filter.ErrDimensionMismatch)
		}

		for i := 0; i < nx; i++ {
			v := next.AtVec(i)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("propagated sigma point %d: %w", c, filter.ErrNumericalDivergence)
			}
			xs.Set(i, c, v)
		}

		if c == 0 {
			mean.AddScaledVec(mean, w.Mean0, xs.ColView(c))
		} else {
			mean.AddScaledVec(mean, w.Mean, xs.ColView(c))
		}
	}

	return mean, nil
}

// PropagateObservation pushes every state sigma point of p together with its
// observation noise sigma point through the observation model h, storing the
// propagated observation sigma points in dst, and returns the weighted
// predicted observation mean. The state block of p is left untouched so the
// caller can reuse it for cross covariance recombination.
// It returns ErrNumericalDivergence if any propagated value is not finite.
func PropagateObservation(p *Points, dst *mat.Dense, h filter.ObservationModel, w filter.Weights) (*mat.VecDense, error) {
	xs := p.State()
	rs := p.ObsNoise()

	nz, _ := rs.Dims()
	_, cols := xs.Dims()
	if r, c := dst.Dims(); r != nz || c != cols {
		return nil, fmt.Errorf("observation sigma point buffer [%d x %d]: %w", r, c, filter.ErrDimensionMismatch)
	}

	mean := mat.NewVecDense(nz, nil)

	for c := 0; c < cols; c++ {
		obs, err := h.Observe(xs.ColView(c), rs.ColView(c))
		if err != nil {
			return nil, fmt.Errorf("failed to observe sigma point %d: %w", c, err)
		}
		if obs.Len() != nz {
			return nil, fmt.Errorf("observed sigma point %d has length %d: %w", c, obs.Len(), filter.ErrDimensionMismatch)
		}

		for i := 0; i < nz; i++ {
			v := obs.AtVec(i)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("observed sigma point %d: %w", c, filter.ErrNumericalDivergence)
			}
			dst.Set(i, c, v)
		}

		if c == 0 {
			mean.AddScaledVec(mean, w.Mean0, dst.ColView(c))
		} else {
			mean.AddScaledVec(mean, w.Mean, dst.ColView(c))
		}
	}

	return mean, nil
}
