package ukf

import (
	"fmt"

	filter "github.com/milosgajdos/go-sigma"
	"github.com/milosgajdos/go-sigma/matrix"
	"gonum.org/v1/gonum/mat"
)

// Config contains UKF [unitless] configuration parameters
type Config struct {
	// Alpha is alpha parameter (0,1]
	Alpha float64
	// Beta is beta parameter (2 is optimal choice for Gaussian)
	Beta float64
	// Kappa is kappa parameter (must be non-negative)
	Kappa float64
}

// ClassicScaled is the classic scaled sigma point weighting policy.
// For augmented dimension L it uses lambda = alpha^2*(L+kappa) - L,
// gamma = L + lambda, mean weights lambda/(L+lambda) for the central point
// and 1/(2*(L+lambda)) for the rest, and covariance weights equal to the
// mean weights except for the central one which adds 1 - alpha^2 + beta.
// Its covariance update is the classic additive form
// P = Ppred - K*Pyy*K'.
type ClassicScaled struct {
	alpha float64
	beta  float64
	kappa float64
}

// NewClassicScaled creates new ClassicScaled weighting policy from c and
// returns it.
// It returns error if either of the config parameters is outside of its
// valid range.
func NewClassicScaled(c *Config) (*ClassicScaled, error) {
	if c == nil || c.Alpha <= 0 || c.Alpha > 1 || c.Beta < 0 || c.Kappa < 0 {
		return nil, fmt.Errorf("invalid config supplied: %v", c)
	}

	return &ClassicScaled{
		alpha: c.Alpha,
		beta:  c.Beta,
		kappa: c.Kappa,
	}, nil
}

func (p *ClassicScaled) lambda(l int) float64 {
	return p.alpha*p.alpha*(float64(l)+p.kappa) - float64(l)
}

// Gamma returns the sigma point spread scaling factor for augmented
// dimension l.
func (p *ClassicScaled) Gamma(l int) float64 {
	return float64(l) + p.lambda(l)
}

// Weights returns sigma point recombination weights for augmented
// dimension l.
func (p *ClassicScaled) Weights(l int) filter.Weights {
	lambda := p.lambda(l)
	d := float64(l) + lambda

	w0 := lambda / d
	wi := 1 / (2 * d)

	return filter.Weights{
		Mean0: w0,
		Mean:  wi,
		Cov0:  w0 + 1 - p.alpha*p.alpha + p.beta,
		Cov:   wi,
	}
}

// UpdateCovariance returns the corrected state covariance computed in the
// classic additive form P = Ppred - K*Pyy*K'.
// It returns ErrNumericalDivergence if the result is not finite.
func (p *ClassicScaled) UpdateCovariance(pred mat.Symmetric, gain mat.Matrix, innCov mat.Symmetric) (*mat.SymDense, error) {
	kp := &mat.Dense{}
	kp.Mul(gain, innCov)

	kpk := &mat.Dense{}
	kpk.Mul(kp, gain.T())

	corr := &mat.Dense{}
	corr.Sub(pred, kpk)

	cov := mat.NewSymDense(pred.Symmetric(), nil)
	matrix.Symmetrize(cov, corr)

	if !matrix.Finite(cov) {
		return nil, fmt.Errorf("corrected covariance: %w", filter.ErrNumericalDivergence)
	}

	return cov, nil
}
