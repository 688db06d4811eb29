package ukf

import (
	"fmt"

	filter "github.com/milosgajdos/go-sigma"
	"github.com/milosgajdos/go-sigma/estimate"
	"github.com/milosgajdos/go-sigma/noise"
	"github.com/milosgajdos/go-sigma/sigma"
	"gonum.org/v1/gonum/mat"
)

// UKF is an augmented form Unscented (aka Sigma Point) Kalman Filter.
// Process and observation noise enter the filter through the augmented sigma
// points, so the recombined covariances need no additive noise terms.
// A single UKF instance must be driven from one goroutine: the augmented and
// sigma point buffers are reused in place across Predict, Observe and Correct
// calls. Independent instances share no mutable state.
type UKF struct {
	// m is UKF system model
	m filter.Model
	// q is process noise
	q filter.Noise
	// r is observation noise
	r filter.Noise
	// qMean and rMean are the noise mean vectors
	qMean *mat.VecDense
	rMean *mat.VecDense
	// policy supplies weights and the covariance update formula
	policy filter.WeightingPolicy
	// gamma is the sigma point spread scaling factor
	gamma float64
	// w are sigma point recombination weights
	w filter.Weights
	// x is the filter state mean
	x *mat.VecDense
	// p is the filter state covariance
	p *mat.SymDense
	// aug builds the augmented moments
	aug *sigma.Augmented
	// pts is the sigma point scratch set
	pts *sigma.Points
	// rec recombines sigma points into covariances
	rec *sigma.Recombiner
	// obsPts stores propagated observation sigma points
	obsPts *mat.Dense
	// yMean is predicted observation mean
	yMean *mat.VecDense
	// pyy is innovation covariance
	pyy *mat.SymDense
	// pxy is state/observation cross covariance
	pxy *mat.Dense
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
	// observed tracks whether Observe preceded Correct
	observed bool
}

// New creates new UKF and returns it.
// It accepts the following parameters:
//   - m:      dynamical system model
//   - init:   initial condition of the filter
//   - q:      process noise (nil means zero noise of state dimension)
//   - r:      observation noise (nil means zero noise of observation dimension)
//   - policy: weighting policy (nil means ClassicScaled with alpha 1, beta 2, kappa 0)
// It returns error if either of the following conditions is met:
//   - model dimensions are not positive integers
//   - initial condition or noise dimensions do not match the model
//   - either of the covariances fails its square root factorization
func New(m filter.Model, init filter.InitCond, q, r filter.Noise, policy filter.WeightingPolicy) (*UKF, error) {
	nx, _, nz := m.Dims()
	if nx <= 0 || nz <= 0 {
		return nil, fmt.Errorf("invalid model dimensions [%d x %d]: %w", nx, nz, filter.ErrDimensionMismatch)
	}

	if init.State().Len() != nx || init.Cov().Symmetric() != nx {
		return nil, fmt.Errorf("invalid initial condition dimensions [%d, %d x %d]: %w",
			init.State().Len(), init.Cov().Symmetric(), init.Cov().Symmetric(), filter.ErrDimensionMismatch)
	}

	if q == nil {
		q, _ = noise.NewZero(nx)
	}
	if q.Cov().Symmetric() != nx {
		return nil, fmt.Errorf("invalid process noise dimension %d: %w", q.Cov().Symmetric(), filter.ErrDimensionMismatch)
	}

	if r == nil {
		r, _ = noise.NewZero(nz)
	}
	if r.Cov().Symmetric() != nz {
		return nil, fmt.Errorf("invalid observation noise dimension %d: %w", r.Cov().Symmetric(), filter.ErrDimensionMismatch)
	}

	if policy == nil {
		var err error
		policy, err = NewClassicScaled(&Config{Alpha: 1.0, Beta: 2.0, Kappa: 0.0})
		if err != nil {
			return nil, err
		}
	}

	aug, err := sigma.NewAugmented(nx, nz)
	if err != nil {
		return nil, err
	}

	pts, err := sigma.NewPoints(nx, nz)
	if err != nil {
		return nil, err
	}

	gamma := policy.Gamma(aug.Dim())
	if gamma <= 0 {
		return nil, fmt.Errorf("invalid sigma point scaling factor: %v", gamma)
	}
	w := policy.Weights(aug.Dim())

	x := mat.NewVecDense(nx, nil)
	x.CloneFromVec(init.State())

	p := mat.NewSymDense(nx, nil)
	p.CopySym(init.Cov())

	qMean := noiseMean(q, nx)
	rMean := noiseMean(r, nz)

	f := &UKF{
		m:      m,
		q:      q,
		r:      r,
		qMean:  qMean,
		rMean:  rMean,
		policy: policy,
		gamma:  gamma,
		w:      w,
		x:      x,
		p:      p,
		aug:    aug,
		pts:    pts,
		rec:    sigma.NewRecombiner(w),
		obsPts: mat.NewDense(nz, pts.Len(), nil),
		yMean:  mat.NewVecDense(nz, nil),
		pyy:    mat.NewSymDense(nz, nil),
		pxy:    mat.NewDense(nx, nz, nil),
		inn:    mat.NewVecDense(nz, nil),
		k:      mat.NewDense(nx, nz, nil),
	}

	// fail fast if either covariance block cannot be factored
	if err := f.generate(); err != nil {
		return nil, err
	}

	return f, nil
}

// generate rebuilds the augmented moments from the current state and
// covariance and regenerates the sigma point set. The factorization is always
// recomputed because the covariance changes between calls.
func (k *UKF) generate() error {
	if err := k.aug.Build(k.x, k.p, k.qMean, k.q.Cov(), k.rMean, k.r.Cov()); err != nil {
		return err
	}

	return k.pts.Generate(k.aug.Mean(), k.aug.SqrtCov(), k.gamma)
}

// Predict propagates the filter state to the next step given control input u
// and time step dt, updating the internal state mean and covariance in place,
// and returns the predicted estimate.
// It returns error if it fails to generate, propagate or recombine the sigma
// points.
func (k *UKF) Predict(u mat.Vector, dt float64) (filter.Estimate, error) {
	if err := k.generate(); err != nil {
		return nil, fmt.Errorf("failed to generate sigma points: %w", err)
	}

	xMean, err := sigma.PropagateProcess(k.pts, u, dt, k.m, k.w)
	if err != nil {
		return nil, fmt.Errorf("failed to propagate sigma points: %w", err)
	}

	cov, err := k.rec.Covariance(k.pts.State(), xMean)
	if err != nil {
		return nil, fmt.Errorf("failed to predict covariance: %w", err)
	}

	k.x.CopyVec(xMean)
	k.p.CopySym(cov)
	k.observed = false

	return estimate.NewBaseWithCov(k.x, k.p)
}

// Observe returns the predicted observation of the system.
// It regenerates the sigma points from the current posterior state and
// covariance, propagates them through the observation model and populates
// the innovation and cross covariance scratch needed by Correct.
// It returns error if it fails to generate, propagate or recombine the sigma
// points.
func (k *UKF) Observe() (mat.Vector, error) {
	if err := k.generate(); err != nil {
		return nil, fmt.Errorf("failed to generate sigma points: %w", err)
	}

	yMean, err := sigma.PropagateObservation(k.pts, k.obsPts, k.m, k.w)
	if err != nil {
		return nil, fmt.Errorf("failed to observe sigma points: %w", err)
	}

	pyy, err := k.rec.Covariance(k.obsPts, yMean)
	if err != nil {
		return nil, fmt.Errorf("failed to recombine innovation covariance: %w", err)
	}

	pxy, err := k.rec.CrossCovariance(k.pts.State(), k.x, k.obsPts, yMean)
	if err != nil {
		return nil, fmt.Errorf("failed to recombine cross covariance: %w", err)
	}

	k.yMean.CopyVec(yMean)
	k.pyy.CopySym(pyy)
	k.pxy.Copy(pxy)
	k.observed = true

	return mat.VecDenseCopyOf(k.yMean), nil
}

// Correct corrects the filter state using the actual observation z, updating
// the internal state mean and covariance in place, and returns the corrected
// estimate. Correct must be preceded by Observe.
// It returns error if the gain or the corrected moments cannot be computed.
func (k *UKF) Correct(z mat.Vector) (filter.Estimate, error) {
	if !k.observed {
		return nil, fmt.Errorf("correction requested before observation")
	}

	_, _, nz := k.m.Dims()
	if z.Len() != nz {
		return nil, fmt.Errorf("invalid observation length %d: %w", z.Len(), filter.ErrDimensionMismatch)
	}

	gain, err := k.rec.Gain(k.pxy, k.pyy)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate gain: %w", err)
	}

	// innovation vector
	inn := &mat.VecDense{}
	inn.SubVec(z, k.yMean)

	// correct state mean
	corr := &mat.Dense{}
	corr.Mul(gain, inn)
	k.x.AddVec(k.x, corr.ColView(0))

	cov, err := k.policy.UpdateCovariance(k.p, gain, k.pyy)
	if err != nil {
		return nil, fmt.Errorf("failed to update covariance: %w", err)
	}

	k.p.CopySym(cov)
	k.inn.CopyVec(inn)
	k.k.Copy(gain)
	k.observed = false

	return estimate.NewBaseWithCov(k.x, k.p)
}

// Run runs one predict/observe/correct cycle of the UKF for given control
// input u, time step dt and measurement z and returns the corrected estimate.
// It returns error if either of the cycle stages fails.
func (k *UKF) Run(u mat.Vector, dt float64, z mat.Vector) (filter.Estimate, error) {
	if _, err := k.Predict(u, dt); err != nil {
		return nil, err
	}

	if _, err := k.Observe(); err != nil {
		return nil, err
	}

	return k.Correct(z)
}

// State returns UKF state mean
func (k *UKF) State() mat.Vector {
	return mat.VecDenseCopyOf(k.x)
}

// Cov returns UKF state covariance
func (k *UKF) Cov() mat.Symmetric {
	cov := mat.NewSymDense(k.p.Symmetric(), nil)
	cov.CopySym(k.p)

	return cov
}

// SetCov sets UKF covariance matrix to cov.
// It returns error if either cov is nil or its dimensions do not match the
// UKF covariance dimensions.
func (k *UKF) SetCov(cov mat.Symmetric) error {
	if cov == nil {
		return fmt.Errorf("invalid covariance matrix: %v", cov)
	}

	if cov.Symmetric() != k.p.Symmetric() {
		return fmt.Errorf("invalid covariance matrix dims [%d x %d]: %w", cov.Symmetric(), cov.Symmetric(), filter.ErrDimensionMismatch)
	}

	k.p.CopySym(cov)

	return nil
}

// Gain returns Kalman gain
func (k *UKF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(k.k)

	return gain
}

// noiseMean returns the mean of n as a vector of length dim.
// A missing mean means zero mean.
func noiseMean(n filter.Noise, dim int) *mat.VecDense {
	mean := mat.NewVecDense(dim, nil)
	for i, v := range n.Mean() {
		if i >= dim {
			break
		}
		mean.SetVec(i, v)
	}

	return mean
}
