package sim

import (
	"fmt"

	filter "github.com/milosgajdos/go-sigma"
	"gonum.org/v1/gonum/mat"
)

// System simulates a nonlinear dynamical system in discrete time steps.
// It keeps the ground truth state and draws fresh process and observation
// noise samples on every step, so it can feed measurements to a filter under
// test.
type System struct {
	// m is the simulated system model
	m filter.Model
	// x is the ground truth state
	x *mat.VecDense
	// q is process noise
	q filter.Noise
	// r is observation noise
	r filter.Noise
}

// New creates new simulated System with initial state x0 and returns it.
// q and r may be nil, in which case the simulation is noise free.
// It returns error if x0 or noise dimensions do not match the model.
func New(m filter.Model, x0 mat.Vector, q, r filter.Noise) (*System, error) {
	nx, _, nz := m.Dims()
	if x0.Len() != nx {
		return nil, fmt.Errorf("invalid initial state [%d]: %w", x0.Len(), filter.ErrDimensionMismatch)
	}
	if q != nil && q.Cov().Symmetric() != nx {
		return nil, fmt.Errorf("invalid process noise dimension %d: %w", q.Cov().Symmetric(), filter.ErrDimensionMismatch)
	}
	if r != nil && r.Cov().Symmetric() != nz {
		return nil, fmt.Errorf("invalid observation noise dimension %d: %w", r.Cov().Symmetric(), filter.ErrDimensionMismatch)
	}

	x := &mat.VecDense{}
	x.CloneFromVec(x0)

	return &System{
		m: m,
		x: x,
		q: q,
		r: r,
	}, nil
}

// Step advances the simulated system by one time step given control input u
// and returns the new ground truth state together with a noisy measurement
// of it.
func (s *System) Step(u mat.Vector, dt float64) (mat.Vector, mat.Vector, error) {
	var qSample, rSample mat.Vector
	if s.q != nil {
		qSample = s.q.Sample()
	}
	if s.r != nil {
		rSample = s.r.Sample()
	}

	x, err := s.m.Propagate(s.x, u, qSample, dt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to propagate system state: %w", err)
	}
	s.x.CopyVec(x)

	z, err := s.m.Observe(s.x, rSample)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to observe system state: %w", err)
	}

	return mat.VecDenseCopyOf(s.x), mat.VecDenseCopyOf(z), nil
}

// State returns the ground truth state of the simulated system.
func (s *System) State() mat.Vector {
	return mat.VecDenseCopyOf(s.x)
}
