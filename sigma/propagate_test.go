package sigma

import (
	"fmt"
	"math"
	"testing"

	filter "github.com/milosgajdos/go-sigma"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

// driftModel propagates x to a*x + q and observes the first state entry
// plus observation noise.
type driftModel struct {
	a float64
}

func (m *driftModel) Propagate(x, u, q mat.Vector, dt float64) (mat.Vector, error) {
	out := mat.NewVecDense(x.Len(), nil)
	out.AddScaledVec(out, m.a, x)
	if q != nil {
		out.AddVec(out, q)
	}

	return out, nil
}

func (m *driftModel) Observe(x, r mat.Vector) (mat.Vector, error) {
	out := mat.NewVecDense(1, []float64{x.AtVec(0)})
	if r != nil {
		out.AddVec(out, r)
	}

	return out, nil
}

func (m *driftModel) Dims() (nx, nu, nz int) {
	return 2, 0, 1
}

// divergedModel yields non-finite values.
type divergedModel struct{}

func (m *divergedModel) Propagate(x, u, q mat.Vector, dt float64) (mat.Vector, error) {
	return mat.NewVecDense(x.Len(), []float64{math.NaN(), math.Inf(1)}), nil
}

func (m *divergedModel) Observe(x, r mat.Vector) (mat.Vector, error) {
	return mat.NewVecDense(1, []float64{math.NaN()}), nil
}

// brokenModel fails to propagate and observe.
type brokenModel struct{}

func (m *brokenModel) Propagate(x, u, q mat.Vector, dt float64) (mat.Vector, error) {
	return nil, fmt.Errorf("propagation failed")
}

func (m *brokenModel) Observe(x, r mat.Vector) (mat.Vector, error) {
	return nil, fmt.Errorf("observation failed")
}

func TestPropagateProcess(t *testing.T) {
	assert := assert.New(t)

	_, p := newTestPoints(t)

	// identity propagation with zero mean noise reproduces the state mean
	mean, err := PropagateProcess(p, nil, 1.0, &driftModel{a: 1.0}, w)
	assert.NotNil(mean)
	assert.NoError(err)
	assert.True(mat.EqualApprox(state, mean, 1e-12))

	// the state block was overwritten in place: noise sigma points were
	// folded into the state sigma points
	_, p2 := newTestPoints(t)
	sum := &mat.Dense{}
	sum.Add(p2.State(), p2.ProcNoise())
	assert.True(mat.EqualApprox(sum, p.State(), 1e-12))
}

func TestPropagateProcessScaled(t *testing.T) {
	assert := assert.New(t)

	_, p := newTestPoints(t)

	mean, err := PropagateProcess(p, nil, 1.0, &driftModel{a: 0.5}, w)
	assert.NotNil(mean)
	assert.NoError(err)

	scaled := mat.NewVecDense(2, nil)
	scaled.AddScaledVec(scaled, 0.5, state)
	assert.True(mat.EqualApprox(scaled, mean, 1e-12))
}

func TestPropagateProcessDiverged(t *testing.T) {
	assert := assert.New(t)

	_, p := newTestPoints(t)

	mean, err := PropagateProcess(p, nil, 1.0, &divergedModel{}, w)
	assert.Nil(mean)
	assert.ErrorIs(err, filter.ErrNumericalDivergence)

	mean, err = PropagateProcess(p, nil, 1.0, &brokenModel{}, w)
	assert.Nil(mean)
	assert.Error(err)
}

func TestPropagateObservation(t *testing.T) {
	assert := assert.New(t)

	_, p := newTestPoints(t)

	obs := mat.NewDense(1, p.Len(), nil)
	mean, err := PropagateObservation(p, obs, &driftModel{}, w)
	assert.NotNil(mean)
	assert.NoError(err)

	// observing the first state entry with zero mean noise reproduces it
	assert.InDelta(state.AtVec(0), mean.AtVec(0), 1e-12)

	// the state block must be left untouched
	_, p2 := newTestPoints(t)
	assert.True(mat.Equal(p2.State(), p.State()))
}

func TestPropagateObservationErrors(t *testing.T) {
	assert := assert.New(t)

	_, p := newTestPoints(t)

	// mismatched observation buffer
	obs := mat.NewDense(2, p.Len(), nil)
	mean, err := PropagateObservation(p, obs, &driftModel{}, w)
	assert.Nil(mean)
	assert.ErrorIs(err, filter.ErrDimensionMismatch)

	obs = mat.NewDense(1, p.Len(), nil)
	mean, err = PropagateObservation(p, obs, &divergedModel{}, w)
	assert.Nil(mean)
	assert.ErrorIs(err, filter.ErrNumericalDivergence)

	mean, err = PropagateObservation(p, obs, &brokenModel{}, w)
	assert.Nil(mean)
	assert.Error(err)
}
