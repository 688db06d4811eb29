package sim

import (
	"testing"

	filter "github.com/milosgajdos/go-sigma"
	"github.com/milosgajdos/go-sigma/model"
	"github.com/milosgajdos/go-sigma/noise"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func newTestModel(t *testing.T) filter.Model {
	A := mat.NewDense(2, 2, []float64{1.0, 1.0, 0.0, 1.0})
	B := mat.NewDense(2, 1, []float64{0.5, 1.0})
	C := mat.NewDense(1, 2, []float64{1.0, 0.0})

	m, err := model.NewBase(A, B, C)
	assert.NoError(t, err)

	return m
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	m := newTestModel(t)
	x0 := mat.NewVecDense(2, []float64{1.0, 3.0})

	s, err := New(m, x0, nil, nil)
	assert.NotNil(s)
	assert.NoError(err)
	assert.True(mat.Equal(x0, s.State()))

	// mismatched initial state
	s, err = New(m, mat.NewVecDense(3, nil), nil, nil)
	assert.Nil(s)
	assert.ErrorIs(err, filter.ErrDimensionMismatch)

	// mismatched process noise
	q, err := noise.NewZero(3)
	assert.NoError(err)
	s, err = New(m, x0, q, nil)
	assert.Nil(s)
	assert.ErrorIs(err, filter.ErrDimensionMismatch)

	// mismatched observation noise
	r, err := noise.NewZero(2)
	assert.NoError(err)
	s, err = New(m, x0, nil, r)
	assert.Nil(s)
	assert.ErrorIs(err, filter.ErrDimensionMismatch)
}

func TestStep(t *testing.T) {
	assert := assert.New(t)

	m := newTestModel(t)
	x0 := mat.NewVecDense(2, []float64{1.0, 3.0})
	u := mat.NewVecDense(1, []float64{-1.0})

	s, err := New(m, x0, nil, nil)
	assert.NotNil(s)
	assert.NoError(err)

	// noise free simulation follows the model exactly
	x, z, err := s.Step(u, 1.0)
	assert.NoError(err)
	assert.InDelta(3.5, x.AtVec(0), 1e-12)
	assert.InDelta(2.0, x.AtVec(1), 1e-12)
	assert.InDelta(3.5, z.AtVec(0), 1e-12)
	assert.True(mat.Equal(x, s.State()))

	// mutating the returned state must not touch the simulation
	x.(*mat.VecDense).SetVec(0, 100.0)
	assert.InDelta(3.5, s.State().AtVec(0), 1e-12)
}

func TestStepNoisy(t *testing.T) {
	assert := assert.New(t)

	m := newTestModel(t)
	x0 := mat.NewVecDense(2, []float64{1.0, 3.0})
	u := mat.NewVecDense(1, []float64{-1.0})

	q, err := noise.NewGaussian([]float64{0.0, 0.0}, mat.NewSymDense(2, []float64{0.01, 0.0, 0.0, 0.01}))
	assert.NoError(err)
	r, err := noise.NewGaussian([]float64{0.0}, mat.NewSymDense(1, []float64{0.25}))
	assert.NoError(err)

	s, err := New(m, x0, q, r)
	assert.NotNil(s)
	assert.NoError(err)

	x, z, err := s.Step(u, 1.0)
	assert.NoError(err)
	assert.Equal(2, x.Len())
	assert.Equal(1, z.Len())
}
