package estimate

import (
	"testing"

	filter "github.com/milosgajdos/go-sigma"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewBase(t *testing.T) {
	assert := assert.New(t)

	val := mat.NewVecDense(2, []float64{1.0, 3.0})

	e, err := NewBase(val)
	assert.NotNil(e)
	assert.NoError(err)
	assert.True(mat.Equal(val, e.Val()))
	assert.True(mat.Equal(mat.NewSymDense(2, nil), e.Cov()))
}

func TestNewBaseWithCov(t *testing.T) {
	assert := assert.New(t)

	val := mat.NewVecDense(2, []float64{1.0, 3.0})
	cov := mat.NewSymDense(2, []float64{0.25, 0.1, 0.1, 0.5})

	e, err := NewBaseWithCov(val, cov)
	assert.NotNil(e)
	assert.NoError(err)
	assert.True(mat.Equal(val, e.Val()))
	assert.True(mat.Equal(cov, e.Cov()))

	// mismatched dimensions
	e, err = NewBaseWithCov(val, mat.NewSymDense(3, nil))
	assert.Nil(e)
	assert.ErrorIs(err, filter.ErrDimensionMismatch)
}

func TestBaseCopies(t *testing.T) {
	assert := assert.New(t)

	val := mat.NewVecDense(2, []float64{1.0, 3.0})
	cov := mat.NewSymDense(2, []float64{0.25, 0.1, 0.1, 0.5})

	e, err := NewBaseWithCov(val, cov)
	assert.NotNil(e)
	assert.NoError(err)

	// mutating the returned value and covariance must not touch the estimate
	e.Val().(*mat.VecDense).SetVec(0, 100.0)
	e.Cov().(*mat.SymDense).SetSym(0, 0, 100.0)
	assert.Equal(1.0, e.Val().AtVec(0))
	assert.Equal(0.25, e.Cov().At(0, 0))

	// mutating the inputs must not touch the estimate either
	val.SetVec(1, -3.0)
	cov.SetSym(1, 1, -0.5)
	assert.Equal(3.0, e.Val().AtVec(1))
	assert.Equal(0.5, e.Cov().At(1, 1))
}
