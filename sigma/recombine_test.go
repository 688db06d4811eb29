package sigma

import (
	"testing"

	filter "github.com/milosgajdos/go-sigma"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestRecombineProcessCovariance(t *testing.T) {
	assert := assert.New(t)

	_, p := newTestPoints(t)
	rc := NewRecombiner(w)

	mean, err := PropagateProcess(p, nil, 1.0, &driftModel{a: 1.0}, w)
	assert.NoError(err)

	// with f = x + q the recombined process covariance equals P + Q:
	// the noise enters through the sigma points, no additive term needed
	cov, err := rc.Covariance(p.State(), mean)
	assert.NotNil(cov)
	assert.NoError(err)

	expected := mat.NewSymDense(2, nil)
	expected.AddSym(stateCov, procCov)
	assert.True(mat.EqualApprox(expected, cov, 1e-12))
}

func TestRecombineInnovationCovariance(t *testing.T) {
	assert := assert.New(t)

	_, p := newTestPoints(t)
	rc := NewRecombiner(w)

	obs := mat.NewDense(1, p.Len(), nil)
	yMean, err := PropagateObservation(p, obs, &driftModel{}, w)
	assert.NoError(err)

	// with h = x[0] + r the innovation covariance equals P[0,0] + R
	cov, err := rc.Covariance(obs, yMean)
	assert.NotNil(cov)
	assert.NoError(err)
	assert.InDelta(stateCov.At(0, 0)+obsCov.At(0, 0), cov.At(0, 0), 1e-12)
}

func TestRecombineCrossCovariance(t *testing.T) {
	assert := assert.New(t)

	_, p := newTestPoints(t)
	rc := NewRecombiner(w)

	obs := mat.NewDense(1, p.Len(), nil)
	yMean, err := PropagateObservation(p, obs, &driftModel{}, w)
	assert.NoError(err)

	// with h = x[0] + r the cross covariance equals the first state
	// covariance column
	cov, err := rc.CrossCovariance(p.State(), state, obs, yMean)
	assert.NotNil(cov)
	assert.NoError(err)
	assert.InDelta(stateCov.At(0, 0), cov.At(0, 0), 1e-12)
	assert.InDelta(stateCov.At(1, 0), cov.At(1, 0), 1e-12)

	// mismatched mean dimensions
	cov, err = rc.CrossCovariance(p.State(), yMean, obs, yMean)
	assert.Nil(cov)
	assert.ErrorIs(err, filter.ErrDimensionMismatch)
}

func TestRecombineGain(t *testing.T) {
	assert := assert.New(t)

	rc := NewRecombiner(w)

	crossCov := mat.NewDense(2, 1, []float64{0.25, 0.1})
	innCov := mat.NewSymDense(1, []float64{0.5})

	gain, err := rc.Gain(crossCov, innCov)
	assert.NotNil(gain)
	assert.NoError(err)
	assert.InDelta(0.5, gain.At(0, 0), 1e-12)
	assert.InDelta(0.2, gain.At(1, 0), 1e-12)
}

func TestRecombineGainSingular(t *testing.T) {
	assert := assert.New(t)

	rc := NewRecombiner(w)

	// zero innovation covariance together with zero cross covariance:
	// the regularized gain collapses to zero instead of dividing by zero
	crossCov := mat.NewDense(1, 1, nil)
	innCov := mat.NewSymDense(1, nil)

	gain, err := rc.Gain(crossCov, innCov)
	assert.NotNil(gain)
	assert.NoError(err)
	assert.Equal(0.0, gain.At(0, 0))
}

func TestRecombineErrors(t *testing.T) {
	assert := assert.New(t)

	rc := NewRecombiner(w)

	// mismatched recombination mean
	pts := mat.NewDense(2, 5, nil)
	cov, err := rc.Covariance(pts, mat.NewVecDense(3, nil))
	assert.Nil(cov)
	assert.ErrorIs(err, filter.ErrDimensionMismatch)

	// mismatched innovation covariance
	gain, err := rc.Gain(mat.NewDense(2, 1, nil), mat.NewSymDense(2, nil))
	assert.Nil(gain)
	assert.ErrorIs(err, filter.ErrDimensionMismatch)
}
