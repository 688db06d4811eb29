package filter

import "gonum.org/v1/gonum/mat"

// Filter is a sigma point filter of a nonlinear dynamical system.
// A single Filter instance must not be used from multiple goroutines
// concurrently: its sigma point scratch buffers are reused in place
// across calls.
type Filter interface {
	// Predict propagates the filter state to the next time step
	Predict(u mat.Vector, dt float64) (Estimate, error)
	// Observe returns the predicted system observation
	Observe() (mat.Vector, error)
	// Correct corrects the filter state using the actual observation z
	Correct(z mat.Vector) (Estimate, error)
}

// ProcessModel propagates system state to the next time step.
type ProcessModel interface {
	// Propagate returns the next state of the system given state x,
	// control input u, process noise q and time step dt
	Propagate(x, u, q mat.Vector, dt float64) (mat.Vector, error)
}

// ObservationModel observes external state (output) of the system.
type ObservationModel interface {
	// Observe returns the system observation given state x and
	// observation noise r
	Observe(x, r mat.Vector) (mat.Vector, error)
}

// Model is a model of a nonlinear dynamical system.
type Model interface {
	// ProcessModel propagates system state
	ProcessModel
	// ObservationModel observes system output
	ObservationModel
	// Dims returns state, control and observation dimensions of the model
	Dims() (nx, nu, nz int)
}

// Weights are sigma point recombination weights.
// Mean0 and Cov0 weigh the central sigma point; Mean and Cov weigh
// the remaining 2L symmetrically paired points.
type Weights struct {
	// Mean0 is the central sigma point mean weight
	Mean0 float64
	// Mean is the mean weight shared by all non-central sigma points
	Mean float64
	// Cov0 is the central sigma point covariance weight
	Cov0 float64
	// Cov is the covariance weight shared by all non-central sigma points
	Cov float64
}

// WeightingPolicy supplies the sigma point scaling factor, the recombination
// weights and the covariance update formula of a particular filter variant.
type WeightingPolicy interface {
	// Gamma returns the sigma point spread scaling factor for
	// augmented dimension l
	Gamma(l int) float64
	// Weights returns recombination weights for augmented dimension l
	Weights(l int) Weights
	// UpdateCovariance returns the corrected state covariance computed
	// from the predicted covariance, the Kalman gain and the innovation
	// covariance
	UpdateCovariance(pred mat.Symmetric, gain mat.Matrix, innCov mat.Symmetric) (*mat.SymDense, error)
}

// InitCond is initial state condition of the filter
type InitCond interface {
	// State returns initial filter state
	State() mat.Vector
	// Cov returns initial state covariance
	Cov() mat.Symmetric
}

// Estimate is dynamical system filter estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset()
}
