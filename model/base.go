package model

import (
	"fmt"

	filter "github.com/milosgajdos/go-sigma"
	"gonum.org/v1/gonum/mat"
)

// InitCond implements filter.InitCond
type InitCond struct {
	state *mat.VecDense
	cov   *mat.SymDense
}

// NewInitCond creates new InitCond and returns it
func NewInitCond(state mat.Vector, cov mat.Symmetric) *InitCond {
	s := &mat.VecDense{}
	s.CloneFromVec(state)

	c := mat.NewSymDense(cov.Symmetric(), nil)
	c.CopySym(cov)

	return &InitCond{
		state: s,
		cov:   c,
	}
}

// State returns initial state
func (c *InitCond) State() mat.Vector {
	state := mat.NewVecDense(c.state.Len(), nil)
	state.CopyVec(c.state)

	return state
}

// Cov returns initial covariance
func (c *InitCond) Cov() mat.Symmetric {
	cov := mat.NewSymDense(c.cov.Symmetric(), nil)
	cov.CopySym(c.cov)

	return cov
}

// Base is a linear, discrete time model of a dynamical system:
//
//	x[n+1] = A*x[n] + B*u[n] + q[n]
//	z[n]   = C*x[n] + r[n]
//
// where q and r are process and observation noise vectors. The time step dt
// is ignored: the dynamics are baked into the discrete matrices.
// Base implements filter.Model, so it can drive any sigma point filter and
// gives linear filters an exact reference to validate against.
type Base struct {
	// A is state propagation matrix
	A *mat.Dense
	// B is control matrix
	B *mat.Dense
	// C is observation matrix
	C *mat.Dense
}

// NewBase creates new Base model from the given matrices and returns it.
// B may be nil for systems with no control input.
// It returns error if the matrix dimensions are inconsistent.
func NewBase(A, B, C *mat.Dense) (*Base, error) {
	if A == nil || C == nil {
		return nil, fmt.Errorf("state and observation matrices must be defined")
	}

	nx, cols := A.Dims()
	if nx != cols {
		return nil, fmt.Errorf("state matrix [%d x %d]: %w", nx, cols, filter.ErrDimensionMismatch)
	}

	if B != nil {
		rows, _ := B.Dims()
		if rows != nx {
			cols, _ := B.Dims()
			return nil, fmt.Errorf("control matrix [%d x %d]: %w", rows, cols, filter.ErrDimensionMismatch)
		}
	}

	nz, cols := C.Dims()
	if cols != nx {
		return nil, fmt.Errorf("observation matrix [%d x %d]: %w", nz, cols, filter.ErrDimensionMismatch)
	}

	return &Base{A: A, B: B, C: C}, nil
}

// Propagate propagates internal state x to the next step given control input
// u and process noise q. Either of u and q may be nil.
func (b *Base) Propagate(x, u, q mat.Vector, dt float64) (mat.Vector, error) {
	nx, nu, _ := b.Dims()
	if x.Len() != nx {
		return nil, fmt.Errorf("invalid state vector [%d]: %w", x.Len(), filter.ErrDimensionMismatch)
	}
	if u != nil && b.B != nil && u.Len() != nu {
		return nil, fmt.Errorf("invalid control vector [%d]: %w", u.Len(), filter.ErrDimensionMismatch)
	}

	out := new(mat.Dense)
	out.Mul(b.A, x)

	if u != nil && b.B != nil {
		outU := new(mat.Dense)
		outU.Mul(b.B, u)

		out.Add(out, outU)
	}

	if q != nil && q.Len() == nx {
		out.Add(out, q)
	}

	return out.ColView(0), nil
}

// Observe observes external state of the system given internal state x and
// observation noise r. r may be nil.
func (b *Base) Observe(x, r mat.Vector) (mat.Vector, error) {
	nx, _, nz := b.Dims()
	if x.Len() != nx {
		return nil, fmt.Errorf("invalid state vector [%d]: %w", x.Len(), filter.ErrDimensionMismatch)
	}

	out := new(mat.Dense)
	out.Mul(b.C, x)

	if r != nil && r.Len() == nz {
		out.Add(out, r)
	}

	return out.ColView(0), nil
}

// Dims returns state, control and observation dimensions of the model
func (b *Base) Dims() (nx, nu, nz int) {
	nx, _ = b.A.Dims()
	if b.B != nil {
		_, nu = b.B.Dims()
	}
	nz, _ = b.C.Dims()

	return nx, nu, nz
}
