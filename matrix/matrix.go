package matrix

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// BlockDiag zeroes dst and copies the given square blocks along its diagonal.
// It panics if either of the blocks is not square or if the block dimensions
// do not add up to the dimensions of dst.
func BlockDiag(dst *mat.Dense, blocks ...mat.Matrix) {
	rows, cols := dst.Dims()
	if rows != cols {
		panic("matrix: destination matrix is not square")
	}

	dim := 0
	for _, b := range blocks {
		r, c := b.Dims()
		if r != c {
			panic("matrix: diagonal block is not square")
		}
		dim += r
	}
	if dim != rows {
		panic("matrix: diagonal blocks do not fill the destination matrix")
	}

	dst.Zero()

	off := 0
	for _, b := range blocks {
		r, _ := b.Dims()
		dst.Slice(off, off+r, off, off+r).(*mat.Dense).Copy(b)
		off += r
	}
}

// Symmetrize copies a into dst averaging the off-diagonal entries of a with
// their transposed counterparts. It panics if a is not square or if its
// dimensions do not match the dimensions of dst.
func Symmetrize(dst *mat.SymDense, a mat.Matrix) {
	rows, cols := a.Dims()
	if rows != cols {
		panic("matrix: source matrix is not square")
	}
	if rows != dst.Symmetric() {
		panic("matrix: source and destination dimensions do not match")
	}

	for i := 0; i < rows; i++ {
		for j := i; j < rows; j++ {
			dst.SetSym(i, j, (a.At(i, j)+a.At(j, i))/2)
		}
	}
}

// Finite reports whether every element of m is a finite number.
func Finite(m mat.Matrix) bool {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}

	return true
}
