package cpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkelhaug/gocpr/blockmat"
)

func scalarMatrix(n int, entries map[[2]int]float64) *blockmat.Matrix {
	mb := blockmat.NewMatrixBuilder(n, 1)
	for ij, v := range entries {
		mb.SetBlock(ij[0], ij[1], []float64{v})
	}
	return mb.Build()
}

func TestBlockJacobiDiagonalExact(t *testing.T) {
	// One damped Jacobi sweep solves a (block) diagonal system exactly
	mb := blockmat.NewMatrixBuilder(2, 2)
	mb.SetBlock(0, 0, []float64{2, 0, 0, 4})
	mb.SetBlock(1, 1, []float64{1, 0, 0, 8})
	A := mb.Build()

	s, err := NewBlockJacobi(A, 1.0, 1)
	require.NoError(t, err)
	v := blockmat.NewVector(2, 2)
	d := blockmat.NewVector(2, 2, []float64{2, 4, 3, 16})
	require.NoError(t, s.Apply(v, d))
	assert.InDeltaSlice(t, []float64{1, 1, 3, 2}, v.Data, 1.e-14)
}

func TestGaussSeidelLowerTriangularExact(t *testing.T) {
	// A forward sweep is an exact solve when the matrix is lower triangular
	A := scalarMatrix(3, map[[2]int]float64{
		{0, 0}: 2,
		{1, 0}: 1, {1, 1}: 2,
		{2, 1}: 1, {2, 2}: 2,
	})
	s, err := NewBlockGaussSeidel(A, 1)
	require.NoError(t, err)
	v := blockmat.NewVector(3, 1)
	d := blockmat.NewVector(3, 1, []float64{2, 4, 5})
	require.NoError(t, s.Apply(v, d))
	// x0 = 1, x1 = (4-1)/2 = 1.5, x2 = (5-1.5)/2 = 1.75
	assert.InDeltaSlice(t, []float64{1, 1.5, 1.75}, v.Data, 1.e-14)
}

func laplacian1D(n int) *blockmat.Matrix {
	mb := blockmat.NewMatrixBuilder(n, 1)
	for i := 0; i < n; i++ {
		mb.SetBlock(i, i, []float64{2})
		if i > 0 {
			mb.SetBlock(i, i-1, []float64{-1})
		}
		if i < n-1 {
			mb.SetBlock(i, i+1, []float64{-1})
		}
	}
	return mb.Build()
}

func TestSSORReducesResidual(t *testing.T) {
	var (
		n = 8
		A = laplacian1D(n)
		d = blockmat.NewVector(n, 1)
		v = blockmat.NewVector(n, 1)
		r = blockmat.NewVector(n, 1)
	)
	for i := 0; i < n; i++ {
		d.Data[i] = 1
	}
	s, err := NewBlockSSOR(A, 1.2, 3)
	require.NoError(t, err)
	require.NoError(t, s.Apply(v, d))
	A.Residual(d, v, r)
	assert.Less(t, r.Norm2(), d.Norm2())
}

func TestBlockILU0FullPatternIsExact(t *testing.T) {
	// With a fully populated pattern, ILU(0) is a complete factorization
	A := scalarMatrix(2, map[[2]int]float64{
		{0, 0}: 4, {0, 1}: 1,
		{1, 0}: 1, {1, 1}: 3,
	})
	s, err := NewBlockILU0(A, 1.0)
	require.NoError(t, err)
	v := blockmat.NewVector(2, 1)
	d := blockmat.NewVector(2, 1, []float64{1, 2})
	require.NoError(t, s.Apply(v, d))
	// det = 11, x = [ (3-2)/11, (8-1)/11 ]
	assert.InDeltaSlice(t, []float64{1. / 11, 7. / 11}, v.Data, 1.e-14)
}

func TestBlockILU0UpdateRefactorizes(t *testing.T) {
	A := scalarMatrix(1, map[[2]int]float64{{0, 0}: 2})
	s, err := NewBlockILU0(A, 1.0)
	require.NoError(t, err)

	v := blockmat.NewVector(1, 1)
	d := blockmat.NewVector(1, 1, []float64{4})
	require.NoError(t, s.Apply(v, d))
	assert.InDelta(t, 2.0, v.Data[0], 1.e-14)

	// Value change is invisible until Update refactorizes
	A.Block(0)[0] = 4
	require.NoError(t, s.Apply(v, d))
	assert.InDelta(t, 2.0, v.Data[0], 1.e-14)
	require.NoError(t, s.Update())
	require.NoError(t, s.Apply(v, d))
	assert.InDelta(t, 1.0, v.Data[0], 1.e-14)
}

func TestRichardson(t *testing.T) {
	s := NewRichardson(0.5)
	v := blockmat.NewVector(2, 1)
	d := blockmat.NewVector(2, 1, []float64{2, -4})
	require.NoError(t, s.Apply(v, d))
	assert.Equal(t, []float64{1, -2}, v.Data)
}
