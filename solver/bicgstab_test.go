package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBiCGStab(t *testing.T) {
	// 1D Laplacian, 5 unknowns
	var (
		n      = 5
		matvec = func(x, y []float64) {
			for i := 0; i < n; i++ {
				y[i] = 2 * x[i]
				if i > 0 {
					y[i] -= x[i-1]
				}
				if i < n-1 {
					y[i] -= x[i+1]
				}
			}
		}
		b = []float64{1, 0, 0, 0, 1}
		x = make([]float64, n)
	)
	iters, err := BiCGStab(n, matvec, nil, x, b, Options{Tol: 1.e-10, MaxIter: 100})
	require.NoError(t, err)
	assert.Greater(t, iters, 0)
	// Exact solution is all ones
	for i := 0; i < n; i++ {
		assert.InDelta(t, 1.0, x[i], 1.e-8)
	}
}

func TestBiCGStabZeroRHS(t *testing.T) {
	matvec := func(x, y []float64) { copy(y, x) }
	x := make([]float64, 3)
	iters, err := BiCGStab(3, matvec, nil, x, []float64{0, 0, 0}, Options{Tol: 1.e-10, MaxIter: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, iters)
	assert.Equal(t, []float64{0, 0, 0}, x)
}

func TestBiCGStabNoConvergence(t *testing.T) {
	// One iteration on a 2D rotation-like system cannot hit 1e-16
	matvec := func(x, y []float64) {
		y[0] = x[0] - 10*x[1]
		y[1] = 10*x[0] + x[1]
	}
	x := make([]float64, 2)
	_, err := BiCGStab(2, matvec, nil, x, []float64{1, 2}, Options{Tol: 1.e-16, MaxIter: 1})
	assert.Error(t, err)
}
