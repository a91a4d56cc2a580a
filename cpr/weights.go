package cpr

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mkelhaug/gocpr/blockmat"
)

// QuasiImpesWeights derives, from the diagonal blocks of the fine matrix, the
// per-row coefficients that combine a cell's unknowns into one effective
// pressure equation. For each row the diagonal block D is factorized and
// D'w = e_p is solved (Dw = e_p in the transposed variant), mimicking an
// implicit-pressure-explicit-saturation splitting.
//
// The result is written in place into w, which must be sized to the matrix:
// the weight storage is shared by reference with the transfer policy, so
// update cycles refresh values without reallocating.
func QuasiImpesWeights(A *blockmat.Matrix, pressureIndex int, transpose bool, w *blockmat.Vector) (err error) {
	var (
		b  = A.B
		lu mat.LU
	)
	if pressureIndex < 0 || pressureIndex >= b {
		err = fmt.Errorf("%w: pressure index %d outside block size %d", ErrConfiguration, pressureIndex, b)
		return
	}
	if w.N != A.Nr || w.B != b {
		err = fmt.Errorf("%w: weight vector [%d x %d] does not match matrix [%d x %d blocks]",
			ErrConfiguration, w.N, w.B, A.Nr, b)
		return
	}
	var (
		rhs = mat.NewVecDense(b, nil)
		sol = mat.NewVecDense(b, nil)
	)
	for i := 0; i < A.Nr; i++ {
		diag := A.BlockAt(i, i)
		if diag == nil {
			err = fmt.Errorf("row %d has no diagonal block", i)
			return
		}
		D := mat.NewDense(b, b, diag)
		lu.Factorize(D)
		for k := 0; k < b; k++ {
			rhs.SetVec(k, 0)
		}
		rhs.SetVec(pressureIndex, 1)
		// LU solves D'x = e_p when trans is set; the transposed variant of
		// the scheme wants Dx = e_p instead.
		if err = lu.SolveVecTo(sol, !transpose, rhs); err != nil {
			err = fmt.Errorf("singular diagonal block in row %d: %w", i, err)
			return
		}
		wi := w.Block(i)
		for k := 0; k < b; k++ {
			wi[k] = sol.AtVec(k)
		}
	}
	return
}
