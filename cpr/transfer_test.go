package cpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkelhaug/gocpr/blockmat"
	"github.com/mkelhaug/gocpr/config"
)

// threeCellSystem builds 3 cells in a line with 2x2 blocks and fixed,
// non-symmetric block values.
func threeCellSystem() *blockmat.Matrix {
	mb := blockmat.NewMatrixBuilder(3, 2)
	mb.SetBlock(0, 0, []float64{4, 1, 0.5, 3})
	mb.SetBlock(0, 1, []float64{-1, 0.2, 0.1, -0.5})
	mb.SetBlock(1, 0, []float64{-0.8, 0, 0.3, -0.4})
	mb.SetBlock(1, 1, []float64{5, 0.7, 0.2, 2})
	mb.SetBlock(1, 2, []float64{-1.2, 0.1, 0, -0.6})
	mb.SetBlock(2, 1, []float64{-0.9, 0.3, 0.1, -0.2})
	mb.SetBlock(2, 2, []float64{4.5, 0.4, 0.6, 2.5})
	return mb.Build()
}

func newPolicy(t *testing.T, w *blockmat.Vector, transpose bool) *PressureTransferPolicy {
	t.Helper()
	prm := &config.Params{PressureVarIndex: 0}
	pol, err := NewPressureTransferPolicy(nil, w, prm, transpose)
	require.NoError(t, err)
	return pol
}

func TestCalculateCoarseEntries(t *testing.T) {
	var (
		A  = threeCellSystem()
		w  = blockmat.NewVector(3, 2, []float64{0.7, 0.3, 1.1, -0.2, 0.9, 0.5})
		op = NewMatrixOperator(A)
	)
	// Non-transposed: coarse[i][j] = sum_k blk[p][k] * w[j][k]
	{
		pol := newPolicy(t, w, false)
		require.NoError(t, pol.CreateCoarseLevelSystem(op))
		C := pol.CoarseMatrix()
		nr, nc := C.Dims()
		assert.Equal(t, 3, nr)
		assert.Equal(t, 3, nc)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				blk := A.BlockAt(i, j)
				if blk == nil {
					assert.Equal(t, 0., C.At(i, j))
					continue
				}
				wj := w.Block(j)
				want := blk[0]*wj[0] + blk[1]*wj[1]
				assert.InDelta(t, want, C.At(i, j), 1.e-14, "entry (%d,%d)", i, j)
			}
		}
	}
	// Transposed: coarse[i][j] = sum_k blk[k][p] * w[i][k]
	{
		pol := newPolicy(t, w, true)
		require.NoError(t, pol.CreateCoarseLevelSystem(op))
		C := pol.CoarseMatrix()
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				blk := A.BlockAt(i, j)
				if blk == nil {
					continue
				}
				wi := w.Block(i)
				want := blk[0]*wi[0] + blk[2]*wi[1]
				assert.InDelta(t, want, C.At(i, j), 1.e-14, "entry (%d,%d)", i, j)
			}
		}
	}
}

func TestCalculateCoarseEntriesIdempotent(t *testing.T) {
	var (
		A  = threeCellSystem()
		w  = blockmat.NewVector(3, 2, []float64{0.7, 0.3, 1.1, -0.2, 0.9, 0.5})
		op = NewMatrixOperator(A)
	)
	pol := newPolicy(t, w, false)
	require.NoError(t, pol.CreateCoarseLevelSystem(op))
	first := pol.CoarseMatrix().Clone()
	require.NoError(t, pol.CalculateCoarseEntries(op))
	C := pol.CoarseMatrix()
	nr, nc := C.Dims()
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			// bit-identical, not merely close
			assert.Equal(t, first.At(i, j), C.At(i, j))
		}
	}
}

func TestMoveRoundTrip(t *testing.T) {
	var (
		A  = threeCellSystem()
		op = NewMatrixOperator(A)
		// zero weight at the pressure slot of every row
		w = blockmat.NewVector(3, 2, []float64{0, 0.5, 0, 0.5, 0, 0.5})
	)
	pol := newPolicy(t, w, false)
	require.NoError(t, pol.CreateCoarseLevelSystem(op))

	d := blockmat.NewVector(3, 2, []float64{3, 0, -2, 0, 7, 0}) // pressure slots only
	pol.MoveToCoarseLevel(d)
	// identity coarse solve
	pol.CoarseLHS().CopyFrom(pol.CoarseRHS())
	fine := blockmat.NewVector(3, 2)
	pol.MoveToFineLevel(fine)
	// with w[p] == 0 the round trip through the pressure slot is exactly zero
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0., fine.Block(i)[0])
	}

	// with pressure weight 1 the coarse value lands back in the pressure slot
	w2 := blockmat.NewVector(3, 2, []float64{1, 0, 1, 0, 1, 0})
	pol2 := newPolicy(t, w2, false)
	require.NoError(t, pol2.CreateCoarseLevelSystem(op))
	pol2.MoveToCoarseLevel(d)
	pol2.CoarseLHS().CopyFrom(pol2.CoarseRHS())
	fine2 := blockmat.NewVector(3, 2)
	pol2.MoveToFineLevel(fine2)
	assert.Equal(t, 3., fine2.Block(0)[0])
	assert.Equal(t, -2., fine2.Block(1)[0])
	assert.Equal(t, 7., fine2.Block(2)[0])
	// non-transposed prolongation touches only the pressure slot
	assert.Equal(t, 0., fine2.Block(0)[1])
}

func TestMoveTransposed(t *testing.T) {
	var (
		A  = threeCellSystem()
		op = NewMatrixOperator(A)
		w  = blockmat.NewVector(3, 2, []float64{0.5, 2, 0.5, 2, 0.5, 2})
	)
	pol := newPolicy(t, w, true)
	require.NoError(t, pol.CreateCoarseLevelSystem(op))

	d := blockmat.NewVector(3, 2, []float64{3, 1, -2, 1, 7, 1})
	pol.MoveToCoarseLevel(d)
	// transposed restriction picks the pressure entry
	assert.Equal(t, []float64{3, -2, 7}, pol.CoarseRHS().Data)

	pol.CoarseLHS().CopyFrom(pol.CoarseRHS())
	fine := blockmat.NewVector(3, 2)
	pol.MoveToFineLevel(fine)
	// transposed prolongation scales the whole block by the weights
	assert.Equal(t, []float64{1.5, 6, -1, -4, 3.5, 14}, fine.Data)
}

func TestTransferPolicyConfigErrors(t *testing.T) {
	w := blockmat.NewVector(3, 2)
	_, err := NewPressureTransferPolicy(nil, w, &config.Params{PressureVarIndex: 5}, false)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewPressureTransferPolicy(nil, w, &config.Params{PressureVarIndex: 0, AddWells: true}, true)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestWellCouplingNeedsHook(t *testing.T) {
	var (
		A  = threeCellSystem()
		w  = blockmat.NewVector(3, 2, []float64{1, 0, 1, 0, 1, 0})
		op = NewMatrixOperator(A) // no well hook
	)
	prm := &config.Params{PressureVarIndex: 0, AddWells: true}
	pol, err := NewPressureTransferPolicy(nil, w, prm, false)
	require.NoError(t, err)
	err = pol.CreateCoarseLevelSystem(op)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestClone(t *testing.T) {
	var (
		A  = threeCellSystem()
		w  = blockmat.NewVector(3, 2, []float64{1, 0, 1, 0, 1, 0})
		op = NewMatrixOperator(A)
	)
	pol := newPolicy(t, w, false)
	require.NoError(t, pol.CreateCoarseLevelSystem(op))

	ownWeights := w.Copy()
	cl := pol.Clone(ownWeights)
	// the clone is bound to its own weight storage
	ownWeights.Data[0] = 100
	require.NoError(t, cl.CalculateCoarseEntries(op))
	assert.NotEqual(t, pol.CoarseMatrix().At(0, 0), cl.CoarseMatrix().At(0, 0))
	// and its coarse matrix is an independent copy
	require.NoError(t, pol.CalculateCoarseEntries(op))
	assert.Equal(t, 4., pol.CoarseMatrix().At(0, 0))
}
