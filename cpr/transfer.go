package cpr

import (
	"fmt"

	"github.com/mkelhaug/gocpr/blockmat"
	"github.com/mkelhaug/gocpr/config"
	"github.com/mkelhaug/gocpr/parallel"
)

// PressureTransferPolicy links the fine coupled system to the coarse
// pressure system: it owns the coarse matrix and communication, restricts
// defects, prolongs corrections, and (re)assembles coarse values from the
// fine operator under the current weights.
//
// The weight vector is borrowed by reference from the owning preconditioner
// and must stay valid for the policy's whole lifetime; updates rewrite the
// shared storage in place.
type PressureTransferPolicy struct {
	comm          *parallel.Communication
	weights       *blockmat.Vector
	pressureIndex int
	bhpIndex      int
	addWells      bool
	transpose     bool

	nw         int
	coarse     *blockmat.Scalar
	coarseComm *parallel.Communication
	rhs, lhs   *blockmat.Vector // scalar coarse vectors, length fineRows+nw
}

func NewPressureTransferPolicy(comm *parallel.Communication, weights *blockmat.Vector,
	prm *config.Params, transpose bool) (t *PressureTransferPolicy, err error) {
	if prm.PressureVarIndex < 0 || prm.PressureVarIndex >= weights.B {
		err = fmt.Errorf("%w: pressure index %d outside block size %d",
			ErrConfiguration, prm.PressureVarIndex, weights.B)
		return
	}
	if transpose && prm.AddWells {
		err = fmt.Errorf("%w: well coupling is not implemented for the transposed variant", ErrConfiguration)
		return
	}
	t = &PressureTransferPolicy{
		comm:          comm,
		weights:       weights,
		pressureIndex: prm.PressureVarIndex,
		bhpIndex:      prm.BhpVarIndex,
		addWells:      prm.AddWells,
		transpose:     transpose,
	}
	return
}

// CreateCoarseLevelSystem sizes the coarse matrix at fineRows+nw, mirrors the
// fine block pattern one scalar per block, folds in well structure when well
// coupling is enabled, extends the communication accordingly, and computes
// the initial coarse values. Contains collective synchronization points when
// a nontrivial communication is present.
func (t *PressureTransferPolicy) CreateCoarseLevelSystem(op Operator) (err error) {
	var (
		A  = op.Matrix()
		nw = op.ExtraEquations()
		n  = A.Nr
	)
	if t.weights.N != n || t.weights.B != A.B {
		err = fmt.Errorf("%w: weight vector [%d x %d] does not match fine matrix [%d x %d blocks]",
			ErrConfiguration, t.weights.N, t.weights.B, n, A.B)
		return
	}
	rows := make([][]int, n+nw)
	for i := 0; i < n; i++ {
		rows[i] = append([]int{}, A.Col[A.RowPtr[i]:A.RowPtr[i+1]]...)
	}
	if t.addWells {
		wc, ok := op.(WellContributor)
		if !ok {
			err = fmt.Errorf("%w: well coupling requested but the fine operator supplies no well contribution hook",
				ErrUnsupported)
			return
		}
		wc.WellPressureStructure(func(i, j int) {
			rows[i] = append(rows[i], j)
		})
	}
	t.nw = nw
	t.coarse = blockmat.NewScalarFromPattern(n+nw, n+nw, rows)
	t.rhs = blockmat.NewVector(n+nw, 1)
	t.lhs = blockmat.NewVector(n+nw, 1)
	if t.comm != nil {
		if t.addWells {
			if t.coarseComm, err = parallel.ExtendWithWells(t.comm, nw); err != nil {
				return
			}
		} else {
			t.coarseComm = parallel.NewCommunication(t.comm.Coll, t.comm.Idx.Copy(),
				append([]int{}, t.comm.Neighbors...))
		}
	}
	return t.CalculateCoarseEntries(op)
}

// CalculateCoarseEntries refreshes coarse values from the fine operator and
// the current weights. The established pattern is reused; recomputation can
// never introduce new nonzero positions.
func (t *PressureTransferPolicy) CalculateCoarseEntries(op Operator) (err error) {
	if t.coarse == nil {
		err = fmt.Errorf("CalculateCoarseEntries called before CreateCoarseLevelSystem")
		return
	}
	var (
		A = op.Matrix()
		b = A.B
		p = t.pressureIndex
	)
	if nr, _ := t.coarse.Dims(); nr != A.Nr+op.ExtraEquations() {
		err = fmt.Errorf("fine operator structure changed: coarse system has %d rows, operator wants %d",
			nr, A.Nr+op.ExtraEquations())
		return
	}
	t.coarse.ZeroValues()
	for i := 0; i < A.Nr; i++ {
		for k := A.RowPtr[i]; k < A.RowPtr[i+1]; k++ {
			var (
				j   = A.Col[k]
				blk = A.Block(k)
				el  float64
			)
			if t.transpose {
				wi := t.weights.Block(i)
				for c := 0; c < b; c++ {
					el += blk[c*b+p] * wi[c]
				}
			} else {
				wj := t.weights.Block(j)
				for c := 0; c < b; c++ {
					el += blk[p*b+c] * wj[c]
				}
			}
			if !t.coarse.Set(i, j, el) {
				err = fmt.Errorf("fine nonzero (%d,%d) missing from the coarse pattern; structure changed since creation", i, j)
				return
			}
		}
	}
	if t.addWells {
		wc, ok := op.(WellContributor)
		if !ok {
			err = fmt.Errorf("%w: well coupling requested but the fine operator supplies no well contribution hook",
				ErrUnsupported)
			return
		}
		err = wc.AddWellPressureEquations(t.weights, func(i, j int, v float64) error {
			if !t.coarse.Add(i, j, v) {
				return fmt.Errorf("well contribution (%d,%d) outside the coarse pattern", i, j)
			}
			return nil
		})
	}
	return
}

// MoveToCoarseLevel restricts a fine defect into the coarse right hand side
// and resets the coarse solution estimate. Well rows of the right hand side
// stay zero; the well residual is handled at the fine level.
func (t *PressureTransferPolicy) MoveToCoarseLevel(fine *blockmat.Vector) {
	var (
		b = t.weights.B
		p = t.pressureIndex
	)
	t.rhs.Zero()
	for i := 0; i < fine.N; i++ {
		fi := fine.Block(i)
		if t.transpose {
			t.rhs.Data[i] = fi[p]
		} else {
			wi := t.weights.Block(i)
			sum := 0.0
			for c := 0; c < b; c++ {
				sum += fi[c] * wi[c]
			}
			t.rhs.Data[i] = sum
		}
	}
	t.lhs.Zero()
}

// MoveToFineLevel prolongs the coarse correction into the fine vector: the
// scalar lands in each block's pressure slot, or, in the transposed variant,
// is spread over the whole block scaled by the weights.
func (t *PressureTransferPolicy) MoveToFineLevel(fine *blockmat.Vector) {
	var (
		b = t.weights.B
		p = t.pressureIndex
	)
	for i := 0; i < fine.N; i++ {
		fi := fine.Block(i)
		if t.transpose {
			wi := t.weights.Block(i)
			for c := 0; c < b; c++ {
				fi[c] = t.lhs.Data[i] * wi[c]
			}
		} else {
			fi[p] = t.lhs.Data[i]
		}
	}
}

// Clone produces an independent deep copy bound to the given weight storage,
// so a recursive two-level composition owns its instance outright. A nil
// weights re-binds to a private copy of the current weights.
func (t *PressureTransferPolicy) Clone(weights *blockmat.Vector) (R *PressureTransferPolicy) {
	if weights == nil {
		weights = t.weights.Copy()
	}
	R = &PressureTransferPolicy{
		comm:          t.comm,
		weights:       weights,
		pressureIndex: t.pressureIndex,
		bhpIndex:      t.bhpIndex,
		addWells:      t.addWells,
		transpose:     t.transpose,
		nw:            t.nw,
	}
	if t.coarse != nil {
		R.coarse = t.coarse.Clone()
		R.rhs = t.rhs.Copy()
		R.lhs = t.lhs.Copy()
	}
	if t.coarseComm != nil {
		R.coarseComm = parallel.NewCommunication(t.coarseComm.Coll, t.coarseComm.Idx.Copy(),
			append([]int{}, t.coarseComm.Neighbors...))
	}
	return
}

func (t *PressureTransferPolicy) CoarseMatrix() *blockmat.Scalar         { return t.coarse }
func (t *PressureTransferPolicy) CoarseRHS() *blockmat.Vector            { return t.rhs }
func (t *PressureTransferPolicy) CoarseLHS() *blockmat.Vector            { return t.lhs }
func (t *PressureTransferPolicy) CoarseComm() *parallel.Communication    { return t.coarseComm }

// CoarseOperator presents the assembled coarse matrix as a fine operator for
// the next level down, enabling recursive compositions.
func (t *PressureTransferPolicy) CoarseOperator() Operator {
	return NewMatrixOperator(t.coarse.BlockView())
}
