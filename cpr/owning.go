package cpr

import (
	"fmt"
	"os"

	"github.com/mkelhaug/gocpr/blockmat"
	"github.com/mkelhaug/gocpr/config"
	"github.com/mkelhaug/gocpr/parallel"
)

// OwningTwoLevelPreconditioner owns the full CPR composition: the quasi-IMPES
// weights, the transfer policy, the fine smoother and the coarse solver. It
// exposes the standard preconditioner contract; Update must run once per
// nonlinear iteration or timestep before Apply is reused, or a stale
// linearization is silently applied.
type OwningTwoLevelPreconditioner struct {
	op        Operator
	prm       *config.Params
	transpose bool
	comm      *parallel.Communication

	weights      *blockmat.Vector
	fineSmoother Preconditioner
	policy       *PressureTransferPolicy
	coarseSolver Preconditioner
	method       *TwoLevelMethod
}

func NewOwningTwoLevelPreconditioner(op Operator, prm *config.Params, transpose bool,
	comm *parallel.Communication) (o *OwningTwoLevelPreconditioner, err error) {
	var (
		A = op.Matrix()
	)
	if prm.FineSmoother == nil {
		err = fmt.Errorf("%w: missing finesmoother configuration", ErrConfiguration)
		return
	}
	if prm.CoarseSolver == nil {
		err = fmt.Errorf("%w: missing coarsesolver configuration", ErrConfiguration)
		return
	}
	o = &OwningTwoLevelPreconditioner{
		op:        op,
		prm:       prm,
		transpose: transpose,
		comm:      comm,
		weights:   blockmat.NewVector(A.Nr, A.B),
	}
	if err = QuasiImpesWeights(A, prm.PressureVarIndex, transpose, o.weights); err != nil {
		return nil, err
	}
	if o.fineSmoother, err = NewPreconditioner(op, prm.FineSmoother, comm); err != nil {
		return nil, err
	}
	if o.policy, err = NewPressureTransferPolicy(comm, o.weights, prm, transpose); err != nil {
		return nil, err
	}
	if err = o.policy.CreateCoarseLevelSystem(op); err != nil {
		return nil, err
	}
	if o.coarseSolver, err = NewPressureSolver(o.policy.CoarseOperator(), prm.CoarseSolver, o.policy.CoarseComm()); err != nil {
		return nil, err
	}
	o.method = NewTwoLevelMethod(op, o.fineSmoother, o.policy, o.coarseSolver, transpose)
	if prm.Verbosity > 10 {
		if err = o.writeWeights(); err != nil {
			return nil, err
		}
	}
	return
}

func (o *OwningTwoLevelPreconditioner) writeWeights() (err error) {
	f, err := os.Create(o.prm.WeightsFilename)
	if err != nil {
		return fmt.Errorf("could not write weights to %q: %w", o.prm.WeightsFilename, err)
	}
	defer f.Close()
	return blockmat.WriteMatrixMarket(f, o.weights)
}

func (o *OwningTwoLevelPreconditioner) Pre(x, b *blockmat.Vector) {
	o.method.Pre(x, b)
}

func (o *OwningTwoLevelPreconditioner) Apply(v, d *blockmat.Vector) error {
	return o.method.Apply(v, d)
}

func (o *OwningTwoLevelPreconditioner) Post(x *blockmat.Vector) {
	o.method.Post(x)
}

// Update recomputes the weights from the now-current fine matrix, rebuilds
// the fine smoother from scratch (the previous linearization's factorization
// is stale), refreshes the coarse values in place and updates the coarse
// solver.
func (o *OwningTwoLevelPreconditioner) Update() (err error) {
	if err = QuasiImpesWeights(o.op.Matrix(), o.prm.PressureVarIndex, o.transpose, o.weights); err != nil {
		return
	}
	if o.fineSmoother, err = NewPreconditioner(o.op, o.prm.FineSmoother, o.comm); err != nil {
		return
	}
	if err = o.policy.CalculateCoarseEntries(o.op); err != nil {
		return
	}
	if err = o.coarseSolver.Update(); err != nil {
		return
	}
	o.method.UpdatePreconditioner(o.fineSmoother, o.coarseSolver)
	return
}

// Category reports parallel validity from the communication object actually
// supplied, not from a fixed answer.
func (o *OwningTwoLevelPreconditioner) Category() Category {
	if o.comm.Nontrivial() {
		return Overlapping
	}
	return Sequential
}

// Weights exposes the current weight vector, mainly for diagnostics.
func (o *OwningTwoLevelPreconditioner) Weights() *blockmat.Vector { return o.weights }

// TransferPolicy exposes the owned transfer policy, mainly for diagnostics.
func (o *OwningTwoLevelPreconditioner) TransferPolicy() *PressureTransferPolicy { return o.policy }
