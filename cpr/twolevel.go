package cpr

import (
	"github.com/mkelhaug/gocpr/blockmat"
)

// TwoLevelMethod composes one correction cycle: smooth the fine system,
// restrict the updated residual, solve on the coarse pressure system,
// prolong the coarse correction and accumulate. The transpose flag selects
// the adjoint ordering, smoothing after the coarse correction instead of
// before.
type TwoLevelMethod struct {
	op           Operator
	smoother     Preconditioner
	policy       *PressureTransferPolicy
	coarseSolver Preconditioner
	preSteps     int
	postSteps    int

	scratch, defect *blockmat.Vector
}

func NewTwoLevelMethod(op Operator, smoother Preconditioner, policy *PressureTransferPolicy,
	coarseSolver Preconditioner, transpose bool) (m *TwoLevelMethod) {
	var (
		A         = op.Matrix()
		preSteps  = 1
		postSteps = 0
	)
	if transpose {
		preSteps, postSteps = 0, 1
	}
	m = &TwoLevelMethod{
		op:           op,
		smoother:     smoother,
		policy:       policy,
		coarseSolver: coarseSolver,
		preSteps:     preSteps,
		postSteps:    postSteps,
		scratch:      blockmat.NewVector(A.Nr, A.B),
		defect:       blockmat.NewVector(A.Nr, A.B),
	}
	return
}

func (m *TwoLevelMethod) Pre(x, b *blockmat.Vector) {
	m.scratch.Zero()
	m.defect.Zero()
	m.smoother.Pre(x, b)
}

func (m *TwoLevelMethod) Post(x *blockmat.Vector) {
	m.smoother.Post(x)
}

// Apply performs one two-level cycle, writing the accumulated correction
// into v. It recurses only if the coarse solver itself is another two-level
// composition.
func (m *TwoLevelMethod) Apply(v, d *blockmat.Vector) (err error) {
	v.Zero()
	m.defect.CopyFrom(d)
	for s := 0; s < m.preSteps; s++ {
		if err = m.smoother.Apply(m.scratch, m.defect); err != nil {
			return
		}
		v.Add(m.scratch)
		m.updateDefect(v, d)
	}
	m.policy.MoveToCoarseLevel(m.defect)
	if err = m.coarseSolver.Apply(m.policy.CoarseLHS(), m.policy.CoarseRHS()); err != nil {
		return
	}
	m.scratch.Zero()
	m.policy.MoveToFineLevel(m.scratch)
	v.Add(m.scratch)
	for s := 0; s < m.postSteps; s++ {
		m.updateDefect(v, d)
		if err = m.smoother.Apply(m.scratch, m.defect); err != nil {
			return
		}
		v.Add(m.scratch)
	}
	return
}

func (m *TwoLevelMethod) updateDefect(v, d *blockmat.Vector) { // defect = d - A*v
	m.op.Apply(v, m.defect)
	for i, val := range d.Data {
		m.defect.Data[i] = val - m.defect.Data[i]
	}
}

// UpdatePreconditioner rebinds the freshly rebuilt smoother and coarse
// solver after an operator update.
func (m *TwoLevelMethod) UpdatePreconditioner(smoother, coarseSolver Preconditioner) {
	m.smoother = smoother
	m.coarseSolver = coarseSolver
}
