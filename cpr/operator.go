package cpr

import (
	"github.com/mkelhaug/gocpr/blockmat"
)

// Category reports the execution context a preconditioner or operator is
// valid in.
type Category int

const (
	Sequential Category = iota
	Overlapping
)

func (c Category) String() string {
	switch c {
	case Overlapping:
		return "overlapping"
	default:
		return "sequential"
	}
}

// Preconditioner is the uniform capability every smoother, coarse solver and
// composed method satisfies. Apply produces one additive correction v from
// the defect d; numerical failure in an underlying solve propagates out of
// Apply. Update refreshes internal state (factorizations, coarse values)
// after the operator's values changed; it must be called once per
// linearization before Apply is reused.
type Preconditioner interface {
	Pre(x, b *blockmat.Vector)
	Apply(v, d *blockmat.Vector) error
	Post(x *blockmat.Vector)
	Update() error
	Category() Category
}

// Operator is the fine-level system as seen by the preconditioning engine:
// the underlying block matrix, a count of extra (well) equations appended
// after all cell rows, and a matvec over cell-block vectors.
type Operator interface {
	Matrix() *blockmat.Matrix
	ExtraEquations() int
	Apply(x, y *blockmat.Vector)
	Category() Category
}

// WellContributor is the optional hook an Operator supplies when its extra
// equations must enter the coarse pressure system. WellPressureStructure
// declares structural entries through insert; AddWellPressureEquations
// accumulates values through add, which refuses positions outside the
// established pattern.
type WellContributor interface {
	WellPressureStructure(insert func(i, j int))
	AddWellPressureEquations(weights *blockmat.Vector, add func(i, j int, v float64) error) error
}

// MatrixOperator adapts a bare block matrix to the Operator contract.
type MatrixOperator struct {
	A *blockmat.Matrix
}

func NewMatrixOperator(A *blockmat.Matrix) *MatrixOperator {
	return &MatrixOperator{A: A}
}

func (m *MatrixOperator) Matrix() *blockmat.Matrix      { return m.A }
func (m *MatrixOperator) ExtraEquations() int           { return 0 }
func (m *MatrixOperator) Apply(x, y *blockmat.Vector)   { m.A.MulVec(x, y) }
func (m *MatrixOperator) Category() Category            { return Sequential }
