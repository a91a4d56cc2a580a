package cpr

import (
	"fmt"

	"github.com/mkelhaug/gocpr/config"
	"github.com/mkelhaug/gocpr/parallel"
)

// NewPreconditioner maps a configuration block to a concrete preconditioner:
// point-block relaxation kinds, incomplete factorization, the trivial
// Richardson kind, or a (possibly transposed, possibly nested) two-level CPR
// composition. Evaluated once per construction or update; unknown kinds are
// configuration errors.
func NewPreconditioner(op Operator, prm *config.Params, comm *parallel.Communication) (p Preconditioner, err error) {
	if prm == nil {
		err = fmt.Errorf("%w: missing preconditioner configuration", ErrConfiguration)
		return
	}
	prm.Normalize()
	A := op.Matrix()
	switch prm.Preconditioner {
	case "jac":
		return NewBlockJacobi(A, prm.W, prm.N)
	case "gs":
		return NewBlockGaussSeidel(A, prm.N)
	case "sor":
		return NewBlockSOR(A, prm.W, prm.N)
	case "ssor":
		return NewBlockSSOR(A, prm.W, prm.N)
	case "ilu0":
		return NewBlockILU0(A, prm.W)
	case "nothing":
		return NewRichardson(prm.W), nil
	case "cpr":
		return NewOwningTwoLevelPreconditioner(op, prm, false, comm)
	case "cprt":
		return NewOwningTwoLevelPreconditioner(op, prm, true, comm)
	default:
		err = fmt.Errorf("%w: no such preconditioner: %q", ErrConfiguration, prm.Preconditioner)
		return
	}
}
