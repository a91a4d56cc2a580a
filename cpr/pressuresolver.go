package cpr

import (
	"fmt"

	"github.com/mkelhaug/gocpr/blockmat"
	"github.com/mkelhaug/gocpr/config"
	"github.com/mkelhaug/gocpr/parallel"
	"github.com/mkelhaug/gocpr/solver"
)

// PressureSolver runs the coarse-level solve: a BiCGStab iteration over the
// assembled pressure system, preconditioned by whatever the configuration
// names — a plain smoother, an incomplete factorization, or recursively
// another two-level composition. With maxiter <= 1 the inner preconditioner
// is applied directly as an approximate solve.
type PressureSolver struct {
	op    Operator
	inner Preconditioner
	opts  solver.Options
}

func NewPressureSolver(op Operator, prm *config.Params, comm *parallel.Communication) (ps *PressureSolver, err error) {
	if prm == nil {
		err = fmt.Errorf("%w: missing coarsesolver configuration", ErrConfiguration)
		return
	}
	inner, err := NewPreconditioner(op, prm, comm)
	if err != nil {
		return
	}
	ps = &PressureSolver{
		op:    op,
		inner: inner,
		opts: solver.Options{
			Tol:       prm.Tol,
			MaxIter:   prm.MaxIter,
			Verbosity: prm.Verbosity,
		},
	}
	return
}

func (ps *PressureSolver) Pre(x, b *blockmat.Vector) { ps.inner.Pre(x, b) }
func (ps *PressureSolver) Post(x *blockmat.Vector)   { ps.inner.Post(x) }
func (ps *PressureSolver) Update() error             { return ps.inner.Update() }
func (ps *PressureSolver) Category() Category        { return ps.inner.Category() }

func (ps *PressureSolver) Apply(v, d *blockmat.Vector) (err error) {
	if ps.opts.MaxIter <= 1 {
		return ps.inner.Apply(v, d)
	}
	var (
		n      = v.N * v.B
		matvec = func(x, y []float64) {
			ps.op.Apply(blockmat.NewVector(v.N, v.B, x), blockmat.NewVector(v.N, v.B, y))
		}
		precond = func(pv, pd []float64) error {
			return ps.inner.Apply(blockmat.NewVector(v.N, v.B, pv), blockmat.NewVector(v.N, v.B, pd))
		}
	)
	v.Zero()
	_, err = solver.BiCGStab(n, matvec, precond, v.Data, d.Data, ps.opts)
	return
}
