package cpr

import (
	"fmt"

	"github.com/mkelhaug/gocpr/blockmat"
)

// The relaxation kernels below run at any block size, so the same code
// smooths the fine coupled system (B > 1) and the coarse pressure system
// (B == 1).

func blockMulVecSub(b int, blk, x, y []float64) { // y -= blk*x
	for r := 0; r < b; r++ {
		sum := 0.0
		for c := 0; c < b; c++ {
			sum += blk[r*b+c] * x[c]
		}
		y[r] -= sum
	}
}

func blockMulVecScaledAdd(b int, alpha float64, blk, x, y []float64) { // y += alpha*blk*x
	for r := 0; r < b; r++ {
		sum := 0.0
		for c := 0; c < b; c++ {
			sum += blk[r*b+c] * x[c]
		}
		y[r] += alpha * sum
	}
}

func blockMatMulSub(b int, a, c, out []float64) { // out -= a*c
	for r := 0; r < b; r++ {
		for j := 0; j < b; j++ {
			sum := 0.0
			for k := 0; k < b; k++ {
				sum += a[r*b+k] * c[k*b+j]
			}
			out[r*b+j] -= sum
		}
	}
}

func blockMatMul(b int, a, c, out []float64) { // out = a*c
	for r := 0; r < b; r++ {
		for j := 0; j < b; j++ {
			sum := 0.0
			for k := 0; k < b; k++ {
				sum += a[r*b+k] * c[k*b+j]
			}
			out[r*b+j] = sum
		}
	}
}

func invertDiagonal(A *blockmat.Matrix) (diagInv [][]float64, err error) {
	diagInv = make([][]float64, A.Nr)
	for i := 0; i < A.Nr; i++ {
		diag := A.BlockAt(i, i)
		if diag == nil {
			err = fmt.Errorf("row %d has no diagonal block", i)
			return
		}
		if diagInv[i], err = blockmat.InvertBlock(A.B, diag); err != nil {
			err = fmt.Errorf("row %d: %w", i, err)
			return
		}
	}
	return
}

type relaxKind int

const (
	jacKind relaxKind = iota
	gsKind
	sorKind
	ssorKind
)

// Relaxation is a point-block relaxation smoother over the block matrix:
// Jacobi, Gauss-Seidel, SOR or SSOR sweeps with relaxation factor w.
type Relaxation struct {
	A       *blockmat.Matrix
	kind    relaxKind
	w       float64
	n       int
	diagInv [][]float64
}

func newRelaxation(A *blockmat.Matrix, kind relaxKind, w float64, n int) (R *Relaxation, err error) {
	R = &Relaxation{A: A, kind: kind, w: w, n: n}
	err = R.Update()
	return
}

func NewBlockJacobi(A *blockmat.Matrix, w float64, n int) (*Relaxation, error) {
	return newRelaxation(A, jacKind, w, n)
}

func NewBlockGaussSeidel(A *blockmat.Matrix, n int) (*Relaxation, error) {
	return newRelaxation(A, gsKind, 1.0, n)
}

func NewBlockSOR(A *blockmat.Matrix, w float64, n int) (*Relaxation, error) {
	return newRelaxation(A, sorKind, w, n)
}

func NewBlockSSOR(A *blockmat.Matrix, w float64, n int) (*Relaxation, error) {
	return newRelaxation(A, ssorKind, w, n)
}

func (s *Relaxation) Pre(x, b *blockmat.Vector) {}
func (s *Relaxation) Post(x *blockmat.Vector)   {}
func (s *Relaxation) Category() Category        { return Sequential }

func (s *Relaxation) Update() (err error) {
	s.diagInv, err = invertDiagonal(s.A)
	return
}

func (s *Relaxation) Apply(v, d *blockmat.Vector) error {
	var (
		A = s.A
		b = A.B
		r = make([]float64, b)
	)
	v.Zero()
	sweep := func(start, end, step int) {
		for i := start; i != end; i += step {
			di := d.Block(i)
			copy(r, di)
			for k := A.RowPtr[i]; k < A.RowPtr[i+1]; k++ {
				blockMulVecSub(b, A.Block(k), v.Block(A.Col[k]), r)
			}
			blockMulVecScaledAdd(b, s.w, s.diagInv[i], r, v.Block(i))
		}
	}
	switch s.kind {
	case jacKind:
		scratch := blockmat.NewVector(v.N, b)
		for it := 0; it < s.n; it++ {
			A.Residual(d, v, scratch)
			for i := 0; i < A.Nr; i++ {
				blockMulVecScaledAdd(b, s.w, s.diagInv[i], scratch.Block(i), v.Block(i))
			}
		}
	case gsKind, sorKind:
		for it := 0; it < s.n; it++ {
			sweep(0, A.Nr, 1)
		}
	case ssorKind:
		for it := 0; it < s.n; it++ {
			sweep(0, A.Nr, 1)
			sweep(A.Nr-1, -1, -1)
		}
	}
	return nil
}

// Richardson is the trivial smoother v = w*d, the "nothing" kind of the
// factory.
type Richardson struct {
	w float64
}

func NewRichardson(w float64) *Richardson { return &Richardson{w: w} }

func (s *Richardson) Pre(x, b *blockmat.Vector) {}
func (s *Richardson) Post(x *blockmat.Vector)   {}
func (s *Richardson) Update() error             { return nil }
func (s *Richardson) Category() Category        { return Sequential }

func (s *Richardson) Apply(v, d *blockmat.Vector) error {
	v.CopyFrom(d)
	v.Scale(s.w)
	return nil
}

// BlockILU0 is an incomplete block LU factorization on the matrix's own
// sparsity pattern. Update refactorizes from the current values; a stale
// factorization after relinearization is exactly what Update exists to
// prevent.
type BlockILU0 struct {
	A       *blockmat.Matrix
	w       float64
	lu      *blockmat.Matrix
	diagInv [][]float64
}

func NewBlockILU0(A *blockmat.Matrix, w float64) (R *BlockILU0, err error) {
	R = &BlockILU0{A: A, w: w}
	err = R.Update()
	return
}

func (s *BlockILU0) Pre(x, b *blockmat.Vector) {}
func (s *BlockILU0) Post(x *blockmat.Vector)   {}
func (s *BlockILU0) Category() Category        { return Sequential }

func (s *BlockILU0) Update() (err error) {
	var (
		lu = s.A.Copy()
		b  = lu.B
		bb = b * b
	)
	diagInv := make([][]float64, lu.Nr)
	scratch := make([]float64, bb)
	for i := 0; i < lu.Nr; i++ {
		for k := lu.RowPtr[i]; k < lu.RowPtr[i+1] && lu.Col[k] < i; k++ {
			var (
				kk  = lu.Col[k]
				lik = lu.Block(k)
			)
			// L(i,kk) = A(i,kk) * inv(U(kk,kk))
			blockMatMul(b, lik, diagInv[kk], scratch)
			copy(lik, scratch)
			// eliminate within the existing pattern only
			for kj := lu.RowPtr[kk]; kj < lu.RowPtr[kk+1]; kj++ {
				j := lu.Col[kj]
				if j <= kk {
					continue
				}
				if tgt := lu.BlockAt(i, j); tgt != nil {
					blockMatMulSub(b, lik, lu.Block(kj), tgt)
				}
			}
		}
		diag := lu.BlockAt(i, i)
		if diag == nil {
			err = fmt.Errorf("row %d has no diagonal block", i)
			return
		}
		if diagInv[i], err = blockmat.InvertBlock(b, diag); err != nil {
			err = fmt.Errorf("ilu0 pivot in row %d: %w", i, err)
			return
		}
	}
	s.lu = lu
	s.diagInv = diagInv
	return
}

func (s *BlockILU0) Apply(v, d *blockmat.Vector) error {
	var (
		lu = s.lu
		b  = lu.B
		y  = blockmat.NewVector(v.N, b)
		r  = make([]float64, b)
	)
	// forward solve, unit lower factor
	for i := 0; i < lu.Nr; i++ {
		copy(r, d.Block(i))
		for k := lu.RowPtr[i]; k < lu.RowPtr[i+1] && lu.Col[k] < i; k++ {
			blockMulVecSub(b, lu.Block(k), y.Block(lu.Col[k]), r)
		}
		copy(y.Block(i), r)
	}
	// backward solve
	for i := lu.Nr - 1; i >= 0; i-- {
		copy(r, y.Block(i))
		for k := lu.RowPtr[i+1] - 1; k >= lu.RowPtr[i] && lu.Col[k] > i; k-- {
			blockMulVecSub(b, lu.Block(k), v.Block(lu.Col[k]), r)
		}
		vi := v.Block(i)
		for c := range vi {
			vi[c] = 0
		}
		blockMulVecScaledAdd(b, 1, s.diagInv[i], r, vi)
	}
	if s.w != 1 {
		v.Scale(s.w)
	}
	return nil
}
