package blockmat

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a square block-sparse matrix in block CSR form: Nr block rows,
// each nonzero a dense BxB block stored row-major. Column indices within a
// row are kept sorted. A scalar matrix is a Matrix with B == 1.
type Matrix struct {
	Nr, B  int
	RowPtr []int     // length Nr+1
	Col    []int     // length Nnz()
	Data   []float64 // length Nnz()*B*B
}

func (m *Matrix) Nnz() int {
	return len(m.Col)
}

// Block returns a writable view of the nz-th stored block.
func (m *Matrix) Block(nz int) []float64 {
	bb := m.B * m.B
	return m.Data[nz*bb : (nz+1)*bb]
}

// NzIndex locates the stored position of block (i,j), or -1 if (i,j) is not
// part of the sparsity pattern.
func (m *Matrix) NzIndex(i, j int) int {
	lo, hi := m.RowPtr[i], m.RowPtr[i+1]
	k := lo + sort.SearchInts(m.Col[lo:hi], j)
	if k < hi && m.Col[k] == j {
		return k
	}
	return -1
}

// BlockAt returns a writable view of block (i,j), or nil if absent.
func (m *Matrix) BlockAt(i, j int) []float64 {
	k := m.NzIndex(i, j)
	if k < 0 {
		return nil
	}
	return m.Block(k)
}

// DiagBlock returns the diagonal block of row i. Panics if the pattern has no
// diagonal entry, which for the systems treated here is a programmer error.
func (m *Matrix) DiagBlock(i int) []float64 {
	blk := m.BlockAt(i, i)
	if blk == nil {
		panic(fmt.Errorf("row %d has no diagonal block", i))
	}
	return blk
}

// MulVec computes y = m * x.
func (m *Matrix) MulVec(x, y *Vector) {
	var (
		b  = m.B
		bb = b * b
	)
	if x.N != m.Nr || x.B != b || y.N != m.Nr || y.B != b {
		panic(fmt.Errorf("MulVec dimensions do not conform: matrix [%d x %d blocks], x [%d x %d], y [%d x %d]",
			m.Nr, b, x.N, x.B, y.N, y.B))
	}
	y.Zero()
	for i := 0; i < m.Nr; i++ {
		yi := y.Block(i)
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			var (
				blk = m.Data[k*bb : (k+1)*bb]
				xj  = x.Block(m.Col[k])
			)
			for r := 0; r < b; r++ {
				sum := 0.0
				for c := 0; c < b; c++ {
					sum += blk[r*b+c] * xj[c]
				}
				yi[r] += sum
			}
		}
	}
}

// Residual computes r = rhs - m*x.
func (m *Matrix) Residual(rhs, x, r *Vector) {
	m.MulVec(x, r)
	for i, val := range rhs.Data {
		r.Data[i] = val - r.Data[i]
	}
}

func (m *Matrix) Copy() (R *Matrix) {
	R = &Matrix{
		Nr:     m.Nr,
		B:      m.B,
		RowPtr: append([]int{}, m.RowPtr...),
		Col:    append([]int{}, m.Col...),
		Data:   append([]float64{}, m.Data...),
	}
	return
}

// SamePattern reports whether two matrices share identical sparsity structure.
func (m *Matrix) SamePattern(a *Matrix) bool {
	if m.Nr != a.Nr || m.B != a.B || len(m.Col) != len(a.Col) {
		return false
	}
	for i, v := range m.RowPtr {
		if a.RowPtr[i] != v {
			return false
		}
	}
	for i, v := range m.Col {
		if a.Col[i] != v {
			return false
		}
	}
	return true
}

// MatrixBuilder accumulates blocks by coordinate, then emits a Matrix with
// sorted rows. Setting the same coordinate twice overwrites.
type MatrixBuilder struct {
	nr, b int
	rows  []map[int][]float64
}

func NewMatrixBuilder(nr, b int) (mb *MatrixBuilder) {
	mb = &MatrixBuilder{
		nr:   nr,
		b:    b,
		rows: make([]map[int][]float64, nr),
	}
	for i := range mb.rows {
		mb.rows[i] = make(map[int][]float64)
	}
	return
}

func (mb *MatrixBuilder) SetBlock(i, j int, vals []float64) *MatrixBuilder {
	if i < 0 || i >= mb.nr || j < 0 || j >= mb.nr {
		panic(fmt.Errorf("block coordinate (%d,%d) out of range for %d rows", i, j, mb.nr))
	}
	if len(vals) != mb.b*mb.b {
		panic(fmt.Errorf("block (%d,%d): expected %d values, got %d", i, j, mb.b*mb.b, len(vals)))
	}
	blk := make([]float64, len(vals))
	copy(blk, vals)
	mb.rows[i][j] = blk
	return mb
}

func (mb *MatrixBuilder) Build() (m *Matrix) {
	var (
		bb  = mb.b * mb.b
		nnz = 0
	)
	for _, row := range mb.rows {
		nnz += len(row)
	}
	m = &Matrix{
		Nr:     mb.nr,
		B:      mb.b,
		RowPtr: make([]int, mb.nr+1),
		Col:    make([]int, 0, nnz),
		Data:   make([]float64, 0, nnz*bb),
	}
	for i, row := range mb.rows {
		cols := make([]int, 0, len(row))
		for j := range row {
			cols = append(cols, j)
		}
		sort.Ints(cols)
		for _, j := range cols {
			m.Col = append(m.Col, j)
			m.Data = append(m.Data, row[j]...)
		}
		m.RowPtr[i+1] = len(m.Col)
	}
	return
}

// InvertBlock returns the inverse of a dense b x b block, using gonum for the
// factorization. Singular blocks are reported, not recovered from.
func InvertBlock(b int, blk []float64) (inv []float64, err error) {
	var (
		A = mat.NewDense(b, b, blk)
		I = mat.NewDense(b, b, nil)
	)
	if err = I.Inverse(A); err != nil {
		err = fmt.Errorf("singular %dx%d block: %w", b, b, err)
		return
	}
	inv = make([]float64, b*b)
	copy(inv, I.RawMatrix().Data)
	return
}
