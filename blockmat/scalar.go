package blockmat

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
)

// Scalar is a sparse scalar matrix with a frozen sparsity pattern, backed by
// a CSR from the sparse package. The pattern is fixed at construction; value
// recomputation rewrites Data in place and can never widen the structure.
type Scalar struct {
	nr, nc  int
	csr     *sparse.CSR
	rowPtr  []int
	colInd  []int
	data    []float64
}

// NewScalarFromPattern builds a Scalar whose row i holds one explicit entry
// per column listed in rows[i]. Duplicate columns collapse, values start at
// zero.
func NewScalarFromPattern(nr, nc int, rows [][]int) (s *Scalar) {
	if len(rows) != nr {
		panic(fmt.Errorf("pattern has %d rows, expected %d", len(rows), nr))
	}
	var (
		ia = make([]int, nr+1)
		ja []int
	)
	for i, cols := range rows {
		sorted := append([]int{}, cols...)
		sort.Ints(sorted)
		last := -1
		for _, j := range sorted {
			if j < 0 || j >= nc {
				panic(fmt.Errorf("pattern column %d out of range in row %d", j, i))
			}
			if j == last {
				continue
			}
			ja = append(ja, j)
			last = j
		}
		ia[i+1] = len(ja)
	}
	data := make([]float64, len(ja))
	csr := sparse.NewCSR(nr, nc, ia, ja, data)
	raw := csr.RawMatrix()
	s = &Scalar{
		nr:     nr,
		nc:     nc,
		csr:    csr,
		rowPtr: raw.Indptr,
		colInd: raw.Ind,
		data:   raw.Data,
	}
	return
}

func (s *Scalar) Dims() (r, c int) { return s.nr, s.nc }
func (s *Scalar) Nnz() int         { return len(s.colInd) }
func (s *Scalar) CSR() *sparse.CSR { return s.csr }

// Index locates the storage slot of entry (i,j), or -1 when (i,j) is outside
// the pattern.
func (s *Scalar) Index(i, j int) int {
	lo, hi := s.rowPtr[i], s.rowPtr[i+1]
	k := lo + sort.SearchInts(s.colInd[lo:hi], j)
	if k < hi && s.colInd[k] == j {
		return k
	}
	return -1
}

func (s *Scalar) At(i, j int) float64 {
	if k := s.Index(i, j); k >= 0 {
		return s.data[k]
	}
	return 0
}

// Set writes an existing entry. It reports false instead of widening the
// pattern when (i,j) is not present.
func (s *Scalar) Set(i, j int, v float64) bool {
	k := s.Index(i, j)
	if k < 0 {
		return false
	}
	s.data[k] = v
	return true
}

// Add accumulates into an existing entry, with the same pattern guarantee as
// Set.
func (s *Scalar) Add(i, j int, v float64) bool {
	k := s.Index(i, j)
	if k < 0 {
		return false
	}
	s.data[k] += v
	return true
}

func (s *Scalar) ZeroValues() {
	for i := range s.data {
		s.data[i] = 0
	}
}

// MulVec computes y = s * x on raw scalar slices.
func (s *Scalar) MulVec(x, y []float64) {
	if len(x) != s.nc || len(y) != s.nr {
		panic(fmt.Errorf("MulVec dimensions do not conform: [%d x %d], len(x) = %d, len(y) = %d",
			s.nr, s.nc, len(x), len(y)))
	}
	for i := 0; i < s.nr; i++ {
		sum := 0.0
		for k := s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
			sum += s.data[k] * x[s.colInd[k]]
		}
		y[i] = sum
	}
}

// BlockView presents the scalar matrix as a block matrix with B == 1 sharing
// the same storage, so value refreshes through either view stay coherent.
func (s *Scalar) BlockView() *Matrix {
	if s.nr != s.nc {
		panic(fmt.Errorf("BlockView requires a square matrix, have [%d x %d]", s.nr, s.nc))
	}
	return &Matrix{
		Nr:     s.nr,
		B:      1,
		RowPtr: s.rowPtr,
		Col:    s.colInd,
		Data:   s.data,
	}
}

func (s *Scalar) Clone() (R *Scalar) {
	var (
		ia   = append([]int{}, s.rowPtr...)
		ja   = append([]int{}, s.colInd...)
		data = append([]float64{}, s.data...)
	)
	csr := sparse.NewCSR(s.nr, s.nc, ia, ja, data)
	raw := csr.RawMatrix()
	R = &Scalar{
		nr:     s.nr,
		nc:     s.nc,
		csr:    csr,
		rowPtr: raw.Indptr,
		colInd: raw.Ind,
		data:   raw.Data,
	}
	return
}
