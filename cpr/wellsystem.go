package cpr

import (
	"fmt"

	"github.com/mkelhaug/gocpr/blockmat"
)

// PerforatedWell is one well control equation coupled to the pressure of the
// cells it perforates. The well occupies one scalar row and column appended
// after all cell rows in the coarse system.
type PerforatedWell struct {
	Cells      []int     // perforated cell indices
	WellToCell []float64 // coefficients on cell pressures in the well equation
	CellToWell []float64 // coefficients on the well unknown in the cell equations
	Diag       float64   // well equation diagonal
}

// WellOperator is a fine operator whose system carries extra well control
// equations. The block matrix covers cell rows only; wells enter the coarse
// pressure system through the contribution hooks.
type WellOperator struct {
	A     *blockmat.Matrix
	Wells []PerforatedWell
}

func NewWellOperator(A *blockmat.Matrix, wells []PerforatedWell) (op *WellOperator, err error) {
	for w, well := range wells {
		if len(well.Cells) != len(well.WellToCell) || len(well.Cells) != len(well.CellToWell) {
			err = fmt.Errorf("well %d: %d cells with %d/%d coupling coefficients",
				w, len(well.Cells), len(well.WellToCell), len(well.CellToWell))
			return
		}
		for _, c := range well.Cells {
			if c < 0 || c >= A.Nr {
				err = fmt.Errorf("well %d perforates cell %d, matrix has %d rows", w, c, A.Nr)
				return
			}
		}
		if well.Diag == 0 {
			err = fmt.Errorf("well %d has a zero diagonal", w)
			return
		}
	}
	op = &WellOperator{A: A, Wells: wells}
	return
}

func (op *WellOperator) Matrix() *blockmat.Matrix    { return op.A }
func (op *WellOperator) ExtraEquations() int         { return len(op.Wells) }
func (op *WellOperator) Apply(x, y *blockmat.Vector) { op.A.MulVec(x, y) }
func (op *WellOperator) Category() Category          { return Sequential }

func (op *WellOperator) WellPressureStructure(insert func(i, j int)) {
	n := op.A.Nr
	for w, well := range op.Wells {
		row := n + w
		insert(row, row)
		for _, c := range well.Cells {
			insert(row, c)
			insert(c, row)
		}
	}
}

func (op *WellOperator) AddWellPressureEquations(weights *blockmat.Vector, add func(i, j int, v float64) error) (err error) {
	n := op.A.Nr
	for w, well := range op.Wells {
		row := n + w
		if err = add(row, row, well.Diag); err != nil {
			return
		}
		for p, c := range well.Cells {
			if err = add(row, c, well.WellToCell[p]); err != nil {
				return
			}
			if err = add(c, row, well.CellToWell[p]); err != nil {
				return
			}
		}
	}
	return
}
