/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/mkelhaug/gocpr/blockmat"
	"github.com/mkelhaug/gocpr/config"
	"github.com/mkelhaug/gocpr/cpr"
	"github.com/mkelhaug/gocpr/solver"
)

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Solve a synthetic two-phase line system with CPR preconditioning",
	Long: `
Builds a one dimensional two-phase (pressure / saturation) line system,
optionally coupled to well control equations, constructs the configured
preconditioner and solves the system with preconditioned BiCGStab,

gocpr run -k 1000 --wells 2`,
	Run: func(cmd *cobra.Command, args []string) {
		rm := &RunModel{}
		rm.K, _ = cmd.Flags().GetInt("k")
		rm.Wells, _ = cmd.Flags().GetInt("wells")
		rm.PrecondFile, _ = cmd.Flags().GetString("precond")
		rm.Tol, _ = cmd.Flags().GetFloat64("tol")
		rm.MaxIter, _ = cmd.Flags().GetInt("maxiter")
		rm.Verbosity, _ = cmd.Flags().GetInt("verbosity")
		rm.Profile, _ = cmd.Flags().GetBool("profile")
		if err := RunCPR(rm); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().IntP("k", "k", 1000, "Number of cells in the line system")
	RunCmd.Flags().IntP("wells", "w", 0, "Number of well control equations coupled to the system")
	RunCmd.Flags().StringP("precond", "p", "", "YAML preconditioner configuration file (default is a CPR/ILU0 composition)")
	RunCmd.Flags().Float64("tol", 1.e-8, "Relative residual reduction for the outer BiCGStab solve")
	RunCmd.Flags().Int("maxiter", 200, "Maximum outer BiCGStab iterations")
	RunCmd.Flags().IntP("verbosity", "v", 1, "Verbosity, >10 also writes the CPR weights to a MatrixMarket file")
	RunCmd.Flags().Bool("profile", false, "Write a CPU profile for the solve")
}

type RunModel struct {
	K           int // Number of cells
	Wells       int
	PrecondFile string
	Tol         float64
	MaxIter     int
	Verbosity   int
	Profile     bool
}

// twoPhaseLine builds a 1-D two-phase system: 2x2 blocks per cell, unknowns
// (pressure, saturation), unit transmissibilities and a diagonally dominant
// accumulation term.
func twoPhaseLine(k int) *blockmat.Matrix {
	mb := blockmat.NewMatrixBuilder(k, 2)
	for i := 0; i < k; i++ {
		mb.SetBlock(i, i, []float64{3.0, -0.4, 0.3, 1.5})
		if i > 0 {
			mb.SetBlock(i, i-1, []float64{-1, 0.1, 0.05, -0.25})
		}
		if i < k-1 {
			mb.SetBlock(i, i+1, []float64{-1, 0.1, 0.05, -0.25})
		}
	}
	return mb.Build()
}

// lineWells distributes nw rate controlled wells evenly along the line, each
// perforating a single cell.
func lineWells(k, nw int) (wells []cpr.PerforatedWell) {
	for w := 0; w < nw; w++ {
		c := (w + 1) * k / (nw + 1)
		wells = append(wells, cpr.PerforatedWell{
			Cells:      []int{c},
			WellToCell: []float64{-1},
			CellToWell: []float64{-0.5},
			Diag:       2,
		})
	}
	return
}

func loadPrecondConfig(rm *RunModel) (prm *config.Params, err error) {
	if rm.PrecondFile == "" {
		prm = &config.Params{
			Preconditioner: "cpr",
			AddWells:       rm.Wells > 0,
			Verbosity:      rm.Verbosity,
			FineSmoother:   &config.Params{Preconditioner: "ilu0"},
			CoarseSolver:   &config.Params{Preconditioner: "ilu0", MaxIter: 20, Tol: 1.e-4},
		}
		if rm.Verbosity > 10 {
			prm.WeightsFilename = "weights.mm"
		}
		return
	}
	var data []byte
	if data, err = os.ReadFile(rm.PrecondFile); err != nil {
		return
	}
	prm = config.Defaults()
	if err = prm.Parse(data); err != nil {
		err = fmt.Errorf("unable to parse preconditioner configuration file %q: %w", rm.PrecondFile, err)
		return
	}
	return
}

func RunCPR(rm *RunModel) (err error) {
	if rm.Profile {
		defer profile.Start(profile.CPUProfile).Stop()
	}
	prm, err := loadPrecondConfig(rm)
	if err != nil {
		return
	}
	if rm.Verbosity > 0 {
		fmt.Printf("Two-phase line system: K = %d cells, %d wells\n", rm.K, rm.Wells)
		prm.Print()
	}

	A := twoPhaseLine(rm.K)
	var op cpr.Operator = cpr.NewMatrixOperator(A)
	if rm.Wells > 0 {
		if op, err = cpr.NewWellOperator(A, lineWells(rm.K, rm.Wells)); err != nil {
			return
		}
	}
	p, err := cpr.NewPreconditioner(op, prm, nil)
	if err != nil {
		return
	}

	var (
		n = A.Nr * A.B
		x = blockmat.NewVector(A.Nr, A.B)
		b = blockmat.NewVector(A.Nr, A.B)
		r = blockmat.NewVector(A.Nr, A.B)
	)
	for i := 0; i < A.Nr; i++ {
		b.Block(i)[0] = 1 // unit pressure source in every cell
	}
	matvec := func(xs, ys []float64) {
		op.Apply(blockmat.NewVector(A.Nr, A.B, xs), blockmat.NewVector(A.Nr, A.B, ys))
	}
	precond := func(vs, ds []float64) error {
		return p.Apply(blockmat.NewVector(A.Nr, A.B, vs), blockmat.NewVector(A.Nr, A.B, ds))
	}
	iters, err := solver.BiCGStab(n, matvec, precond, x.Data, b.Data, solver.Options{
		Tol:       rm.Tol,
		MaxIter:   rm.MaxIter,
		Verbosity: rm.Verbosity,
	})
	if err != nil {
		return
	}
	A.Residual(b, x, r)
	fmt.Printf("Converged in %d iterations, residual = %8.5e\n", iters, r.Norm2())
	return
}
