package config

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Params is one node of the nested preconditioner configuration tree read
// from the YAML input file. FineSmoother and CoarseSolver recurse, so a
// coarse solver can itself be a full two-level configuration.
type Params struct {
	Preconditioner   string  `json:"preconditioner"`
	PressureVarIndex int     `json:"pressure_var_index"`
	BhpVarIndex      int     `json:"bhp_var_index"`
	AddWells         bool    `json:"add_wells"`
	W                float64 `json:"w"`   // relaxation factor
	N                int     `json:"n"`   // relaxation sweeps
	Tol              float64 `json:"tol"` // coarse solver tolerance
	MaxIter          int     `json:"maxiter"`
	Verbosity        int     `json:"verbosity"`
	WeightsFilename  string  `json:"weights_filename"`
	FineSmoother     *Params `json:"finesmoother"`
	CoarseSolver     *Params `json:"coarsesolver"`
}

func (p *Params) Parse(data []byte) error {
	return yaml.Unmarshal(data, p)
}

// Defaults returns a Params with the standard relaxation and solver knobs
// filled in.
func Defaults() *Params {
	return &Params{
		W:       1.0,
		N:       1,
		Tol:     1.e-4,
		MaxIter: 20,
	}
}

// Normalize applies default values to unset knobs throughout the tree.
func (p *Params) Normalize() {
	if p.W == 0 {
		p.W = 1.0
	}
	if p.N == 0 {
		p.N = 1
	}
	if p.Tol == 0 {
		p.Tol = 1.e-4
	}
	if p.MaxIter == 0 {
		p.MaxIter = 20
	}
	if p.FineSmoother != nil {
		p.FineSmoother.Normalize()
	}
	if p.CoarseSolver != nil {
		p.CoarseSolver.Normalize()
	}
}

func (p *Params) Print() {
	fmt.Printf("[%s]\t\t= Preconditioner\n", p.Preconditioner)
	fmt.Printf("[%d]\t\t= Pressure Variable Index\n", p.PressureVarIndex)
	fmt.Printf("[%d]\t\t= BHP Variable Index\n", p.BhpVarIndex)
	fmt.Printf("[%v]\t\t= Add Wells\n", p.AddWells)
	fmt.Printf("%8.5f\t= W\n", p.W)
	fmt.Printf("[%d]\t\t= N\n", p.N)
	subs := map[string]*Params{}
	if p.FineSmoother != nil {
		subs["finesmoother"] = p.FineSmoother
	}
	if p.CoarseSolver != nil {
		subs["coarsesolver"] = p.CoarseSolver
	}
	keys := make([]string, 0, len(subs))
	for k := range subs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("--- %s ---\n", key)
		subs[key].Print()
	}
}
