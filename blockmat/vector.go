package blockmat

import (
	"fmt"
	"math"
)

// Vector is a block vector: N blocks of B unknowns each, stored contiguously.
// A coarse (scalar) vector is simply a Vector with B == 1.
type Vector struct {
	N, B int
	Data []float64
}

func NewVector(n, b int, dataO ...[]float64) (v *Vector) {
	var data []float64
	if len(dataO) != 0 {
		data = dataO[0]
		if len(data) != n*b {
			panic(fmt.Errorf("mismatch in allocation: NewVector n,b = %v,%v, len(data) = %v", n, b, len(data)))
		}
	} else {
		data = make([]float64, n*b)
	}
	v = &Vector{
		N:    n,
		B:    b,
		Data: data,
	}
	return
}

// Block returns a writable view of block i.
func (v *Vector) Block(i int) []float64 {
	return v.Data[i*v.B : (i+1)*v.B]
}

func (v *Vector) Zero() {
	for i := range v.Data {
		v.Data[i] = 0
	}
}

func (v *Vector) Copy() (R *Vector) {
	R = NewVector(v.N, v.B)
	copy(R.Data, v.Data)
	return
}

func (v *Vector) CopyFrom(a *Vector) {
	v.checkConform(a)
	copy(v.Data, a.Data)
}

func (v *Vector) Add(a *Vector) { // v += a
	v.checkConform(a)
	for i, val := range a.Data {
		v.Data[i] += val
	}
}

func (v *Vector) Sub(a *Vector) { // v -= a
	v.checkConform(a)
	for i, val := range a.Data {
		v.Data[i] -= val
	}
}

func (v *Vector) AddScaled(alpha float64, a *Vector) { // v += alpha*a
	v.checkConform(a)
	for i, val := range a.Data {
		v.Data[i] += alpha * val
	}
}

func (v *Vector) Scale(alpha float64) {
	for i := range v.Data {
		v.Data[i] *= alpha
	}
}

func (v *Vector) Dot(a *Vector) (d float64) {
	v.checkConform(a)
	for i, val := range a.Data {
		d += v.Data[i] * val
	}
	return
}

func (v *Vector) Norm2() float64 {
	return math.Sqrt(v.Dot(v))
}

func (v *Vector) checkConform(a *Vector) {
	if v.N != a.N || v.B != a.B {
		panic(fmt.Errorf("vector dimensions do not conform: [%d x %d] vs [%d x %d]", v.N, v.B, a.N, a.B))
	}
}
