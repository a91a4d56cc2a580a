package solver

import (
	"fmt"
	"math"
)

// Options controls a BiCGStab run.
type Options struct {
	Tol       float64 // relative residual reduction target
	MaxIter   int
	Verbosity int
}

// MatVec computes y = A x for the system being solved.
type MatVec func(x, y []float64)

// Precondition computes v ~= M^-1 d. A nil Precondition means the identity.
type Precondition func(v, d []float64) error

// BiCGStab solves A x = b with the preconditioned stabilized bi-conjugate
// gradient method, accumulating into x (normally passed in as zero). It
// returns the iterations used; breakdown or running out of iterations is an
// error that propagates to the caller untouched.
func BiCGStab(n int, matvec MatVec, precond Precondition, x, b []float64, opts Options) (iters int, err error) {
	var (
		r     = make([]float64, n)
		rHat  = make([]float64, n)
		p     = make([]float64, n)
		pHat  = make([]float64, n)
		s     = make([]float64, n)
		sHat  = make([]float64, n)
		v     = make([]float64, n)
		tv    = make([]float64, n)
		small = 1.e-40
	)
	if precond == nil {
		precond = func(dst, d []float64) error {
			copy(dst, d)
			return nil
		}
	}
	matvec(x, r)
	for i := range r {
		r[i] = b[i] - r[i]
	}
	copy(rHat, r)
	norm0 := norm2(r)
	if norm0 == 0 {
		return
	}
	var rho, rhoPrev, alpha, omega float64
	rhoPrev, alpha, omega = 1, 1, 1
	for iters = 1; iters <= opts.MaxIter; iters++ {
		rho = dot(rHat, r)
		if math.Abs(rho) < small {
			err = fmt.Errorf("bicgstab breakdown: rho = %v at iteration %d", rho, iters)
			return
		}
		if iters == 1 {
			copy(p, r)
		} else {
			beta := (rho / rhoPrev) * (alpha / omega)
			for i := range p {
				p[i] = r[i] + beta*(p[i]-omega*v[i])
			}
		}
		zero(pHat)
		if err = precond(pHat, p); err != nil {
			return
		}
		matvec(pHat, v)
		den := dot(rHat, v)
		if math.Abs(den) < small {
			err = fmt.Errorf("bicgstab breakdown: rHat'v = %v at iteration %d", den, iters)
			return
		}
		alpha = rho / den
		for i := range s {
			s[i] = r[i] - alpha*v[i]
		}
		if norm2(s)/norm0 < opts.Tol {
			for i := range x {
				x[i] += alpha * pHat[i]
			}
			return
		}
		zero(sHat)
		if err = precond(sHat, s); err != nil {
			return
		}
		matvec(sHat, tv)
		tt := dot(tv, tv)
		if tt < small {
			err = fmt.Errorf("bicgstab breakdown: t't = %v at iteration %d", tt, iters)
			return
		}
		omega = dot(tv, s) / tt
		for i := range x {
			x[i] += alpha*pHat[i] + omega*sHat[i]
		}
		for i := range r {
			r[i] = s[i] - omega*tv[i]
		}
		res := norm2(r) / norm0
		if opts.Verbosity > 1 {
			fmt.Printf("bicgstab iteration %d, relative residual %v\n", iters, res)
		}
		if res < opts.Tol {
			return
		}
		rhoPrev = rho
	}
	iters = opts.MaxIter
	err = fmt.Errorf("bicgstab did not converge in %d iterations", opts.MaxIter)
	return
}

func dot(a, b []float64) (d float64) {
	for i, v := range a {
		d += v * b[i]
	}
	return
}

func norm2(a []float64) float64 {
	return math.Sqrt(dot(a, a))
}

func zero(a []float64) {
	for i := range a {
		a[i] = 0
	}
}
