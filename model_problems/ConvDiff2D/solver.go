package ConvDiff2D

import (
	"fmt"
	"math"

	"github.com/skelfem/hdgcd/utils"
)

// SolveFailure reports non-convergence of the iterative solve within its
// iteration budget. It is fatal for the cycle: no partial results are
// produced downstream.
type SolveFailure struct {
	Iterations int
	Residual   float64
}

func (e *SolveFailure) Error() string {
	return fmt.Sprintf("linear solver failed to converge after %d iterations, residual = %8.5e",
		e.Iterations, e.Residual)
}

const gmresRestart = 50

// SolveGMRES runs restarted GMRES on the skeleton system. The tolerance
// is proportional to the right hand side norm and the iteration budget
// proportional to the system size, matching the outer contract: either a
// solution within tolerance or a SolveFailure carrying the iteration
// count and final residual.
func SolveGMRES(A utils.CSR, b utils.Vector, relTol float64, maxIter int) (x utils.Vector, iterations int, residual float64, err error) {
	var (
		n, _ = A.Dims()
	)
	x = utils.NewVector(n)
	bnorm := b.Norm2()
	if bnorm == 0. {
		return
	}
	var (
		tol = relTol * bnorm
		m   = gmresRestart
		// Krylov basis and Hessenberg factors, reused across restarts
		V  = make([]utils.Vector, m+1)
		H  = utils.NewMatrix(m+1, m)
		cs = make([]float64, m)
		sn = make([]float64, m)
		g  = make([]float64, m+1)
		w  = utils.NewVector(n)
		r  = utils.NewVector(n)
	)
	if m > maxIter {
		m = maxIter
	}
	for i := range V {
		V[i] = utils.NewVector(n)
	}
	residual = bnorm
	for iterations < maxIter {
		// r = b - A x
		A.MulVec(x, r)
		for i := range r.DataP {
			r.DataP[i] = b.DataP[i] - r.DataP[i]
		}
		beta := r.Norm2()
		residual = beta
		if beta <= tol {
			return
		}
		copy(V[0].DataP, r.DataP)
		V[0].Scale(1. / beta)
		for i := range g {
			g[i] = 0.
		}
		g[0] = beta
		var k int
		for k = 0; k < m && iterations < maxIter; k++ {
			iterations++
			A.MulVec(V[k], w)
			// Modified Gram-Schmidt
			for i := 0; i <= k; i++ {
				h := w.Dot(V[i])
				H.Set(i, k, h)
				w.AXPY(-h, V[i])
			}
			hk1 := w.Norm2()
			H.Set(k+1, k, hk1)
			if hk1 > 1.e-300 {
				copy(V[k+1].DataP, w.DataP)
				V[k+1].Scale(1. / hk1)
			}
			// Apply the accumulated Givens rotations to the new column
			for i := 0; i < k; i++ {
				h0 := H.At(i, k)
				h1 := H.At(i+1, k)
				H.Set(i, k, cs[i]*h0+sn[i]*h1)
				H.Set(i+1, k, -sn[i]*h0+cs[i]*h1)
			}
			h0, h1 := H.At(k, k), H.At(k+1, k)
			d := math.Hypot(h0, h1)
			if d == 0. {
				d = 1.e-300
			}
			cs[k], sn[k] = h0/d, h1/d
			H.Set(k, k, d)
			H.Set(k+1, k, 0.)
			g[k+1] = -sn[k] * g[k]
			g[k] = cs[k] * g[k]
			residual = math.Abs(g[k+1])
			if residual <= tol || hk1 <= 1.e-300 {
				k++
				break
			}
		}
		// Back substitution on the triangular Hessenberg factor
		y := make([]float64, k)
		for i := k - 1; i >= 0; i-- {
			sum := g[i]
			for j := i + 1; j < k; j++ {
				sum -= H.At(i, j) * y[j]
			}
			y[i] = sum / H.At(i, i)
		}
		for i := 0; i < k; i++ {
			x.AXPY(y[i], V[i])
		}
		if residual <= tol {
			// Confirm with the true residual before declaring victory
			A.MulVec(x, r)
			for i := range r.DataP {
				r.DataP[i] = b.DataP[i] - r.DataP[i]
			}
			residual = r.Norm2()
			if residual <= tol {
				return
			}
		}
	}
	err = &SolveFailure{Iterations: iterations, Residual: residual}
	return
}
