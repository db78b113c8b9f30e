package DG2D

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGaussRule(t *testing.T) {
	// Exactness for polynomials up to degree 2N-1 on [0,1]
	for N := 1; N <= 6; N++ {
		g := NewGaussRule(N)
		var wsum float64
		for _, w := range g.W {
			wsum += w
		}
		assert.InDelta(t, 1., wsum, 1.e-13)
		for d := 0; d <= 2*N-1; d++ {
			var sum float64
			for q := 0; q < N; q++ {
				sum += g.W[q] * math.Pow(g.X[q], float64(d))
			}
			exact := 1. / float64(d+1)
			assert.InDelta(t, exact, sum, 1.e-12)
		}
	}
}

func TestTensorRule(t *testing.T) {
	g := NewGaussRule(3)
	tr := NewTensorRule(g)
	assert.Equal(t, 9, tr.Nq)
	// Integrate x^2*y^3 over the unit square
	var sum float64
	for q := 0; q < tr.Nq; q++ {
		sum += tr.W[q] * tr.X[q] * tr.X[q] * tr.Y[q] * tr.Y[q] * tr.Y[q]
	}
	assert.InDelta(t, 1./12., sum, 1.e-13)
}

func TestLagrange1D(t *testing.T) {
	for P := 1; P <= 4; P++ {
		b := NewLagrange1D(P)
		// Cardinality at the nodes
		for j := 0; j <= P; j++ {
			for m, xm := range b.Nodes {
				expected := 0.
				if m == j {
					expected = 1.
				}
				assert.InDelta(t, expected, b.Eval(j, xm), 1.e-12)
			}
		}
		// Partition of unity and zero derivative sum at arbitrary points
		for _, x := range []float64{0., 0.3, 0.77, 1.} {
			var vsum, dsum float64
			for j := 0; j <= P; j++ {
				vsum += b.Eval(j, x)
				dsum += b.EvalDeriv(j, x)
			}
			assert.InDelta(t, 1., vsum, 1.e-12)
			assert.InDelta(t, 0., dsum, 1.e-10)
		}
	}
}

func TestScalarElement(t *testing.T) {
	e := NewScalarElement(2)
	assert.Equal(t, 9, e.Np)
	g := NewGaussRule(3)
	tr := NewTensorRule(g)
	V, Vr, Vs := e.EvalBasis(tr.X, tr.Y)
	// Partition of unity and gradient consistency at the quadrature points
	for q := 0; q < tr.Nq; q++ {
		var vsum, rsum, ssum float64
		for m := 0; m < e.Np; m++ {
			vsum += V.At(q, m)
			rsum += Vr.At(q, m)
			ssum += Vs.At(q, m)
		}
		assert.InDelta(t, 1., vsum, 1.e-12)
		assert.InDelta(t, 0., rsum, 1.e-10)
		assert.InDelta(t, 0., ssum, 1.e-10)
	}
	// Interpolation of r*s is exact for Q2
	coeffs := make([]float64, e.Np)
	for m := 0; m < e.Np; m++ {
		r, s := e.NodeRS(m)
		coeffs[m] = r * s
	}
	for q := 0; q < tr.Nq; q++ {
		var val float64
		for m := 0; m < e.Np; m++ {
			val += V.At(q, m) * coeffs[m]
		}
		assert.InDelta(t, tr.X[q]*tr.Y[q], val, 1.e-12)
	}
}

func TestFaceSupport(t *testing.T) {
	e := NewScalarElement(3)
	g := NewGaussRule(4)
	for lf := 0; lf < 4; lf++ {
		I := e.FaceSupport(lf)
		assert.Equal(t, 4, len(I))
		// Basis functions outside the support list vanish on the face
		inSupport := make(map[int]bool)
		for _, m := range I {
			inSupport[m] = true
		}
		for _, tq := range g.X {
			r, s := FaceRefCoords(lf, tq)
			V, _, _ := e.EvalBasis([]float64{r}, []float64{s})
			for m := 0; m < e.Np; m++ {
				if !inSupport[m] {
					assert.InDelta(t, 0., V.At(0, m), 1.e-12)
				}
			}
		}
	}
}
