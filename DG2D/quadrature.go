package DG2D

import (
	"fmt"
	"math"
)

// GaussRule holds an N point Gauss-Legendre rule on the reference
// interval [0,1], exact for polynomials of degree 2N-1.
type GaussRule struct {
	N    int
	X, W []float64
}

func NewGaussRule(N int) (g GaussRule) {
	if N < 1 {
		panic(fmt.Errorf("invalid quadrature order %d", N))
	}
	g = GaussRule{
		N: N,
		X: make([]float64, N),
		W: make([]float64, N),
	}
	// Newton iteration on the Legendre polynomial roots, standard
	// Chebyshev initial guess
	for i := 0; i < N; i++ {
		x := math.Cos(math.Pi * (float64(i) + 0.75) / (float64(N) + 0.5))
		var pp float64
		for iter := 0; iter < 100; iter++ {
			p0, p1 := 1., 0.
			for j := 0; j < N; j++ {
				p2 := p1
				p1 = p0
				p0 = ((2.*float64(j)+1.)*x*p1 - float64(j)*p2) / float64(j+1)
			}
			// Derivative from the recurrence
			pp = float64(N) * (x*p0 - p1) / (x*x - 1.)
			dx := p0 / pp
			x -= dx
			if math.Abs(dx) < 1.e-15 {
				break
			}
		}
		// Map from [-1,1] to [0,1]. The Chebyshev guesses arrive in
		// descending x, so the mirrored map leaves X ascending; the
		// weights are symmetric so the pairing survives the mirror.
		g.X[i] = 0.5 * (1. - x)
		g.W[i] = 1. / ((1. - x*x) * pp * pp)
	}
	return
}

// TensorRule is the tensor product of a 1D Gauss rule with itself over
// the reference square [0,1]^2.
type TensorRule struct {
	Nq      int // Total point count
	X, Y, W []float64
}

func NewTensorRule(g GaussRule) (t TensorRule) {
	var (
		n = g.N
	)
	t = TensorRule{
		Nq: n * n,
		X:  make([]float64, n*n),
		Y:  make([]float64, n*n),
		W:  make([]float64, n*n),
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			q := i + j*n
			t.X[q] = g.X[i]
			t.Y[q] = g.Y(j)
			t.W[q] = g.W[i] * g.W[j]
		}
	}
	return
}

// Y is a readability helper for the tensor construction.
func (g GaussRule) Y(j int) float64 { return g.X[j] }
