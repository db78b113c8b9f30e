package DG2D

import (
	"fmt"

	"github.com/skelfem/hdgcd/utils"
)

// Lagrange1D is the nodal Lagrange basis of degree P on [0,1] with
// equispaced nodes including both endpoints. Endpoint nodes give each
// basis function single-face support, which the skeleton coupling relies
// on.
type Lagrange1D struct {
	P     int
	Nodes []float64
}

func NewLagrange1D(P int) (b Lagrange1D) {
	if P < 1 {
		panic(fmt.Errorf("invalid polynomial degree %d, need P >= 1", P))
	}
	b = Lagrange1D{
		P:     P,
		Nodes: make([]float64, P+1),
	}
	for i := 0; i <= P; i++ {
		b.Nodes[i] = float64(i) / float64(P)
	}
	return
}

func (b Lagrange1D) Np() int { return b.P + 1 }

// Eval computes basis function j at x by the direct product formula.
func (b Lagrange1D) Eval(j int, x float64) (val float64) {
	val = 1.
	for m, xm := range b.Nodes {
		if m == j {
			continue
		}
		val *= (x - xm) / (b.Nodes[j] - xm)
	}
	return
}

// EvalDeriv computes the derivative of basis function j at x.
func (b Lagrange1D) EvalDeriv(j int, x float64) (val float64) {
	for m, xm := range b.Nodes {
		if m == j {
			continue
		}
		term := 1. / (b.Nodes[j] - xm)
		for k, xk := range b.Nodes {
			if k == j || k == m {
				continue
			}
			term *= (x - xk) / (b.Nodes[j] - xk)
		}
		val += term
	}
	return
}

// ScalarElement is the tensor product Q_P Lagrange element on the
// reference square [0,1]^2. Basis ordering is m = i + j*(P+1) for node
// (i,j).
type ScalarElement struct {
	P, Np int
	B1D   Lagrange1D
}

func NewScalarElement(P int) (e ScalarElement) {
	e = ScalarElement{
		P:   P,
		Np:  (P + 1) * (P + 1),
		B1D: NewLagrange1D(P),
	}
	return
}

// EvalBasis tabulates the basis values and reference gradients at the
// given points: V, Vr, Vs are (len(r) x Np).
func (e ScalarElement) EvalBasis(r, s []float64) (V, Vr, Vs utils.Matrix) {
	var (
		np = len(r)
		n1 = e.P + 1
		Np = e.Np
	)
	V = utils.NewMatrix(np, Np)
	Vr = utils.NewMatrix(np, Np)
	Vs = utils.NewMatrix(np, Np)
	lx := make([]float64, n1)
	ly := make([]float64, n1)
	dlx := make([]float64, n1)
	dly := make([]float64, n1)
	for q := 0; q < np; q++ {
		for i := 0; i < n1; i++ {
			lx[i] = e.B1D.Eval(i, r[q])
			ly[i] = e.B1D.Eval(i, s[q])
			dlx[i] = e.B1D.EvalDeriv(i, r[q])
			dly[i] = e.B1D.EvalDeriv(i, s[q])
		}
		for j := 0; j < n1; j++ {
			for i := 0; i < n1; i++ {
				m := i + j*n1
				V.DataP[m+q*Np] = lx[i] * ly[j]
				Vr.DataP[m+q*Np] = dlx[i] * ly[j]
				Vs.DataP[m+q*Np] = lx[i] * dly[j]
			}
		}
	}
	return
}

// NodeRS returns the reference coordinates of basis node m.
func (e ScalarElement) NodeRS(m int) (r, s float64) {
	var (
		n1 = e.P + 1
	)
	r = e.B1D.Nodes[m%n1]
	s = e.B1D.Nodes[m/n1]
	return
}

// FaceSupport lists the basis indices with nonzero trace on local face
// lf, ordered by increasing face parameter. Local face numbering matches
// geometry2D: 0 south, 1 east, 2 north, 3 west.
func (e ScalarElement) FaceSupport(lf int) (I []int) {
	var (
		n1 = e.P + 1
	)
	I = make([]int, n1)
	for t := 0; t < n1; t++ {
		switch lf {
		case 0: // s = 0, parameter is r
			I[t] = t
		case 1: // r = 1, parameter is s
			I[t] = e.P + t*n1
		case 2: // s = 1, parameter is r
			I[t] = t + e.P*n1
		case 3: // r = 0, parameter is s
			I[t] = t * n1
		default:
			panic(fmt.Errorf("invalid local face %d", lf))
		}
	}
	return
}

// FaceRefCoords maps the face parameter t in [0,1] to reference
// coordinates of the element, consistent with the global face
// orientation of a Cartesian mesh (faces parameterized along +x or +y).
func FaceRefCoords(lf int, t float64) (r, s float64) {
	switch lf {
	case 0:
		return t, 0
	case 1:
		return 1, t
	case 2:
		return t, 1
	case 3:
		return 0, t
	}
	panic(fmt.Errorf("invalid local face %d", lf))
}
