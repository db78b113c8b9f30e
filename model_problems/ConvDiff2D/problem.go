package ConvDiff2D

import (
	"math"
)

type ScalarFunc func(x, y float64) float64
type VectorFunc func(x, y float64) (vx, vy float64)

// BCKind selects the treatment of a boundary face. Markers map to kinds
// through PDEData.BoundaryKind; any unmapped marker is Dirichlet.
type BCKind uint8

const (
	BCDirichlet BCKind = iota
	BCNeumann
)

func (k BCKind) String() string {
	if k == BCNeumann {
		return "Neumann"
	}
	return "Dirichlet"
}

// PDEData carries the coefficient and data callbacks of the steady
// convection-diffusion problem
//
//	-div(kappa grad u) + div(c u) = f
//
// with the diffusion coefficient kappa fixed at 1, written in mixed form
// with the flux variable q = -grad u.
type PDEData struct {
	Source        ScalarFunc
	Convection    VectorFunc
	Diffusion     float64 // fixed at 1 for this model problem
	TauDiffusion  float64 // diffusion scaling of the stabilization, must be > 0
	BoundaryKind  map[int]BCKind
	BoundaryValue func(marker int, x, y float64) float64
	// Exact fields, used for error norms when available
	ExactValue ScalarFunc
	ExactGrad  VectorFunc
}

func (pd *PDEData) KindOf(marker int) BCKind {
	if pd.BoundaryKind == nil {
		return BCDirichlet
	}
	return pd.BoundaryKind[marker]
}

// Tau evaluates the face stabilization parameter at a face quadrature
// point with outward normal (nx,ny).
func (pd *PDEData) Tau(x, y, nx, ny float64) float64 {
	cx, cy := pd.Convection(x, y)
	return pd.TauDiffusion*pd.Diffusion + math.Abs(cx*nx+cy*ny)
}

/*
	Manufactured benchmark: the exact solution is a normalized sum of
	three Gaussians, the manufactured source matches it under the
	rotational convection field c = (y,-x). Setting withConvection false
	drops the convection term from both the field and the source, giving
	the pure diffusion case used in the end to end tests.
*/

var gaussianCenters = [3][2]float64{
	{-0.5, +0.5},
	{-0.5, -0.5},
	{+0.5, -0.5},
}

const gaussianWidth = 1. / 5.

func gaussianNorm() float64 {
	// (sqrt(2 pi) * width)^dim for dim = 2
	f := math.Sqrt(2.*math.Pi) * gaussianWidth
	return f * f
}

func gaussianValue(x, y float64) (val float64) {
	var (
		w2 = gaussianWidth * gaussianWidth
	)
	for _, c := range gaussianCenters {
		dx, dy := x-c[0], y-c[1]
		val += math.Exp(-(dx*dx + dy*dy) / w2)
	}
	return val / gaussianNorm()
}

func gaussianGrad(x, y float64) (gx, gy float64) {
	var (
		w2 = gaussianWidth * gaussianWidth
	)
	for _, c := range gaussianCenters {
		dx, dy := x-c[0], y-c[1]
		e := -2. / w2 * math.Exp(-(dx*dx+dy*dy)/w2)
		gx += e * dx
		gy += e * dy
	}
	n := gaussianNorm()
	return gx / n, gy / n
}

// NewGaussianBenchmark builds the manufactured problem. All boundary
// markers default to Dirichlet with the exact solution as boundary data;
// callers may override BoundaryKind to route markers to Neumann
// treatment.
func NewGaussianBenchmark(withConvection bool) (pd *PDEData) {
	convection := func(x, y float64) (float64, float64) {
		if withConvection {
			return y, -x
		}
		return 0, 0
	}
	source := func(x, y float64) (val float64) {
		var (
			w2     = gaussianWidth * gaussianWidth
			cx, cy = convection(x, y)
		)
		for _, c := range gaussianCenters {
			dx, dy := x-c[0], y-c[1]
			r2 := dx*dx + dy*dy
			val += (4. - 2.*(cx*dx+cy*dy) - 4.*r2/w2) / w2 *
				math.Exp(-r2/w2)
		}
		return val / gaussianNorm()
	}
	pd = &PDEData{
		Source:       source,
		Convection:   convection,
		Diffusion:    1.,
		TauDiffusion: 5.,
		BoundaryValue: func(marker int, x, y float64) float64 {
			return gaussianValue(x, y)
		},
		ExactValue: gaussianValue,
		ExactGrad:  gaussianGrad,
	}
	return
}

// Boundary markers of the benchmark domain. Faces on the right and top
// sides get their own markers so they can carry Neumann treatment with a
// known outward normal.
const (
	MarkerDirichlet = 0
	MarkerRight     = 1
	MarkerTop       = 2
)

// BenchmarkMarker classifies a boundary face midpoint on the rectangle
// with upper corner (xMax, yMax).
func BenchmarkMarker(xmid, ymid, xMax, yMax float64) int {
	const tol = 1.e-12
	switch {
	case math.Abs(xmid-xMax) < tol:
		return MarkerRight
	case math.Abs(ymid-yMax) < tol:
		return MarkerTop
	}
	return MarkerDirichlet
}

// EnableNeumannOutflow switches the right and top markers of the
// benchmark to Neumann treatment. The data is the exact total normal
// flux, -grad u . n + (c . n) u, evaluated with the per marker outward
// normal.
func EnableNeumannOutflow(pd *PDEData) {
	pd.BoundaryKind = map[int]BCKind{
		MarkerDirichlet: BCDirichlet,
		MarkerRight:     BCNeumann,
		MarkerTop:       BCNeumann,
	}
	pd.BoundaryValue = func(marker int, x, y float64) float64 {
		switch marker {
		case MarkerRight, MarkerTop:
			var nx, ny float64
			if marker == MarkerRight {
				nx = 1.
			} else {
				ny = 1.
			}
			gx, gy := gaussianGrad(x, y)
			cx, cy := pd.Convection(x, y)
			u := gaussianValue(x, y)
			return -pd.Diffusion*(gx*nx+gy*ny) + (cx*nx+cy*ny)*u
		}
		return gaussianValue(x, y)
	}
}
