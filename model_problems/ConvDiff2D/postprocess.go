package ConvDiff2D

import (
	"fmt"

	"github.com/skelfem/hdgcd/DG2D"
	"github.com/skelfem/hdgcd/utils"
)

/*
	Superconvergent recovery: per element, a degree P+1 field u* is
	sought whose gradient matches the reconstructed flux in the L2 sense.
	Pure gradient matching leaves the constant mode undetermined, so row
	0 of the small system is replaced by the recovery space mass row and
	its right hand side by the element integral of the reconstructed
	primal field. That row pins the element mean, which also makes the
	recovery exactly conservative per element.
*/

// PostScratch is the per worker scratch of the recovery pass.
type PostScratch struct {
	A    utils.Matrix
	RHS  utils.Vector
	Sol  utils.Vector
	iPiv []int
	work []float64
}

func NewPostScratch(sd *SpaceDefinition) (ps *PostScratch) {
	var (
		n = sd.NpPost
	)
	ps = &PostScratch{
		A:    utils.NewMatrix(n, n),
		RHS:  utils.NewVector(n),
		Sol:  utils.NewVector(n),
		iPiv: make([]int, n),
		work: make([]float64, n*n),
	}
	return
}

// PostProcessor carries the shared basis tables of the recovery pass:
// recovery basis values and gradients, and the interior basis evaluated
// at the same quadrature points.
type PostProcessor struct {
	SD *SpaceDefinition

	Rule          DG2D.TensorRule
	PV, PVr, PVs  utils.Matrix // Recovery basis, (Nq x NpPost)
	UV, UVr, UVs  utils.Matrix // Interior scalar basis at the same points
}

func NewPostProcessor(sd *SpaceDefinition) (pp *PostProcessor) {
	g := DG2D.NewGaussRule(sd.P + 2) // Degree of the recovery space + 1
	pp = &PostProcessor{
		SD:   sd,
		Rule: DG2D.NewTensorRule(g),
	}
	pp.PV, pp.PVr, pp.PVs = sd.PostElement.EvalBasis(pp.Rule.X, pp.Rule.Y)
	pp.UV, pp.UVr, pp.UVs = sd.Element.EvalBasis(pp.Rule.X, pp.Rule.Y)
	return
}

// PostProcessElement builds and solves the local recovery system for
// element k, writing the result into the recovery vector. Independent of
// the global system and of any other element.
func (pp *PostProcessor) PostProcessElement(k int, local, post utils.Vector, ps *PostScratch) (err error) {
	var (
		sd             = pp.SD
		n              = sd.NpPost
		Np             = sd.Np
		_, _, hx, hy   = boundsOf(sd, k)
		jac            = hx * hy
		base           = sd.InteriorDOF(k, 0)
	)
	ps.A.Zero()
	ps.RHS.Zero()
	for q := 0; q < pp.Rule.Nq; q++ {
		var (
			JxW   = jac * pp.Rule.W[q]
			pvRow = pp.PV.DataP[q*n : (q+1)*n]
			prRow = pp.PVr.DataP[q*n : (q+1)*n]
			psRow = pp.PVs.DataP[q*n : (q+1)*n]
			uvRow = pp.UV.DataP[q*Np : (q+1)*Np]
		)
		// Reconstructed flux and primal value at this quadrature point
		var qx, qy, uval float64
		for m := 0; m < Np; m++ {
			v := uvRow[m]
			qx += v * local.DataP[base+sd.FluxX(m)]
			qy += v * local.DataP[base+sd.FluxY(m)]
			uval += v * local.DataP[base+sd.Primal(m)]
		}
		for i := 1; i < n; i++ {
			var (
				gix = prRow[i] / hx
				giy = psRow[i] / hy
			)
			for j := 0; j < n; j++ {
				ps.A.DataP[j+i*n] += (gix*prRow[j]/hx + giy*psRow[j]/hy) * JxW
			}
			ps.RHS.DataP[i] -= (gix*qx + giy*qy) * JxW
		}
		// Row 0: mean value constraint over the recovery space
		for j := 0; j < n; j++ {
			ps.A.DataP[j] += pvRow[j] * JxW
		}
		ps.RHS.DataP[0] += uval * JxW
	}
	if err = ps.A.InverseInPlace(ps.iPiv, ps.work); err != nil {
		err = fmt.Errorf("element %d: singular recovery system: %w", k, err)
		return
	}
	a := ps.A.DataP
	for i := 0; i < n; i++ {
		var sum float64
		row := a[i*n : (i+1)*n]
		for j, val := range row {
			sum += val * ps.RHS.DataP[j]
		}
		ps.Sol.DataP[i] = sum
	}
	copy(post.DataP[sd.PostDOF(k, 0):sd.PostDOF(k, n)], ps.Sol.DataP)
	return
}

func boundsOf(sd *SpaceDefinition, k int) (x0, y0, hx, hy float64) {
	return sd.Mesh.ElementBounds(k)
}
