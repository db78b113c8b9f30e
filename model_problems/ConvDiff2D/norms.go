package ConvDiff2D

import (
	"math"

	"github.com/skelfem/hdgcd/DG2D"
)

// CycleErrors carries the per cycle L2 error metrics against the exact
// fields, when available.
type CycleErrors struct {
	Cells        int
	SkeletonDOFs int
	H            float64
	ValueL2      float64 // Primal field
	GradL2       float64 // Flux field against -grad u
	PostL2       float64 // Post processed field
}

// ComputeErrors integrates the squared differences elementwise with a
// rule one degree beyond the assembly rule (and one more for the
// recovery field, matching its higher degree).
func (c *DiscretizationContext) ComputeErrors() (ce CycleErrors) {
	var (
		sd = c.SD
		pd = c.PD
	)
	ce = CycleErrors{
		Cells:        sd.Mesh.K,
		SkeletonDOFs: sd.NSkeleton,
		H:            sd.Mesh.MinDiameter(),
	}
	if pd.ExactValue == nil || pd.ExactGrad == nil {
		return
	}
	var (
		rule         = DG2D.NewTensorRule(DG2D.NewGaussRule(sd.P + 2))
		V, _, _      = sd.Element.EvalBasis(rule.X, rule.Y)
		postRule     = DG2D.NewTensorRule(DG2D.NewGaussRule(sd.P + 3))
		PV, _, _     = sd.PostElement.EvalBasis(postRule.X, postRule.Y)
		val2, grad2  float64
		post2        float64
	)
	for k := 0; k < sd.Mesh.K; k++ {
		var (
			x0, y0, hx, hy = sd.Mesh.ElementBounds(k)
			jac            = hx * hy
			base           = sd.InteriorDOF(k, 0)
			pbase          = sd.PostDOF(k, 0)
		)
		for q := 0; q < rule.Nq; q++ {
			var (
				x, y = x0 + hx*rule.X[q], y0 + hy*rule.Y[q]
				JxW  = jac * rule.W[q]
				row  = V.DataP[q*sd.Np : (q+1)*sd.Np]
			)
			var uh, qxh, qyh float64
			for m := 0; m < sd.Np; m++ {
				v := row[m]
				uh += v * c.Local.DataP[base+sd.Primal(m)]
				qxh += v * c.Local.DataP[base+sd.FluxX(m)]
				qyh += v * c.Local.DataP[base+sd.FluxY(m)]
			}
			ue := pd.ExactValue(x, y)
			gx, gy := pd.ExactGrad(x, y)
			// The flux approximates q = -grad u
			val2 += (uh - ue) * (uh - ue) * JxW
			grad2 += ((qxh+gx)*(qxh+gx) + (qyh+gy)*(qyh+gy)) * JxW
		}
		for q := 0; q < postRule.Nq; q++ {
			var (
				x, y = x0 + hx*postRule.X[q], y0 + hy*postRule.Y[q]
				JxW  = jac * postRule.W[q]
				row  = PV.DataP[q*sd.NpPost : (q+1)*sd.NpPost]
			)
			var uph float64
			for m := 0; m < sd.NpPost; m++ {
				uph += row[m] * c.Post.DataP[pbase+m]
			}
			ue := pd.ExactValue(x, y)
			post2 += (uph - ue) * (uph - ue) * JxW
		}
	}
	ce.ValueL2 = math.Sqrt(val2)
	ce.GradL2 = math.Sqrt(grad2)
	ce.PostL2 = math.Sqrt(post2)
	return
}

// IntegratePrimal integrates the interior primal field over element k,
// used by the conservation checks and the recovery constraint tests.
func (c *DiscretizationContext) IntegratePrimal(k int) (sum float64) {
	var (
		sd      = c.SD
		rule    = DG2D.NewTensorRule(DG2D.NewGaussRule(sd.P + 2))
		V, _, _ = sd.Element.EvalBasis(rule.X, rule.Y)
		base    = sd.InteriorDOF(k, 0)
	)
	_, _, hx, hy := sd.Mesh.ElementBounds(k)
	for q := 0; q < rule.Nq; q++ {
		row := V.DataP[q*sd.Np : (q+1)*sd.Np]
		var uh float64
		for m := 0; m < sd.Np; m++ {
			uh += row[m] * c.Local.DataP[base+sd.Primal(m)]
		}
		sum += uh * hx * hy * rule.W[q]
	}
	return
}

// IntegratePost integrates the recovery field over element k.
func (c *DiscretizationContext) IntegratePost(k int) (sum float64) {
	var (
		sd      = c.SD
		rule    = DG2D.NewTensorRule(DG2D.NewGaussRule(sd.P + 2))
		V, _, _ = sd.PostElement.EvalBasis(rule.X, rule.Y)
		pbase   = sd.PostDOF(k, 0)
	)
	_, _, hx, hy := sd.Mesh.ElementBounds(k)
	for q := 0; q < rule.Nq; q++ {
		row := V.DataP[q*sd.NpPost : (q+1)*sd.NpPost]
		var uh float64
		for m := 0; m < sd.NpPost; m++ {
			uh += row[m] * c.Post.DataP[pbase+m]
		}
		sum += uh * hx * hy * rule.W[q]
	}
	return
}
