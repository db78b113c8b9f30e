package ConvDiff2D

import (
	"math"

	"github.com/skelfem/hdgcd/DG2D"
	"github.com/skelfem/hdgcd/geometry2D"
	"github.com/skelfem/hdgcd/utils"
)

// Scratch holds the per element transient blocks and the inverse
// factorization workspace. One instance per worker goroutine; Reset is
// called between elements, nothing is reallocated on the hot path.
type Scratch struct {
	LL, LF, FL, FF utils.Matrix // Interior/skeleton coupling blocks
	TM, TT         utils.Matrix // Schur complement temporaries
	LRHS, FRHS     utils.Vector
	ULocal         utils.Vector // Reconstructed interior unknowns

	Dofs       []int     // Global skeleton indices of the element
	TraceFace  []float64 // Trace values at the face quadrature points
	iPiv       []int
	work       []float64
	hasInverse bool // LL currently holds its own inverse
}

func NewScratch(sd *SpaceDefinition) (scr *Scratch) {
	var (
		nL = sd.NpLocal
		nF = 4 * sd.NpFace
	)
	scr = &Scratch{
		LL:        utils.NewMatrix(nL, nL),
		LF:        utils.NewMatrix(nL, nF),
		FL:        utils.NewMatrix(nF, nL),
		FF:        utils.NewMatrix(nF, nF),
		TM:        utils.NewMatrix(nF, nL),
		TT:        utils.NewMatrix(nF, nF),
		LRHS:      utils.NewVector(nL),
		FRHS:      utils.NewVector(nF),
		ULocal:    utils.NewVector(nL),
		Dofs:      make([]int, nF),
		TraceFace: make([]float64, sd.P+1),
		iPiv:      make([]int, nL),
		work:      make([]float64, nL*nL),
	}
	return
}

func (scr *Scratch) Reset(reconstruct bool) {
	scr.LL.Zero()
	scr.LRHS.Zero()
	scr.hasInverse = false
	if !reconstruct {
		scr.LF.Zero()
		scr.FL.Zero()
		scr.FF.Zero()
		scr.FRHS.Zero()
	}
}

// LocalAssembler computes the per element volume and face integrals of
// the mixed flux/primal formulation. The reference element tables are
// shared and read only; all mutation goes through the caller supplied
// Scratch.
type LocalAssembler struct {
	SD *SpaceDefinition
	PD *PDEData

	// Volume quadrature and basis tables, (Nq x Np)
	Vol        DG2D.TensorRule
	V, Vr, Vs  utils.Matrix
	// Face quadrature and the shared 1D trace table, (P+1 x P+1). The
	// restriction of a supported interior basis function to a face
	// coincides with the face Lagrange basis, so one table serves both
	// the trace space and the interior face values.
	FaceQ  DG2D.GaussRule
	TraceV utils.Matrix
	// Interior scalar indices with support on each local face, in face
	// parameter order
	FaceSupp [4][]int
}

func NewLocalAssembler(sd *SpaceDefinition, pd *PDEData) (la *LocalAssembler) {
	la = &LocalAssembler{
		SD:    sd,
		PD:    pd,
		FaceQ: DG2D.NewGaussRule(sd.P + 1),
	}
	g := DG2D.NewGaussRule(sd.P + 1)
	la.Vol = DG2D.NewTensorRule(g)
	la.V, la.Vr, la.Vs = sd.Element.EvalBasis(la.Vol.X, la.Vol.Y)
	nq := la.FaceQ.N
	la.TraceV = utils.NewMatrix(nq, sd.NpFace)
	for q := 0; q < nq; q++ {
		for j := 0; j < sd.NpFace; j++ {
			la.TraceV.Set(q, j, sd.TraceB.Eval(j, la.FaceQ.X[q]))
		}
	}
	for lf := 0; lf < 4; lf++ {
		la.FaceSupp[lf] = sd.Element.FaceSupport(lf)
	}
	return
}

// AssembleElement populates the scratch blocks for element k. On the
// full pass (reconstruct false) it fills LL, LF, FL, FF, LRHS, FRHS and
// the skeleton index list; on the reconstruction pass it reads the
// solved trace vector and folds the known trace values into LRHS,
// touching only LL and LRHS.
func (la *LocalAssembler) AssembleElement(k int, trace utils.Vector, reconstruct bool, scr *Scratch) {
	scr.Reset(reconstruct)
	la.assembleVolume(k, scr)
	la.assembleFaces(k, trace, reconstruct, scr)
	if !reconstruct {
		la.SD.ElementSkeletonDOFs(k, scr.Dofs)
	}
}

func (la *LocalAssembler) assembleVolume(k int, scr *Scratch) {
	var (
		sd             = la.SD
		Np, nL         = sd.Np, sd.NpLocal
		x0, y0, hx, hy = sd.Mesh.ElementBounds(k)
		jac            = hx * hy
		ll             = scr.LL.DataP
		lrhs           = scr.LRHS.DataP
	)
	for q := 0; q < la.Vol.Nq; q++ {
		var (
			x, y   = x0 + hx*la.Vol.X[q], y0 + hy*la.Vol.Y[q]
			JxW    = jac * la.Vol.W[q]
			f      = la.PD.Source(x, y)
			cx, cy = la.PD.Convection(x, y)
			vRow   = la.V.DataP[q*Np : (q+1)*Np]
			vrRow  = la.Vr.DataP[q*Np : (q+1)*Np]
			vsRow  = la.Vs.DataP[q*Np : (q+1)*Np]
		)
		for m := 0; m < Np; m++ {
			var (
				um     = vRow[m]
				dmx    = vrRow[m] / hx // Physical x derivative of basis m
				dmy    = vsRow[m] / hy
				rowFX  = sd.FluxX(m) * nL
				rowFY  = sd.FluxY(m) * nL
				rowPr  = sd.Primal(m) * nL
				convGm = dmx*cx + dmy*cy
			)
			for n := 0; n < Np; n++ {
				un := vRow[n]
				dnx := vrRow[n] / hx
				dny := vsRow[n] / hy
				// q_i . q_j, diagonal in the component
				ll[rowFX+sd.FluxX(n)] += um * un * JxW
				ll[rowFY+sd.FluxY(n)] += um * un * JxW
				// -(div q_i) u_j
				ll[rowFX+sd.Primal(n)] -= dmx * un * JxW
				ll[rowFY+sd.Primal(n)] -= dmy * un * JxW
				// +u_i (div q_j)
				ll[rowPr+sd.FluxX(n)] += um * dnx * JxW
				ll[rowPr+sd.FluxY(n)] += um * dny * JxW
				// -(grad u_i . c) u_j
				ll[rowPr+sd.Primal(n)] -= convGm * un * JxW
			}
			lrhs[sd.Primal(m)] += um * f * JxW
		}
	}
}

func (la *LocalAssembler) assembleFaces(k int, trace utils.Vector, reconstruct bool, scr *Scratch) {
	var (
		sd             = la.SD
		nL             = sd.NpLocal
		nFace          = sd.NpFace
		x0, y0, hx, hy = sd.Mesh.ElementBounds(k)
		ll             = scr.LL.DataP
		lrhs           = scr.LRHS.DataP
	)
	for lf := 0; lf < 4; lf++ {
		var (
			f        = sd.Mesh.EToF[k][lf]
			face     = &sd.Mesh.Faces[f]
			nx, ny   = geometry2D.FaceNormal(lf)
			faceLen  = sd.Mesh.FaceLength(k, lf)
			supp     = la.FaceSupp[lf]
			isNeuman = face.OnBoundary && la.PD.KindOf(face.BCMarker) == BCNeumann
		)
		if reconstruct {
			// Trace values at the face quadrature points from the
			// solved skeleton vector
			for q := 0; q < la.FaceQ.N; q++ {
				var val float64
				for j := 0; j < nFace; j++ {
					val += la.TraceV.At(q, j) * trace.DataP[sd.SkeletonDOF(f, j)]
				}
				scr.TraceFace[q] = val
			}
		}
		for q := 0; q < la.FaceQ.N; q++ {
			var (
				r, s   = DG2D.FaceRefCoords(lf, la.FaceQ.X[q])
				x, y   = x0 + hx*r, y0 + hy*s
				JxW    = faceLen * la.FaceQ.W[q]
				cx, cy = la.PD.Convection(x, y)
				cdotn  = cx*nx + cy*ny
				tau    = la.PD.TauDiffusion*la.PD.Diffusion + math.Abs(cdotn)
				trRow  = la.TraceV.DataP[q*nFace : (q+1)*nFace]
			)
			// Penalty block of LL, supported scalar x supported scalar
			for a, ia := range supp {
				va := trRow[a] // Face restriction of interior basis ia
				rowPr := sd.Primal(ia) * nL
				for b, ib := range supp {
					ll[rowPr+sd.Primal(ib)] += tau * va * trRow[b] * JxW
				}
			}
			if !reconstruct {
				for a, ia := range supp {
					var (
						va    = trRow[a]
						rowFX = sd.FluxX(ia)
						rowFY = sd.FluxY(ia)
						rowPr = sd.Primal(ia)
					)
					for j := 0; j < nFace; j++ {
						var (
							tr  = trRow[j] * JxW
							col = lf*nFace + j
						)
						// (q_i . n + (c.n - tau) u_i) tr_j
						scr.LF.AddAt(rowFX, col, va*nx*tr)
						scr.LF.AddAt(rowFY, col, va*ny*tr)
						scr.LF.AddAt(rowPr, col, (cdotn-tau)*va*tr)
						// (q_i . n + tau u_i) tr_j
						scr.FL.AddAt(col, rowFX, va*nx*tr)
						scr.FL.AddAt(col, rowFY, va*ny*tr)
						scr.FL.AddAt(col, rowPr, tau*va*tr)
					}
				}
				for i := 0; i < nFace; i++ {
					var (
						ti   = trRow[i]
						rowF = lf*nFace + i
					)
					for j := 0; j < nFace; j++ {
						scr.FF.AddAt(rowF, lf*nFace+j, (cdotn-tau)*ti*trRow[j]*JxW)
					}
					if isNeuman {
						g := la.PD.BoundaryValue(face.BCMarker, x, y)
						scr.FRHS.DataP[rowF] -= ti * g * JxW
					}
				}
			} else {
				tv := scr.TraceFace[q]
				for a, ia := range supp {
					va := trRow[a]
					lrhs[sd.FluxX(ia)] -= va * nx * tv * JxW
					lrhs[sd.FluxY(ia)] -= va * ny * tv * JxW
					lrhs[sd.Primal(ia)] -= va * (cdotn - tau) * tv * JxW
				}
			}
		}
	}
}
