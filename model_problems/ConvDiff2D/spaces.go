package ConvDiff2D

import (
	"fmt"

	"github.com/skelfem/hdgcd/DG2D"
	"github.com/skelfem/hdgcd/geometry2D"
)

/*
	SpaceDefinition numbers the degrees of freedom of the three
	discretization spaces:

	Interior: per element, discontinuous. The vector flux field comes
	first (x component basis, then y component), the scalar primal field
	last. Local ordering within an element:
		[0,Np)      flux x
		[Np,2Np)    flux y
		[2Np,3Np)   primal
	Element k owns global interior indices [k*NpLocal, (k+1)*NpLocal).

	Skeleton: one degree P scalar trace per face, continuous along the
	face, NpFace = P+1 values in face parameter order. Face f owns global
	skeleton indices [f*NpFace, (f+1)*NpFace).

	Recovery: per element scalar of degree P+1, NpPost values, only
	populated by the post processing pass. Element k owns global recovery
	indices [k*NpPost, (k+1)*NpPost).
*/
type SpaceDefinition struct {
	P   int // Polynomial degree of the primal, flux and trace fields
	Dim int

	Np      int // Scalar basis size per element, (P+1)^2
	NpLocal int // Interior DOFs per element, (Dim+1)*Np
	NpFace  int // Skeleton DOFs per face, P+1
	NpPost  int // Recovery DOFs per element, (P+2)^2

	NInterior int // Global interior DOF count
	NSkeleton int // Global skeleton DOF count
	NPost     int // Global recovery DOF count

	Mesh        *geometry2D.QuadMesh
	Element     DG2D.ScalarElement // Degree P
	PostElement DG2D.ScalarElement // Degree P+1
	TraceB      DG2D.Lagrange1D    // Degree P, on faces
}

func NewSpaceDefinition(P int, mesh *geometry2D.QuadMesh) (sd *SpaceDefinition, err error) {
	if P < 1 {
		err = fmt.Errorf("unsupported polynomial degree %d, need P >= 1", P)
		return
	}
	if mesh == nil || mesh.K == 0 {
		err = fmt.Errorf("mesh has no active elements")
		return
	}
	sd = &SpaceDefinition{
		P:           P,
		Dim:         2,
		Mesh:        mesh,
		Element:     DG2D.NewScalarElement(P),
		PostElement: DG2D.NewScalarElement(P + 1),
		TraceB:      DG2D.NewLagrange1D(P),
	}
	sd.Np = sd.Element.Np
	sd.NpLocal = (sd.Dim + 1) * sd.Np
	sd.NpFace = P + 1
	sd.NpPost = sd.PostElement.Np
	sd.NInterior = mesh.K * sd.NpLocal
	sd.NSkeleton = len(mesh.Faces) * sd.NpFace
	sd.NPost = mesh.K * sd.NpPost
	return
}

func (sd *SpaceDefinition) InteriorDOF(k, i int) int { return k*sd.NpLocal + i }
func (sd *SpaceDefinition) SkeletonDOF(f, i int) int { return f*sd.NpFace + i }
func (sd *SpaceDefinition) PostDOF(k, i int) int     { return k*sd.NpPost + i }

// Local interior indices of the flux components and the primal field for
// scalar basis function m.
func (sd *SpaceDefinition) FluxX(m int) int  { return m }
func (sd *SpaceDefinition) FluxY(m int) int  { return sd.Np + m }
func (sd *SpaceDefinition) Primal(m int) int { return 2*sd.Np + m }

// ElementSkeletonDOFs fills dofs (length 4*NpFace) with the global
// skeleton indices of element k, local face major, face parameter minor.
func (sd *SpaceDefinition) ElementSkeletonDOFs(k int, dofs []int) {
	for lf := 0; lf < 4; lf++ {
		f := sd.Mesh.EToF[k][lf]
		for j := 0; j < sd.NpFace; j++ {
			dofs[lf*sd.NpFace+j] = sd.SkeletonDOF(f, j)
		}
	}
}
