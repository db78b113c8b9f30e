package ConvDiff2D

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skelfem/hdgcd/geometry2D"
	"github.com/skelfem/hdgcd/utils"
)

func TestDirichletElimination(t *testing.T) {
	var (
		ac  = NewAffineConstraints(3)
		M   = utils.NewDOK(3, 3)
		rhs = utils.NewVector(3)
	)
	ac.AddLine(2)
	ac.SetInhomogeneity(2, 2.)

	cell := utils.NewMatrix(2, 2, []float64{
		4., 1.,
		1., 3.,
	})
	crhs := utils.NewVector(2, []float64{1., 5.})
	ac.DistributeLocalToGlobal(cell, crhs, []int{0, 2}, M, rhs)

	// Row and column of the constrained DOF never reach the matrix
	assert.InDelta(t, 4., M.At(0, 0), 1.e-14)
	assert.InDelta(t, 0., M.At(0, 2), 1.e-14)
	assert.InDelta(t, 0., M.At(2, 0), 1.e-14)
	assert.InDelta(t, 0., M.At(2, 2), 1.e-14)
	// The inhomogeneity moves to the right hand side: 1 - 1*2
	assert.InDelta(t, -1., rhs.DataP[0], 1.e-14)
	assert.InDelta(t, 0., rhs.DataP[2], 1.e-14)

	ac.CloseSystem(M, rhs)
	assert.InDelta(t, 1., M.At(2, 2), 1.e-14)
	assert.InDelta(t, 2., rhs.DataP[2], 1.e-14)

	x := utils.NewVector(3, []float64{7., 8., 0.})
	ac.Distribute(x)
	assert.InDelta(t, 2., x.DataP[2], 1.e-14)
	assert.InDelta(t, 7., x.DataP[0], 1.e-14)
}

func TestConstraintLineWithEntries(t *testing.T) {
	// DOF 2 is the average of DOFs 0 and 1
	ac := NewAffineConstraints(3)
	ac.AddLine(2)
	ac.AddEntry(2, 0, 0.5)
	ac.AddEntry(2, 1, 0.5)

	var (
		M   = utils.NewDOK(3, 3)
		rhs = utils.NewVector(3)
	)
	cell := utils.NewMatrix(2, 2, []float64{
		2., 1.,
		1., 2.,
	})
	crhs := utils.NewVector(2, []float64{1., 1.})
	ac.DistributeLocalToGlobal(cell, crhs, []int{1, 2}, M, rhs)

	// Couplings to DOF 2 split onto its masters, in rows and columns
	assert.InDelta(t, 0.5, M.At(0, 0), 1.e-14)
	assert.InDelta(t, 1., M.At(0, 1), 1.e-14)
	assert.InDelta(t, 1., M.At(1, 0), 1.e-14)
	assert.InDelta(t, 3.5, M.At(1, 1), 1.e-14)
	// Row and column 2 stay empty
	assert.InDelta(t, 0., M.At(2, 1), 1.e-14)
	assert.InDelta(t, 0., M.At(1, 2), 1.e-14)
	// The right hand side redistributes the same way
	assert.InDelta(t, 0.5, rhs.DataP[0], 1.e-14)
	assert.InDelta(t, 1.5, rhs.DataP[1], 1.e-14)

	x := utils.NewVector(3, []float64{4., 6., 0.})
	ac.Distribute(x)
	assert.InDelta(t, 5., x.DataP[2], 1.e-14)
}

func TestIsConstrainedBookkeeping(t *testing.T) {
	ac := NewAffineConstraints(10)
	assert.Equal(t, 0, ac.NConstrained())
	ac.AddLine(4)
	ac.AddLine(4) // Idempotent
	ac.AddLine(7)
	assert.Equal(t, 2, ac.NConstrained())
	assert.True(t, ac.IsConstrained(4))
	assert.False(t, ac.IsConstrained(5))
	assert.ElementsMatch(t, []int{4, 7}, ac.ConstrainedDOFs())
}

func TestProjectBoundaryValuesInterpolatesPolynomialData(t *testing.T) {
	var (
		mesh = geometry2D.NewQuadMesh(2, 2, -1, 1, -1, 1)
		pd   = NewGaussianBenchmark(false)
	)
	// Linear data lies in every trace space, so the L2 projection
	// reproduces it at the trace nodes exactly
	pd.BoundaryValue = func(marker int, x, y float64) float64 { return 2.*x - 3.*y + 1. }
	sd, err := NewSpaceDefinition(2, mesh)
	require.NoError(t, err)
	ac := NewAffineConstraints(sd.NSkeleton)
	require.NoError(t, ProjectBoundaryValues(sd, pd, ac))

	x := utils.NewVector(sd.NSkeleton)
	ac.Distribute(x)

	nBoundary := 0
	for f := range mesh.Faces {
		face := &mesh.Faces[f]
		if !face.OnBoundary {
			for j := 0; j < sd.NpFace; j++ {
				assert.False(t, ac.IsConstrained(sd.SkeletonDOF(f, j)))
			}
			continue
		}
		nBoundary++
		var (
			xa, ya = mesh.VX[face.Verts[0]], mesh.VY[face.Verts[0]]
			xb, yb = mesh.VX[face.Verts[1]], mesh.VY[face.Verts[1]]
		)
		for j := 0; j < sd.NpFace; j++ {
			tj := float64(j) / float64(sd.P)
			xj, yj := xa+tj*(xb-xa), ya+tj*(yb-ya)
			dof := sd.SkeletonDOF(f, j)
			require.True(t, ac.IsConstrained(dof))
			assert.InDelta(t, pd.BoundaryValue(face.BCMarker, xj, yj), x.DataP[dof], 1.e-12)
		}
	}
	assert.Equal(t, 8, nBoundary)
}
