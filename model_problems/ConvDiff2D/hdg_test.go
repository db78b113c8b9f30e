package ConvDiff2D

import (
	"math"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skelfem/hdgcd/geometry2D"
	"github.com/skelfem/hdgcd/utils"
)

// linearProblem builds data whose exact solution u = x + 2y lies in
// every discrete space, so the solver must reproduce it to solver
// tolerance on any mesh.
func linearProblem() (pd *PDEData) {
	pd = &PDEData{
		Source: func(x, y float64) float64 {
			// c . grad u with divergence free c = (y, -x)
			return y - 2.*x
		},
		Convection:   func(x, y float64) (float64, float64) { return y, -x },
		Diffusion:    1.,
		TauDiffusion: 5.,
		BoundaryValue: func(marker int, x, y float64) float64 {
			return x + 2.*y
		},
		ExactValue: func(x, y float64) float64 { return x + 2.*y },
		ExactGrad:  func(x, y float64) (float64, float64) { return 1., 2. },
	}
	return
}

func runPipeline(t *testing.T, P int, mesh *geometry2D.QuadMesh, pd *PDEData) (c *DiscretizationContext) {
	t.Helper()
	var err error
	c, err = NewDiscretizationContext(P, mesh, pd)
	require.NoError(t, err)
	nPar := runtime.NumCPU()
	require.NoError(t, c.AssembleGlobal(nPar))
	require.NoError(t, c.Solve(1.e-10, 0))
	require.NoError(t, c.Reconstruct(nPar))
	require.NoError(t, c.PostProcess(nPar))
	return
}

func TestLinearSolutionIsExact(t *testing.T) {
	var (
		mesh = geometry2D.NewQuadMesh(3, 3, -1, 1, -1, 1)
		pd   = linearProblem()
		c    = runPipeline(t, 1, mesh, pd)
		ce   = c.ComputeErrors()
	)
	assert.Less(t, ce.ValueL2, 1.e-8)
	assert.Less(t, ce.GradL2, 1.e-8)
	assert.Less(t, ce.PostL2, 1.e-8)
}

func TestReconstructionSatisfiesLocalEquations(t *testing.T) {
	var (
		mesh = geometry2D.NewQuadMesh(2, 2, -1, 1, -1, 1)
		pd   = NewGaussianBenchmark(true)
		c    = runPipeline(t, 2, mesh, pd)
		scr  = NewScratch(c.SD)
	)
	// The recovered interior unknowns must satisfy the uncondensed
	// interior equations with the solved trace:
	//   LL u + LF lambda = l_rhs
	for k := 0; k < c.SD.Mesh.K; k++ {
		c.LA.AssembleElement(k, c.Trace, false, scr)
		var (
			nL    = c.SD.NpLocal
			nF    = 4 * c.SD.NpFace
			base  = c.SD.InteriorDOF(k, 0)
			resid float64
		)
		for i := 0; i < nL; i++ {
			sum := scr.LRHS.DataP[i]
			for j := 0; j < nL; j++ {
				sum -= scr.LL.At(i, j) * c.Local.DataP[base+j]
			}
			for j := 0; j < nF; j++ {
				sum -= scr.LF.At(i, j) * c.Trace.DataP[scr.Dofs[j]]
			}
			resid += sum * sum
		}
		assert.Less(t, math.Sqrt(resid), 1.e-8, "element %d", k)
	}
}

func TestRecoveryConservesElementMeans(t *testing.T) {
	var (
		mesh = geometry2D.NewQuadMesh(4, 4, -1, 1, -1, 1)
		pd   = NewGaussianBenchmark(false)
		c    = runPipeline(t, 1, mesh, pd)
	)
	for k := 0; k < c.SD.Mesh.K; k++ {
		assert.InDelta(t, c.IntegratePrimal(k), c.IntegratePost(k), 1.e-10,
			"element %d", k)
	}
}

func TestGaussianConvergence(t *testing.T) {
	var (
		mesh = geometry2D.NewQuadMesh(4, 4, -1, 1, -1, 1)
		pd   = NewGaussianBenchmark(false)
		cd   = NewConvDiff(2, 3, pd, mesh)
	)
	require.NoError(t, cd.Run())
	require.Len(t, cd.History, 3)
	for i := 1; i < len(cd.History); i++ {
		prev, cur := cd.History[i-1], cd.History[i]
		assert.Less(t, cur.ValueL2, prev.ValueL2)
		assert.Less(t, cur.GradL2, prev.GradL2)
		assert.Less(t, cur.PostL2, prev.PostL2)
	}
	var (
		last = cd.History[len(cd.History)-1]
		prev = cd.History[len(cd.History)-2]
	)
	// Degree p gives order p+1 in the value, the recovery one order more
	assert.Greater(t, prev.ValueL2/last.ValueL2, 3.)
	assert.Greater(t, prev.PostL2/last.PostL2, 4.)
	assert.Less(t, last.PostL2, last.ValueL2)
}

func TestNeumannOutflowRun(t *testing.T) {
	var (
		mesh = geometry2D.NewQuadMesh(4, 4, -1, 1, -1, 1)
		pd   = NewGaussianBenchmark(true)
	)
	EnableNeumannOutflow(pd)
	mesh.MarkBoundary(func(xmid, ymid float64) int {
		return BenchmarkMarker(xmid, ymid, 1, 1)
	})
	cd := NewConvDiff(2, 2, pd, mesh)
	require.NoError(t, cd.Run())
	require.Len(t, cd.History, 2)
	assert.Less(t, cd.History[1].ValueL2, cd.History[0].ValueL2)
	assert.Less(t, cd.History[1].PostL2, cd.History[1].ValueL2)
}

func TestSetupRejectsBadData(t *testing.T) {
	mesh := geometry2D.NewQuadMesh(2, 2, -1, 1, -1, 1)
	pd := NewGaussianBenchmark(false)
	pd.TauDiffusion = 0.
	_, err := NewDiscretizationContext(1, mesh, pd)
	assert.Error(t, err)

	pd = NewGaussianBenchmark(false)
	_, err = NewDiscretizationContext(0, mesh, pd)
	assert.Error(t, err)
}

func TestSolveReportsIterations(t *testing.T) {
	var (
		mesh = geometry2D.NewQuadMesh(2, 2, -1, 1, -1, 1)
		pd   = NewGaussianBenchmark(false)
		c    = runPipeline(t, 1, mesh, pd)
	)
	assert.Greater(t, c.Iterations, 0)
	assert.GreaterOrEqual(t, c.Residual, 0.)
	// All three fields are populated and finite
	require.False(t, utils.IsNan(c.Trace.DataP))
	require.False(t, utils.IsNan(c.Local.DataP))
	require.False(t, utils.IsNan(c.Post.DataP))
}
