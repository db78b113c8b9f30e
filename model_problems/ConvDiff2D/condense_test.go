package ConvDiff2D

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skelfem/hdgcd/geometry2D"
	"github.com/skelfem/hdgcd/utils"
)

func testSpace(t *testing.T, P, nx, ny int) (sd *SpaceDefinition, pd *PDEData) {
	t.Helper()
	mesh := geometry2D.NewQuadMesh(nx, ny, -1, 1, -1, 1)
	pd = NewGaussianBenchmark(true)
	sd, err := NewSpaceDefinition(P, mesh)
	require.NoError(t, err)
	return
}

func TestCondenseMatchesReference(t *testing.T) {
	var (
		sd, pd = testSpace(t, 2, 2, 2)
		la     = NewLocalAssembler(sd, pd)
		scr    = NewScratch(sd)
		trace  = utils.NewVector(sd.NSkeleton)
	)
	for k := 0; k < sd.Mesh.K; k++ {
		la.AssembleElement(k, trace, false, scr)
		var (
			LL = scr.LL.Copy()
			LF = scr.LF.Copy()
			FL = scr.FL.Copy()
			FF = scr.FF.Copy()
			lr = scr.LRHS.Copy()
			fr = scr.FRHS.Copy()
		)
		require.NoError(t, Condense(scr))
		FFref, fref, err := CondenseBlocks(LL, LF, FL, FF, lr, fr)
		require.NoError(t, err)
		for i := range FFref.DataP {
			assert.InDelta(t, FFref.DataP[i], scr.FF.DataP[i], 1.e-10)
		}
		for i := range fref.DataP {
			assert.InDelta(t, fref.DataP[i], scr.FRHS.DataP[i], 1.e-10)
		}
	}
}

func TestCondenseLeavesInverse(t *testing.T) {
	var (
		sd, pd = testSpace(t, 1, 1, 1)
		la     = NewLocalAssembler(sd, pd)
		scr    = NewScratch(sd)
		trace  = utils.NewVector(sd.NSkeleton)
	)
	la.AssembleElement(0, trace, false, scr)
	LL := scr.LL.Copy()
	require.NoError(t, Condense(scr))
	// scr.LL now holds the inverse of the original block
	I := LL.Mul(scr.LL)
	n, _ := I.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			want := 0.
			if i == j {
				want = 1.
			}
			assert.InDelta(t, want, I.At(i, j), 1.e-9)
		}
	}
}

func TestCondenseSingularBlock(t *testing.T) {
	var (
		sd, _ = testSpace(t, 1, 1, 1)
		scr   = NewScratch(sd)
	)
	scr.Reset(false)
	// All zero LL cannot be factored
	err := Condense(scr)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "singular local block")
}

func TestTauPositivity(t *testing.T) {
	pd := NewGaussianBenchmark(true)
	pts := [][2]float64{{-1, -1}, {0, 0}, {0.3, -0.7}, {1, 1}}
	normals := [][2]float64{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for _, p := range pts {
		for _, n := range normals {
			tau := pd.Tau(p[0], p[1], n[0], n[1])
			assert.Greater(t, tau, 0.)
			// The stabilization never drops below the diffusion part
			assert.GreaterOrEqual(t, tau, pd.TauDiffusion*pd.Diffusion)
		}
	}
}
