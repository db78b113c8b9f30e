package ConvDiff2D

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skelfem/hdgcd/utils"
)

func randomDominantSystem(n int, rnd *rand.Rand) (A utils.CSR, b utils.Vector) {
	dok := utils.NewDOK(n, n)
	for i := 0; i < n; i++ {
		var offdiag float64
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if rnd.Float64() < 0.3 {
				v := rnd.Float64() - 0.5
				dok.Set(i, j, v)
				if v < 0 {
					offdiag -= v
				} else {
					offdiag += v
				}
			}
		}
		dok.Set(i, i, offdiag+1.+rnd.Float64())
	}
	b = utils.NewVector(n)
	for i := range b.DataP {
		b.DataP[i] = rnd.Float64() - 0.5
	}
	return dok.ToCSR(), b
}

func TestGMRESSolvesNonsymmetricSystem(t *testing.T) {
	var (
		rnd  = rand.New(rand.NewSource(42))
		n    = 120
		A, b = randomDominantSystem(n, rnd)
	)
	x, iters, resid, err := SolveGMRES(A, b, 1.e-10, 10*n)
	require.NoError(t, err)
	assert.Greater(t, iters, 0)
	// Confirm against the true residual
	r := utils.NewVector(n)
	A.MulVec(x, r)
	r.Subtract(b)
	assert.Less(t, r.Norm2(), 1.e-9*b.Norm2()+1.e-14)
	assert.Less(t, resid, 1.e-9*b.Norm2()+1.e-14)
}

func TestGMRESZeroRHS(t *testing.T) {
	var (
		rnd  = rand.New(rand.NewSource(7))
		A, _ = randomDominantSystem(10, rnd)
		b    = utils.NewVector(10)
	)
	x, iters, resid, err := SolveGMRES(A, b, 1.e-10, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, iters)
	assert.Equal(t, 0., resid)
	for _, v := range x.DataP {
		assert.Equal(t, 0., v)
	}
}

func TestGMRESBudgetExceeded(t *testing.T) {
	var (
		rnd  = rand.New(rand.NewSource(3))
		A, b = randomDominantSystem(200, rnd)
	)
	_, _, _, err := SolveGMRES(A, b, 1.e-14, 2)
	require.Error(t, err)
	var sf *SolveFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, 2, sf.Iterations)
	assert.Greater(t, sf.Residual, 0.)
}

func TestGMRESRestartedConverges(t *testing.T) {
	// System larger than the restart length forces at least one restart
	var (
		rnd  = rand.New(rand.NewSource(11))
		n    = 3 * gmresRestart
		A, b = randomDominantSystem(n, rnd)
	)
	x, _, _, err := SolveGMRES(A, b, 1.e-10, 10*n)
	require.NoError(t, err)
	r := utils.NewVector(n)
	A.MulVec(x, r)
	r.Subtract(b)
	assert.Less(t, r.Norm2(), 1.e-8*b.Norm2())
}
