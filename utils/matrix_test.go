package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrixInverse(t *testing.T) {
	{ // 2x2 inverse against hand computation
		A := NewMatrix(2, 2, []float64{4, 7, 2, 6})
		Ainv, err := A.Inverse()
		assert.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.6, -0.7, -0.2, 0.4}, Ainv.DataP, 0.000001)
		// A * Ainv = I
		I := A.Mul(Ainv)
		assert.InDeltaSlice(t, []float64{1, 0, 0, 1}, I.DataP, 0.000001)
	}
	{ // Singular matrix reports an error
		A := NewMatrix(2, 2, []float64{1, 2, 2, 4})
		_, err := A.Inverse()
		assert.Error(t, err)
	}
	{ // In place inverse with reused scratch matches the allocating path
		A := NewMatrix(3, 3, []float64{2, 0, 1, 0, 3, 0, 1, 0, 2})
		Ref, err := A.Inverse()
		assert.NoError(t, err)
		iPiv := make([]int, 3)
		work := make([]float64, 9)
		B := A.Copy()
		assert.NoError(t, B.InverseInPlace(iPiv, work))
		assert.InDeltaSlice(t, Ref.DataP, B.DataP, 0.000001)
	}
}

func TestMatrixOps(t *testing.T) {
	A := NewMatrix(2, 3, []float64{1, 2, 3, 4, 5, 6})
	{ // MulVec
		v := NewVector(3, []float64{1, 1, 1})
		r := A.MulVec(v)
		assert.InDeltaSlice(t, []float64{6, 15}, r.DataP, 0.000001)
	}
	{ // Transpose round trip
		B := A.Transpose().Transpose()
		assert.InDeltaSlice(t, A.DataP, B.DataP, 0.000001)
	}
	{ // Mul against hand computation
		B := NewMatrix(3, 2, []float64{1, 0, 0, 1, 1, 1})
		C := A.Mul(B)
		assert.InDeltaSlice(t, []float64{4, 5, 10, 11}, C.DataP, 0.000001)
	}
	{ // Subtract/Scale mutate the receiver
		B := A.Copy()
		B.Subtract(A)
		assert.InDeltaSlice(t, make([]float64, 6), B.DataP, 0.000001)
	}
}

func TestSparse(t *testing.T) {
	m := NewDOK(3, 3)
	m.AddAt(0, 0, 1)
	m.AddAt(0, 0, 1) // Accumulation from a second element contribution
	m.AddAt(1, 2, 5)
	m.Set(2, 2, 3)
	csr := m.ToCSR()
	assert.InDelta(t, 2., csr.At(0, 0), 0.000001)
	assert.InDelta(t, 5., csr.At(1, 2), 0.000001)
	x := NewVector(3, []float64{1, 1, 1})
	y := NewVector(3)
	csr.MulVec(x, y)
	assert.InDeltaSlice(t, []float64{2, 5, 3}, y.DataP, 0.000001)
}

func TestPartitionMap(t *testing.T) {
	pm := NewPartitionMap(4, 10)
	var total int
	for n := 0; n < 4; n++ {
		kMin, kMax := pm.GetBucketRange(n)
		assert.True(t, kMax > kMin)
		total += pm.GetBucketDimension(n)
		_ = kMin
	}
	assert.Equal(t, 10, total)
	// Buckets tile the index range contiguously
	last := 0
	for n := 0; n < 4; n++ {
		kMin, kMax := pm.GetBucketRange(n)
		assert.Equal(t, last, kMin)
		last = kMax
	}
	assert.Equal(t, 10, last)
}
