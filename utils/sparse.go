package utils

import (
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// DOK wraps the dictionary-of-keys sparse format used during assembly,
// where the skeleton sparsity pattern is filled incrementally.
type DOK struct {
	M *sparse.DOK
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		M: sparse.NewDOK(nr, nc),
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }

func (m DOK) Set(i, j int, val float64) {
	m.M.Set(i, j, val)
}

// AddAt accumulates into an entry, the access pattern of finite element
// assembly where multiple elements contribute to the same coupling.
func (m DOK) AddAt(i, j int, val float64) {
	m.M.Set(i, j, m.M.At(i, j)+val)
}

func (m DOK) NNZ() int { return m.M.NNZ() }

func (m DOK) ToCSR() CSR {
	return CSR{
		M: m.M.ToCSR(),
	}
}

// CSR wraps the compressed sparse row format used for the matrix-vector
// products inside the iterative solve.
type CSR struct {
	M *sparse.CSR
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)    { return m.M.Dims() }
func (m CSR) At(i, j int) float64 { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix       { return m.M.T() }

func (m CSR) NNZ() int { return m.M.NNZ() }

// MulVec computes y = A*x, overwriting y.
func (m CSR) MulVec(x, y Vector) {
	var (
		nr, nc = m.Dims()
	)
	if x.Len() != nc || y.Len() != nr {
		panic("dimension mismatch in sparse MulVec")
	}
	y.Zero()
	m.M.DoNonZero(func(i, j int, v float64) {
		y.DataP[i] += v * x.DataP[j]
	})
}
