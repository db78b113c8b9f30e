package cmd

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"github.com/skelfem/hdgcd/InputParameters"
)

func TestParseInputParameters(t *testing.T) {
	var (
		err error
	)
	fileInput := []byte(`
Title: Test Case
PolynomialOrder: 3
Cycles: 4
MeshNx: 2
WithConvection: true
NeumannOutflow: true
RelTol: 1.e-8
BCs:
  Neumann: [1, 2]
  Dirichlet: [0]
`)
	var input InputParameters.InputParametersCD
	if err = input.Parse(fileInput); err != nil {
		panic(err)
	}
	assert.Equal(t, input.PolynomialOrder, 3)
	assert.Equal(t, input.Cycles, 4)
	assert.Equal(t, input.RelTol, 1.e-8)
	assert.Equal(t, input.BCs["Neumann"], []int{1, 2})
	// Defaults fill the fields the file leaves out
	assert.Equal(t, input.MeshNy, 2)
	assert.Equal(t, input.TauDiffusion, 5.)
	input.Print()
}

func TestParseDefaults(t *testing.T) {
	var input InputParameters.InputParametersCD
	if err := input.Parse([]byte("Title: Empty\n")); err != nil {
		panic(err)
	}
	assert.Equal(t, input.PolynomialOrder, 1)
	assert.Equal(t, input.Cycles, 3)
	assert.Equal(t, input.MeshNx, 2)
	assert.Equal(t, input.RelTol, 1.e-10)
}
