package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type InputParametersCD struct {
	Title           string           `yaml:"Title"`
	PolynomialOrder int              `yaml:"PolynomialOrder"`
	Cycles          int              `yaml:"Cycles"`
	MeshNx          int              `yaml:"MeshNx"`
	MeshNy          int              `yaml:"MeshNy"`
	WithConvection  bool             `yaml:"WithConvection"`
	NeumannOutflow  bool             `yaml:"NeumannOutflow"`
	TauDiffusion    float64          `yaml:"TauDiffusion"`
	RelTol          float64          `yaml:"RelTol"`
	MaxIterations   int              `yaml:"MaxIterations"`
	BCs             map[string][]int `yaml:"BCs"` // Key is BC type name, value lists the boundary markers
	OutputDir       string           `yaml:"OutputDir"`
}

func (ip *InputParametersCD) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return err
	}
	return ip.Validate()
}

// Validate fills unset fields with their defaults and rejects
// out of range values.
func (ip *InputParametersCD) Validate() error {
	if ip.PolynomialOrder == 0 {
		ip.PolynomialOrder = 1
	}
	if ip.PolynomialOrder < 1 {
		return fmt.Errorf("polynomial order %d below 1", ip.PolynomialOrder)
	}
	if ip.Cycles == 0 {
		ip.Cycles = 3
	}
	if ip.MeshNx == 0 {
		ip.MeshNx = 2
	}
	if ip.MeshNy == 0 {
		ip.MeshNy = ip.MeshNx
	}
	if ip.TauDiffusion == 0 {
		ip.TauDiffusion = 5.
	}
	if ip.RelTol == 0 {
		ip.RelTol = 1.e-10
	}
	return nil
}

func (ip *InputParametersCD) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d]\t\t\t\t= Polynomial Order\n", ip.PolynomialOrder)
	fmt.Printf("[%d]\t\t\t\t= Refinement Cycles\n", ip.Cycles)
	fmt.Printf("[%dx%d]\t\t\t= Initial Mesh\n", ip.MeshNx, ip.MeshNy)
	fmt.Printf("[%v]\t\t\t= Convection Enabled\n", ip.WithConvection)
	fmt.Printf("[%v]\t\t\t= Neumann Outflow\n", ip.NeumannOutflow)
	fmt.Printf("%8.5f\t\t= Tau Diffusion Weight\n", ip.TauDiffusion)
	fmt.Printf("%8.2e\t\t= Solver Relative Tolerance\n", ip.RelTol)
	keys := make([]string, len(ip.BCs))
	i := 0
	for k := range ip.BCs {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %v\n", key, ip.BCs[key])
	}
}
