/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/skelfem/hdgcd/InputParameters"
	"github.com/skelfem/hdgcd/geometry2D"
	"github.com/skelfem/hdgcd/model_problems/ConvDiff2D"
)

// SolveCmd represents the solve command
var SolveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run the refinement study on the benchmark problem",
	Long: `Runs the skeleton trace solver through a sequence of uniformly refined
meshes and reports the error history with convergence rates`,
	Run: func(cmd *cobra.Command, args []string) {
		ms := &ModelSolve{}
		ms.ICFile, _ = cmd.Flags().GetString("inputConditionsFile")
		ms.Order, _ = cmd.Flags().GetInt("n")
		ms.Cycles, _ = cmd.Flags().GetInt("cycles")
		ms.OutDir, _ = cmd.Flags().GetString("outputDir")
		ms.Profile, _ = cmd.Flags().GetBool("profile")
		ip := processInput(ms)
		RunSolve(ms, ip)
	},
}

type ModelSolve struct {
	ICFile  string
	Order   int
	Cycles  int
	OutDir  string
	Profile bool
}

func processInput(ms *ModelSolve) (ip *InputParameters.InputParametersCD) {
	var (
		err error
	)
	ip = &InputParameters.InputParametersCD{}
	if len(ms.ICFile) != 0 {
		var data []byte
		if data, err = ioutil.ReadFile(ms.ICFile); err != nil {
			fmt.Printf("error reading input parameters file: %s\n", err.Error())
			os.Exit(1)
		}
		if err = ip.Parse(data); err != nil {
			fmt.Printf("error parsing input parameters file: %s\n", err.Error())
			exampleFile := `
########################################
Title: "Gaussian Benchmark"
PolynomialOrder: 3
Cycles: 5
MeshNx: 2
WithConvection: true
NeumannOutflow: true
RelTol: 1.e-10
########################################
`
			fmt.Printf("Example File:%s\n", exampleFile)
			os.Exit(1)
		}
	} else if err = ip.Validate(); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	// Command line overrides
	if ms.Order != 0 {
		ip.PolynomialOrder = ms.Order
	}
	if ms.Cycles != 0 {
		ip.Cycles = ms.Cycles
	}
	if ms.OutDir != "" {
		ip.OutputDir = ms.OutDir
	}
	ip.Print()
	return
}

func init() {
	rootCmd.AddCommand(SolveCmd)
	SolveCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- PolynomialOrder\n\t- Cycles")
	SolveCmd.Flags().IntP("n", "n", 0, "polynomial degree, overrides the input file")
	SolveCmd.Flags().IntP("cycles", "c", 0, "number of refinement cycles, overrides the input file")
	SolveCmd.Flags().StringP("outputDir", "o", "", "directory for VTK field output, empty disables output")
	SolveCmd.Flags().BoolP("profile", "p", false, "write a CPU profile of the run")
}

func RunSolve(ms *ModelSolve, ip *InputParameters.InputParametersCD) {
	if ms.Profile {
		defer profile.Start().Stop()
	}
	pd := ConvDiff2D.NewGaussianBenchmark(ip.WithConvection)
	pd.TauDiffusion = ip.TauDiffusion
	if ip.NeumannOutflow {
		ConvDiff2D.EnableNeumannOutflow(pd)
	}
	applyBCOverrides(pd, ip)

	mesh := geometry2D.NewQuadMesh(ip.MeshNx, ip.MeshNy, -1, 1, -1, 1)
	mesh.MarkBoundary(func(xmid, ymid float64) int {
		return ConvDiff2D.BenchmarkMarker(xmid, ymid, 1, 1)
	})

	cd := ConvDiff2D.NewConvDiff(ip.PolynomialOrder, ip.Cycles, pd, mesh)
	cd.RelTol = ip.RelTol
	cd.MaxIter = ip.MaxIterations
	cd.OutDir = ip.OutputDir
	cd.Verbose = true
	if err := cd.Run(); err != nil {
		fmt.Printf("solve failed: %s\n", err.Error())
		os.Exit(1)
	}
	if ip.OutputDir != "" {
		title := ip.Title
		if title == "" {
			title = "study"
		}
		hist := filepath.Join(ip.OutputDir, "history.csv")
		if err := cd.WriteHistoryCSV(hist, title); err != nil {
			fmt.Printf("error writing %s: %s\n", hist, err.Error())
			os.Exit(1)
		}
	}
}

// applyBCOverrides routes markers named in the BCs section to the
// requested treatment, on top of the benchmark defaults.
func applyBCOverrides(pd *ConvDiff2D.PDEData, ip *InputParameters.InputParametersCD) {
	if len(ip.BCs) == 0 {
		return
	}
	if pd.BoundaryKind == nil {
		pd.BoundaryKind = make(map[int]ConvDiff2D.BCKind)
	}
	for name, markers := range ip.BCs {
		var kind ConvDiff2D.BCKind
		switch strings.ToLower(name) {
		case "dirichlet":
			kind = ConvDiff2D.BCDirichlet
		case "neumann":
			kind = ConvDiff2D.BCNeumann
		default:
			fmt.Printf("error: unknown BC type %q, want Dirichlet or Neumann\n", name)
			os.Exit(1)
		}
		for _, m := range markers {
			pd.BoundaryKind[m] = kind
		}
	}
}
