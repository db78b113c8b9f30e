package ConvDiff2D

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"sync"

	"github.com/skelfem/hdgcd/geometry2D"
	"github.com/skelfem/hdgcd/utils"
)

/*
	DiscretizationContext holds the per cycle state of the hybrid
	discretization: the space definition on the current mesh, the local
	assembler, the constraint collaborator, the global skeleton system
	and the three solution vectors.

	The lifecycle on each mesh is
		NewDiscretizationContext -> AssembleGlobal -> Solve ->
		Reconstruct -> PostProcess
	and nothing is reused across cycles, a refinement builds a fresh
	context.
*/
type DiscretizationContext struct {
	SD *SpaceDefinition
	PD *PDEData
	LA *LocalAssembler
	AC *AffineConstraints
	GA *GlobalAssembler

	Trace utils.Vector // Skeleton solution
	Local utils.Vector // Interior solution, flux then primal per element
	Post  utils.Vector // Recovery solution

	Iterations int // Krylov iterations of the last solve
	Residual   float64
}

func NewDiscretizationContext(P int, mesh *geometry2D.QuadMesh, pd *PDEData) (c *DiscretizationContext, err error) {
	if pd.TauDiffusion <= 0. || pd.Diffusion <= 0. {
		err = fmt.Errorf("stabilization requires positive diffusion and tau weight, got kappa=%v, tau=%v",
			pd.Diffusion, pd.TauDiffusion)
		return
	}
	var sd *SpaceDefinition
	if sd, err = NewSpaceDefinition(P, mesh); err != nil {
		return
	}
	ac := NewAffineConstraints(sd.NSkeleton)
	if err = ProjectBoundaryValues(sd, pd, ac); err != nil {
		return
	}
	c = &DiscretizationContext{
		SD:    sd,
		PD:    pd,
		LA:    NewLocalAssembler(sd, pd),
		AC:    ac,
		GA:    NewGlobalAssembler(sd, ac),
		Trace: utils.NewVector(sd.NSkeleton),
		Local: utils.NewVector(sd.NInterior),
		Post:  utils.NewVector(sd.NPost),
	}
	return
}

// AssembleGlobal runs the element loop in parallel. Each worker owns a
// scratch block set, assembles and condenses its elements, and merges
// the condensed faces into the global system under the assembler lock.
func (c *DiscretizationContext) AssembleGlobal(nPar int) (err error) {
	var (
		pm   = utils.NewPartitionMap(nPar, c.SD.Mesh.K)
		wg   = sync.WaitGroup{}
		errs = make([]error, nPar)
	)
	for np := 0; np < nPar; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			var (
				scr        = NewScratch(c.SD)
				kMin, kMax = pm.GetBucketRange(np)
			)
			for k := kMin; k < kMax; k++ {
				c.LA.AssembleElement(k, c.Trace, false, scr)
				if e := Condense(scr); e != nil {
					errs[np] = fmt.Errorf("element %d: %w", k, e)
					return
				}
				c.GA.Accumulate(scr)
			}
		}(np)
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return
}

// Solve finalizes and solves the skeleton system, then pushes the
// constrained values back into the trace vector.
func (c *DiscretizationContext) Solve(relTol float64, maxIter int) (err error) {
	A := c.GA.Finalize()
	if maxIter <= 0 {
		maxIter = 10 * c.SD.NSkeleton
	}
	c.Trace, c.Iterations, c.Residual, err = SolveGMRES(A, c.GA.RHS, relTol, maxIter)
	if err != nil {
		return
	}
	c.AC.Distribute(c.Trace)
	return
}

// Reconstruct recovers the interior fields elementwise from the solved
// trace, in parallel over disjoint element ranges.
func (c *DiscretizationContext) Reconstruct(nPar int) (err error) {
	var (
		pm   = utils.NewPartitionMap(nPar, c.SD.Mesh.K)
		wg   = sync.WaitGroup{}
		errs = make([]error, nPar)
	)
	for np := 0; np < nPar; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			var (
				scr        = NewScratch(c.SD)
				kMin, kMax = pm.GetBucketRange(np)
			)
			for k := kMin; k < kMax; k++ {
				if e := c.ReconstructElement(k, scr); e != nil {
					errs[np] = e
					return
				}
			}
		}(np)
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return
}

// PostProcess runs the elementwise recovery solve, in parallel over
// disjoint element ranges.
func (c *DiscretizationContext) PostProcess(nPar int) (err error) {
	var (
		pp   = NewPostProcessor(c.SD)
		pm   = utils.NewPartitionMap(nPar, c.SD.Mesh.K)
		wg   = sync.WaitGroup{}
		errs = make([]error, nPar)
	)
	for np := 0; np < nPar; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			var (
				ps         = NewPostScratch(c.SD)
				kMin, kMax = pm.GetBucketRange(np)
			)
			for k := kMin; k < kMax; k++ {
				if e := pp.PostProcessElement(k, c.Local, c.Post, ps); e != nil {
					errs[np] = e
					return
				}
			}
		}(np)
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return
}

// ConvDiff drives the refinement study: assemble, solve, reconstruct and
// post process on a sequence of uniformly refined meshes, reporting the
// error history and convergence rates.
type ConvDiff struct {
	P       int
	Cycles  int
	RelTol  float64
	MaxIter int // 0 selects the size proportional default
	NPar    int // 0 selects NumCPU
	Verbose bool
	OutDir  string // When set, field output is written per cycle

	PD   *PDEData
	Mesh *geometry2D.QuadMesh

	History []CycleErrors
}

func NewConvDiff(P, cycles int, pd *PDEData, mesh *geometry2D.QuadMesh) (cd *ConvDiff) {
	cd = &ConvDiff{
		P:      P,
		Cycles: cycles,
		RelTol: 1.e-10,
		NPar:   runtime.NumCPU(),
		PD:     pd,
		Mesh:   mesh,
	}
	return
}

// Run executes the refinement cycles. The mesh held by the driver is
// replaced with its refinement after each cycle.
func (cd *ConvDiff) Run() (err error) {
	var (
		nPar = cd.NPar
		c    *DiscretizationContext
	)
	if nPar <= 0 {
		nPar = runtime.NumCPU()
	}
	if cd.Verbose {
		fmt.Printf("Hybrid solve, degree P=%d, %d cycles, %d goroutines\n",
			cd.P, cd.Cycles, nPar)
	}
	for cycle := 0; cycle < cd.Cycles; cycle++ {
		if cycle > 0 {
			cd.Mesh = cd.Mesh.RefineUniform()
		}
		if c, err = NewDiscretizationContext(cd.P, cd.Mesh, cd.PD); err != nil {
			return fmt.Errorf("cycle %d setup: %w", cycle, err)
		}
		if err = c.AssembleGlobal(nPar); err != nil {
			return fmt.Errorf("cycle %d assembly: %w", cycle, err)
		}
		if err = c.Solve(cd.RelTol, cd.MaxIter); err != nil {
			return fmt.Errorf("cycle %d solve: %w", cycle, err)
		}
		if err = c.Reconstruct(nPar); err != nil {
			return fmt.Errorf("cycle %d reconstruction: %w", cycle, err)
		}
		if err = c.PostProcess(nPar); err != nil {
			return fmt.Errorf("cycle %d recovery: %w", cycle, err)
		}
		ce := c.ComputeErrors()
		cd.History = append(cd.History, ce)
		if cd.Verbose {
			fmt.Printf("cycle %2d: cells %6d, skeleton dofs %8d, gmres %5d iters, resid %8.2e\n",
				cycle, ce.Cells, ce.SkeletonDOFs, c.Iterations, c.Residual)
		}
		if cd.OutDir != "" {
			if err = c.WriteFields(cd.OutDir, cycle); err != nil {
				return fmt.Errorf("cycle %d output: %w", cycle, err)
			}
		}
	}
	if cd.Verbose {
		cd.PrintHistory()
	}
	return
}

// PrintHistory prints the error table with observed convergence rates
// between successive uniform refinements.
func (cd *ConvDiff) PrintHistory() {
	fmt.Printf("%8s %10s %12s %7s %12s %7s %12s %7s\n",
		"cells", "dofs", "val L2", "rate", "grad L2", "rate", "post L2", "rate")
	for i, ce := range cd.History {
		rv, rg, rp := "    -", "    -", "    -"
		if i > 0 {
			prev := cd.History[i-1]
			rv = fmt.Sprintf("%5.2f", rate(prev.ValueL2, ce.ValueL2))
			rg = fmt.Sprintf("%5.2f", rate(prev.GradL2, ce.GradL2))
			rp = fmt.Sprintf("%5.2f", rate(prev.PostL2, ce.PostL2))
		}
		fmt.Printf("%8d %10d %12.4e %7s %12.4e %7s %12.4e %7s\n",
			ce.Cells, ce.SkeletonDOFs, ce.ValueL2, rv, ce.GradL2, rg, ce.PostL2, rp)
	}
}

func rate(coarse, fine float64) float64 {
	if coarse <= 0. || fine <= 0. {
		return 0.
	}
	return math.Log2(coarse / fine)
}

// WriteHistoryCSV appends the error history in the layout the convOrder
// tool consumes, one row per cycle.
func (cd *ConvDiff) WriteHistoryCSV(path, title string) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return
	}
	if st.Size() == 0 {
		if _, err = fmt.Fprintln(f, "Title,Cells,Order,ValueL2,GradL2,PostL2"); err != nil {
			return
		}
	}
	for _, ce := range cd.History {
		if _, err = fmt.Fprintf(f, "%s,%d,%d,%e,%e,%e\n",
			title, ce.Cells, cd.P, ce.ValueL2, ce.GradL2, ce.PostL2); err != nil {
			return
		}
	}
	return
}
