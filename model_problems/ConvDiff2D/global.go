package ConvDiff2D

import (
	"sync"

	"github.com/skelfem/hdgcd/utils"
)

// GlobalAssembler owns the skeleton only global system for one
// refinement cycle. Element contributions arrive from concurrent
// assembly workers; the accumulation itself is serialized because
// elements sharing a face write overlapping entries.
type GlobalAssembler struct {
	SD  *SpaceDefinition
	AC  *AffineConstraints
	M   utils.DOK
	RHS utils.Vector

	mu sync.Mutex
}

func NewGlobalAssembler(sd *SpaceDefinition, ac *AffineConstraints) (ga *GlobalAssembler) {
	ga = &GlobalAssembler{
		SD:  sd,
		AC:  ac,
		M:   utils.NewDOK(sd.NSkeleton, sd.NSkeleton),
		RHS: utils.NewVector(sd.NSkeleton),
	}
	return
}

// Accumulate merges one element's condensed contribution through the
// constraint collaborator. Safe for concurrent callers; the scratch
// blocks are only read under the lock, so the caller may reuse them as
// soon as Accumulate returns.
func (ga *GlobalAssembler) Accumulate(scr *Scratch) {
	ga.mu.Lock()
	defer ga.mu.Unlock()
	ga.AC.DistributeLocalToGlobal(scr.FF, scr.FRHS, scr.Dofs, ga.M, ga.RHS)
}

// Finalize writes the constrained placeholder rows and hands back the
// compressed matrix for the solve.
func (ga *GlobalAssembler) Finalize() utils.CSR {
	ga.AC.CloseSystem(ga.M, ga.RHS)
	return ga.M.ToCSR()
}
