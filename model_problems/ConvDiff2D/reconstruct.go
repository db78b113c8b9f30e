package ConvDiff2D

import (
	"fmt"
)

// ReconstructElement recovers the interior unknowns of element k from
// the solved skeleton trace: the assembler is re-run in reconstruct
// mode, then u_local = LL^-1 l_rhs is written into the interior solution
// vector at the element's interior DOFs. A purely local solve, the
// global system is never touched again.
func (c *DiscretizationContext) ReconstructElement(k int, scr *Scratch) (err error) {
	c.LA.AssembleElement(k, c.Trace, true, scr)
	if err = invertLL(scr); err != nil {
		err = fmt.Errorf("element %d: %w", k, err)
		return
	}
	var (
		nL = c.SD.NpLocal
		ll = scr.LL.DataP
	)
	for i := 0; i < nL; i++ {
		var sum float64
		row := ll[i*nL : (i+1)*nL]
		for j, val := range row {
			sum += val * scr.LRHS.DataP[j]
		}
		scr.ULocal.DataP[i] = sum
	}
	// Disjoint per element target range, safe without synchronization
	copy(c.Local.DataP[c.SD.InteriorDOF(k, 0):c.SD.InteriorDOF(k, nL)], scr.ULocal.DataP)
	return
}
