package ConvDiff2D

import (
	"fmt"

	"github.com/skelfem/hdgcd/utils"
)

/*
	Static condensation: with the fully populated local blocks

		[ LL  LF ] [u_local] = [l_rhs]
		[ FL  FF ] [lambda ]   [f_rhs]

	the interior unknowns are eliminated exactly, leaving the skeleton
	only Schur complement

		FF' = FF - FL LL^-1 LF,   f' = f_rhs - FL LL^-1 l_rhs

	which is all that reaches global assembly. LL is overwritten by its
	own inverse; the reconstruction pass reuses the same inverse
	operation to recover u_local = LL^-1 l_rhs.
*/

// Condense eliminates the interior block in place. After return scr.FF
// holds the Schur complement, scr.FRHS the corrected right hand side and
// scr.LL its own inverse. A singular LL is fatal for the cycle: tau > 0
// guarantees invertibility, so a failure here means malformed PDE data
// or degenerate geometry.
func Condense(scr *Scratch) (err error) {
	if err = invertLL(scr); err != nil {
		return
	}
	// TM = FL * LL^-1
	scr.TM.M.Mul(scr.FL.M, scr.LL.M)
	// FF -= TM * LF
	scr.TT.M.Mul(scr.TM.M, scr.LF.M)
	scr.FF.Subtract(scr.TT)
	// f_rhs -= TM * l_rhs, accumulated directly to avoid allocation
	var (
		nF, nL = scr.TM.Dims()
		tm     = scr.TM.DataP
	)
	for i := 0; i < nF; i++ {
		var sum float64
		row := tm[i*nL : (i+1)*nL]
		for j, val := range row {
			sum += val * scr.LRHS.DataP[j]
		}
		scr.FRHS.DataP[i] -= sum
	}
	if utils.IsNan(scr.FF.DataP) || utils.IsNan(scr.FRHS.DataP) {
		err = fmt.Errorf("non-finite condensed block, local contribution is not well posed")
	}
	return
}

func invertLL(scr *Scratch) (err error) {
	if scr.hasInverse {
		return
	}
	if err = scr.LL.InverseInPlace(scr.iPiv, scr.work); err != nil {
		err = fmt.Errorf("singular local block: %w", err)
		return
	}
	scr.hasInverse = true
	return
}

// CondenseBlocks is the allocating reference form over caller supplied
// blocks, used by the verification tests and kept deliberately close to
// the textbook formula.
func CondenseBlocks(LL, LF, FL, FF utils.Matrix, lRHS, fRHS utils.Vector) (FFc utils.Matrix, fc utils.Vector, err error) {
	LLinv, err := LL.Inverse()
	if err != nil {
		err = fmt.Errorf("singular local block: %w", err)
		return
	}
	TM := FL.Mul(LLinv)
	FFc = FF.Copy()
	FFc.Subtract(TM.Mul(LF))
	fc = fRHS.Copy()
	fc.Subtract(TM.MulVec(lRHS))
	return
}
