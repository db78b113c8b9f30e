package ConvDiff2D

import (
	"fmt"
	"sort"

	"github.com/skelfem/hdgcd/DG2D"
	"github.com/skelfem/hdgcd/utils"
)

/*
	AffineConstraints is the constraint distribution collaborator of the
	skeleton system. Each constrained trace DOF carries a line

		x[dof] = inhomogeneity + sum_e coeff_e * x[column_e]

	covering both strong Dirichlet values (empty entry list, nonzero
	inhomogeneity) and hanging node continuity at non-conforming
	refinement interfaces (entry list over the coarse-side masters).
	DistributeLocalToGlobal resolves constrained rows and columns while
	accumulating a condensed contribution; Distribute expands constrained
	DOFs after the solve, before any field is read back.
*/

type ConstraintEntry struct {
	Column int
	Coeff  float64
}

type constraintLine struct {
	entries       []ConstraintEntry
	inhomogeneity float64
}

type AffineConstraints struct {
	n     int
	lines map[int]*constraintLine
}

func NewAffineConstraints(n int) (ac *AffineConstraints) {
	ac = &AffineConstraints{
		n:     n,
		lines: make(map[int]*constraintLine),
	}
	return
}

func (ac *AffineConstraints) AddLine(dof int) {
	if _, exists := ac.lines[dof]; !exists {
		ac.lines[dof] = &constraintLine{}
	}
}

func (ac *AffineConstraints) AddEntry(dof, column int, coeff float64) {
	line, exists := ac.lines[dof]
	if !exists {
		panic(fmt.Errorf("AddEntry on dof %d without a line", dof))
	}
	line.entries = append(line.entries, ConstraintEntry{Column: column, Coeff: coeff})
}

func (ac *AffineConstraints) SetInhomogeneity(dof int, val float64) {
	line, exists := ac.lines[dof]
	if !exists {
		panic(fmt.Errorf("SetInhomogeneity on dof %d without a line", dof))
	}
	line.inhomogeneity = val
}

func (ac *AffineConstraints) IsConstrained(dof int) bool {
	_, exists := ac.lines[dof]
	return exists
}

func (ac *AffineConstraints) NConstrained() int { return len(ac.lines) }

// ConstrainedDOFs returns the constrained indices in ascending order.
func (ac *AffineConstraints) ConstrainedDOFs() (dofs []int) {
	dofs = make([]int, 0, len(ac.lines))
	for dof := range ac.lines {
		dofs = append(dofs, dof)
	}
	sort.Ints(dofs)
	return
}

// DistributeLocalToGlobal accumulates a local contribution into the
// global matrix and right hand side, eliminating constrained rows and
// columns on the fly. dofs maps local to global indices.
func (ac *AffineConstraints) DistributeLocalToGlobal(cellMat utils.Matrix,
	cellVec utils.Vector, dofs []int, M utils.DOK, rhs utils.Vector) {
	var (
		n = len(dofs)
	)
	for i := 0; i < n; i++ {
		gi := dofs[i]
		lineI := ac.lines[gi]
		// Resolve the row: unconstrained rows map to themselves,
		// constrained rows distribute to their masters
		rowTargets := ac.resolve(gi, lineI)
		for _, rt := range rowTargets {
			rhs.DataP[rt.Column] += rt.Coeff * cellVec.DataP[i]
		}
		for j := 0; j < n; j++ {
			gj := dofs[j]
			lineJ := ac.lines[gj]
			val := cellMat.At(i, j)
			if val == 0. {
				continue
			}
			colTargets := ac.resolve(gj, lineJ)
			for _, rt := range rowTargets {
				for _, ct := range colTargets {
					M.AddAt(rt.Column, ct.Column, rt.Coeff*ct.Coeff*val)
				}
				if lineJ != nil {
					// The column's inhomogeneity moves to the rhs
					rhs.DataP[rt.Column] -= rt.Coeff * val * lineJ.inhomogeneity
				}
			}
		}
	}
}

var selfTarget = ConstraintEntry{Coeff: 1.}

func (ac *AffineConstraints) resolve(g int, line *constraintLine) []ConstraintEntry {
	if line == nil {
		self := selfTarget
		self.Column = g
		return []ConstraintEntry{self}
	}
	return line.entries
}

// CloseSystem writes the placeholder rows of constrained DOFs so the
// global matrix stays regular: unit diagonal, inhomogeneity on the rhs.
// Hanging DOFs get a zero rhs and their true value from Distribute.
func (ac *AffineConstraints) CloseSystem(M utils.DOK, rhs utils.Vector) {
	for dof, line := range ac.lines {
		M.Set(dof, dof, 1.)
		if len(line.entries) == 0 {
			rhs.DataP[dof] = line.inhomogeneity
		} else {
			rhs.DataP[dof] = 0.
		}
	}
}

// Distribute expands every constrained DOF of x into its full value.
// Must be called after the linear solve and before any readback.
func (ac *AffineConstraints) Distribute(x utils.Vector) {
	for dof, line := range ac.lines {
		val := line.inhomogeneity
		for _, e := range line.entries {
			val += e.Coeff * x.DataP[e.Column]
		}
		x.DataP[dof] = val
	}
}

// ProjectBoundaryValues installs strong Dirichlet constraints on every
// boundary face whose marker maps to Dirichlet treatment, via the L2
// projection of the boundary data onto the face trace space. Skeleton
// DOFs are face local, so the per face projection is exact and
// independent across faces.
func ProjectBoundaryValues(sd *SpaceDefinition, pd *PDEData, ac *AffineConstraints) (err error) {
	var (
		nF   = sd.NpFace
		rule = DG2D.NewGaussRule(sd.NpFace + 1) // One extra point for the data integrand
		mass = utils.NewMatrix(nF, nF)
		load = utils.NewVector(nF)
	)
	for f := range sd.Mesh.Faces {
		face := &sd.Mesh.Faces[f]
		if !face.OnBoundary || pd.KindOf(face.BCMarker) != BCDirichlet {
			continue
		}
		var (
			xa, ya = sd.Mesh.VX[face.Verts[0]], sd.Mesh.VY[face.Verts[0]]
			xb, yb = sd.Mesh.VX[face.Verts[1]], sd.Mesh.VY[face.Verts[1]]
		)
		mass.Zero()
		load.Zero()
		for q := 0; q < rule.N; q++ {
			var (
				t    = rule.X[q]
				x, y = xa + t*(xb-xa), ya + t*(yb-ya)
				gval = pd.BoundaryValue(face.BCMarker, x, y)
				w    = rule.W[q] // Face length cancels from both sides
			)
			for i := 0; i < nF; i++ {
				vi := sd.TraceB.Eval(i, t)
				for j := 0; j < nF; j++ {
					mass.AddAt(i, j, vi*sd.TraceB.Eval(j, t)*w)
				}
				load.DataP[i] += vi * gval * w
			}
		}
		massInv, ierr := mass.Inverse()
		if ierr != nil {
			err = fmt.Errorf("boundary projection mass matrix singular on face %d: %w", f, ierr)
			return
		}
		vals := massInv.MulVec(load)
		for i := 0; i < nF; i++ {
			dof := sd.SkeletonDOF(f, i)
			ac.AddLine(dof)
			ac.SetInhomogeneity(dof, vals.DataP[i])
		}
	}
	return
}
