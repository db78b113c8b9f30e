package ConvDiff2D

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

/*
	Field output in legacy ASCII VTK, one file per cycle for the element
	fields and one for the skeleton trace. Element fields are written as
	disconnected quads with the corner values of each element, so the
	discontinuous nature of the interior spaces survives into the plot.
	The skeleton file carries the faces as line cells with the trace
	endpoint values.
*/

// WriteFields writes the interior, recovery and skeleton solutions of
// the current cycle under dir.
func (c *DiscretizationContext) WriteFields(dir string, cycle int) (err error) {
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	if err = c.writeCellFields(filepath.Join(dir, fmt.Sprintf("solution-%02d.vtk", cycle))); err != nil {
		return
	}
	err = c.writeSkeleton(filepath.Join(dir, fmt.Sprintf("skeleton-%02d.vtk", cycle)))
	return
}

func (c *DiscretizationContext) writeCellFields(name string) (err error) {
	var (
		sd = c.SD
		K  = sd.Mesh.K
	)
	f, err := os.Create(name)
	if err != nil {
		return
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	// Corner reference coordinates of the quad, VTK_QUAD order
	corners := [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	var rr, ss [4]float64
	for i, cc := range corners {
		rr[i], ss[i] = cc[0], cc[1]
	}
	V, _, _ := sd.Element.EvalBasis(rr[:], ss[:])
	PV, _, _ := sd.PostElement.EvalBasis(rr[:], ss[:])

	fmt.Fprintf(w, "# vtk DataFile Version 3.0\nhybrid cell fields\nASCII\nDATASET UNSTRUCTURED_GRID\n")
	fmt.Fprintf(w, "POINTS %d double\n", 4*K)
	for k := 0; k < K; k++ {
		x0, y0, hx, hy := sd.Mesh.ElementBounds(k)
		for _, cc := range corners {
			fmt.Fprintf(w, "%g %g 0\n", x0+hx*cc[0], y0+hy*cc[1])
		}
	}
	fmt.Fprintf(w, "CELLS %d %d\n", K, 5*K)
	for k := 0; k < K; k++ {
		fmt.Fprintf(w, "4 %d %d %d %d\n", 4*k, 4*k+1, 4*k+2, 4*k+3)
	}
	fmt.Fprintf(w, "CELL_TYPES %d\n", K)
	for k := 0; k < K; k++ {
		fmt.Fprintln(w, 9) // VTK_QUAD
	}

	fmt.Fprintf(w, "POINT_DATA %d\n", 4*K)
	writeScalar := func(title string, eval func(k, q int) float64) {
		fmt.Fprintf(w, "SCALARS %s double 1\nLOOKUP_TABLE default\n", title)
		for k := 0; k < K; k++ {
			for q := 0; q < 4; q++ {
				fmt.Fprintf(w, "%g\n", eval(k, q))
			}
		}
	}
	evalLocal := func(k, q, ofs int) (sum float64) {
		base := sd.InteriorDOF(k, 0)
		row := V.DataP[q*sd.Np : (q+1)*sd.Np]
		for m := 0; m < sd.Np; m++ {
			sum += row[m] * c.Local.DataP[base+ofs+m]
		}
		return
	}
	writeScalar("u", func(k, q int) float64 { return evalLocal(k, q, sd.Primal(0)) })
	writeScalar("u_post", func(k, q int) (sum float64) {
		pbase := sd.PostDOF(k, 0)
		row := PV.DataP[q*sd.NpPost : (q+1)*sd.NpPost]
		for m := 0; m < sd.NpPost; m++ {
			sum += row[m] * c.Post.DataP[pbase+m]
		}
		return
	})
	fmt.Fprintf(w, "VECTORS flux double\n")
	for k := 0; k < K; k++ {
		for q := 0; q < 4; q++ {
			fmt.Fprintf(w, "%g %g 0\n", evalLocal(k, q, sd.FluxX(0)), evalLocal(k, q, sd.FluxY(0)))
		}
	}
	return
}

func (c *DiscretizationContext) writeSkeleton(name string) (err error) {
	var (
		sd = c.SD
		nf = len(sd.Mesh.Faces)
	)
	f, err := os.Create(name)
	if err != nil {
		return
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	fmt.Fprintf(w, "# vtk DataFile Version 3.0\nskeleton trace\nASCII\nDATASET UNSTRUCTURED_GRID\n")
	fmt.Fprintf(w, "POINTS %d double\n", 2*nf)
	for i := range sd.Mesh.Faces {
		face := &sd.Mesh.Faces[i]
		fmt.Fprintf(w, "%g %g 0\n", sd.Mesh.VX[face.Verts[0]], sd.Mesh.VY[face.Verts[0]])
		fmt.Fprintf(w, "%g %g 0\n", sd.Mesh.VX[face.Verts[1]], sd.Mesh.VY[face.Verts[1]])
	}
	fmt.Fprintf(w, "CELLS %d %d\n", nf, 3*nf)
	for i := 0; i < nf; i++ {
		fmt.Fprintf(w, "2 %d %d\n", 2*i, 2*i+1)
	}
	fmt.Fprintf(w, "CELL_TYPES %d\n", nf)
	for i := 0; i < nf; i++ {
		fmt.Fprintln(w, 3) // VTK_LINE
	}
	fmt.Fprintf(w, "POINT_DATA %d\nSCALARS lambda double 1\nLOOKUP_TABLE default\n", 2*nf)
	for i := 0; i < nf; i++ {
		// Trace endpoint values, the first and last Lagrange coefficients
		fmt.Fprintf(w, "%g\n", c.Trace.DataP[sd.SkeletonDOF(i, 0)])
		fmt.Fprintf(w, "%g\n", c.Trace.DataP[sd.SkeletonDOF(i, sd.NpFace-1)])
	}
	return
}
