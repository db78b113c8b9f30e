package geometry2D

import (
	"fmt"
)

/*
	Structured Cartesian mesh of axis aligned quadrilateral elements over a
	rectangular domain. Elements and faces are numbered row-major from the
	lower left corner.

	Local face ordering per element, with outward unit normals:
		0: south (0,-1)   1: east (1,0)   2: north (0,1)   3: west (-1,0)

	Every face carries a single orientation shared by both adjacent
	elements: vertical faces are parameterized along +y, horizontal faces
	along +x, so trace quantities on a face are seen identically from both
	sides.
*/

type Face struct {
	Verts      [2]int // Ordered by increasing coordinate along the face
	EL, ER     int    // Adjacent elements, ER = -1 on the domain boundary
	Vertical   bool   // true: normal is +-x, parameterized along +y
	OnBoundary bool
	BCMarker   int // Meaningful only for boundary faces
}

type QuadMesh struct {
	K          int // Number of elements
	Nx, Ny     int
	XMin, XMax float64
	YMin, YMax float64
	VX, VY     []float64
	EToV       [][4]int // Counterclockwise: SW, SE, NE, NW
	Faces      []Face
	EToF       [][4]int // Element -> global face, local face ordering above

	markerFunc func(xmid, ymid float64) int // Retained for refinement
}

// NewQuadMesh builds an nx x ny element mesh of the rectangle
// [xMin,xMax] x [yMin,yMax]. All boundary faces get marker 0; use
// MarkBoundary to install a marker assignment.
func NewQuadMesh(nx, ny int, xMin, xMax, yMin, yMax float64) (m *QuadMesh) {
	if nx < 1 || ny < 1 {
		panic(fmt.Errorf("invalid mesh dimensions: nx,ny = %d,%d", nx, ny))
	}
	if xMax <= xMin || yMax <= yMin {
		panic(fmt.Errorf("invalid domain bounds: [%v,%v]x[%v,%v]", xMin, xMax, yMin, yMax))
	}
	m = &QuadMesh{
		K:    nx * ny,
		Nx:   nx,
		Ny:   ny,
		XMin: xMin,
		XMax: xMax,
		YMin: yMin,
		YMax: yMax,
	}
	var (
		hx = (xMax - xMin) / float64(nx)
		hy = (yMax - yMin) / float64(ny)
	)
	// Vertices, (nx+1) x (ny+1), row-major from the lower left
	m.VX = make([]float64, (nx+1)*(ny+1))
	m.VY = make([]float64, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			v := i + j*(nx+1)
			m.VX[v] = xMin + float64(i)*hx
			m.VY[v] = yMin + float64(j)*hy
		}
	}
	vid := func(i, j int) int { return i + j*(nx+1) }
	m.EToV = make([][4]int, m.K)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			k := i + j*nx
			m.EToV[k] = [4]int{vid(i, j), vid(i+1, j), vid(i+1, j+1), vid(i, j+1)}
		}
	}
	m.buildFaces()
	return
}

func (m *QuadMesh) buildFaces() {
	var (
		nx, ny = m.Nx, m.Ny
	)
	vid := func(i, j int) int { return i + j*(nx+1) }
	eid := func(i, j int) int {
		if i < 0 || i >= nx || j < 0 || j >= ny {
			return -1
		}
		return i + j*nx
	}
	// Vertical faces first: (nx+1) columns x ny rows, then horizontal:
	// nx columns x (ny+1) rows
	nVert := (nx + 1) * ny
	nHorz := nx * (ny + 1)
	m.Faces = make([]Face, nVert+nHorz)
	for j := 0; j < ny; j++ {
		for i := 0; i <= nx; i++ {
			f := i + j*(nx+1)
			left, right := eid(i-1, j), eid(i, j)
			fc := Face{
				Verts:    [2]int{vid(i, j), vid(i, j+1)},
				Vertical: true,
			}
			// EL is the element whose outward normal agrees with +x
			if left != -1 {
				fc.EL, fc.ER = left, right
			} else {
				fc.EL, fc.ER = right, -1
			}
			if left == -1 || right == -1 {
				fc.OnBoundary = true
			}
			m.Faces[f] = fc
		}
	}
	for j := 0; j <= ny; j++ {
		for i := 0; i < nx; i++ {
			f := nVert + i + j*nx
			below, above := eid(i, j-1), eid(i, j)
			fc := Face{
				Verts: [2]int{vid(i, j), vid(i+1, j)},
			}
			if below != -1 {
				fc.EL, fc.ER = below, above
			} else {
				fc.EL, fc.ER = above, -1
			}
			if below == -1 || above == -1 {
				fc.OnBoundary = true
			}
			m.Faces[f] = fc
		}
	}
	m.EToF = make([][4]int, m.K)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			k := i + j*nx
			south := nVert + i + j*nx
			north := nVert + i + (j+1)*nx
			west := i + j*(nx+1)
			east := i + 1 + j*(nx+1)
			m.EToF[k] = [4]int{south, east, north, west}
		}
	}
}

// MarkBoundary assigns a boundary marker to every boundary face from the
// face midpoint. Interior faces are untouched. The assignment survives
// uniform refinement.
func (m *QuadMesh) MarkBoundary(markerFunc func(xmid, ymid float64) int) {
	m.markerFunc = markerFunc
	for f := range m.Faces {
		fc := &m.Faces[f]
		if !fc.OnBoundary {
			continue
		}
		xmid := 0.5 * (m.VX[fc.Verts[0]] + m.VX[fc.Verts[1]])
		ymid := 0.5 * (m.VY[fc.Verts[0]] + m.VY[fc.Verts[1]])
		fc.BCMarker = markerFunc(xmid, ymid)
	}
}

// RefineUniform halves the element size in each direction, producing a
// conforming mesh with four children per parent element.
func (m *QuadMesh) RefineUniform() (r *QuadMesh) {
	r = NewQuadMesh(2*m.Nx, 2*m.Ny, m.XMin, m.XMax, m.YMin, m.YMax)
	if m.markerFunc != nil {
		r.MarkBoundary(m.markerFunc)
	}
	return
}

// ElementBounds returns the lower left corner and the side lengths of
// element k.
func (m *QuadMesh) ElementBounds(k int) (x0, y0, hx, hy float64) {
	var (
		sw = m.EToV[k][0]
		ne = m.EToV[k][2]
	)
	x0, y0 = m.VX[sw], m.VY[sw]
	hx, hy = m.VX[ne]-x0, m.VY[ne]-y0
	return
}

// FaceNormal returns the outward unit normal of local face lf. Axis
// aligned elements share one normal per local face.
func FaceNormal(lf int) (nx, ny float64) {
	switch lf {
	case 0:
		return 0, -1
	case 1:
		return 1, 0
	case 2:
		return 0, 1
	case 3:
		return -1, 0
	}
	panic(fmt.Errorf("invalid local face %d", lf))
}

// FaceLength returns the physical length of local face lf of element k.
func (m *QuadMesh) FaceLength(k, lf int) float64 {
	_, _, hx, hy := m.ElementBounds(k)
	if lf == 0 || lf == 2 {
		return hx
	}
	return hy
}

// MinDiameter returns the smallest element side length, the h used in
// convergence reporting.
func (m *QuadMesh) MinDiameter() float64 {
	hx := (m.XMax - m.XMin) / float64(m.Nx)
	hy := (m.YMax - m.YMin) / float64(m.Ny)
	if hx < hy {
		return hx
	}
	return hy
}
