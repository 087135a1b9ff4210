package mesh

import (
	"fmt"
	"math"

	"github.com/exascience/pargo/parallel"
	"gonum.org/v1/gonum/mat"
)

// Spec holds the construction parameters of a single rectangular mesh.
//
// Rows and Cols count grid points including the one-cell boundary ring, so
// the interior spans [1, Rows-2] x [1, Cols-2]. Dx and Dy are the physical
// point spacings, Conductivity the thermal conductivity k of the material,
// and Source the volumetric power density q (zero for passive materials).
// Edges maps each side to its boundary condition; unspecified edges default
// to insulated.
type Spec struct {
	Rows, Cols         int
	Dx, Dy             float64
	Conductivity       float64
	Source             float64
	InitialTemperature float64
	Edges              map[Edge]BC
}

// Mesh is one homogeneous rectangular region of the heat-conduction domain.
// It owns its temperature field exclusively; neighboring meshes communicate
// only through the coupled-value slots written by a composite.
type Mesh struct {
	Spec

	// Double buffer for Jacobi relaxation. Step reads cur and writes next,
	// then swaps, so one step never observes its own updates.
	cur, next *mat.Dense

	// Per-edge coupled overlay. NaN marks cells not covered by any
	// interface, which fall back to the edge's declared condition.
	coupled [NumEdges][]float64
}

// New validates spec, allocates the field buffers and seeds them with the
// initial temperature, boundary ring included.
func New(spec Spec) (*Mesh, error) {
	// The convective ghost relation reaches two cells into the interior,
	// so each axis needs at least two interior lines.
	if spec.Rows < 4 || spec.Cols < 4 {
		return nil, fmt.Errorf("%w: grid %dx%d, need at least 4x4 including the boundary ring",
			ErrBadGeometry, spec.Rows, spec.Cols)
	}
	if spec.Dx <= 0 || spec.Dy <= 0 {
		return nil, fmt.Errorf("%w: spacing dx=%g dy=%g must be positive", ErrBadGeometry, spec.Dx, spec.Dy)
	}
	if spec.Conductivity <= 0 {
		return nil, fmt.Errorf("%w: conductivity %g must be positive", ErrBadGeometry, spec.Conductivity)
	}
	for e, bc := range spec.Edges {
		if e > EdgeTop {
			return nil, fmt.Errorf("%w: unsupported edge %d", ErrBadBoundary, e)
		}
		if bc.Type > BCConvective {
			return nil, fmt.Errorf("%w: unsupported condition type %d on edge %s", ErrBadBoundary, bc.Type, e)
		}
	}

	m := &Mesh{
		Spec: spec,
		cur:  mat.NewDense(spec.Rows, spec.Cols, nil),
		next: mat.NewDense(spec.Rows, spec.Cols, nil),
	}
	for i := 0; i < spec.Rows; i++ {
		cur := m.cur.RawRowView(i)
		nxt := m.next.RawRowView(i)
		for j := 0; j < spec.Cols; j++ {
			cur[j] = spec.InitialTemperature
			nxt[j] = spec.InitialTemperature
		}
	}
	m.ApplyBoundaryConditions()
	return m, nil
}

// edgeBC returns the declared condition for an edge, defaulting to insulated
func (m *Mesh) edgeBC(e Edge) BC {
	if bc, ok := m.Edges[e]; ok {
		return bc
	}
	return BC{Type: BCInsulated}
}

// EdgeLength returns the number of boundary cells along an edge, corners
// excluded
func (m *Mesh) EdgeLength(e Edge) int {
	if e == EdgeLeft || e == EdgeRight {
		return m.Rows - 2
	}
	return m.Cols - 2
}

// edgeCells maps a cell index along an edge to the grid coordinates of the
// ghost cell, the adjacent surface point, and the second interior point,
// plus the spacing normal to the edge.
func (m *Mesh) edgeCells(e Edge, i int) (gi, gj, si, sj, ti, tj int, step float64) {
	switch e {
	case EdgeLeft:
		r := i + 1
		return r, 0, r, 1, r, 2, m.Dx
	case EdgeRight:
		r, c := i+1, m.Cols-1
		return r, c, r, c - 1, r, c - 2, m.Dx
	case EdgeBottom:
		c := i + 1
		return 0, c, 1, c, 2, c, m.Dy
	default: // EdgeTop
		r, c := m.Rows-1, i+1
		return r, c, r - 1, c, r - 2, c, m.Dy
	}
}

// ApplyBoundaryConditions rewrites the boundary ring from the current
// interior values and the per-edge conditions. Cells covered by a coupled
// overlay are pinned to the value the composite deposited; remaining cells
// follow the declared condition:
//
//	fixed       ghost = value
//	insulated   ghost = surface           (mirror, zero normal gradient)
//	convective  ghost = second - 2*h*d*(surface - ambient)/k
//
// The convective relation is the ghost-cell discretization of Newton's law
// of cooling: the central-difference flux through the surface point balances
// h*(T_surface - T_ambient). Only this mesh's ring cells are mutated.
func (m *Mesh) ApplyBoundaryConditions() {
	for e := Edge(0); e < NumEdges; e++ {
		bc := m.edgeBC(e)
		slot := m.coupled[e]
		n := m.EdgeLength(e)
		for i := 0; i < n; i++ {
			gi, gj, si, sj, ti, tj, step := m.edgeCells(e, i)
			if slot != nil && !math.IsNaN(slot[i]) {
				m.cur.Set(gi, gj, slot[i])
				continue
			}
			switch bc.Type {
			case BCFixed:
				m.cur.Set(gi, gj, bc.Value)
			case BCInsulated:
				m.cur.Set(gi, gj, m.cur.At(si, sj))
			case BCConvective:
				surface := m.cur.At(si, sj)
				h := bc.coefficient(surface)
				ghost := m.cur.At(ti, tj) - 2*h*step*(surface-bc.Ambient)/m.Conductivity
				m.cur.Set(gi, gj, ghost)
			}
		}
	}

	// Corner cells never enter the 5-point stencil; average the two edge
	// neighbors so a full-field read-back stays sensible.
	r, c := m.Rows-1, m.Cols-1
	m.cur.Set(0, 0, 0.5*(m.cur.At(0, 1)+m.cur.At(1, 0)))
	m.cur.Set(0, c, 0.5*(m.cur.At(0, c-1)+m.cur.At(1, c)))
	m.cur.Set(r, 0, 0.5*(m.cur.At(r, 1)+m.cur.At(r-1, 0)))
	m.cur.Set(r, c, 0.5*(m.cur.At(r, c-1)+m.cur.At(r-1, c)))
}

// Step performs one Jacobi relaxation of all interior points and returns the
// maximum absolute temperature change. Every read comes from the frozen
// previous-iteration buffer, so the update is deterministic regardless of
// sweep order; row blocks run in parallel.
//
// The update is the 5-point finite-difference form of the steady-state heat
// equation with a volumetric source:
//
//	T' = [ (T_W+T_E)/dx^2 + (T_S+T_N)/dy^2 + q/k ] / ( 2/dx^2 + 2/dy^2 )
func (m *Mesh) Step() float64 {
	rows, cols := m.Rows, m.Cols
	rx := 1.0 / (m.Dx * m.Dx)
	ry := 1.0 / (m.Dy * m.Dy)
	src := m.Source / m.Conductivity
	denom := 2*rx + 2*ry

	delta := parallel.RangeReduceFloat64(
		1, rows-1, 0,
		func(low, high int) (maxd float64) {
			for i := low; i < high; i++ {
				cur := m.cur.RawRowView(i)
				below := m.cur.RawRowView(i - 1)
				above := m.cur.RawRowView(i + 1)
				nxt := m.next.RawRowView(i)
				for j := 1; j < cols-1; j++ {
					t := ((cur[j-1]+cur[j+1])*rx + (below[j]+above[j])*ry + src) / denom
					if d := math.Abs(t - cur[j]); d > maxd {
						maxd = d
					}
					nxt[j] = t
				}
			}
			return
		},
		math.Max,
	)

	// Carry the ring over so the swapped buffer holds a complete frame even
	// before the next ApplyBoundaryConditions.
	copy(m.next.RawRowView(0), m.cur.RawRowView(0))
	copy(m.next.RawRowView(rows-1), m.cur.RawRowView(rows-1))
	for i := 1; i < rows-1; i++ {
		cur := m.cur.RawRowView(i)
		nxt := m.next.RawRowView(i)
		nxt[0] = cur[0]
		nxt[cols-1] = cur[cols-1]
	}

	m.cur, m.next = m.next, m.cur
	return delta
}

// Temperature returns the current value at grid point (i, j), ring included
func (m *Mesh) Temperature(i, j int) float64 {
	return m.cur.At(i, j)
}

// Field returns a copy of the current temperature field
func (m *Mesh) Field() *mat.Dense {
	return mat.DenseCopyOf(m.cur)
}

// InteriorLine returns a copy of the temperatures on the interior line
// adjacent to an edge, ordered by increasing tangential coordinate. This is
// what a neighboring mesh sees across a shared interface.
func (m *Mesh) InteriorLine(e Edge) []float64 {
	n := m.EdgeLength(e)
	line := make([]float64, n)
	for i := 0; i < n; i++ {
		_, _, si, sj, _, _, _ := m.edgeCells(e, i)
		line[i] = m.cur.At(si, sj)
	}
	return line
}

// SetCoupled deposits an interface temperature into the boundary slot of
// cell i along an edge. ApplyBoundaryConditions pins the corresponding ghost
// cell to this value until it is overwritten by a later exchange.
func (m *Mesh) SetCoupled(e Edge, i int, value float64) {
	if m.coupled[e] == nil {
		slot := make([]float64, m.EdgeLength(e))
		for k := range slot {
			slot[k] = math.NaN()
		}
		m.coupled[e] = slot
	}
	m.coupled[e][i] = value
}
