package composite

import (
	"fmt"
	"math"

	"github.com/notargets/chiptherm/mesh"
)

// edgeGeometry describes one side of a placed mesh in physical coordinates:
// where its boundary cells sit along the shared (tangential) axis, and where
// its ghost line and adjacent surface line sit on the normal axis.
type edgeGeometry struct {
	TangStart  float64 // Physical coordinate of the first boundary cell
	TangStep   float64 // Spacing along the edge
	N          int     // Number of boundary cells (corners excluded)
	Ghost      float64 // Normal coordinate of the ghost line
	Surface    float64 // Normal coordinate of the adjacent interior line
	NormalStep float64 // Spacing normal to the edge
}

// geometryOf resolves the physical geometry of one edge of a placement. The
// placement origin (X0, Y0) is the position of the first interior point.
func geometryOf(p Placement, e mesh.Edge) edgeGeometry {
	rows, cols := p.Mesh.Rows, p.Mesh.Cols
	dx, dy := p.Mesh.Dx, p.Mesh.Dy
	switch e {
	case mesh.EdgeLeft:
		return edgeGeometry{
			TangStart: p.Y0, TangStep: dy, N: rows - 2,
			Ghost: p.X0 - dx, Surface: p.X0, NormalStep: dx,
		}
	case mesh.EdgeRight:
		return edgeGeometry{
			TangStart: p.Y0, TangStep: dy, N: rows - 2,
			Ghost:   p.X0 + float64(cols-2)*dx,
			Surface: p.X0 + float64(cols-3)*dx, NormalStep: dx,
		}
	case mesh.EdgeBottom:
		return edgeGeometry{
			TangStart: p.X0, TangStep: dx, N: cols - 2,
			Ghost: p.Y0 - dy, Surface: p.Y0, NormalStep: dy,
		}
	default: // mesh.EdgeTop
		return edgeGeometry{
			TangStart: p.X0, TangStep: dx, N: cols - 2,
			Ghost:   p.Y0 + float64(rows-2)*dy,
			Surface: p.Y0 + float64(rows-3)*dy, NormalStep: dy,
		}
	}
}

// link maps one receiving ghost cell to a linear interpolation between two
// adjacent source surface cells: value = (1-w)*line[src] + w*line[src+1]
type link struct {
	recv int
	src  int
	w    float64
}

// direction holds the precomputed transfer table for one side of an
// interface: source surface temperatures flow into the receiver's coupled
// boundary slots.
type direction struct {
	recv     *mesh.Mesh
	recvEdge mesh.Edge
	src      *mesh.Mesh
	srcEdge  mesh.Edge
	links    []link
}

// connector couples two mesh edges across a shared interface. Both transfer
// tables are built once at construction; the per-iteration exchange is a
// table walk with no geometry arithmetic.
type connector struct {
	ab direction // a receives from b
	ba direction // b receives from a
}

// buildLinks computes the transfer table from a source edge to a receiving
// edge. Receiver cells beyond the source extent (plus half a cell of slack)
// are skipped: they stay governed by the receiver's declared boundary
// condition, which is how a wide mesh couples to a narrower neighbor along
// part of its edge.
func buildLinks(recv, src edgeGeometry) []link {
	links := make([]link, 0, recv.N)
	for i := 0; i < recv.N; i++ {
		x := recv.TangStart + float64(i)*recv.TangStep
		s := (x - src.TangStart) / src.TangStep
		if s < -0.5 || s > float64(src.N-1)+0.5 {
			continue
		}
		s = math.Max(0, math.Min(s, float64(src.N-1)))
		k := int(math.Floor(s))
		if k > src.N-2 {
			k = src.N - 2
		}
		links = append(links, link{recv: i, src: k, w: s - float64(k)})
	}
	return links
}

// newConnector validates that two placed edges form a geometrically
// compatible interface and builds the bidirectional transfer tables.
func newConnector(a Placement, ea mesh.Edge, b Placement, eb mesh.Edge) (*connector, error) {
	if ea.Opposite() != eb {
		return nil, fmt.Errorf("%w: edges %s and %s do not face each other", ErrBadInterface, ea, eb)
	}
	ga := geometryOf(a, ea)
	gb := geometryOf(b, eb)

	// Each mesh's ghost line must land on the neighbor's surface line, so
	// the exchanged Dirichlet value sits at the right physical position.
	// This requires matching normal spacing; resolutions may still differ
	// along the edge.
	slack := 0.5 * math.Min(ga.NormalStep, gb.NormalStep)
	if math.Abs(ga.Ghost-gb.Surface) > slack || math.Abs(gb.Ghost-ga.Surface) > slack {
		return nil, fmt.Errorf("%w: edges %s and %s are not adjacent (ghost lines at %g and %g, surfaces at %g and %g)",
			ErrBadInterface, ea, eb, ga.Ghost, gb.Ghost, ga.Surface, gb.Surface)
	}

	ab := direction{recv: a.Mesh, recvEdge: ea, src: b.Mesh, srcEdge: eb, links: buildLinks(ga, gb)}
	ba := direction{recv: b.Mesh, recvEdge: eb, src: a.Mesh, srcEdge: ea, links: buildLinks(gb, ga)}
	if len(ab.links) == 0 || len(ba.links) == 0 {
		return nil, fmt.Errorf("%w: edges %s and %s do not overlap along the shared axis", ErrBadInterface, ea, eb)
	}
	return &connector{ab: ab, ba: ba}, nil
}

// exchange transfers the previous-iteration surface temperatures in one
// direction, depositing them as coupled Dirichlet values on the receiver.
func (d *direction) exchange() {
	line := d.src.InteriorLine(d.srcEdge)
	for _, l := range d.links {
		v := (1-l.w)*line[l.src] + l.w*line[l.src+1]
		d.recv.SetCoupled(d.recvEdge, l.recv, v)
	}
}
