package mesh

// BCType identifies the boundary condition applied along one edge of a Mesh
type BCType uint8

const (
	// BCFixed pins the edge cells to a prescribed temperature (Dirichlet)
	BCFixed BCType = iota

	// BCInsulated enforces zero heat flux normal to the edge (Neumann)
	BCInsulated

	// BCConvective models heat loss to an ambient fluid via Newton's law
	// of cooling, parameterized by a heat-transfer coefficient
	BCConvective
)

// String returns the string representation of a BCType
func (t BCType) String() string {
	switch t {
	case BCFixed:
		return "Fixed"
	case BCInsulated:
		return "Insulated"
	case BCConvective:
		return "Convective"
	}
	return "Unknown"
}

// Edge identifies one side of the rectangular grid
type Edge uint8

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeBottom
	EdgeTop
)

// NumEdges is the number of edges of a rectangular mesh
const NumEdges = 4

// String returns the string representation of an Edge
func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "Left"
	case EdgeRight:
		return "Right"
	case EdgeBottom:
		return "Bottom"
	case EdgeTop:
		return "Top"
	}
	return "Unknown"
}

// Opposite returns the edge facing e across a shared interface
func (e Edge) Opposite() Edge {
	switch e {
	case EdgeLeft:
		return EdgeRight
	case EdgeRight:
		return EdgeLeft
	case EdgeBottom:
		return EdgeTop
	default:
		return EdgeBottom
	}
}

// BC describes the boundary condition for a single edge.
//
// For BCFixed only Value is read. For BCConvective, Ambient gives the fluid
// temperature and H the heat-transfer coefficient; when HFunc is non-nil it
// supersedes H and is evaluated at the adjacent surface temperature, which
// models temperature-dependent natural convection.
type BC struct {
	Type    BCType
	Value   float64
	Ambient float64
	H       float64
	HFunc   func(surface float64) float64
}

// coefficient resolves the effective heat-transfer coefficient for the
// current surface temperature
func (bc BC) coefficient(surface float64) float64 {
	if bc.HFunc != nil {
		return bc.HFunc(surface)
	}
	return bc.H
}
