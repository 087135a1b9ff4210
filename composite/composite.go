// Package composite couples single-material meshes into one heat-conduction
// system and drives the global Jacobi iteration to convergence. Each
// sub-mesh remains an independent relaxation; coupling happens once per
// global iteration by exchanging interface temperatures, so every mesh sees
// its neighbors as previous-iteration Dirichlet boundaries.
package composite

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/chiptherm/mesh"
)

// Placement positions a mesh in the shared physical coordinate system.
// (X0, Y0) is the physical location of the mesh's first interior point.
type Placement struct {
	Mesh   *mesh.Mesh
	X0, Y0 float64
}

// Interface declares that an edge of placement A touches an edge of
// placement B. The geometric compatibility of the pair is validated at
// construction.
type Interface struct {
	A, B         int // Indices into the placement list
	EdgeA, EdgeB mesh.Edge
}

// Status reports the outcome of a solve
type Status uint8

const (
	// Converged means the global maximum per-step change fell below the
	// tolerance.
	Converged Status = iota

	// MaxIterationsReached means the iteration cap expired first. The
	// fields of the result still hold the last iterate.
	MaxIterationsReached
)

// String returns the string representation of a Status
func (s Status) String() string {
	if s == Converged {
		return "Converged"
	}
	return "MaxIterationsReached"
}

// Result holds the outcome of a solve: one field per placement in input
// order, the number of iterations performed, and the final global delta.
type Result struct {
	Fields     []*mat.Dense
	Iterations int
	Status     Status
	FinalDelta float64
}

// Composite owns a collection of placed meshes and the connectors built from
// the declared interfaces.
type Composite struct {
	Placements []Placement

	connectors []*connector
	progress   func(iteration int, delta float64)
	deltas     []float64
}

// New validates the layout and the declared interfaces, builds the interface
// transfer tables, and seeds the coupled boundary slots from the initial
// fields.
func New(placements []Placement, interfaces []Interface) (*Composite, error) {
	if len(placements) == 0 {
		return nil, fmt.Errorf("%w: no meshes", ErrBadLayout)
	}
	for i, p := range placements {
		if p.Mesh == nil {
			return nil, fmt.Errorf("%w: placement %d has no mesh", ErrBadLayout, i)
		}
	}

	c := &Composite{
		Placements: placements,
		deltas:     make([]float64, len(placements)),
	}
	for _, ifc := range interfaces {
		if ifc.A < 0 || ifc.A >= len(placements) || ifc.B < 0 || ifc.B >= len(placements) || ifc.A == ifc.B {
			return nil, fmt.Errorf("%w: interface references meshes %d and %d", ErrBadInterface, ifc.A, ifc.B)
		}
		conn, err := newConnector(placements[ifc.A], ifc.EdgeA, placements[ifc.B], ifc.EdgeB)
		if err != nil {
			return nil, fmt.Errorf("meshes %d<->%d: %w", ifc.A, ifc.B, err)
		}
		c.connectors = append(c.connectors, conn)
	}

	c.ExchangeInterfaces()
	return c, nil
}

// SetProgress installs an optional hook invoked synchronously after every
// global iteration. A nil hook disables reporting.
func (c *Composite) SetProgress(fn func(iteration int, delta float64)) {
	c.progress = fn
}

// ExchangeInterfaces walks every connector in both directions, interpolating
// the previous-iteration surface temperatures of each mesh into the coupled
// boundary slots of its neighbor. No mesh touches another mesh's field; all
// traffic goes through the deposited slot values.
func (c *Composite) ExchangeInterfaces() {
	for _, conn := range c.connectors {
		conn.ab.exchange()
		conn.ba.exchange()
	}
}

// Solve iterates all sub-meshes until the global maximum per-step change
// falls below tolerance, or until maxIterations is reached. Hitting the cap
// is reported through the result status, not as an error, so partial fields
// remain inspectable. A repeated Solve continues from the current fields.
func (c *Composite) Solve(maxIterations int, tolerance float64) (*Result, error) {
	if maxIterations <= 0 {
		return nil, fmt.Errorf("%w: maxIterations=%d", ErrBadSolve, maxIterations)
	}
	if tolerance <= 0 {
		return nil, fmt.Errorf("%w: tolerance=%g", ErrBadSolve, tolerance)
	}

	var global float64
	for it := 1; it <= maxIterations; it++ {
		for _, p := range c.Placements {
			p.Mesh.ApplyBoundaryConditions()
		}
		// Step order is irrelevant: each mesh reads only its own frozen
		// buffer and the slot values deposited last iteration.
		for i, p := range c.Placements {
			c.deltas[i] = p.Mesh.Step()
		}
		c.ExchangeInterfaces()

		global = floats.Max(c.deltas)
		if c.progress != nil {
			c.progress(it, global)
		}
		if it%100 == 0 {
			log.WithFields(log.Fields{"iteration": it, "delta": global}).Debug("relaxation progress")
		}
		if global < tolerance {
			return c.result(Converged, it, global), nil
		}
	}
	return c.result(MaxIterationsReached, maxIterations, global), nil
}

func (c *Composite) result(status Status, iterations int, delta float64) *Result {
	fields := make([]*mat.Dense, len(c.Placements))
	for i, p := range c.Placements {
		fields[i] = p.Mesh.Field()
	}
	return &Result{
		Fields:     fields,
		Iterations: iterations,
		Status:     status,
		FinalDelta: delta,
	}
}
