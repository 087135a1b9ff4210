// Package scenario assembles the reference thermal configurations: a bare
// microprocessor, the processor under its ceramic case and heat-sink base,
// and the full finned sink. Each builder returns a composite ready to
// solve; the packages below it know nothing about chips or fins.
package scenario

import (
	"fmt"
	"math"

	"github.com/notargets/chiptherm/composite"
	"github.com/notargets/chiptherm/materials"
	"github.com/notargets/chiptherm/mesh"
)

// Reference geometry in mm. The processor die sits 3 mm in from the left
// edge of its ceramic case; the sink base is sized to carry NumFins fins of
// finWidth at FinPitch spacing and is centered over the case.
const (
	processorWidth  = 14.0
	processorHeight = 1.0
	processorInset  = 3.0

	ceramicWidth  = 20.0
	ceramicHeight = 2.0

	baseHeight = 4.0
	finWidth   = 1.0
)

// cells converts a physical extent to a grid point count
func cells(extent, step float64) int {
	return int(math.Round(extent / step))
}

// convectiveBC builds the boundary condition for surfaces exposed to air
func convectiveBC(cfg Config) mesh.BC {
	bc := mesh.BC{Type: mesh.BCConvective, Ambient: materials.Ambient}
	if cfg.Convection == "forced" {
		bc.H = materials.ForcedConvectionH(cfg.AirSpeed)
	} else {
		bc.HFunc = func(surface float64) float64 {
			return materials.NaturalConvectionH(surface, materials.Ambient)
		}
	}
	return bc
}

// processorMesh builds the heat-dissipating die: fixed board temperature at
// the base, insulated sides. The top edge is insulated in the bare scenario
// and coupled to the case above it otherwise.
func processorMesh(cfg Config) (*mesh.Mesh, error) {
	return mesh.New(mesh.Spec{
		Rows:               cells(processorHeight, cfg.Step) + 2,
		Cols:               cells(processorWidth, cfg.Step) + 2,
		Dx:                 cfg.Step,
		Dy:                 cfg.Step,
		Conductivity:       materials.SiliconConductivity,
		Source:             materials.ProcessorPowerDensity,
		InitialTemperature: materials.ProcessorInitialGuess,
		Edges: map[mesh.Edge]mesh.BC{
			mesh.EdgeBottom: {Type: mesh.BCFixed, Value: materials.BaseTemperature},
		},
	})
}

// passiveMesh builds a source-free mesh for the case, base or fin material
func passiveMesh(cfg Config, width, height, conductivity float64, edges map[mesh.Edge]mesh.BC) (*mesh.Mesh, error) {
	return mesh.New(mesh.Spec{
		Rows:               cells(height, cfg.Step) + 2,
		Cols:               cells(width, cfg.Step) + 2,
		Dx:                 cfg.Step,
		Dy:                 cfg.Step,
		Conductivity:       conductivity,
		InitialTemperature: materials.PassiveInitialGuess,
		Edges:              edges,
	})
}

func baseWidth(cfg Config) float64 {
	return (cfg.FinPitch+finWidth)*float64(cfg.NumFins-1) + finWidth
}

// BareProcessor builds the first reference scenario: the die alone, with a
// fixed board temperature below and insulated remaining edges, so all
// dissipated power leaves through the base.
func BareProcessor(cfg Config) (*composite.Composite, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	proc, err := processorMesh(cfg)
	if err != nil {
		return nil, fmt.Errorf("scenario: processor: %w", err)
	}
	return composite.New([]composite.Placement{{Mesh: proc}}, nil)
}

// ProcessorWithSink builds the second reference scenario: the die coupled
// through its ceramic case to the sink base, whose exposed surfaces lose
// heat by convection.
func ProcessorWithSink(cfg Config) (*composite.Composite, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	placements, interfaces, err := stackedAssembly(cfg)
	if err != nil {
		return nil, err
	}
	return composite.New(placements, interfaces)
}

// FinnedSink builds the third reference scenario: the stacked assembly plus
// NumFins fins on the base, each coupled to it across the base's top edge.
func FinnedSink(cfg Config) (*composite.Composite, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	placements, interfaces, err := stackedAssembly(cfg)
	if err != nil {
		return nil, err
	}

	conv := convectiveBC(cfg)
	baseIdx := len(placements) - 1
	for i := 0; i < cfg.NumFins; i++ {
		fin, err := passiveMesh(cfg, finWidth, cfg.FinHeight, materials.AluminumConductivity,
			map[mesh.Edge]mesh.BC{
				mesh.EdgeLeft:  conv,
				mesh.EdgeRight: conv,
				mesh.EdgeTop:   conv,
			})
		if err != nil {
			return nil, fmt.Errorf("scenario: fin %d: %w", i, err)
		}
		placements = append(placements, composite.Placement{
			Mesh: fin,
			X0:   (finWidth + cfg.FinPitch) * float64(i),
			Y0:   processorHeight + ceramicHeight + baseHeight,
		})
		interfaces = append(interfaces, composite.Interface{
			A: baseIdx, EdgeA: mesh.EdgeTop,
			B: len(placements) - 1, EdgeB: mesh.EdgeBottom,
		})
	}
	return composite.New(placements, interfaces)
}

// stackedAssembly lays out processor, ceramic case and sink base. The base
// is wider than the case, so the case's top edge is fully covered while the
// base's bottom edge is coupled only over the case span; its exposed cells
// stay convective.
func stackedAssembly(cfg Config) ([]composite.Placement, []composite.Interface, error) {
	conv := convectiveBC(cfg)
	shift := (baseWidth(cfg) - ceramicWidth) / 2
	if shift < 0 {
		return nil, nil, fmt.Errorf("%w: sink base (%g mm) narrower than the ceramic case (%g mm)",
			ErrBadConfig, baseWidth(cfg), ceramicWidth)
	}

	proc, err := processorMesh(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("scenario: processor: %w", err)
	}
	ceramic, err := passiveMesh(cfg, ceramicWidth, ceramicHeight, materials.CeramicConductivity,
		map[mesh.Edge]mesh.BC{
			mesh.EdgeBottom: conv,
			mesh.EdgeLeft:   conv,
			mesh.EdgeRight:  conv,
		})
	if err != nil {
		return nil, nil, fmt.Errorf("scenario: ceramic case: %w", err)
	}
	base, err := passiveMesh(cfg, baseWidth(cfg), baseHeight, materials.AluminumConductivity,
		map[mesh.Edge]mesh.BC{
			mesh.EdgeBottom: conv,
			mesh.EdgeLeft:   conv,
			mesh.EdgeRight:  conv,
			mesh.EdgeTop:    conv,
		})
	if err != nil {
		return nil, nil, fmt.Errorf("scenario: sink base: %w", err)
	}

	placements := []composite.Placement{
		{Mesh: proc, X0: shift + processorInset, Y0: 0},
		{Mesh: ceramic, X0: shift, Y0: processorHeight},
		{Mesh: base, X0: 0, Y0: processorHeight + ceramicHeight},
	}
	interfaces := []composite.Interface{
		{A: 0, EdgeA: mesh.EdgeTop, B: 1, EdgeB: mesh.EdgeBottom},
		{A: 1, EdgeA: mesh.EdgeTop, B: 2, EdgeB: mesh.EdgeBottom},
	}
	return placements, interfaces, nil
}

// Build constructs a scenario by name: "bare", "sink" or "finned"
func Build(name string, cfg Config) (*composite.Composite, error) {
	switch name {
	case "bare":
		return BareProcessor(cfg)
	case "sink":
		return ProcessorWithSink(cfg)
	case "finned":
		return FinnedSink(cfg)
	}
	return nil, fmt.Errorf("%w: unknown scenario %q", ErrBadConfig, name)
}
