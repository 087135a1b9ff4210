package scenario

import (
	"errors"
	"fmt"

	"gopkg.in/ini.v1"
)

// ErrBadConfig indicates scenario parameters outside their valid range.
var ErrBadConfig = errors.New("scenario: invalid configuration")

// Config collects the grid, solver and heat-sink parameters shared by the
// reference scenarios. Lengths are in mm, temperatures in K.
type Config struct {
	// Grid spacing; the same step is used by every sub-mesh.
	Step float64

	// Solve parameters.
	Tolerance     float64
	MaxIterations int

	// Heat-sink geometry: number of fins, fin height, and the air gap
	// between adjacent fins. Fins are 1 mm wide.
	NumFins   int
	FinHeight float64
	FinPitch  float64

	// Convection mode for exposed surfaces: "natural" uses the empirical
	// temperature-dependent coefficient, "forced" a fixed coefficient for
	// air moving at AirSpeed m/s.
	Convection string
	AirSpeed   float64
}

// DefaultConfig returns the reference configuration: 0.2 mm grid, seven
// 30 mm fins at 5 mm pitch, natural convection.
func DefaultConfig() Config {
	return Config{
		Step:          0.2,
		Tolerance:     1e-8,
		MaxIterations: 200000,
		NumFins:       7,
		FinHeight:     30,
		FinPitch:      5,
		Convection:    "natural",
		AirSpeed:      20,
	}
}

// LoadConfig reads a config ini file, falling back to the defaults for any
// missing key. An empty path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	file, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("scenario: loading config: %w", err)
	}

	solver := file.Section("solver")
	cfg.Step = solver.Key("step").MustFloat64(cfg.Step)
	cfg.Tolerance = solver.Key("tolerance").MustFloat64(cfg.Tolerance)
	cfg.MaxIterations = solver.Key("max_iterations").MustInt(cfg.MaxIterations)

	sink := file.Section("sink")
	cfg.NumFins = sink.Key("fins").MustInt(cfg.NumFins)
	cfg.FinHeight = sink.Key("fin_height").MustFloat64(cfg.FinHeight)
	cfg.FinPitch = sink.Key("fin_pitch").MustFloat64(cfg.FinPitch)

	cooling := file.Section("cooling")
	cfg.Convection = cooling.Key("mode").MustString(cfg.Convection)
	cfg.AirSpeed = cooling.Key("air_speed").MustFloat64(cfg.AirSpeed)

	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.Step <= 0 {
		return fmt.Errorf("%w: step %g must be positive", ErrBadConfig, cfg.Step)
	}
	if cfg.NumFins < 1 {
		return fmt.Errorf("%w: need at least one fin, got %d", ErrBadConfig, cfg.NumFins)
	}
	if cfg.FinHeight <= 0 || cfg.FinPitch <= 0 {
		return fmt.Errorf("%w: fin height %g and pitch %g must be positive", ErrBadConfig, cfg.FinHeight, cfg.FinPitch)
	}
	if cfg.Convection != "natural" && cfg.Convection != "forced" {
		return fmt.Errorf("%w: unknown convection mode %q", ErrBadConfig, cfg.Convection)
	}
	return nil
}
