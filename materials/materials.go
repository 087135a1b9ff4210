// Package materials collects the thermal properties of the reference chip
// assembly. Units follow the millimeter convention used throughout:
// conductivity in W/(mm·K), power density in W/mm³, temperature in K.
package materials

import "math"

const (
	// Ambient is the surrounding air temperature (20 °C).
	Ambient = 293.15

	// BaseTemperature is the fixed temperature of the board under the
	// processor die (80 °C).
	BaseTemperature = 353.15

	// Silicon microprocessor die.
	SiliconConductivity   = 0.15
	ProcessorPowerDensity = 0.5

	// Ceramic package case.
	CeramicConductivity = 0.23

	// Aluminum heat-sink base and fins.
	AluminumConductivity = 0.248

	// Initial field guesses: a running die sits near 70 °C, passive parts
	// near room temperature.
	ProcessorInitialGuess = 343.15
	PassiveInitialGuess   = 300.15
)

// NaturalConvectionH returns the empirical free-convection coefficient for a
// surface at the given temperature, h = 1.31e-6 * cbrt(|T - T_ambient|) in
// W/(mm²·K).
func NaturalConvectionH(surface, ambient float64) float64 {
	return 1.31e-6 * math.Cbrt(math.Abs(surface-ambient))
}

// ForcedConvectionH returns the forced-convection coefficient for air moving
// at v m/s over the surface, h = (11.4 + 5.7*v) * 1e-6 in W/(mm²·K).
func ForcedConvectionH(v float64) float64 {
	return (11.4 + 5.7*v) * 1e-6
}
