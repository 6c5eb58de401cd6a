// Package scoring implements the per-criterion component score calculators.
// Every calculator is a pure function of its raw inputs with output clamped
// to [0,100]; missing proximity data degrades to documented defaults rather
// than failing.
package scoring

// Params holds the tunable constants for component scoring. Half-distances
// are the distances at which an exponential decay score falls to ~36.8
// (100/e).
type Params struct {
	SubstationHalfKm   float64 `yaml:"substation_half_km" mapstructure:"substation_half_km"`
	TransmissionHalfKm float64 `yaml:"transmission_half_km" mapstructure:"transmission_half_km"`
	FiberHalfKm        float64 `yaml:"fiber_half_km" mapstructure:"fiber_half_km"`
	IXPHalfKm          float64 `yaml:"ixp_half_km" mapstructure:"ixp_half_km"`
	WaterHalfKm        float64 `yaml:"water_half_km" mapstructure:"water_half_km"`
	DecayCutoffKm      float64 `yaml:"decay_cutoff_km" mapstructure:"decay_cutoff_km"`
	ToleranceFactor    float64 `yaml:"tolerance_factor" mapstructure:"tolerance_factor"`
	DefaultIdealMW     float64 `yaml:"default_ideal_mw" mapstructure:"default_ideal_mw"`
}

// DefaultParams returns the standard scoring constants.
func DefaultParams() Params {
	return Params{
		SubstationHalfKm:   35,
		TransmissionHalfKm: 50,
		FiberHalfKm:        40,
		IXPHalfKm:          70,
		WaterHalfKm:        15,
		DecayCutoffKm:      200,
		ToleranceFactor:    0.5,
		DefaultIdealMW:     100,
	}
}
