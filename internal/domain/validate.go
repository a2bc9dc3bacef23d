package domain

import (
	"errors"
	"fmt"
	"math"
)

// InvalidParameterError describes the first input that fails validation.
type InvalidParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s %g: %s", e.Field, e.Value, e.Reason)
}

// IsInvalidParameter reports whether err wraps an *InvalidParameterError.
func IsInvalidParameter(err error) bool {
	var target *InvalidParameterError
	return errors.As(err, &target)
}

type check struct {
	field  string
	value  float64
	ok     bool
	reason string
}

func firstFailure(checks []check) error {
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return &InvalidParameterError{Field: c.field, Value: c.value, Reason: "must be finite"}
		}
		if !c.ok {
			return &InvalidParameterError{Field: c.field, Value: c.value, Reason: c.reason}
		}
	}
	return nil
}

// ValidateParameters rejects inputs that would make the calculator degenerate.
// The calculator itself does not call it; boundaries do.
func ValidateParameters(p AsteroidParameters) error {
	if err := validateBody(p); err != nil {
		return err
	}
	if err := validateCoordinates(p.Location); err != nil {
		return err
	}
	return validateSurface(p.Location.SurfaceType, false)
}

// validateBody checks the asteroid itself, everything that needs no collaborator.
func validateBody(p AsteroidParameters) error {
	return firstFailure([]check{
		{"diameter", p.Diameter, p.Diameter > 0, "must be positive"},
		{"density", p.Material.Density, p.Material.Density > 0, "must be positive"},
		{"velocity", p.Velocity, p.Velocity > 0, "must be positive"},
		{"angle", p.Angle, p.Angle >= 0 && p.Angle <= 90, "must be within [0, 90]"},
	})
}

func validateCoordinates(loc ImpactLocation) error {
	return firstFailure([]check{
		{"latitude", loc.Lat, loc.Lat >= -90 && loc.Lat <= 90, "must be within [-90, 90]"},
		{"longitude", loc.Lng, loc.Lng >= -180 && loc.Lng <= 180, "must be within [-180, 180]"},
	})
}

// validateSurface accepts an empty surface only when allowEmpty is set, i.e.
// before the classifier has filled it in.
func validateSurface(s SurfaceType, allowEmpty bool) error {
	switch {
	case s == SurfaceLand, s == SurfaceOcean:
		return nil
	case s == "" && allowEmpty:
		return nil
	default:
		return &InvalidParameterError{Field: "surface_type", Reason: fmt.Sprintf("unknown surface %q", s)}
	}
}

// ValidateEffects rejects results that overflowed or underflowed float64.
// Positive inputs at the far ends of the range (a 1e-120 m or 1e110 m body) pass
// ValidateParameters but yield infinite energy or an infinite seismic magnitude.
func ValidateEffects(e ImpactEffectResult) error {
	type value struct {
		field string
		v     float64
	}
	values := []value{
		{"mass_kg", e.MassKg},
		{"energy_joules", e.EnergyJoules},
		{"energy_megatons", e.EnergyMegatons},
		{"crater_diameter", e.CraterDiameter},
		{"crater_depth", e.CraterDepth},
		{"crater_volume", e.CraterVolume},
		{"blast_radius", e.BlastRadius},
		{"overpressure_at_1km", e.OverpressureAt1km},
		{"thermal_radius", e.ThermalRadius},
		{"fireball_duration", e.FireballDuration},
		{"seismic_magnitude", e.SeismicMagnitude},
		{"ground_shaking_radius", e.GroundShakingRadius},
	}
	if e.TsunamiHeight != nil {
		values = append(values, value{"tsunami_height", *e.TsunamiHeight})
	}
	if e.TsunamiTravelTime != nil {
		values = append(values, value{"tsunami_travel_time", *e.TsunamiTravelTime})
	}
	if e.AirburstAltitude != nil {
		values = append(values, value{"airburst_altitude", *e.AirburstAltitude})
	}

	for _, x := range values {
		if math.IsNaN(x.v) || math.IsInf(x.v, 0) {
			return &InvalidParameterError{
				Field:  x.field,
				Value:  x.v,
				Reason: "result is not finite, inputs are outside the computable range",
			}
		}
	}
	return nil
}
