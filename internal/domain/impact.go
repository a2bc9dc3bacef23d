package domain

import "math"

const (
	joulesPerMegaton = 4.184e15
	gravity          = 9.81 // m/s²

	// Target densities for crater scaling, kg/m³.
	oceanTargetDensity = 1000.0
	rockTargetDensity  = 2700.0

	craterCoefficient = 1.161
	craterExponent    = 0.22

	// blastReferenceMegatons anchors the 5 psi overpressure radius at 1 km.
	blastReferenceMegatons = 0.00025

	// AirburstThresholdMeters is the diameter below which an airburst altitude is reported.
	AirburstThresholdMeters = 100.0
	// TsunamiTravelTimeMinutes is the fixed travel time reported for ocean impacts.
	TsunamiTravelTimeMinutes = 30.0
	// CasualtyRate is the fraction of the affected population counted as casualties.
	CasualtyRate = 0.6
)

// SurfaceType classifies the ground at the impact point.
type SurfaceType string

const (
	SurfaceLand  SurfaceType = "land"
	SurfaceOcean SurfaceType = "ocean"
)

// ImpactLocation is the target point. Only SurfaceType and the coordinates feed
// the calculation; Name is carried for display.
type ImpactLocation struct {
	Lat         float64     `json:"lat" binding:"gte=-90,lte=90"`
	Lng         float64     `json:"lng" binding:"gte=-180,lte=180"`
	Name        string      `json:"name,omitempty"`
	SurfaceType SurfaceType `json:"surface_type,omitempty" binding:"omitempty,oneof=land ocean"`
}

// AsteroidParameters is the calculator input.
type AsteroidParameters struct {
	Diameter float64          `json:"diameter"` // meters
	Material AsteroidMaterial `json:"material"`
	Velocity float64          `json:"velocity"` // km/s
	Angle    float64          `json:"angle"`    // degrees from horizontal
	Location ImpactLocation   `json:"location"`
}

// ImpactEffectResult holds every derived effect estimate. Optional effects are nil
// when they do not apply.
type ImpactEffectResult struct {
	MassKg float64 `json:"mass_kg"`

	EnergyJoules   float64 `json:"energy_joules"`
	EnergyMegatons float64 `json:"energy_megatons"`
	TNTEquivalent  string  `json:"tnt_equivalent"`

	CraterDiameter float64 `json:"crater_diameter"`
	CraterDepth    float64 `json:"crater_depth"`
	CraterVolume   float64 `json:"crater_volume"`

	BlastRadius       float64 `json:"blast_radius"`
	OverpressureAt1km float64 `json:"overpressure_at_1km"`

	ThermalRadius    float64 `json:"thermal_radius"`
	FireballDuration float64 `json:"fireball_duration"`

	SeismicMagnitude    float64 `json:"seismic_magnitude"`
	GroundShakingRadius float64 `json:"ground_shaking_radius"`

	TsunamiHeight     *float64 `json:"tsunami_height,omitempty"`
	TsunamiTravelTime *float64 `json:"tsunami_travel_time,omitempty"`
	AirburstAltitude  *float64 `json:"airburst_altitude,omitempty"`

	AffectedPopulation  int `json:"affected_population"`
	EstimatedCasualties int `json:"estimated_casualties"`

	ImpactClass string `json:"impact_class"`
	TorinoScale int    `json:"torino_scale"`
}

// Calculator maps asteroid parameters to impact effects.
//
// AngleAffectsEnergy selects how the impact angle enters the model. When false
// (the default) the full kinetic energy is delivered and sin(angle) only scales
// the cratering input. When true the velocity is projected by sin(angle) before
// squaring and the crater uses that reduced energy directly.
type Calculator struct {
	Density            DensityEstimator
	AngleAffectsEnergy bool
}

// DefaultCalculator uses the reference-city population heuristic.
var DefaultCalculator = Calculator{Density: CityCentroidDensity{}}

// ComputeImpactEffects runs the default calculator. It is total: non-positive
// inputs produce degenerate (zero, NaN or infinite) values rather than errors.
// Use ValidateParameters first when inputs come from an untrusted source.
func ComputeImpactEffects(params AsteroidParameters) ImpactEffectResult {
	return DefaultCalculator.Compute(params)
}

// Compute derives the full effect set for params.
func (c Calculator) Compute(params AsteroidParameters) ImpactEffectResult {
	radius := params.Diameter / 2
	mass := (4.0 / 3.0) * math.Pi * math.Pow(radius, 3) * params.Material.Density

	v := params.Velocity * 1000
	angleFactor := math.Sin(params.Angle * math.Pi / 180)
	craterFactor := angleFactor
	if c.AngleAffectsEnergy {
		v *= angleFactor
		craterFactor = 1
	}

	energy := 0.5 * mass * v * v
	megatons := energy / joulesPerMegaton

	targetDensity := rockTargetDensity
	if params.Location.SurfaceType == SurfaceOcean {
		targetDensity = oceanTargetDensity
	}
	craterDiameter := craterCoefficient * math.Pow(energy*craterFactor/(targetDensity*gravity), craterExponent)
	craterDepth := craterDiameter / 5
	craterVolume := (2.0 / 3.0) * math.Pi * math.Pow(craterDiameter/2, 2) * craterDepth

	blastRadius := math.Cbrt(megatons/blastReferenceMegatons) * 1000
	magnitude := 0.67*math.Log10(energy) - 5.87

	result := ImpactEffectResult{
		MassKg:              mass,
		EnergyJoules:        energy,
		EnergyMegatons:      megatons,
		TNTEquivalent:       FormatTNTEquivalent(megatons),
		CraterDiameter:      craterDiameter,
		CraterDepth:         craterDepth,
		CraterVolume:        craterVolume,
		BlastRadius:         blastRadius,
		OverpressureAt1km:   megatons * 50,
		ThermalRadius:       math.Sqrt(megatons/math.Pi) * 1000 * 1.5,
		FireballDuration:    math.Pow(megatons, 0.44),
		SeismicMagnitude:    magnitude,
		GroundShakingRadius: math.Pow(10, magnitude) * 100,
	}

	if params.Diameter < AirburstThresholdMeters {
		altitude := 8000 + (params.Diameter/100)*20000
		result.AirburstAltitude = &altitude
	}

	if params.Location.SurfaceType == SurfaceOcean {
		height := math.Sqrt(megatons) * 2
		travel := TsunamiTravelTimeMinutes
		result.TsunamiHeight = &height
		result.TsunamiTravelTime = &travel
	}

	density := c.Density
	if density == nil {
		density = CityCentroidDensity{}
	}
	loc := params.Location
	result.AffectedPopulation = AffectedPopulation(density, loc.Lat, loc.Lng, blastRadius, loc.SurfaceType)
	result.EstimatedCasualties = int(math.Floor(float64(result.AffectedPopulation) * CasualtyRate))

	result.ImpactClass, result.TorinoScale = ClassifyImpact(megatons)
	return result
}
