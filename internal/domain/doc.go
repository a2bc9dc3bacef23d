// Package domain models asteroid impact effects and deflection missions.
//
// # Impact Model
//
// The calculator treats the impactor as a uniform sphere and derives every effect
// from its kinetic energy with closed-form scaling laws:
//
//	mass      = (4/3)·π·(d/2)³·ρ
//	energy    = ½·m·v²                     (v in m/s, full energy delivered)
//	megatons  = energy / 4.184e15
//	crater    = 1.161·(energy·sin(angle) / (ρ_target·g))^0.22
//	blast     = (megatons / 0.00025)^(1/3) · 1000 m   (5 psi boundary)
//	thermal   = √(megatons/π) · 1500 m
//	magnitude = 0.67·log10(energy) − 5.87
//
// Target density is 1000 kg/m³ over ocean and 2700 kg/m³ over rock. The impact
// angle only scales cratering efficiency unless [Calculator.AngleAffectsEnergy]
// is set, in which case velocity is projected by sin(angle) before squaring.
//
// Tsunami fields are set only for ocean targets and the airburst altitude only for
// bodies under 100 m. All values are float64 and are never rounded here.
//
// # Classification
//
//	megatons   class                      scale
//	< 1        Local damage               1
//	< 10       City-killer                5
//	< 100      Regional catastrophe       8
//	< 1000     Continental devastation    9
//	≥ 1000     Extinction-level event     10
//
// # Population
//
// [CityCentroidDensity] is a placeholder for gridded population data. Callers
// swap it through the [DensityEstimator] interface on [Calculator].
//
// # Missions
//
// Success probability blends lead time, target size and a per-strategy bias and is
// clamped to [0.1, 0.95]. Feasibility is a separate catalog gate on minimum lead
// time; see [AssessMission].
//
// # Scenario IDs
//
// Scenarios without a caller id get "scn-" plus 16 hex chars of a SHA-256 over the
// resolved inputs, so reprocessing a request yields the same id.
package domain
