package domain

// AsteroidMaterial is a reference composition class with its bulk density.
type AsteroidMaterial struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Density     float64 `json:"density"` // kg/m³
	Description string  `json:"description,omitempty"`
	Examples    string  `json:"examples,omitempty"`
}

// MitigationStrategy describes a deflection technique and its planning thresholds.
type MitigationStrategy struct {
	ID                     string  `json:"id"`
	Name                   string  `json:"name"`
	Description            string  `json:"description"`
	MinLeadTimeDays        float64 `json:"min_lead_time_days"`
	BaseSuccessProbability float64 `json:"base_success_probability"`
	CostTier               string  `json:"cost_tier"`
	TechnologyReadiness    string  `json:"technology_readiness"`
}

// Preset is a notable real-world object that can seed a scenario.
type Preset struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Diameter     float64 `json:"diameter"` // meters
	MaterialID   string  `json:"material_id"`
	Velocity     float64 `json:"velocity"` // km/s
	Description  string  `json:"description"`
	HistoricNote string  `json:"historic_note,omitempty"`
}

const defaultMaterialID = "stone"

// Materials is the ordered material catalog. Densities are strictly positive.
var Materials = []AsteroidMaterial{
	{
		ID:          "iron",
		Name:        "Iron (M-type)",
		Density:     7800,
		Description: "Metallic asteroids composed primarily of iron and nickel. The densest common class.",
		Examples:    "Psyche, most meteorites found on Earth",
	},
	{
		ID:          "stone",
		Name:        "Stone (S-type)",
		Density:     3000,
		Description: "Rocky asteroids made of silicate minerals, similar to Earth rocks.",
		Examples:    "Eros, Itokawa, most near-Earth asteroids",
	},
	{
		ID:          "carbon",
		Name:        "Carbon (C-type)",
		Density:     2000,
		Description: "Dark, primitive asteroids rich in carbon compounds and water.",
		Examples:    "Bennu, Ryugu",
	},
	{
		ID:          "ice",
		Name:        "Ice/Comet",
		Density:     1000,
		Description: "Icy bodies of frozen water, CO2 and organics.",
		Examples:    "Halley's Comet, 67P/Churyumov-Gerasimenko",
	},
	{
		ID:          "gold",
		Name:        "Platinum-Rich",
		Density:     8000,
		Description: "Rare metallic bodies with high concentrations of precious metals.",
		Examples:    "Certain M-type cores",
	},
}

// Strategies is the mitigation strategy catalog.
var Strategies = []MitigationStrategy{
	{
		ID:                     "kinetic",
		Name:                   "Kinetic Impactor",
		Description:            "Ram a spacecraft into the asteroid to change its velocity.",
		MinLeadTimeDays:        365,
		BaseSuccessProbability: 0.75,
		CostTier:               "$300M - $500M",
		TechnologyReadiness:    "Current (NASA DART)",
	},
	{
		ID:                     "gravity",
		Name:                   "Gravity Tractor",
		Description:            "Station a spacecraft near the asteroid and let mutual gravity slowly alter its path.",
		MinLeadTimeDays:        1825,
		BaseSuccessProbability: 0.65,
		CostTier:               "$1B - $2B",
		TechnologyReadiness:    "Near-term feasible",
	},
	{
		ID:                     "nuclear",
		Name:                   "Nuclear Deflection",
		Description:            "Detonate a device near the surface to vaporize material and create thrust.",
		MinLeadTimeDays:        180,
		BaseSuccessProbability: 0.85,
		CostTier:               "$2B - $5B",
		TechnologyReadiness:    "Theoretically proven",
	},
	{
		ID:                     "laser",
		Name:                   "Laser Ablation",
		Description:            "Focus lasers on the surface to ablate material and produce thrust over time.",
		MinLeadTimeDays:        730,
		BaseSuccessProbability: 0.60,
		CostTier:               "$5B+",
		TechnologyReadiness:    "Experimental",
	},
	{
		ID:                     "ion-beam",
		Name:                   "Ion Beam Shepherd",
		Description:            "Direct a low-thrust ion exhaust plume at the asteroid from a nearby spacecraft.",
		MinLeadTimeDays:        1095,
		BaseSuccessProbability: 0.60,
		CostTier:               "$1B - $3B",
		TechnologyReadiness:    "Near-term feasible",
	},
	{
		ID:                     "mass-driver",
		Name:                   "Mass Driver",
		Description:            "Land a machine that ejects surface material to generate reaction thrust.",
		MinLeadTimeDays:        2555,
		BaseSuccessProbability: 0.50,
		CostTier:               "$10B+",
		TechnologyReadiness:    "Conceptual",
	},
	{
		ID:                     "solar-sail",
		Name:                   "Solar Sail",
		Description:            "Attach a reflective sail so radiation pressure nudges the orbit.",
		MinLeadTimeDays:        1460,
		BaseSuccessProbability: 0.55,
		CostTier:               "$500M - $1B",
		TechnologyReadiness:    "Experimental",
	},
	{
		ID:                     "fragmentation",
		Name:                   "Fragmentation",
		Description:            "Disrupt the body into fragments small enough to burn up or miss.",
		MinLeadTimeDays:        90,
		BaseSuccessProbability: 0.45,
		CostTier:               "$2B - $5B",
		TechnologyReadiness:    "High risk",
	},
}

// FamousImpactors lists famous impactors and well-studied near-Earth objects.
var FamousImpactors = []Preset{
	{ID: "apophis", Name: "99942 Apophis", Diameter: 370, MaterialID: "stone", Velocity: 30.73,
		Description: "Close approach in 2029 within 31,000 km of Earth", HistoricNote: "April 13, 2029"},
	{ID: "bennu", Name: "101955 Bennu", Diameter: 492, MaterialID: "carbon", Velocity: 27.7,
		Description: "Target of the OSIRIS-REx sample return mission", HistoricNote: "Visited 2018-2021"},
	{ID: "chelyabinsk", Name: "Chelyabinsk Meteor", Diameter: 20, MaterialID: "stone", Velocity: 19.16,
		Description: "Exploded over Russia, injuring about 1,500 people", HistoricNote: "February 15, 2013"},
	{ID: "tunguska", Name: "Tunguska Event", Diameter: 60, MaterialID: "stone", Velocity: 27,
		Description: "Flattened about 2,000 km² of Siberian forest", HistoricNote: "June 30, 1908"},
	{ID: "barringer", Name: "Barringer Crater Impactor", Diameter: 50, MaterialID: "iron", Velocity: 12.8,
		Description: "Formed Meteor Crater in Arizona", HistoricNote: "~50,000 years ago"},
	{ID: "chicxulub", Name: "Chicxulub Impactor", Diameter: 10000, MaterialID: "stone", Velocity: 20,
		Description: "Linked to the end-Cretaceous mass extinction", HistoricNote: "66 million years ago"},
	{ID: "ryugu", Name: "162173 Ryugu", Diameter: 900, MaterialID: "carbon", Velocity: 26.8,
		Description: "Target of the Hayabusa2 sample return mission", HistoricNote: "Samples returned December 2020"},
	{ID: "itokawa", Name: "25143 Itokawa", Diameter: 330, MaterialID: "stone", Velocity: 25,
		Description: "First asteroid with returned samples", HistoricNote: "Visited by Hayabusa 2005"},
	{ID: "didymos", Name: "65803 Didymos", Diameter: 780, MaterialID: "stone", Velocity: 23.92,
		Description: "System targeted by the DART deflection test", HistoricNote: "DART impact September 26, 2022"},
	{ID: "oumuamua", Name: "1I/'Oumuamua", Diameter: 230, MaterialID: "stone", Velocity: 87.3,
		Description: "First confirmed interstellar object", HistoricNote: "October 2017"},
}

// LookupMaterial returns the catalog material with the given id.
func LookupMaterial(id string) (AsteroidMaterial, bool) {
	for _, m := range Materials {
		if m.ID == id {
			return m, true
		}
	}
	return AsteroidMaterial{}, false
}

// DefaultMaterial returns the stony material used when a request names none.
func DefaultMaterial() AsteroidMaterial {
	m, _ := LookupMaterial(defaultMaterialID)
	return m
}

// LookupStrategy returns the catalog strategy with the given id.
func LookupStrategy(id string) (MitigationStrategy, bool) {
	for _, s := range Strategies {
		if s.ID == id {
			return s, true
		}
	}
	return MitigationStrategy{}, false
}

// LookupPreset returns the preset with the given id.
func LookupPreset(id string) (Preset, bool) {
	for _, p := range FamousImpactors {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Parameters builds calculator input for the preset at the given location and angle.
// Presets whose material is missing from the catalog fall back to the default material.
func (p Preset) Parameters(loc ImpactLocation, angle float64) AsteroidParameters {
	material, ok := LookupMaterial(p.MaterialID)
	if !ok {
		material = DefaultMaterial()
	}
	return AsteroidParameters{
		Diameter: p.Diameter,
		Material: material,
		Velocity: p.Velocity,
		Angle:    angle,
		Location: loc,
	}
}
