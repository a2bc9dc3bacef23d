package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	minMissionProbability = 0.1
	maxMissionProbability = 0.95

	// probability thresholds for mission narratives
	successThreshold     = 0.5
	recommendedThreshold = 0.7

	// MomentumEnhancement is the ejecta momentum multiplier (beta) for kinetic deflection.
	MomentumEnhancement = 2.5
)

// ErrUnknownStrategy is returned when a strategy id is not in the catalog.
var ErrUnknownStrategy = errors.New("unknown mitigation strategy")

// MissionOutcome reports probability and catalog feasibility as separate fields.
// Success and Recommended combine them the way the planner narratives do.
type MissionOutcome struct {
	StrategyID         string  `json:"strategy_id"`
	StrategyName       string  `json:"strategy_name"`
	LeadTimeDays       float64 `json:"lead_time_days"`
	Diameter           float64 `json:"diameter"`
	SuccessProbability float64 `json:"success_probability"`
	MinLeadTimeDays    float64 `json:"min_lead_time_days"`
	Feasible           bool    `json:"feasible"`
	Success            bool    `json:"success"`
	Recommended        bool    `json:"recommended"`
}

// EstimateMissionSuccessProbability scores a deflection attempt. Unknown strategy
// ids contribute no strategy adjustment. The result is clamped to [0.1, 0.95].
func EstimateMissionSuccessProbability(leadTimeDays, diameter float64, strategyID string) float64 {
	leadTimeFactor := math.Min(leadTimeDays/365, 1.5) * 0.2
	sizeFactor := math.Max(0, (1000-diameter)/1000) * 0.15

	p := 0.7 + leadTimeFactor + sizeFactor + strategyFactor(strategyID)
	return math.Max(minMissionProbability, math.Min(maxMissionProbability, p))
}

func strategyFactor(id string) float64 {
	switch id {
	case "kinetic":
		return 0.05
	case "nuclear":
		return 0.10
	case "gravity":
		return -0.05
	case "laser":
		return -0.10
	default:
		return 0
	}
}

// AssessMission combines the probability model with the catalog lead-time gate.
func AssessMission(leadTimeDays, diameter float64, strategyID string) (MissionOutcome, error) {
	strategy, ok := LookupStrategy(strategyID)
	if !ok {
		return MissionOutcome{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategyID)
	}
	return assess(strategy, leadTimeDays, diameter), nil
}

func assess(strategy MitigationStrategy, leadTimeDays, diameter float64) MissionOutcome {
	p := EstimateMissionSuccessProbability(leadTimeDays, diameter, strategy.ID)
	feasible := leadTimeDays >= strategy.MinLeadTimeDays
	return MissionOutcome{
		StrategyID:         strategy.ID,
		StrategyName:       strategy.Name,
		LeadTimeDays:       leadTimeDays,
		Diameter:           diameter,
		SuccessProbability: p,
		MinLeadTimeDays:    strategy.MinLeadTimeDays,
		Feasible:           feasible,
		Success:            feasible && p > successThreshold,
		Recommended:        feasible && p > recommendedThreshold,
	}
}

// RankStrategies assesses every catalog strategy. Feasible outcomes sort first,
// then by descending probability; ties keep catalog order.
func RankStrategies(leadTimeDays, diameter float64) []MissionOutcome {
	outcomes := make([]MissionOutcome, 0, len(Strategies))
	for _, s := range Strategies {
		outcomes = append(outcomes, assess(s, leadTimeDays, diameter))
	}
	sort.SliceStable(outcomes, func(i, j int) bool {
		if outcomes[i].Feasible != outcomes[j].Feasible {
			return outcomes[i].Feasible
		}
		return outcomes[i].SuccessProbability > outcomes[j].SuccessProbability
	})
	return outcomes
}

// DeflectionDeltaV returns the velocity change in m/s imparted on an asteroid of
// asteroidMass kg by an impactor of impactorMass kg arriving at impactorVelocity m/s.
func DeflectionDeltaV(asteroidMass, impactorMass, impactorVelocity float64) float64 {
	return impactorMass * impactorVelocity * MomentumEnhancement / asteroidMass
}
