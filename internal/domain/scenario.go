package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrUnknownMaterial is returned when a material id is not in the catalog.
var ErrUnknownMaterial = errors.New("unknown asteroid material")

// RawEvent is an unprocessed message from the request topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the result topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// MissionRequest asks for a deflection assessment alongside the impact.
type MissionRequest struct {
	LeadTimeDays float64 `json:"lead_time_days" binding:"gt=0"`
	StrategyID   string  `json:"strategy_id" binding:"required"`
}

// ScenarioRequest is the wire form of a "what if" impact. Density wins over
// MaterialID when positive. Place, when set, is forward geocoded and replaces
// the coordinates in Location; a caller's surface type is kept.
type ScenarioRequest struct {
	ID         string          `json:"id,omitempty"`
	Diameter   float64         `json:"diameter" binding:"gt=0"`
	MaterialID string          `json:"material_id,omitempty"`
	Density    float64         `json:"density,omitempty" binding:"gte=0"`
	Velocity   float64         `json:"velocity" binding:"gt=0"`
	Angle      float64         `json:"angle" binding:"gte=0,lte=90"`
	Location   ImpactLocation  `json:"location"`
	Place      *PlaceQuery     `json:"place,omitempty"`
	Mission    *MissionRequest `json:"mission,omitempty"`
}

// ScenarioResult is a computed scenario.
type ScenarioResult struct {
	ID         string             `json:"id"`
	Parameters AsteroidParameters `json:"parameters"`
	Effects    ImpactEffectResult `json:"effects"`
	Mission    *MissionOutcome    `json:"mission,omitempty"`
	ComputedAt time.Time          `json:"computed_at"`
}

// Dependencies are the collaborators a scenario is resolved against. All fields
// are optional.
type Dependencies struct {
	Geocoder   Geocoder
	Surface    SurfaceClassifier
	Calculator *Calculator
	Logger     *slog.Logger
}

// ParseScenarioRequest decodes a request message. The message key is used as
// the scenario id when the payload carries none.
func ParseScenarioRequest(raw RawEvent) (ScenarioRequest, error) {
	var req ScenarioRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return ScenarioRequest{}, fmt.Errorf("parse scenario request: %w", err)
	}
	if req.ID == "" && len(raw.Key) > 0 {
		req.ID = string(raw.Key)
	}
	return req, nil
}

// ResolveMaterial picks the material a request describes.
func (r ScenarioRequest) ResolveMaterial() (AsteroidMaterial, error) {
	if r.Density > 0 {
		return AsteroidMaterial{ID: "custom", Name: "Custom", Density: r.Density}, nil
	}
	if r.MaterialID == "" {
		return DefaultMaterial(), nil
	}
	m, ok := LookupMaterial(r.MaterialID)
	if !ok {
		return AsteroidMaterial{}, fmt.Errorf("%w: %q", ErrUnknownMaterial, r.MaterialID)
	}
	return m, nil
}

// BuildScenario validates, resolves and computes a request. Everything that
// can be checked locally is checked before the geocoder is consulted.
func BuildScenario(ctx context.Context, req ScenarioRequest, deps Dependencies) (ScenarioResult, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	material, err := req.ResolveMaterial()
	if err != nil {
		return ScenarioResult{}, err
	}

	params := AsteroidParameters{
		Diameter: req.Diameter,
		Material: material,
		Velocity: req.Velocity,
		Angle:    req.Angle,
	}
	if err := validateBody(params); err != nil {
		return ScenarioResult{}, fmt.Errorf("build scenario: %w", err)
	}
	if err := validateSurface(req.Location.SurfaceType, true); err != nil {
		return ScenarioResult{}, fmt.Errorf("build scenario: %w", err)
	}

	var mission *MissionOutcome
	if req.Mission != nil {
		if req.Mission.LeadTimeDays <= 0 {
			return ScenarioResult{}, &InvalidParameterError{
				Field: "lead_time_days", Value: req.Mission.LeadTimeDays, Reason: "must be positive",
			}
		}
		outcome, err := AssessMission(req.Mission.LeadTimeDays, req.Diameter, req.Mission.StrategyID)
		if err != nil {
			return ScenarioResult{}, err
		}
		mission = &outcome
	}

	site := req.Location
	if req.Place != nil {
		resolved, err := ResolvePlace(ctx, *req.Place, deps.Geocoder)
		if err != nil {
			return ScenarioResult{}, fmt.Errorf("build scenario: %w", err)
		}
		resolved.SurfaceType = site.SurfaceType
		site = resolved
	}
	if err := validateCoordinates(site); err != nil {
		return ScenarioResult{}, fmt.Errorf("build scenario: %w", err)
	}

	params.Location = ResolveLocation(ctx, site, deps.Geocoder, deps.Surface, logger)
	if err := ValidateParameters(params); err != nil {
		return ScenarioResult{}, fmt.Errorf("build scenario: %w", err)
	}

	calc := DefaultCalculator
	if deps.Calculator != nil {
		calc = *deps.Calculator
	}
	effects := calc.Compute(params)
	if err := ValidateEffects(effects); err != nil {
		return ScenarioResult{}, fmt.Errorf("build scenario: %w", err)
	}

	result := ScenarioResult{
		ID:         req.ID,
		Parameters: params,
		Effects:    effects,
		Mission:    mission,
		ComputedAt: clock.Now().UTC(),
	}
	if result.ID == "" {
		result.ID = generateScenarioID(params, req.Mission)
	}
	return result, nil
}

// generateScenarioID hashes the resolved inputs so replays of the same request
// upsert the same history row.
func generateScenarioID(p AsteroidParameters, mission *MissionRequest) string {
	input := fmt.Sprintf("%g|%g|%g|%g|%.6f|%.6f|%s",
		p.Diameter, p.Material.Density, p.Velocity, p.Angle,
		p.Location.Lat, p.Location.Lng, p.Location.SurfaceType)
	if mission != nil {
		input += fmt.Sprintf("|%s|%g", mission.StrategyID, mission.LeadTimeDays)
	}
	hash := sha256.Sum256([]byte(input))
	return "scn-" + hex.EncodeToString(hash[:8])
}

// SerializeScenarioResult converts a result into a keyed output message.
func SerializeScenarioResult(result ScenarioResult) (OutputEvent, error) {
	value, err := json.Marshal(result)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize scenario result: %w", err)
	}
	return OutputEvent{
		Key:   []byte(result.ID),
		Value: value,
		Headers: map[string]string{
			"impact_class": result.Effects.ImpactClass,
			"computed_at":  result.ComputedAt.Format(time.RFC3339),
		},
	}, nil
}
