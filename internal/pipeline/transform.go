package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/asteroid-impact-engine/internal/domain"
	"github.com/couchcryptid/asteroid-impact-engine/internal/observability"
)

// ScenarioRecorder persists computed scenarios.
type ScenarioRecorder interface {
	Save(ctx context.Context, result domain.ScenarioResult) error
}

// ScenarioTransformer implements Transformer by parsing a request, resolving its
// location against the collaborators and running the impact model.
type ScenarioTransformer struct {
	deps     domain.Dependencies
	recorder ScenarioRecorder
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewTransformer creates a ScenarioTransformer. A nil recorder disables history.
func NewTransformer(deps domain.Dependencies, recorder ScenarioRecorder, metrics *observability.Metrics, logger *slog.Logger) *ScenarioTransformer {
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &ScenarioTransformer{
		deps:     deps,
		recorder: recorder,
		metrics:  metrics,
		logger:   logger,
	}
}

func (t *ScenarioTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseScenarioRequest(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	result, err := domain.BuildScenario(ctx, req, t.deps)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	t.metrics.ImpactClass.WithLabelValues(result.Effects.ImpactClass).Inc()

	if t.recorder != nil {
		// History is best effort; the result still goes downstream.
		if err := t.recorder.Save(ctx, result); err != nil {
			t.logger.Warn("record scenario failed", "scenario_id", result.ID, "error", err)
		}
	}

	return domain.SerializeScenarioResult(result)
}
