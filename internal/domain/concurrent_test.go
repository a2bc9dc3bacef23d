package domain

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestComputeAndBuild_ConcurrentMatchesSerial(t *testing.T) {
	freezeClock(t)
	ctx := context.Background()

	sites := []ImpactLocation{
		{Lat: 40.7128, Lng: -74.0060, Name: "New York", SurfaceType: SurfaceLand},
		{Lat: 30, Lng: -40, Name: "Mid-Atlantic", SurfaceType: SurfaceOcean},
	}

	type job struct {
		params AsteroidParameters
		req    ScenarioRequest
	}
	var jobs []job
	for _, p := range FamousImpactors {
		for _, site := range sites {
			jobs = append(jobs, job{
				params: p.Parameters(site, 45),
				req: ScenarioRequest{
					Diameter: p.Diameter, MaterialID: p.MaterialID, Velocity: p.Velocity, Angle: 45, Location: site,
					Mission: &MissionRequest{LeadTimeDays: 730, StrategyID: "kinetic"},
				},
			})
		}
	}

	wantEffects := make([]ImpactEffectResult, len(jobs))
	wantScenarios := make([]ScenarioResult, len(jobs))
	for i, j := range jobs {
		wantEffects[i] = DefaultCalculator.Compute(j.params)
		s, err := BuildScenario(ctx, j.req, Dependencies{Logger: discardLogger()})
		require.NoError(t, err)
		wantScenarios[i] = s
	}

	const workers = 16
	errs := make(chan error, 2*workers*len(jobs))
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, j := range jobs {
				if diff := cmp.Diff(wantEffects[i], DefaultCalculator.Compute(j.params)); diff != "" {
					errs <- fmt.Errorf("effects %d (-serial +concurrent):\n%s", i, diff)
				}
				got, err := BuildScenario(ctx, j.req, Dependencies{Logger: discardLogger()})
				if err != nil {
					errs <- fmt.Errorf("scenario %d: %w", i, err)
					continue
				}
				if diff := cmp.Diff(wantScenarios[i], got); diff != "" {
					errs <- fmt.Errorf("scenario %d (-serial +concurrent):\n%s", i, diff)
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
