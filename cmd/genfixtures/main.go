// Command genfixtures runs the preset catalog through the impact calculator and
// writes or verifies JSON regression fixtures. Each preset is computed once on
// land and once at sea.
//
// Usage:
//
//	go run ./cmd/genfixtures -out testdata/fixtures/presets.json
//	go run ./cmd/genfixtures -verify testdata/fixtures/presets.json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/couchcryptid/asteroid-impact-engine/internal/domain"
)

const fixtureAngle = 45

// generatedAt is stamped on every fixture so regenerated files stay byte-stable.
var generatedAt = time.Date(2029, time.April, 13, 21, 46, 0, 0, time.UTC)

var sites = []domain.ImpactLocation{
	{Lat: 39.8283, Lng: -98.5795, Name: "Lebanon, Kansas", SurfaceType: domain.SurfaceLand},
	{Lat: 30.0, Lng: -40.0, Name: "Central North Atlantic", SurfaceType: domain.SurfaceOcean},
}

// fixture is one preset computed at one site.
type fixture struct {
	PresetID string                `json:"preset_id"`
	Result   domain.ScenarioResult `json:"result"`
}

func main() {
	out := flag.String("out", "", "write fixtures to this path")
	verify := flag.String("verify", "", "recompute and compare against the fixtures at this path")
	flag.Parse()

	if (*out == "") == (*verify == "") {
		flag.Usage()
		log.Fatal("exactly one of -out or -verify is required")
	}

	if *out != "" {
		fixtures, err := generate()
		if err != nil {
			log.Fatal(err)
		}
		if err := writeJSON(*out, fixtures); err != nil {
			log.Fatalf("writing fixtures: %v", err)
		}
		log.Printf("wrote %d fixtures to %s", len(fixtures), *out)
		return
	}

	mismatches, err := verifyFile(*verify)
	if err != nil {
		log.Fatal(err)
	}
	if len(mismatches) > 0 {
		for _, m := range mismatches {
			fmt.Fprintln(os.Stderr, m)
		}
		fmt.Fprintf(os.Stderr, "FAIL: %d of the fixtures in %s differ\n", len(mismatches), *verify)
		os.Exit(1)
	}
	fmt.Printf("PASS: fixtures in %s match the calculator\n", *verify)
}

func generate() ([]fixture, error) {
	fixtures := make([]fixture, 0, len(domain.FamousImpactors)*len(sites))
	for _, p := range domain.FamousImpactors {
		for _, site := range sites {
			params := p.Parameters(site, fixtureAngle)
			if err := domain.ValidateParameters(params); err != nil {
				return nil, fmt.Errorf("preset %s: %w", p.ID, err)
			}
			fixtures = append(fixtures, fixture{
				PresetID: p.ID,
				Result: domain.ScenarioResult{
					ID:         fmt.Sprintf("%s-%s", p.ID, site.SurfaceType),
					Parameters: params,
					Effects:    domain.ComputeImpactEffects(params),
					ComputedAt: generatedAt,
				},
			})
		}
	}
	return fixtures, nil
}

// verifyFile returns one message per fixture that no longer matches the
// calculator, including fixtures missing on either side.
func verifyFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	var stored []fixture
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decoding fixtures: %w", err)
	}
	if len(stored) == 0 {
		return nil, errors.New("fixture file is empty")
	}

	fresh, err := generate()
	if err != nil {
		return nil, err
	}
	return compare(stored, fresh), nil
}

func compare(stored, fresh []fixture) []string {
	want := make(map[string]fixture, len(fresh))
	for _, f := range fresh {
		want[f.Result.ID] = f
	}

	opts := cmp.Options{cmpopts.EquateApprox(0, 1e-9)}
	var mismatches []string
	seen := make(map[string]bool, len(stored))
	for _, got := range stored {
		id := got.Result.ID
		seen[id] = true
		w, ok := want[id]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: not produced by the current catalog", id))
			continue
		}
		if diff := cmp.Diff(w, got, opts); diff != "" {
			mismatches = append(mismatches, fmt.Sprintf("%s (-want +stored):\n%s", id, diff))
		}
	}
	for _, f := range fresh {
		if !seen[f.Result.ID] {
			mismatches = append(mismatches, fmt.Sprintf("%s: missing from fixture file", f.Result.ID))
		}
	}
	return mismatches
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
