// Package repository stores computed scenarios in SQLite.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/asteroid-impact-engine/internal/domain"
)

// ErrNotFound is returned when no scenario has the requested id.
var ErrNotFound = errors.New("scenario not found")

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// ScenarioSummary is a history row without the full payload.
type ScenarioSummary struct {
	ID             string    `json:"id"`
	ImpactClass    string    `json:"impact_class"`
	EnergyMegatons float64   `json:"energy_megatons"`
	SurfaceType    string    `json:"surface_type"`
	ComputedAt     time.Time `json:"computed_at"`
}

// SQLiteStore is the scenario history.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open scenario store: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping scenario store: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate scenario store: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scenarios (
			id TEXT PRIMARY KEY,
			impact_class TEXT NOT NULL,
			energy_megatons REAL NOT NULL,
			surface_type TEXT NOT NULL,
			payload BLOB NOT NULL,
			computed_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_scenarios_computed_at ON scenarios(computed_at);
		CREATE INDEX IF NOT EXISTS idx_scenarios_impact_class ON scenarios(impact_class);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save upserts a scenario by id.
func (s *SQLiteStore) Save(ctx context.Context, result domain.ScenarioResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode scenario %s: %w", result.ID, err)
	}

	query := `
		INSERT INTO scenarios (id, impact_class, energy_megatons, surface_type, payload, computed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			impact_class = excluded.impact_class,
			energy_megatons = excluded.energy_megatons,
			surface_type = excluded.surface_type,
			payload = excluded.payload,
			computed_at = excluded.computed_at
	`
	_, err = s.db.ExecContext(ctx, query,
		result.ID,
		result.Effects.ImpactClass,
		result.Effects.EnergyMegatons,
		string(result.Parameters.Location.SurfaceType),
		payload,
		result.ComputedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save scenario %s: %w", result.ID, err)
	}
	return nil
}

// Get returns the full scenario stored under id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (domain.ScenarioResult, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM scenarios WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScenarioResult{}, ErrNotFound
	}
	if err != nil {
		return domain.ScenarioResult{}, fmt.Errorf("get scenario %s: %w", id, err)
	}

	var result domain.ScenarioResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.ScenarioResult{}, fmt.Errorf("decode scenario %s: %w", id, err)
	}
	return result, nil
}

// ListRecent returns the newest scenarios first. Non-positive limits use the
// default; limits above the cap are clamped.
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]ScenarioSummary, error) {
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, impact_class, energy_megatons, surface_type, computed_at
		FROM scenarios
		ORDER BY computed_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	out := make([]ScenarioSummary, 0, limit)
	for rows.Next() {
		var (
			sum      ScenarioSummary
			computed int64
		)
		if err := rows.Scan(&sum.ID, &sum.ImpactClass, &sum.EnergyMegatons, &sum.SurfaceType, &computed); err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		sum.ComputedAt = time.Unix(0, computed).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// CheckReadiness pings the database.
func (s *SQLiteStore) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
