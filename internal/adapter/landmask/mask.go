// Package landmask classifies impact points as land or ocean against a GeoJSON
// FeatureCollection of land polygons. TopoJSON sources (such as world-atlas
// land-110m.json) must be converted first, e.g. with topo2geo.
package landmask

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/asteroid-impact-engine/internal/observability"
)

const maxDatasetBytes = 256 << 20

// ErrTopoJSON is returned when the dataset is a TopoJSON Topology.
var ErrTopoJSON = errors.New("TopoJSON is not supported, convert the dataset to a GeoJSON FeatureCollection")

// Mask answers IsLand synchronously once Load has succeeded. Before that every
// point is reported as land.
type Mask struct {
	source     string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics

	group  singleflight.Group
	mu     sync.RWMutex
	shapes []shape
	loaded atomic.Bool
}

type shape struct {
	bound   orb.Bound
	polygon orb.Polygon
}

// New creates an unloaded mask reading from source, a file path or http(s) URL.
func New(source string, logger *slog.Logger, metrics *observability.Metrics) *Mask {
	return &Mask{
		source:     source,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
		metrics:    metrics,
	}
}

// Load reads and indexes the dataset once. Concurrent callers share a single
// read; later calls after success return immediately.
func (m *Mask) Load(ctx context.Context) error {
	if m.loaded.Load() {
		return nil
	}
	_, err, _ := m.group.Do("load", func() (any, error) {
		if m.loaded.Load() {
			return nil, nil
		}
		start := time.Now()
		data, err := m.read(ctx)
		if err != nil {
			return nil, err
		}
		shapes, err := parse(data)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.shapes = shapes
		m.mu.Unlock()
		m.loaded.Store(true)
		m.metrics.LandmaskShapes.Set(float64(len(shapes)))
		m.logger.Info("land mask loaded",
			"source", m.source,
			"polygons", len(shapes),
			"duration", time.Since(start),
		)
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("load land mask: %w", err)
	}
	return nil
}

// IsLand reports whether the point falls inside any land polygon.
func (m *Mask) IsLand(lat, lng float64) bool {
	if !m.loaded.Load() {
		m.metrics.LandmaskLookups.WithLabelValues("unloaded").Inc()
		return true
	}

	pt := orb.Point{lng, lat}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.shapes {
		if s.bound.Contains(pt) && planar.PolygonContains(s.polygon, pt) {
			m.metrics.LandmaskLookups.WithLabelValues("land").Inc()
			return true
		}
	}
	m.metrics.LandmaskLookups.WithLabelValues("ocean").Inc()
	return false
}

// CheckReadiness returns nil once the dataset has loaded.
func (m *Mask) CheckReadiness(_ context.Context) error {
	if !m.loaded.Load() {
		return errors.New("land mask not loaded")
	}
	return nil
}

// Len returns the number of indexed polygons.
func (m *Mask) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.shapes)
}

func (m *Mask) read(ctx context.Context) ([]byte, error) {
	if !strings.HasPrefix(m.source, "http://") && !strings.HasPrefix(m.source, "https://") {
		data, err := os.ReadFile(m.source)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", m.source, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", m.source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", m.source, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDatasetBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// parse keeps Polygon and MultiPolygon geometries; other geometry types are ignored.
func parse(data []byte) ([]shape, error) {
	var header struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(data, &header) == nil && header.Type == "Topology" {
		return nil, ErrTopoJSON
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	var shapes []shape
	add := func(p orb.Polygon) {
		if len(p) == 0 {
			return
		}
		shapes = append(shapes, shape{bound: p.Bound(), polygon: p})
	}
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			add(g)
		case orb.MultiPolygon:
			for _, p := range g {
				add(p)
			}
		}
	}
	if len(shapes) == 0 {
		return nil, errors.New("dataset contains no land polygons")
	}
	return shapes, nil
}
