package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/asteroid-impact-engine/internal/domain"
	"github.com/couchcryptid/asteroid-impact-engine/internal/observability"
	"github.com/couchcryptid/asteroid-impact-engine/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memoryStore implements ScenarioStore for testing
type memoryStore struct {
	mu        sync.Mutex
	scenarios map[string]domain.ScenarioResult
	order     []string
	saveErr   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{scenarios: make(map[string]domain.ScenarioResult)}
}

func (m *memoryStore) Save(_ context.Context, r domain.ScenarioResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.scenarios[r.ID]; !ok {
		m.order = append(m.order, r.ID)
	}
	m.scenarios[r.ID] = r
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (domain.ScenarioResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.scenarios[id]
	if !ok {
		return domain.ScenarioResult{}, repository.ErrNotFound
	}
	return r, nil
}

func (m *memoryStore) ListRecent(_ context.Context, limit int) ([]repository.ScenarioSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []repository.ScenarioSummary{}
	for i := len(m.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		r := m.scenarios[m.order[i]]
		out = append(out, repository.ScenarioSummary{
			ID:             r.ID,
			ImpactClass:    r.Effects.ImpactClass,
			EnergyMegatons: r.Effects.EnergyMegatons,
			SurfaceType:    string(r.Parameters.Location.SurfaceType),
			ComputedAt:     r.ComputedAt,
		})
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupRouter(store ScenarioStore) *gin.Engine {
	r := gin.New()
	h := NewHandler(domain.Dependencies{}, store, discardLogger())
	h.Register(r)
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func impactBody() map[string]any {
	return map[string]any{
		"diameter":    100,
		"material_id": "stone",
		"velocity":    20,
		"angle":       45,
		"location":    map[string]any{"lat": 0, "lng": 0, "surface_type": "land"},
	}
}

func TestComputeImpact(t *testing.T) {
	store := newMemoryStore()
	r := setupRouter(store)

	w := do(r, http.MethodPost, "/api/v1/impact", impactBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got domain.ScenarioResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, domain.ClassRegional, got.Effects.ImpactClass)
	assert.Regexp(t, `^scn-[0-9a-f]{16}$`, got.ID)
	assert.Nil(t, got.Mission)
	assert.Nil(t, got.Effects.TsunamiHeight)

	saved, err := store.Get(context.Background(), got.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Effects.EnergyMegatons, saved.Effects.EnergyMegatons)
}

func TestComputeImpact_WithMission(t *testing.T) {
	body := impactBody()
	body["id"] = "scn-mission"
	body["mission"] = map[string]any{"lead_time_days": 400, "strategy_id": "kinetic"}

	w := do(setupRouter(nil), http.MethodPost, "/api/v1/impact", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got domain.ScenarioResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "scn-mission", got.ID)
	require.NotNil(t, got.Mission)
	assert.Equal(t, "kinetic", got.Mission.StrategyID)
	assert.True(t, got.Mission.Feasible)
}

func TestComputeImpact_RecorderFailureStillResponds(t *testing.T) {
	store := newMemoryStore()
	store.saveErr = errors.New("disk full")

	w := do(setupRouter(store), http.MethodPost, "/api/v1/impact", impactBody())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestComputeImpact_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"zero diameter", func(b map[string]any) { b["diameter"] = 0 }},
		{"angle above 90", func(b map[string]any) { b["angle"] = 120 }},
		{"latitude out of range", func(b map[string]any) {
			b["location"] = map[string]any{"lat": 91, "lng": 0}
		}},
		{"unknown surface", func(b map[string]any) {
			b["location"] = map[string]any{"lat": 0, "lng": 0, "surface_type": "lava"}
		}},
		{"unknown material", func(b map[string]any) { b["material_id"] = "unobtainium" }},
		{"unknown mission strategy", func(b map[string]any) {
			b["mission"] = map[string]any{"lead_time_days": 400, "strategy_id": "wishful"}
		}},
		{"vanishing diameter", func(b map[string]any) { b["diameter"] = 1e-120 }},
		{"overflowing diameter", func(b map[string]any) { b["diameter"] = 1e110 }},
		{"place without geocoder", func(b map[string]any) {
			b["place"] = map[string]any{"name": "Chicxulub", "region": "Yucatan"}
		}},
		{"place without name", func(b map[string]any) { b["place"] = map[string]any{"region": "Yucatan"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := impactBody()
			tt.mutate(body)
			w := do(setupRouter(nil), http.MethodPost, "/api/v1/impact", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}

	t.Run("malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/impact", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		setupRouter(nil).ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAssessMission(t *testing.T) {
	r := setupRouter(nil)

	t.Run("known strategy", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/v1/mission", map[string]any{
			"lead_time_days": 365, "diameter": 100, "strategy_id": "kinetic",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var got domain.MissionOutcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		want, err := domain.AssessMission(365, 100, "kinetic")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/v1/mission", map[string]any{
			"lead_time_days": 365, "diameter": 100, "strategy_id": "wishful",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing lead time", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/v1/mission", map[string]any{
			"diameter": 100, "strategy_id": "kinetic",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRankStrategies(t *testing.T) {
	r := setupRouter(nil)

	w := do(r, http.MethodGet, "/api/v1/missions/rank?lead_time_days=400&diameter=300", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Outcomes []domain.MissionOutcome `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Outcomes, len(domain.Strategies))
	assert.True(t, resp.Outcomes[0].Feasible)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/v1/missions/rank?diameter=300", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/v1/missions/rank?lead_time_days=-1&diameter=300", nil).Code)
}

func TestCatalogRoutes(t *testing.T) {
	r := setupRouter(nil)

	tests := []struct {
		path string
		key  string
		want int
	}{
		{"/api/v1/materials", "materials", len(domain.Materials)},
		{"/api/v1/strategies", "strategies", len(domain.Strategies)},
		{"/api/v1/presets", "presets", len(domain.FamousImpactors)},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			w := do(r, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var resp map[string][]json.RawMessage
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Len(t, resp[tt.key], tt.want)
		})
	}
}

func TestScenarioHistory(t *testing.T) {
	store := newMemoryStore()
	r := setupRouter(store)

	first := impactBody()
	first["id"] = "scn-first"
	second := impactBody()
	second["id"] = "scn-second"
	second["diameter"] = 1000
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/impact", first).Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/impact", second).Code)

	t.Run("get by id", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/scenarios/scn-first", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got domain.ScenarioResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 100.0, got.Parameters.Diameter)
	})

	t.Run("missing id", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/scenarios/nope", nil).Code)
	})

	t.Run("list with limit", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/scenarios?limit=1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Scenarios []repository.ScenarioSummary `json:"scenarios"`
			Count     int                          `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, "scn-second", resp.Scenarios[0].ID)
	})

	t.Run("invalid limit", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/v1/scenarios?limit=abc", nil).Code)
	})
}

func TestScenarioHistoryDisabled(t *testing.T) {
	r := setupRouter(nil)

	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/api/v1/scenarios", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/api/v1/scenarios/scn-1", nil).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(1))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/ping", nil).Code)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(0))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for range 5 {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", nil).Code)
	}
}

func TestNewRouter_MetricsAndCORS(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	r := NewRouter(RouterOptions{
		AllowOrigins: []string{"https://impact.example.org"},
		RateLimit:    100,
		Metrics:      metrics,
	})
	NewHandler(domain.Dependencies{}, nil, discardLogger()).Register(r)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/materials", nil)
	req.Header.Set("Origin", "https://impact.example.org")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://impact.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.APIRequests.WithLabelValues("/api/v1/materials", "200")))

	do(r, http.MethodGet, "/api/v1/unknown", nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.APIRequests.WithLabelValues("unmatched", "404")))
}

type fixedGeocoder struct {
	domain.GeocodingResult
}

func (g fixedGeocoder) ForwardGeocode(context.Context, string, string) (domain.GeocodingResult, error) {
	return g.GeocodingResult, nil
}

func (g fixedGeocoder) ReverseGeocode(context.Context, float64, float64) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{}, errors.New("unexpected reverse lookup")
}

func TestComputeImpact_Place(t *testing.T) {
	r := gin.New()
	geo := fixedGeocoder{domain.GeocodingResult{Lat: 21.4, Lng: -89.5, FormattedAddress: "Chicxulub Puerto, Yucatan, Mexico"}}
	NewHandler(domain.Dependencies{Geocoder: geo}, nil, discardLogger()).Register(r)

	body := impactBody()
	delete(body, "location")
	body["place"] = map[string]any{"name": "Chicxulub", "region": "Yucatan"}

	w := do(r, http.MethodPost, "/api/v1/impact", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got domain.ScenarioResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, domain.ImpactLocation{
		Lat: 21.4, Lng: -89.5, Name: "Chicxulub Puerto, Yucatan, Mexico", SurfaceType: domain.SurfaceLand,
	}, got.Parameters.Location)
}
