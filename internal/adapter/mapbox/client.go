package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/asteroid-impact-engine/internal/domain"
	"github.com/couchcryptid/asteroid-impact-engine/internal/observability"
)

const (
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

	// Forward matches below this relevance are treated as no match; Mapbox
	// returns a best guess for almost any string.
	minForwardRelevance = 0.5

	errorBodyLimit = 1024
)

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// lookup is one geocoding call: the path term and the feature types to match.
type lookup struct {
	kind  string // metric label
	term  string
	types string
}

// ForwardGeocode locates a named impact site. Region narrows ambiguous names.
func (c *Client) ForwardGeocode(ctx context.Context, name, region string) (domain.GeocodingResult, error) {
	term := strings.TrimSpace(name)
	if region = strings.TrimSpace(region); region != "" {
		term += ", " + region
	}

	f, found, err := c.first(ctx, lookup{kind: "forward", term: term, types: "place,locality,region,country"})
	if err != nil || !found {
		return domain.GeocodingResult{}, err
	}
	if f.Relevance < minForwardRelevance {
		c.logger.Debug("discarding weak forward match", "query", term, "match", f.PlaceName, "relevance", f.Relevance)
		return domain.GeocodingResult{}, nil
	}
	return f.result(), nil
}

// ReverseGeocode names the place nearest an impact point. Open-ocean points
// usually return no features.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (domain.GeocodingResult, error) {
	// Mapbox takes lng,lat.
	term := fmt.Sprintf("%.6f,%.6f", lng, lat)

	f, found, err := c.first(ctx, lookup{kind: "reverse", term: term, types: "place,region,country"})
	if err != nil || !found {
		return domain.GeocodingResult{}, err
	}
	return f.result(), nil
}

func (c *Client) endpoint(l lookup) string {
	q := url.Values{}
	q.Set("access_token", c.token)
	q.Set("limit", "1")
	q.Set("types", l.types)
	return strings.TrimRight(c.baseURL, "/") + "/" + url.PathEscape(l.term) + ".json?" + q.Encode()
}

// first runs l and returns its top feature. found is false when Mapbox
// answered with an empty feature list.
func (c *Client) first(ctx context.Context, l lookup) (f feature, found bool, err error) {
	outcome := "error"
	start := time.Now()
	defer func() {
		c.metrics.GeocodeAPIDuration.WithLabelValues(l.kind).Observe(time.Since(start).Seconds())
		c.metrics.GeocodeRequests.WithLabelValues(l.kind, outcome).Inc()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(l), nil)
	if err != nil {
		return feature{}, false, fmt.Errorf("build %s lookup: %w", l.kind, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return feature{}, false, fmt.Errorf("%s lookup: %w", l.kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return feature{}, false, fmt.Errorf("mapbox %s lookup: status %d: %s", l.kind, resp.StatusCode, msg)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return feature{}, false, fmt.Errorf("decode response: %w", err)
	}
	if len(body.Features) == 0 {
		outcome = "empty"
		c.logger.Debug("geocode returned no features", "kind", l.kind, "term", l.term)
		return feature{}, false, nil
	}
	outcome = "success"
	return body.Features[0], true, nil
}

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lng, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}

func (f feature) result() domain.GeocodingResult {
	r := domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}
	if len(f.Center) == 2 {
		r.Lng, r.Lat = f.Center[0], f.Center[1]
	}
	return r
}
