package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock collaborators ---

type mockGeocoder struct {
	forwardResult GeocodingResult
	forwardErr    error
	forwardCalls  int
	lastQuery     [2]string

	reverseResult GeocodingResult
	reverseErr    error
	reverseCalls  int
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, name, region string) (GeocodingResult, error) {
	m.forwardCalls++
	m.lastQuery = [2]string{name, region}
	return m.forwardResult, m.forwardErr
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (GeocodingResult, error) {
	m.reverseCalls++
	return m.reverseResult, m.reverseErr
}

type staticSurface bool

func (s staticSurface) IsLand(float64, float64) bool { return bool(s) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestResolveLocation_Surface(t *testing.T) {
	ctx := context.Background()
	base := ImpactLocation{Lat: 10, Lng: -30, Name: "Atlantic"}

	t.Run("nil classifier defaults to land", func(t *testing.T) {
		got := ResolveLocation(ctx, base, nil, nil, discardLogger())
		assert.Equal(t, SurfaceLand, got.SurfaceType)
	})

	t.Run("classifier reports ocean", func(t *testing.T) {
		got := ResolveLocation(ctx, base, nil, staticSurface(false), discardLogger())
		assert.Equal(t, SurfaceOcean, got.SurfaceType)
	})

	t.Run("caller surface is kept", func(t *testing.T) {
		loc := base
		loc.SurfaceType = SurfaceLand
		got := ResolveLocation(ctx, loc, nil, staticSurface(false), discardLogger())
		assert.Equal(t, SurfaceLand, got.SurfaceType)
	})
}

func TestResolveLocation_Name(t *testing.T) {
	ctx := context.Background()
	unnamed := ImpactLocation{Lat: 35.6762, Lng: 139.6503, SurfaceType: SurfaceLand}

	t.Run("caller name skips geocoding", func(t *testing.T) {
		geo := &mockGeocoder{}
		loc := unnamed
		loc.Name = "Tokyo"
		got := ResolveLocation(ctx, loc, geo, nil, discardLogger())
		assert.Equal(t, "Tokyo", got.Name)
		assert.Zero(t, geo.reverseCalls)
	})

	t.Run("place name from reverse geocode", func(t *testing.T) {
		geo := &mockGeocoder{reverseResult: GeocodingResult{PlaceName: "Shinjuku", FormattedAddress: "Shinjuku, Tokyo, Japan"}}
		got := ResolveLocation(ctx, unnamed, geo, nil, discardLogger())
		assert.Equal(t, "Shinjuku", got.Name)
		assert.Equal(t, 1, geo.reverseCalls)
	})

	t.Run("formatted address when place name is empty", func(t *testing.T) {
		geo := &mockGeocoder{reverseResult: GeocodingResult{FormattedAddress: "Tokyo, Japan"}}
		got := ResolveLocation(ctx, unnamed, geo, nil, discardLogger())
		assert.Equal(t, "Tokyo, Japan", got.Name)
	})

	t.Run("geocoder failure falls back to coordinates", func(t *testing.T) {
		geo := &mockGeocoder{reverseErr: errors.New("timeout")}
		got := ResolveLocation(ctx, unnamed, geo, nil, discardLogger())
		assert.Equal(t, "35.6762°N, 139.6503°E", got.Name)
	})

	t.Run("no geocoder", func(t *testing.T) {
		loc := ImpactLocation{Lat: -33.8688, Lng: -70.5, SurfaceType: SurfaceLand}
		got := ResolveLocation(ctx, loc, nil, nil, discardLogger())
		assert.Equal(t, "33.8688°S, 70.5000°W", got.Name)
	})
}

func TestResolvePlace(t *testing.T) {
	ctx := context.Background()
	query := PlaceQuery{Name: "Chelyabinsk", Region: "Russia"}

	t.Run("forward geocode result", func(t *testing.T) {
		geo := &mockGeocoder{forwardResult: GeocodingResult{
			Lat: 55.1644, Lng: 61.4368, PlaceName: "Chelyabinsk", FormattedAddress: "Chelyabinsk, Chelyabinsk Oblast, Russia",
		}}
		got, err := ResolvePlace(ctx, query, geo)
		require.NoError(t, err)
		assert.Equal(t, ImpactLocation{Lat: 55.1644, Lng: 61.4368, Name: "Chelyabinsk, Chelyabinsk Oblast, Russia"}, got)
		assert.Equal(t, [2]string{"Chelyabinsk", "Russia"}, geo.lastQuery)
		assert.Zero(t, geo.reverseCalls)
	})

	t.Run("match at the origin is kept", func(t *testing.T) {
		geo := &mockGeocoder{forwardResult: GeocodingResult{PlaceName: "Null Island"}}
		got, err := ResolvePlace(ctx, PlaceQuery{Name: "Null Island"}, geo)
		require.NoError(t, err)
		assert.Equal(t, ImpactLocation{Name: "Null Island"}, got)
	})

	t.Run("query name when result is unnamed", func(t *testing.T) {
		geo := &mockGeocoder{forwardResult: GeocodingResult{Lat: 55.1, Lng: 61.4}}
		got, err := ResolvePlace(ctx, query, geo)
		require.NoError(t, err)
		assert.Equal(t, "Chelyabinsk", got.Name)
	})

	tests := []struct {
		name string
		geo  Geocoder
	}{
		{"no geocoder", nil},
		{"geocoder error", &mockGeocoder{forwardErr: errors.New("timeout")}},
		{"no match", &mockGeocoder{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolvePlace(ctx, query, tt.geo)
			require.ErrorIs(t, err, ErrPlaceUnresolved)
			assert.Contains(t, err.Error(), "Chelyabinsk")
		})
	}
}
