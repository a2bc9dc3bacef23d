package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrPlaceUnresolved is returned when a named impact site cannot be geocoded.
var ErrPlaceUnresolved = errors.New("impact site could not be resolved")

// PlaceQuery names an impact site by place instead of coordinates.
type PlaceQuery struct {
	Name   string `json:"name" binding:"required"`
	Region string `json:"region,omitempty"`
}

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lng              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves place names for impact points.
type Geocoder interface {
	// ForwardGeocode converts a place name and optional region to coordinates.
	ForwardGeocode(ctx context.Context, name, region string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lng float64) (GeocodingResult, error)
}

// SurfaceClassifier answers whether a point lies on land.
type SurfaceClassifier interface {
	IsLand(lat, lng float64) bool
}

// ResolveLocation fills the collaborator-derived parts of loc. A caller-supplied
// surface type is kept; otherwise the classifier decides, defaulting to land when
// there is none. A missing name is reverse geocoded and falls back to the
// coordinates. Failures degrade with a warning and never abort the scenario.
func ResolveLocation(ctx context.Context, loc ImpactLocation, geocoder Geocoder, classifier SurfaceClassifier, logger *slog.Logger) ImpactLocation {
	if loc.SurfaceType == "" {
		loc.SurfaceType = SurfaceLand
		if classifier != nil && !classifier.IsLand(loc.Lat, loc.Lng) {
			loc.SurfaceType = SurfaceOcean
		}
	}

	if loc.Name != "" {
		return loc
	}

	if geocoder != nil {
		result, err := geocoder.ReverseGeocode(ctx, loc.Lat, loc.Lng)
		switch {
		case err != nil:
			logger.Warn("reverse geocoding failed",
				"lat", loc.Lat,
				"lng", loc.Lng,
				"error", err,
			)
		case result.PlaceName != "":
			loc.Name = result.PlaceName
			return loc
		case result.FormattedAddress != "":
			loc.Name = result.FormattedAddress
			return loc
		}
	}

	loc.Name = CoordinateName(loc.Lat, loc.Lng)
	return loc
}

// ResolvePlace forward geocodes a named site into coordinates. Every failure,
// including a nil geocoder, wraps ErrPlaceUnresolved.
func ResolvePlace(ctx context.Context, q PlaceQuery, geocoder Geocoder) (ImpactLocation, error) {
	if geocoder == nil {
		return ImpactLocation{}, fmt.Errorf("%w: %q: geocoding is disabled", ErrPlaceUnresolved, q.Name)
	}
	result, err := geocoder.ForwardGeocode(ctx, q.Name, q.Region)
	if err != nil {
		return ImpactLocation{}, fmt.Errorf("%w: %q: %w", ErrPlaceUnresolved, q.Name, err)
	}
	if result == (GeocodingResult{}) {
		return ImpactLocation{}, fmt.Errorf("%w: %q: no match", ErrPlaceUnresolved, q.Name)
	}

	loc := ImpactLocation{Lat: result.Lat, Lng: result.Lng, Name: result.FormattedAddress}
	if loc.Name == "" {
		loc.Name = result.PlaceName
	}
	if loc.Name == "" {
		loc.Name = q.Name
	}
	return loc, nil
}

// CoordinateName formats a point like "35.6762°N, 139.6503°E".
func CoordinateName(lat, lng float64) string {
	ns, ew := "N", "E"
	if lat < 0 {
		ns, lat = "S", -lat
	}
	if lng < 0 {
		ew, lng = "W", -lng
	}
	return fmt.Sprintf("%.4f°%s, %.4f°%s", lat, ns, lng, ew)
}
