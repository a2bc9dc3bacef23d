package domain

import "math"

const (
	kmPerDegree      = 111.0
	cityInfluenceKm  = 100.0
	cityDensityFloor = 0.1

	desertDensity = 5.0  // people/km²
	ruralDensity  = 50.0 // people/km²
)

// DensityEstimator returns a population density in people/km² for a point.
type DensityEstimator interface {
	Density(lat, lng float64, surface SurfaceType) float64
}

// City is a reference centroid with its population density in people/km².
type City struct {
	Name    string
	Lat     float64
	Lng     float64
	Density float64
}

// ReferenceCities are the built-in centroids used by CityCentroidDensity.
var ReferenceCities = []City{
	{Name: "Tokyo", Lat: 35.6762, Lng: 139.6503, Density: 6158},
	{Name: "Delhi", Lat: 28.7041, Lng: 77.1025, Density: 11320},
	{Name: "New York", Lat: 40.7128, Lng: -74.0060, Density: 10947},
	{Name: "Mumbai", Lat: 19.0760, Lng: 72.8777, Density: 20694},
	{Name: "London", Lat: 51.5074, Lng: -0.1278, Density: 5701},
	{Name: "Sydney", Lat: -33.8688, Lng: 151.2093, Density: 2058},
	{Name: "Moscow", Lat: 55.7558, Lng: 37.6173, Density: 4822},
	{Name: "Shanghai", Lat: 31.2304, Lng: 121.4737, Density: 3816},
	{Name: "Beijing", Lat: 39.9042, Lng: 116.4074, Density: 1311},
	{Name: "São Paulo", Lat: -23.5505, Lng: -46.6333, Density: 7821},
}

// CityCentroidDensity is a coarse heuristic: density falls off linearly from the
// nearest reference city out to 100 km (floored at 10% of the city value), beyond
// which oceans are empty, the desert bands are sparse and everything else is rural.
// A nil Cities slice uses ReferenceCities.
type CityCentroidDensity struct {
	Cities []City
}

func (c CityCentroidDensity) Density(lat, lng float64, surface SurfaceType) float64 {
	cities := c.Cities
	if cities == nil {
		cities = ReferenceCities
	}

	nearest := math.Inf(1)
	var nearestCity City
	for _, city := range cities {
		d := equirectangularKm(lat, lng, city.Lat, city.Lng)
		if d < nearest {
			nearest = d
			nearestCity = city
		}
	}

	if nearest < cityInfluenceKm {
		return nearestCity.Density * math.Max(cityDensityFloor, 1-nearest/cityInfluenceKm)
	}

	switch {
	case surface == SurfaceOcean:
		return 0
	case inDesertBand(lat, lng):
		return desertDensity
	default:
		return ruralDensity
	}
}

// equirectangularKm scales the longitude delta by the cosine of the impact latitude.
func equirectangularKm(lat, lng, cityLat, cityLng float64) float64 {
	dLat := (cityLat - lat) * kmPerDegree
	dLng := (cityLng - lng) * kmPerDegree * math.Cos(lat*math.Pi/180)
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// inDesertBand covers the Sahara/Arabia and the North American southwest.
func inDesertBand(lat, lng float64) bool {
	absLat := math.Abs(lat)
	if absLat <= 20 || absLat >= 40 {
		return false
	}
	return (lng > -20 && lng < 60) || (lng > -120 && lng < -100)
}

// AffectedPopulation counts the people inside a circle of blastRadius meters.
func AffectedPopulation(est DensityEstimator, lat, lng, blastRadius float64, surface SurfaceType) int {
	areaKm2 := math.Pi * math.Pow(blastRadius/1000, 2)
	return int(math.Floor(areaKm2 * est.Density(lat, lng, surface)))
}

// EstimateAffectedPopulation uses the reference-city heuristic.
func EstimateAffectedPopulation(lat, lng, blastRadius float64, surface SurfaceType) int {
	return AffectedPopulation(CityCentroidDensity{}, lat, lng, blastRadius, surface)
}
