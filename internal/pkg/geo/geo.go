package geo

import "math"

// EarthRadiusMeters is the mean earth radius used by the spherical model.
const EarthRadiusMeters = 6371000.0

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is a best-effort human readable description of a coordinate.
type Place struct {
	Address string
	City    string
}

// DistanceMeters returns the great-circle distance between a and b in meters
// using the haversine formula. Inputs are not range checked; callers gate
// device samples with ValidCoordinates first.
func DistanceMeters(a, b Coordinates) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	lat1Rad := toRadians(a.Latitude)
	lat2Rad := toRadians(b.Latitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	// cos product grouped so the result is bit-for-bit symmetric in a and b
	h := sinLat*sinLat + sinLon*sinLon*(math.Cos(lat1Rad)*math.Cos(lat2Rad))

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// ValidCoordinates reports whether latitude and longitude are finite and
// inside [-90, 90] and [-180, 180] respectively.
func ValidCoordinates(latitude, longitude float64) bool {
	if math.IsNaN(latitude) || math.IsInf(latitude, 0) {
		return false
	}
	if math.IsNaN(longitude) || math.IsInf(longitude, 0) {
		return false
	}
	return latitude >= -90 && latitude <= 90 && longitude >= -180 && longitude <= 180
}

// Valid reports whether c passes ValidCoordinates.
func (c Coordinates) Valid() bool {
	return ValidCoordinates(c.Latitude, c.Longitude)
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
