// Package geo holds the point value type and great-circle distance math
// shared by clustering, recommendation scoring, and proximity search.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCoordinate signals a latitude/longitude outside the valid range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// MetersPerDegree approximates one degree of arc at the equator.
// Valid at city scale; it is the documented small-angle tradeoff used for
// cluster radii and eps, not a geodesic conversion.
const MetersPerDegree = 111_000.0

// Point is an immutable WGS84 coordinate pair in degrees.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// NewPoint validates and creates a Point.
// Latitude must be in [-90,90] and longitude in [-180,180]; out-of-range
// values are rejected, never clamped.
func NewPoint(lon, lat float64) (Point, error) {
	if !Valid(lat, lon) {
		return Point{}, fmt.Errorf("lat=%f lon=%f: %w", lat, lon, ErrInvalidCoordinate)
	}
	return Point{Lon: lon, Lat: lat}, nil
}

// Valid checks that latitude is in [-90,90] and longitude in [-180,180].
func Valid(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// DegreesToMeters converts a degree delta to meters via the equatorial
// approximation.
func DegreesToMeters(deltaDegrees float64) float64 {
	return deltaDegrees * MetersPerDegree
}

// EuclideanDegrees returns the planar distance between two points in raw
// degrees. Clustering treats coordinates as Euclidean for small eps.
func EuclideanDegrees(a, b Point) float64 {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	return math.Sqrt(dLat*dLat + dLon*dLon)
}
