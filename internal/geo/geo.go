// Package geo provides the distance metrics used to price travel between
// coordinates. Metrics are pure and symmetric; callers pick one per problem
// instance, not per call.
package geo

import (
	"math"

	"fieldroute/internal/model"
)

type Metric interface {
	// Distance returns a non-negative, symmetric distance; zero iff a == b.
	Distance(a, b model.GeoPoint) float64
}

// Haversine is the great-circle distance in kilometers (Earth radius 6371 km).
type Haversine struct{}

func (Haversine) Distance(a, b model.GeoPoint) float64 {
	const R = 6371.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return R * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Planar is the Euclidean distance over coordinates read as a plane,
// for abstract or test instances.
type Planar struct{}

func (Planar) Distance(a, b model.GeoPoint) float64 {
	dx := a.Lat - b.Lat
	dy := a.Lng - b.Lng
	return math.Sqrt(dx*dx + dy*dy)
}

// ByName maps a metric option value to its implementation. Unknown names fall
// back to haversine.
func ByName(name string) Metric {
	if name == model.MetricPlanar {
		return Planar{}
	}
	return Haversine{}
}
