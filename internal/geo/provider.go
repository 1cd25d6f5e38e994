// Package geo turns coordinates into the travel distances the dispatcher
// works with.
package geo

import (
	"context"
	"math"

	"github.com/chrisdamba/dispatchsim/internal/models"
)

const earthRadiusKm = 6371.0 // Earth's radius in kilometers

// Provider returns the travel distance in kilometres between two points.
// Implementations may call out to a routing service; the dispatcher only ever
// sees the precomputed Matrix.
type Provider interface {
	Distance(ctx context.Context, from, to models.Location) (float64, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, from, to models.Location) (float64, error)

func (f ProviderFunc) Distance(ctx context.Context, from, to models.Location) (float64, error) {
	return f(ctx, from, to)
}

// Haversine estimates road distance as great-circle distance times a fixed
// allowance factor.
type Haversine struct {
	Allowance float64
}

func (h Haversine) Distance(_ context.Context, from, to models.Location) (float64, error) {
	allowance := h.Allowance
	if allowance <= 0 {
		allowance = 1
	}
	return GreatCircle(from, to) * allowance, nil
}

// GreatCircle returns the haversine distance in kilometres.
func GreatCircle(loc1, loc2 models.Location) float64 {
	lat1 := degreesToRadians(loc1.Lat)
	lon1 := degreesToRadians(loc1.Lon)
	lat2 := degreesToRadians(loc2.Lat)
	lon2 := degreesToRadians(loc2.Lon)

	dlat := lat2 - lat1
	dlon := lon2 - lon1
	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
