package ports

import (
	"errors"
	"math"

	"github.com/yusukeinoue-jpg/lime-tool/internal/geo"
	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
)

var (
	// ErrNoReferenceData is returned when matching against an empty reference table
	ErrNoReferenceData = errors.New("no reference data")
	// ErrNoFiniteDistance is returned when every distance is NaN (e.g. missing coordinates)
	ErrNoFiniteDistance = errors.New("no finite distance to any reference port")
)

// Nearest scans the whole table and returns the port at minimum haversine
// distance from (lat, lon). Equal distances resolve to the earlier port.
func Nearest(lat, lon float64, table []models.ReferencePort) (models.PortMatch, error) {
	if len(table) == 0 {
		return models.PortMatch{}, ErrNoReferenceData
	}

	points := make([]geo.Point, len(table))
	for i, p := range table {
		points[i] = geo.Point{Lat: p.Latitude, Lon: p.Longitude}
	}
	distances := geo.DistancesFrom(lat, lon, points)

	best := -1
	for i, d := range distances {
		if math.IsNaN(d) {
			continue
		}
		if best < 0 || d < distances[best] {
			best = i
		}
	}
	if best < 0 {
		return models.PortMatch{}, ErrNoFiniteDistance
	}

	return models.PortMatch{Port: table[best], DistanceMeters: distances[best]}, nil
}
