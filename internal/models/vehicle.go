package models

import (
	"math"
	"time"
)

// FleetRecord is one row of an uploaded fleet snapshot after schema mapping.
type FleetRecord struct {
	ID               string     `json:"id"`
	PlateNumber      string     `json:"plate_number"`
	OperationalState string     `json:"operational_state"`
	LastActivity     *time.Time `json:"last_activity,omitempty"` // nil when absent or unparseable
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	ElapsedHours     float64    `json:"elapsed_hours"`
}

// HasCoordinates reports whether the record carries finite coordinates
func (r FleetRecord) HasCoordinates() bool {
	return !math.IsNaN(r.Latitude) && !math.IsNaN(r.Longitude) &&
		!math.IsInf(r.Latitude, 0) && !math.IsInf(r.Longitude, 0)
}

// WholeHours is ElapsedHours truncated to its integer part
func (r FleetRecord) WholeHours() int {
	return int(r.ElapsedHours)
}

// Match is a retrieval candidate together with its nearest port.
// Port is nil when no finite distance could be computed.
type Match struct {
	Candidate FleetRecord `json:"candidate"`
	Port      *PortMatch  `json:"port,omitempty"`
}
