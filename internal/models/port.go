package models

// ReferencePort is one row of the static reference table of service ports.
// Seq is the row position in the source table and fixes tie-break order.
type ReferencePort struct {
	Seq       int     `json:"seq"`
	Name      string  `json:"name" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// PortMatch pairs a candidate with its nearest reference port
type PortMatch struct {
	Port           ReferencePort `json:"port"`
	DistanceMeters float64       `json:"distance_meters"`
}
