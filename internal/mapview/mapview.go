// Package mapview turns matched retrieval candidates into map markers,
// connecting lines and list entries with outbound links.
package mapview

import (
	"math"

	"github.com/yusukeinoue-jpg/lime-tool/internal/geo"
	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
)

// DefaultZoom is the initial zoom of the result map
const DefaultZoom = 14

// Marker kinds
const (
	KindVehicle = "vehicle"
	KindPort    = "port"
)

// Marker is a pin on the map
type Marker struct {
	Kind  string  `json:"kind"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`
	Color string  `json:"color"`
	Icon  string  `json:"icon"`
}

// Line connects a vehicle to its nearest port
type Line struct {
	From      geo.Point `json:"from"`
	To        geo.Point `json:"to"`
	Color     string    `json:"color"`
	DashArray string    `json:"dash_array"`
}

// View is the initial map viewport
type View struct {
	Center geo.Point `json:"center"`
	Zoom   int       `json:"zoom"`
}

// Entry is one row of the detail list
type Entry struct {
	ID             string `json:"id"`
	PlateNumber    string `json:"plate_number"`
	Hours          int    `json:"hours"`
	Header         string `json:"header"`
	Nearest        string `json:"nearest"`
	PortName       string `json:"port_name,omitempty"`
	DistanceMeters int    `json:"distance_meters,omitempty"`
	AdminURL       string `json:"admin_url"`
	RouteURL       string `json:"route_url,omitempty"`
}

// Page is everything the result screen renders
type Page struct {
	Banner  string   `json:"banner"`
	View    View     `json:"view"`
	Markers []Marker `json:"markers"`
	Lines   []Line   `json:"lines"`
	Entries []Entry  `json:"entries"`
}

// Builder assembles pages from pipeline matches
type Builder struct {
	Links         Links
	Zoom          int
	DefaultCenter geo.Point
}

// NewBuilder returns a Builder with zoom 14
func NewBuilder(links Links, defaultCenter geo.Point) *Builder {
	return &Builder{Links: links, Zoom: DefaultZoom, DefaultCenter: defaultCenter}
}

// Build renders matches in the order given. Matches are never re-sorted.
func (b *Builder) Build(matches []models.Match, labels Labels) Page {
	page := Page{
		Banner:  labels.Banner(len(matches)),
		View:    b.view(matches),
		Markers: make([]Marker, 0, 2*len(matches)),
		Lines:   make([]Line, 0, len(matches)),
		Entries: make([]Entry, 0, len(matches)),
	}

	for _, m := range matches {
		c := m.Candidate
		hours := c.WholeHours()
		vehicle := geo.Point{Lat: c.Latitude, Lon: c.Longitude}

		if c.HasCoordinates() {
			page.Markers = append(page.Markers, Marker{
				Kind:  KindVehicle,
				Lat:   c.Latitude,
				Lon:   c.Longitude,
				Label: labels.VehiclePopup(c.PlateNumber, hours),
				Color: "red",
				Icon:  "bicycle",
			})
		}

		entry := Entry{
			ID:          c.ID,
			PlateNumber: c.PlateNumber,
			Hours:       hours,
			Header:      labels.ListHeader(c.PlateNumber, hours),
			Nearest:     labels.NearestUnknown(),
			AdminURL:    b.Links.AdminURL(c.ID),
		}

		if m.Port != nil {
			port := geo.Point{Lat: m.Port.Port.Latitude, Lon: m.Port.Port.Longitude}
			meters := int(math.Round(m.Port.DistanceMeters))

			page.Markers = append(page.Markers, Marker{
				Kind:  KindPort,
				Lat:   port.Lat,
				Lon:   port.Lon,
				Label: m.Port.Port.Name,
				Color: "blue",
				Icon:  "info-sign",
			})
			page.Lines = append(page.Lines, Line{
				From:      vehicle,
				To:        port,
				Color:     "gray",
				DashArray: "5,5",
			})

			entry.PortName = m.Port.Port.Name
			entry.DistanceMeters = meters
			entry.Nearest = labels.Nearest(m.Port.Port.Name, meters)
			entry.RouteURL = b.Links.RouteURL(vehicle, port)
		}

		page.Entries = append(page.Entries, entry)
	}

	return page
}

// view centers on the first candidate with usable coordinates
func (b *Builder) view(matches []models.Match) View {
	zoom := b.Zoom
	if zoom == 0 {
		zoom = DefaultZoom
	}
	for _, m := range matches {
		if m.Candidate.HasCoordinates() {
			return View{Center: geo.Point{Lat: m.Candidate.Latitude, Lon: m.Candidate.Longitude}, Zoom: zoom}
		}
	}
	return View{Center: b.DefaultCenter, Zoom: zoom}
}
