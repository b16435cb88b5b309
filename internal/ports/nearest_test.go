package ports

import (
	"errors"
	"math"
	"testing"

	"github.com/yusukeinoue-jpg/lime-tool/internal/geo"
	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
)

func TestNearest_PicksCloserPort(t *testing.T) {
	table := []models.ReferencePort{
		{Seq: 0, Name: "East", Latitude: 35.68, Longitude: 139.77},
		{Seq: 1, Name: "North", Latitude: 35.70, Longitude: 139.76},
	}

	got, err := Nearest(35.68, 139.76, table)
	if err != nil {
		t.Fatalf("Nearest() error = %v", err)
	}
	if got.Port.Name != "East" {
		t.Errorf("Nearest() port = %s, want East", got.Port.Name)
	}
	if math.Abs(got.DistanceMeters-903) > 10 {
		t.Errorf("Nearest() distance = %.1f, want ~903", got.DistanceMeters)
	}
}

func TestNearest_IsMinimum(t *testing.T) {
	table := []models.ReferencePort{
		{Name: "A", Latitude: 35.60, Longitude: 139.60},
		{Name: "B", Latitude: 35.71, Longitude: 139.81},
		{Name: "C", Latitude: 35.65, Longitude: 139.74},
		{Name: "D", Latitude: 35.69, Longitude: 139.69},
		{Name: "E", Latitude: 35.62, Longitude: 139.78},
	}
	candidates := []geo.Point{
		{Lat: 35.68, Lon: 139.76},
		{Lat: 35.61, Lon: 139.61},
		{Lat: 35.70, Lon: 139.70},
		{Lat: 35.63, Lon: 139.77},
	}

	for _, c := range candidates {
		got, err := Nearest(c.Lat, c.Lon, table)
		if err != nil {
			t.Fatalf("Nearest(%v) error = %v", c, err)
		}
		for _, p := range table {
			if d := geo.Distance(c.Lat, c.Lon, p.Latitude, p.Longitude); d < got.DistanceMeters {
				t.Errorf("Nearest(%v) = %s (%.1f m) but %s is closer (%.1f m)", c, got.Port.Name, got.DistanceMeters, p.Name, d)
			}
		}
	}
}

func TestNearest_TieGoesToFirst(t *testing.T) {
	// Mirror images across the candidate's meridian are exactly equidistant
	table := []models.ReferencePort{
		{Seq: 0, Name: "West", Latitude: 10.0, Longitude: -1.0},
		{Seq: 1, Name: "East", Latitude: 10.0, Longitude: 1.0},
		{Seq: 2, Name: "WestAgain", Latitude: 10.0, Longitude: -1.0},
	}

	for i := 0; i < 3; i++ {
		got, err := Nearest(10.0, 0.0, table)
		if err != nil {
			t.Fatalf("Nearest() error = %v", err)
		}
		if got.Port.Name != "West" {
			t.Errorf("Nearest() tie resolved to %s, want West", got.Port.Name)
		}
	}
}

func TestNearest_EmptyTable(t *testing.T) {
	_, err := Nearest(35.68, 139.76, nil)
	if !errors.Is(err, ErrNoReferenceData) {
		t.Errorf("Nearest(empty) error = %v, want ErrNoReferenceData", err)
	}
}

func TestNearest_NaNHandling(t *testing.T) {
	table := []models.ReferencePort{
		{Name: "Broken", Latitude: math.NaN(), Longitude: 139.76},
		{Name: "Good", Latitude: 35.69, Longitude: 139.76},
	}

	got, err := Nearest(35.68, 139.76, table)
	if err != nil {
		t.Fatalf("Nearest() error = %v", err)
	}
	if got.Port.Name != "Good" {
		t.Errorf("Nearest() = %s, want Good (NaN ports skipped)", got.Port.Name)
	}

	_, err = Nearest(math.NaN(), math.NaN(), table)
	if !errors.Is(err, ErrNoFiniteDistance) {
		t.Errorf("Nearest(NaN candidate) error = %v, want ErrNoFiniteDistance", err)
	}
}
