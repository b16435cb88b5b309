// Package ports loads the static reference table of service ports and matches
// vehicles to their nearest port.
package ports

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
	"github.com/yusukeinoue-jpg/lime-tool/internal/tabular"
)

// Reference table column names (after normalization)
const (
	ColumnLatitude  = "latitude"
	ColumnLongitude = "longitude"
	ColumnPlaceName = "place_name"
)

var (
	// ErrMissingColumns is returned when the reference CSV lacks a required column
	ErrMissingColumns = errors.New("reference table is missing required columns")
	// ErrInvalidRow is returned when a reference row has an unusable name or coordinates
	ErrInvalidRow = errors.New("invalid reference row")

	validate = validator.New()
)

// Load reads the reference table at path. Files ending in .shp are read as
// point shapefiles; anything else is read as CSV.
func Load(path string) ([]models.ReferencePort, error) {
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return LoadShapefile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening reference table: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses a reference table with latitude, longitude and place_name columns.
// Column names are matched case-insensitively after trimming.
func ReadCSV(r io.Reader) ([]models.ReferencePort, error) {
	table, err := tabular.Read(r)
	if err != nil {
		return nil, fmt.Errorf("parsing reference table: %w", err)
	}

	if missing := table.Missing(ColumnLatitude, ColumnLongitude, ColumnPlaceName); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	latCol := table.Column(ColumnLatitude)
	lonCol := table.Column(ColumnLongitude)
	nameCol := table.Column(ColumnPlaceName)

	result := make([]models.ReferencePort, 0, len(table.Rows))
	for i, row := range table.Rows {
		// Line numbers are 1-based and count the header
		line := i + 2

		lat, err := strconv.ParseFloat(tabular.Cell(row, latCol), 64)
		if err != nil {
			return nil, fmt.Errorf("%w on line %d: latitude %q", ErrInvalidRow, line, tabular.Cell(row, latCol))
		}
		lon, err := strconv.ParseFloat(tabular.Cell(row, lonCol), 64)
		if err != nil {
			return nil, fmt.Errorf("%w on line %d: longitude %q", ErrInvalidRow, line, tabular.Cell(row, lonCol))
		}

		port := models.ReferencePort{
			Seq:       len(result),
			Name:      tabular.Cell(row, nameCol),
			Latitude:  lat,
			Longitude: lon,
		}
		if err := validatePort(port); err != nil {
			return nil, fmt.Errorf("%w on line %d: %v", ErrInvalidRow, line, err)
		}
		result = append(result, port)
	}

	return result, nil
}

// validatePort enforces a non-empty name and in-range coordinates
func validatePort(p models.ReferencePort) error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("field %s fails %q (value %v)", e.Field(), e.Tag(), e.Value())
		}
		return err
	}
	return nil
}
