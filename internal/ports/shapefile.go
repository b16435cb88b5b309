package ports

import (
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
)

// nameFields are the DBF attribute names accepted as the port's display label, in priority order
var nameFields = []string{"place_name", "name"}

// LoadShapefile reads a point shapefile as a reference table.
// The label comes from the place_name (or name) attribute; non-point shapes are skipped.
func LoadShapefile(shapefilePath string) ([]models.ReferencePort, error) {
	shape, err := shp.Open(shapefilePath)
	if err != nil {
		return nil, fmt.Errorf("opening shapefile: %w", err)
	}
	defer shape.Close()

	nameIdx := findNameField(shape.Fields())
	if nameIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, ColumnPlaceName)
	}

	var result []models.ReferencePort
	for shape.Next() {
		n, p := shape.Shape()

		var x, y float64
		switch pt := p.(type) {
		case *shp.Point:
			x, y = pt.X, pt.Y
		case *shp.PointZ:
			x, y = pt.X, pt.Y
		case *shp.PointM:
			x, y = pt.X, pt.Y
		default:
			continue
		}

		port := models.ReferencePort{
			Seq:       len(result),
			Name:      strings.TrimSpace(strings.Trim(shape.ReadAttribute(n, nameIdx), "\x00")),
			Latitude:  y,
			Longitude: x,
		}
		if err := validatePort(port); err != nil {
			return nil, fmt.Errorf("%w in shape %d: %v", ErrInvalidRow, n, err)
		}
		result = append(result, port)
	}

	return result, nil
}

// findNameField returns the DBF field index holding the port label, or -1
func findNameField(fields []shp.Field) int {
	for _, want := range nameFields {
		for i, f := range fields {
			if strings.EqualFold(strings.TrimSpace(f.String()), want) {
				return i
			}
		}
	}
	return -1
}
