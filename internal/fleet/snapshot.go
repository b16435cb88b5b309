// Package fleet parses fleet status exports and selects vehicles that need retrieval.
package fleet

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
	"github.com/yusukeinoue-jpg/lime-tool/internal/tabular"
)

// Snapshot column names (after normalization)
const (
	ColumnState     = "operational state"
	ColumnLastRide  = "last ride"
	ColumnID        = "id"
	ColumnPlate     = "plate number"
	ColumnLatitude  = "latitude"
	ColumnLongitude = "longitude"
)

// ErrorKind classifies snapshot load failures
type ErrorKind string

const (
	KindParse  ErrorKind = "parse"
	KindSchema ErrorKind = "schema"
)

// LoadError is returned by Load. Message is safe to show to the operator.
type LoadError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsKind reports whether err is a *LoadError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == kind
}

// timestampLayouts are tried in order for the last ride column
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

// schema holds the column positions resolved once per upload
type schema struct {
	state, lastRide, id, plate, lat, lon int
}

// Load parses an uploaded snapshot. Column names are trimmed and lowercased.
// Naive last ride timestamps are read in loc. A timestamp that cannot be
// parsed leaves LastActivity nil for that row only.
func Load(r io.Reader, loc *time.Location) ([]models.FleetRecord, error) {
	if loc == nil {
		loc = time.Local
	}

	table, err := tabular.Read(r)
	if err != nil {
		return nil, &LoadError{Kind: KindParse, Message: "could not parse CSV", Err: err}
	}

	s, err := mapSchema(table)
	if err != nil {
		return nil, err
	}

	records := make([]models.FleetRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		rec := models.FleetRecord{
			ID:               tabular.Cell(row, s.id),
			PlateNumber:      tabular.Cell(row, s.plate),
			OperationalState: tabular.Cell(row, s.state),
			Latitude:         parseCoordinate(tabular.Cell(row, s.lat)),
			Longitude:        parseCoordinate(tabular.Cell(row, s.lon)),
		}
		if s.lastRide >= 0 {
			rec.LastActivity = ParseTimestamp(tabular.Cell(row, s.lastRide), loc)
		}
		records = append(records, rec)
	}

	return records, nil
}

// mapSchema resolves every column position or returns a schema error
func mapSchema(table *tabular.Table) (schema, error) {
	if !table.Has(ColumnState) {
		return schema{}, &LoadError{Kind: KindSchema, Message: "operational state column missing"}
	}
	if missing := table.Missing(ColumnID, ColumnPlate, ColumnLatitude, ColumnLongitude); len(missing) > 0 {
		return schema{}, &LoadError{
			Kind:    KindSchema,
			Message: "missing columns: " + strings.Join(missing, ", "),
		}
	}

	return schema{
		state:    table.Column(ColumnState),
		lastRide: table.Column(ColumnLastRide),
		id:       table.Column(ColumnID),
		plate:    table.Column(ColumnPlate),
		lat:      table.Column(ColumnLatitude),
		lon:      table.Column(ColumnLongitude),
	}, nil
}

// parseCoordinate returns NaN for anything that is not a number
func parseCoordinate(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ParseTimestamp tries each accepted layout and returns nil when none matches
func ParseTimestamp(v string, loc *time.Location) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return &t
		}
	}
	return nil
}
