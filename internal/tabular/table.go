// Package tabular reads CSV exports into rows keyed by normalized column names.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmpty is returned when the input has no header row
var ErrEmpty = errors.New("no header row")

const utf8BOM = "\ufeff"

// Table is a parsed CSV file. Header names are trimmed and lowercased.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NormalizeHeader trims whitespace (and a leading BOM) and lowercases a column name
func NormalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, utf8BOM)))
}

// Read parses all of r as CSV. Rows may have fewer or more fields than the header.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	t := &Table{
		Header: make([]string, len(header)),
		index:  make(map[string]int, len(header)),
	}
	for i, h := range header {
		name := NormalizeHeader(h)
		t.Header[i] = name
		// First occurrence wins for duplicated headers
		if _, exists := t.index[name]; !exists {
			t.index[name] = i
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, record)
	}

	return t, nil
}

// Has reports whether the table has the (normalized) column
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Missing returns the columns from required that the table lacks, in the given order
func (t *Table) Missing(required ...string) []string {
	var missing []string
	for _, c := range required {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Column returns the index of column, or -1 when absent
func (t *Table) Column(column string) int {
	if i, ok := t.index[column]; ok {
		return i
	}
	return -1
}

// Cell returns the trimmed value at column index col of row, or "" when out of range
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
