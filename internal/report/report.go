// Package report renders trend rows as an XLSX grid, flat CSV, nested XML or
// JSON.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ginjaninja78/sellout-trends/internal/types"
)

// Format is an output format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatXLSX, FormatCSV, FormatXML, FormatJSON}

// ParseFormat accepts a format name with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q", s)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Meta describes the run that produced a report.
type Meta struct {
	GeneratedAt time.Time

	// MaxDate is the "data analysed up to" date. Zero when unknown.
	MaxDate time.Time

	// ReferenceYear is the year summed into the reference total, 0 if none.
	ReferenceYear int

	Hierarchy Hierarchy

	// Filters are the active predicates, by dimension name.
	Filters map[string][]string

	// Sources lists the input files.
	Sources []string

	// Rows is the number of unified facts after filtering.
	Rows int
}

// ReferenceColumn is the header of the reference year total column.
func (m Meta) ReferenceColumn() string {
	if m.ReferenceYear == 0 {
		return "TOTAL YEAR (Q)"
	}
	return fmt.Sprintf("TOTAL %d (Q)", m.ReferenceYear)
}

// Write renders rows in format f.
func Write(w io.Writer, f Format, rows []types.TrendRow, meta Meta) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, BuildTree(rows, meta.Hierarchy), meta)
	case FormatCSV:
		return WriteCSV(w, rows, meta)
	case FormatXML:
		return WriteXML(w, BuildTree(rows, meta.Hierarchy), meta, DefaultXMLOptions())
	case FormatJSON:
		return WriteJSON(w, rows, meta)
	default:
		return fmt.Errorf("unsupported output format %q", f)
	}
}

// formatMonth renders a last activity date as MM-YY, "-" when absent.
func formatMonth(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("01-06")
}
