// =============================================================================
// Sell Out Trends - Source Loaders
// =============================================================================
//
// The loaders turn the three source files into typed tables:
//   - LoadFacts    : the Sell Out export (fatal when the product code is missing)
//   - LoadZones    : client code -> account manager and geography
//   - LoadProducts : product code -> segment, brand, classification
//
// Loaders are pure functions of their input file. Reference loaders never
// fail: an absent or unusable reference file yields a nil table and a
// warning, and the reconciler fills the affected attributes with sentinels.
//
// =============================================================================

package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/sellout-trends/internal/config"
	"github.com/ginjaninja78/sellout-trends/internal/csvparser"
	"github.com/ginjaninja78/sellout-trends/internal/xlsxparser"
)

// SourceKind names one of the three inputs.
type SourceKind string

const (
	KindSales    SourceKind = "sales"
	KindZones    SourceKind = "zones"
	KindProducts SourceKind = "products"
)

// Options controls how source files are read.
type Options struct {
	// Sheet is the preferred sheet for the sales and zone workbooks.
	Sheet string

	// HeaderLookahead bounds the header search in the sales export.
	HeaderLookahead int

	// Tokens overrides the sentinel header tokens. Nil means the defaults.
	Tokens []string

	// CSV settings for delimited-text sales exports.
	CSV config.CSVSettings
}

// OptionsFromConfig builds loader options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Sheet:           cfg.Sources.SheetName,
		HeaderLookahead: cfg.Sources.HeaderLookahead,
		CSV:             cfg.Sources.CSV,
	}
}

// fingerprint identifies the options in cache keys.
func (o Options) fingerprint() string {
	return fmt.Sprintf("%s|%d|%s|%s|%s", o.Sheet, o.HeaderLookahead,
		strings.Join(o.Tokens, ","), o.CSV.Delimiter, o.CSV.Encoding)
}

// rawTable is a source read as strings, before any header interpretation.
type rawTable struct {
	rows  [][]string
	sheet string
}

// readRaw reads a CSV or workbook file. sheet is the preferred sheet name;
// empty means the first sheet.
func readRaw(path string, sheet string, csvSettings config.CSVSettings) (*rawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		data, err := csvparser.Parse(path, csvSettings)
		if err != nil {
			return nil, err
		}
		return &rawTable{rows: data.Rows}, nil

	default:
		table, err := xlsxparser.Read(path, xlsxparser.Options{Sheet: sheet})
		if err != nil {
			return nil, err
		}
		return &rawTable{rows: table.Rows, sheet: table.Sheet}, nil
	}
}

// sourceName is the file name used in issues and messages.
func sourceName(path string) string {
	return filepath.Base(path)
}

// isRowEmpty reports whether a row holds only blank cells.
func isRowEmpty(row []string) bool {
	return csvparser.IsRowEmpty(row)
}
