package loader

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/sellout-trends/internal/schema"
	"github.com/ginjaninja78/sellout-trends/internal/types"
	"github.com/ginjaninja78/sellout-trends/internal/validation"
	"github.com/shopspring/decimal"
)

// FactTable is the loaded Sell Out export.
type FactTable struct {
	// Source is the path of the file read.
	Source string

	// Sheet is the sheet read, empty for CSV.
	Sheet string

	// HeaderRow is the zero-based index of the detected header row.
	HeaderRow int

	Schema *schema.Resolved
	Facts  []types.SalesFact

	// SkippedRows counts blank rows below the header.
	SkippedRows int

	// Issues holds the aggregate warnings produced while loading.
	Issues []validation.Issue
}

// factCounters tracks malformed values across all rows.
type factCounters struct {
	badDates      int
	badYears      int
	badMonths     int
	badPeriods    int
	badQuantities int
	emptyRows     int
}

// LoadFacts reads the Sell Out export at path.
//
// RETURNS:
//   - The fact table with one SalesFact per non-empty data row.
//   - *schema.MissingColumnError (wrapped) when no product code column can
//     be resolved, or a read error. Both are fatal for the run.
func LoadFacts(path string, opts Options) (*FactTable, error) {
	raw, err := readRaw(path, opts.Sheet, opts.CSV)
	if err != nil {
		return nil, fmt.Errorf("failed to read sales file %s: %w", sourceName(path), err)
	}

	headerRow := schema.LocateHeaderWithin(raw.rows, opts.Tokens, opts.HeaderLookahead)
	var header []string
	if headerRow < len(raw.rows) {
		header = raw.rows[headerRow]
	}

	res, err := schema.Resolve(header, schema.SalesLayout)
	if err != nil {
		var mce *schema.MissingColumnError
		if errors.As(err, &mce) {
			mce.Source = sourceName(path)
		}
		return nil, fmt.Errorf("failed to resolve sales columns: %w", err)
	}

	table := &FactTable{
		Source:    path,
		Sheet:     raw.sheet,
		HeaderRow: headerRow,
		Schema:    res,
	}
	name := sourceName(path)

	for _, fb := range res.Fallbacks {
		table.Issues = append(table.Issues, validation.Warningf(name, 0,
			"%s bound to column %q by prefix match; check the export layout", fb.Field, fb.Column))
	}

	hasDate := res.Has(schema.FieldDate)
	hasPeriod := res.Has(schema.FieldYear) && res.Has(schema.FieldMonth)
	switch {
	case hasDate:
	case hasPeriod:
		table.Issues = append(table.Issues, validation.Warning(name, "no FECHA column; dates built from ANO and MES", 0))
	default:
		table.Issues = append(table.Issues, validation.Warning(name, "no FECHA or ANO/MES columns; rows have no date", 0))
	}
	if !res.Has(schema.FieldQuantity) {
		table.Issues = append(table.Issues, validation.Warning(name, "no CANTIDAD column; quantities are 0", 0))
	}
	if !res.Has(schema.FieldClientCode) && !res.Has(schema.FieldClientName) {
		table.Issues = append(table.Issues, validation.Warning(name, "no client column; zone attributes will be unassigned", 0))
	}

	var counters factCounters
	for i := headerRow + 1; i < len(raw.rows); i++ {
		row := raw.rows[i]
		if isRowEmpty(row) {
			counters.emptyRows++
			continue
		}

		fact := types.SalesFact{
			ProductCode: res.Value(row, schema.FieldProductCode),
			SourceRow:   i + 1,
			Quantity:    decimal.Zero,
		}

		fact.ClientCode, fact.ClientName = clientFields(res, row)

		switch {
		case hasDate:
			fact.Date = ParseDate(res.Value(row, schema.FieldDate))
			if fact.Date == nil {
				counters.badDates++
			}
		case hasPeriod:
			year, ok := CoerceInt(res.Value(row, schema.FieldYear), 0)
			if !ok {
				counters.badYears++
			}
			month, ok := CoerceInt(res.Value(row, schema.FieldMonth), 1)
			if !ok {
				counters.badMonths++
			}
			fact.Date = DateFromYearMonth(year, month)
			if fact.Date == nil {
				counters.badPeriods++
			}
		}

		if res.Has(schema.FieldQuantity) {
			cell := res.Value(row, schema.FieldQuantity)
			if q, ok := ParseNumber(cell); ok {
				fact.Quantity = q
			} else if cell != "" {
				counters.badQuantities++
			}
		}

		table.Facts = append(table.Facts, fact)
	}

	table.SkippedRows = counters.emptyRows
	table.Issues = append(table.Issues, counters.issues(name)...)
	return table, nil
}

// clientFields derives the zone join key and the display name.
// COD.CLIENTE feeds the key when present, CLIENTE otherwise; the name falls
// back to the key.
func clientFields(res *schema.Resolved, row []string) (code, name string) {
	name = CleanClient(res.Value(row, schema.FieldClientName))
	if res.Has(schema.FieldClientCode) {
		code = CleanClient(res.Value(row, schema.FieldClientCode))
	} else {
		code = name
	}
	if name == "" {
		name = code
	}
	return code, name
}

func (c factCounters) issues(source string) []validation.Issue {
	var out []validation.Issue
	add := func(n int, msg string) {
		if n > 0 {
			out = append(out, validation.Warning(source, msg, n))
		}
	}
	add(c.badDates, "missing or unparseable dates; rows count in no window")
	add(c.badYears, "non-numeric years coerced to 0")
	add(c.badMonths, "non-numeric months coerced to 1")
	add(c.badPeriods, "invalid year/month combinations; rows have no date")
	add(c.badQuantities, "non-numeric quantities set to 0")
	return out
}
