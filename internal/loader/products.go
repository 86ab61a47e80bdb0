package loader

import (
	"strings"

	"github.com/ginjaninja78/sellout-trends/internal/schema"
	"github.com/ginjaninja78/sellout-trends/internal/types"
	"github.com/ginjaninja78/sellout-trends/internal/validation"
)

// ProductTable maps product codes to catalog records. A nil *ProductTable is
// a valid, empty reference.
type ProductTable struct {
	Source string
	Sheet  string
	Schema *schema.Resolved

	Records    []types.ProductRecord
	Duplicates int

	index map[string]int
}

// NewProductTable deduplicates records on the trimmed product code. The
// first occurrence wins and rows without a code are dropped.
func NewProductTable(records []types.ProductRecord) *ProductTable {
	t := &ProductTable{index: make(map[string]int, len(records))}
	for _, r := range records {
		r.ProductCode = strings.TrimSpace(r.ProductCode)
		if r.ProductCode == "" {
			continue
		}
		key := NormalizeKey(r.ProductCode)
		if _, seen := t.index[key]; seen {
			t.Duplicates++
			continue
		}
		t.index[key] = len(t.Records)
		t.Records = append(t.Records, r)
	}
	return t
}

// Lookup returns the record for a product code.
func (t *ProductTable) Lookup(productCode string) (types.ProductRecord, bool) {
	if t == nil {
		return types.ProductRecord{}, false
	}
	i, ok := t.index[NormalizeKey(productCode)]
	if !ok {
		return types.ProductRecord{}, false
	}
	return t.Records[i], true
}

// Len returns the number of distinct product codes.
func (t *ProductTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// LoadProducts reads the product catalog from the first sheet, header in the
// first row. Like LoadZones it never fails.
func LoadProducts(path string, opts Options) (*ProductTable, []validation.Issue) {
	name := sourceName(path)
	if path == "" {
		return nil, []validation.Issue{validation.Warning(string(KindProducts), "product catalog not found; product attributes are "+types.Other, 0)}
	}

	raw, err := readRaw(path, "", opts.CSV)
	if err != nil {
		return nil, []validation.Issue{absent(name, "product", err)}
	}

	var header []string
	if len(raw.rows) > 0 {
		header = raw.rows[0]
	}
	res, err := schema.Resolve(header, schema.ProductLayout)
	if err != nil {
		return nil, []validation.Issue{absent(name, "product", err)}
	}

	var issues []validation.Issue
	for _, fb := range res.Fallbacks {
		issues = append(issues, validation.Warningf(name, 0,
			"%s bound to column %q by prefix match; check the catalog layout", fb.Field, fb.Column))
	}

	records := make([]types.ProductRecord, 0, len(raw.rows))
	for _, row := range raw.rows[1:] {
		if isRowEmpty(row) {
			continue
		}
		records = append(records, types.ProductRecord{
			ProductCode:    res.Value(row, schema.FieldProductCode),
			Segment:        res.Value(row, schema.FieldSegment),
			Brand:          res.Value(row, schema.FieldBrand),
			MachineClass:   res.Value(row, schema.FieldMachineClass),
			Description:    res.Value(row, schema.FieldDescription),
			Classification: res.Value(row, schema.FieldClassification),
		})
	}

	table := NewProductTable(records)
	table.Source = path
	table.Sheet = raw.sheet
	table.Schema = res

	if table.Duplicates > 0 {
		issues = append(issues, validation.Warning(name, "duplicate product codes; first occurrence kept", table.Duplicates))
	}
	return table, issues
}
