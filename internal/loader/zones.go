package loader

import (
	"errors"
	"os"

	"github.com/ginjaninja78/sellout-trends/internal/schema"
	"github.com/ginjaninja78/sellout-trends/internal/types"
	"github.com/ginjaninja78/sellout-trends/internal/validation"
)

// ZoneTable maps client codes to zone records. A nil *ZoneTable is a valid,
// empty reference.
type ZoneTable struct {
	Source string
	Sheet  string
	Schema *schema.Resolved

	// Records holds one record per client code, in source order.
	Records []types.ZoneRecord

	// Duplicates counts rows dropped because their code was already seen.
	Duplicates int

	index map[string]int
}

// NewZoneTable deduplicates records on the cleaned client code. The first
// occurrence wins and rows without a code are dropped.
func NewZoneTable(records []types.ZoneRecord) *ZoneTable {
	t := &ZoneTable{index: make(map[string]int, len(records))}
	for _, r := range records {
		r.ClientCode = CleanClient(r.ClientCode)
		if r.ClientCode == "" {
			continue
		}
		key := NormalizeKey(r.ClientCode)
		if _, seen := t.index[key]; seen {
			t.Duplicates++
			continue
		}
		t.index[key] = len(t.Records)
		t.Records = append(t.Records, r)
	}
	return t
}

// Lookup returns the record for a client code.
func (t *ZoneTable) Lookup(clientCode string) (types.ZoneRecord, bool) {
	if t == nil {
		return types.ZoneRecord{}, false
	}
	i, ok := t.index[NormalizeKey(clientCode)]
	if !ok {
		return types.ZoneRecord{}, false
	}
	return t.Records[i], true
}

// Len returns the number of distinct client codes.
func (t *ZoneTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// LoadZones reads the zone workbook. The sheet is opts.Sheet when present,
// else the first sheet; the header is the first row. It never fails: a
// missing or unusable file returns a nil table and a warning.
func LoadZones(path string, opts Options) (*ZoneTable, []validation.Issue) {
	name := sourceName(path)
	if path == "" {
		return nil, []validation.Issue{validation.Warning(string(KindZones), "zone reference not found; zone attributes are "+types.Unassigned, 0)}
	}

	raw, err := readRaw(path, opts.Sheet, opts.CSV)
	if err != nil {
		return nil, []validation.Issue{absent(name, "zone", err)}
	}

	var header []string
	if len(raw.rows) > 0 {
		header = raw.rows[0]
	}
	res, err := schema.Resolve(header, schema.ZoneLayout)
	if err != nil {
		return nil, []validation.Issue{absent(name, "zone", err)}
	}

	records := make([]types.ZoneRecord, 0, len(raw.rows))
	for _, row := range raw.rows[1:] {
		if isRowEmpty(row) {
			continue
		}
		records = append(records, types.ZoneRecord{
			ClientCode:     res.Value(row, schema.FieldClientCode),
			AccountManager: res.Value(row, schema.FieldAccountManager),
			Department:     res.Value(row, schema.FieldDepartment),
			Province:       res.Value(row, schema.FieldProvince),
			District:       res.Value(row, schema.FieldDistrict),
		})
	}

	table := NewZoneTable(records)
	table.Source = path
	table.Sheet = raw.sheet
	table.Schema = res

	var issues []validation.Issue
	if table.Duplicates > 0 {
		issues = append(issues, validation.Warning(name, "duplicate client codes; first occurrence kept", table.Duplicates))
	}
	return table, issues
}

// absent converts a reference load failure into a warning.
func absent(source, what string, err error) validation.Issue {
	if errors.Is(err, os.ErrNotExist) {
		return validation.Warningf(source, 0, "%s reference not found; continuing without it", what)
	}
	return validation.Warningf(source, 0, "%s reference unusable (%v); continuing without it", what, err)
}
