package loader

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/sellout-trends/internal/schema"
)

// Inspection describes how a source file's header was interpreted.
type Inspection struct {
	Kind      SourceKind
	Source    string
	Sheet     string
	HeaderRow int
	Rows      int

	// Raw and Columns are the header as read and as normalized.
	Raw     []string
	Columns []string

	Bound     []string
	Fallbacks []schema.Fallback

	// Missing is set when a required field could not be resolved.
	Missing *schema.MissingColumnError
}

// Inspect reads the header of a source file without loading its rows into
// typed tables. A missing required column is reported in Missing, not as an
// error; read failures are errors.
func Inspect(path string, kind SourceKind, opts Options) (*Inspection, error) {
	var (
		layout schema.Layout
		sheet  = opts.Sheet
	)
	switch kind {
	case KindSales:
		layout = schema.SalesLayout
	case KindZones:
		layout = schema.ZoneLayout
	case KindProducts:
		layout = schema.ProductLayout
		sheet = ""
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}

	raw, err := readRaw(path, sheet, opts.CSV)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sourceName(path), err)
	}

	headerRow := 0
	if kind == KindSales {
		headerRow = schema.LocateHeaderWithin(raw.rows, opts.Tokens, opts.HeaderLookahead)
	}
	var header []string
	if headerRow < len(raw.rows) {
		header = raw.rows[headerRow]
	}

	in := &Inspection{
		Kind:      kind,
		Source:    path,
		Sheet:     raw.sheet,
		HeaderRow: headerRow,
		Rows:      len(raw.rows),
		Raw:       header,
	}

	res, err := schema.Resolve(header, layout)
	if res != nil {
		in.Columns = res.Columns
		in.Bound = res.Bound(layout)
		in.Fallbacks = res.Fallbacks
	}
	if err != nil {
		var mce *schema.MissingColumnError
		if !errors.As(err, &mce) {
			return nil, err
		}
		mce.Source = sourceName(path)
		in.Missing = mce
	}

	return in, nil
}
