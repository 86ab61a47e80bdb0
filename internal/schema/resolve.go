package schema

import (
	"fmt"
	"strings"

	"github.com/schollz/closestmatch"
)

// Field identifies a typed column the pipeline reads. Once a header is
// resolved nothing downstream looks at column names again.
type Field int

const (
	FieldProductCode Field = iota
	FieldClientCode
	FieldClientName
	FieldDate
	FieldYear
	FieldMonth
	FieldQuantity
	FieldAccountManager
	FieldDepartment
	FieldProvince
	FieldDistrict
	FieldSegment
	FieldBrand
	FieldMachineClass
	FieldDescription
	FieldClassification
)

var fieldNames = map[Field]string{
	FieldProductCode:    "product_code",
	FieldClientCode:     "client_code",
	FieldClientName:     "client_name",
	FieldDate:           "date",
	FieldYear:           "year",
	FieldMonth:          "month",
	FieldQuantity:       "quantity",
	FieldAccountManager: "account_manager",
	FieldDepartment:     "department",
	FieldProvince:       "province",
	FieldDistrict:       "district",
	FieldSegment:        "segment",
	FieldBrand:          "brand",
	FieldMachineClass:   "machine_class",
	FieldDescription:    "description",
	FieldClassification: "classification",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Binding ties a field to its canonical column label.
type Binding struct {
	Field Field
	Label string

	// Required fields make Resolve fail when no column can be bound.
	Required bool

	// PrefixFallback lists label prefixes tried, in order, when Label is
	// absent. Only columns not bound to another field are considered.
	PrefixFallback []string
}

// Layout describes one source: its synonym table and the fields it feeds.
type Layout struct {
	Name     string
	Synonyms Synonyms
	Bindings []Binding
}

// SalesLayout reads the Sell Out export.
var SalesLayout = Layout{
	Name:     "sales",
	Synonyms: SalesSynonyms,
	Bindings: []Binding{
		{Field: FieldProductCode, Label: "CAI", Required: true, PrefixFallback: []string{"COD", "MAT"}},
		{Field: FieldClientCode, Label: "COD.CLIENTE"},
		{Field: FieldClientName, Label: "CLIENTE"},
		{Field: FieldDate, Label: "FECHA"},
		{Field: FieldYear, Label: "ANO"},
		{Field: FieldMonth, Label: "MES"},
		{Field: FieldQuantity, Label: "CANTIDAD"},
	},
}

// ZoneLayout reads the zone workbook. Only these columns survive loading.
var ZoneLayout = Layout{
	Name:     "zones",
	Synonyms: ZoneSynonyms,
	Bindings: []Binding{
		{Field: FieldClientCode, Label: "COD.CLIENTE", Required: true},
		{Field: FieldAccountManager, Label: "ACCOUNT MANAGER"},
		{Field: FieldDepartment, Label: "DEPARTAMENTO"},
		{Field: FieldProvince, Label: "PROVINCIA"},
		{Field: FieldDistrict, Label: "DISTRITO"},
	},
}

// ProductLayout reads the product catalog.
var ProductLayout = Layout{
	Name:     "products",
	Synonyms: ProductSynonyms,
	Bindings: []Binding{
		{Field: FieldProductCode, Label: "CAI", Required: true, PrefixFallback: []string{"CAI", "COD", "MAT"}},
		{Field: FieldSegment, Label: "SEGMENTO LB"},
		{Field: FieldBrand, Label: "MARCA"},
		{Field: FieldMachineClass, Label: "MACRO MACHINE"},
		{Field: FieldDescription, Label: "DENOMINATION"},
		{Field: FieldClassification, Label: "CLASIFICACION DR"},
	},
}

// =============================================================================
// RESOLUTION RESULT
// =============================================================================

// Fallback records a field bound through a prefix match instead of its
// canonical label. Callers surface these as warnings.
type Fallback struct {
	Field  Field
	Column string
	Index  int
}

// Resolved is a header mapped to typed fields.
type Resolved struct {
	Layout string

	// Raw holds the header cells as read.
	Raw []string

	// Columns holds the normalized labels, index-aligned with Raw.
	Columns []string

	Index     map[Field]int
	Fallbacks []Fallback
}

// Has reports whether f is bound to a column.
func (r *Resolved) Has(f Field) bool {
	_, ok := r.Index[f]
	return ok
}

// Value returns the trimmed cell of row bound to f, or "" when f is unbound
// or the row is short.
func (r *Resolved) Value(row []string, f Field) string {
	i, ok := r.Index[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Bound lists the bound fields with their column labels, in layout order.
func (r *Resolved) Bound(layout Layout) []string {
	var out []string
	for _, b := range layout.Bindings {
		if i, ok := r.Index[b.Field]; ok {
			out = append(out, fmt.Sprintf("%s=%s", b.Field, r.Columns[i]))
		}
	}
	return out
}

// MissingColumnError reports a required field that no column could satisfy.
type MissingColumnError struct {
	// Source is the file being read. The loader fills it in.
	Source string

	Layout      string
	Field       Field
	Label       string
	Columns     []string
	Suggestions []string
}

func (e *MissingColumnError) Error() string {
	msg := fmt.Sprintf("no %s column (%s) found in %s file", e.Field, e.Label, e.Layout)
	if e.Source != "" {
		msg += " " + e.Source
	}
	msg += fmt.Sprintf("; columns read: [%s]", strings.Join(e.Columns, ", "))
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf("; closest: %s", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve normalizes headers with the layout's synonyms and binds every
// field of the layout. Direct label matches are bound first; prefix
// fallbacks run afterwards and skip columns already taken. A required field
// left unbound returns *MissingColumnError.
func Resolve(headers []string, layout Layout) (*Resolved, error) {
	columns := Normalize(headers, layout.Synonyms)

	res := &Resolved{
		Layout:  layout.Name,
		Raw:     headers,
		Columns: columns,
		Index:   make(map[Field]int, len(layout.Bindings)),
	}
	taken := make(map[int]bool)

	for _, b := range layout.Bindings {
		if i := indexOf(columns, CanonicalLabel(b.Label)); i >= 0 && !taken[i] {
			res.Index[b.Field] = i
			taken[i] = true
		}
	}

	for _, b := range layout.Bindings {
		if res.Has(b.Field) || len(b.PrefixFallback) == 0 {
			continue
		}
		if i := firstWithPrefix(columns, b.PrefixFallback, taken); i >= 0 {
			res.Index[b.Field] = i
			taken[i] = true
			res.Fallbacks = append(res.Fallbacks, Fallback{Field: b.Field, Column: columns[i], Index: i})
		}
	}

	for _, b := range layout.Bindings {
		if b.Required && !res.Has(b.Field) {
			return res, &MissingColumnError{
				Layout:      layout.Name,
				Field:       b.Field,
				Label:       b.Label,
				Columns:     nonEmpty(headers),
				Suggestions: suggest(columns, CanonicalLabel(b.Label)),
			}
		}
	}

	return res, nil
}

// firstWithPrefix returns the leftmost free column starting with any of the
// prefixes.
func firstWithPrefix(columns []string, prefixes []string, taken map[int]bool) int {
	canon := make([]string, len(prefixes))
	for i, p := range prefixes {
		canon[i] = CanonicalLabel(p)
	}
	for i, c := range columns {
		if taken[i] || c == "" {
			continue
		}
		for _, p := range canon {
			if strings.HasPrefix(c, p) {
				return i
			}
		}
	}
	return -1
}

// suggest returns up to three column labels close to label.
func suggest(columns []string, label string) []string {
	candidates := nonEmpty(columns)
	if len(candidates) == 0 {
		return nil
	}

	cm := closestmatch.New(candidates, []int{2, 3})
	var out []string
	for _, s := range cm.ClosestN(label, 3) {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
