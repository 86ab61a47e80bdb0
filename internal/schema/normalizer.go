// =============================================================================
// Sell Out Trends - Column Label Normalizer
// =============================================================================
//
// Exports change their column labels from one release to the next: case,
// stray whitespace, accents and synonyms all vary. Every label is first
// reduced to a canonical form, then a per-source synonym table renames known
// variants to the vocabulary used downstream.
//
// PRECEDENCE RULE:
//   A synonym is applied only when its canonical label is not already
//   present. An existing canonical column is never overwritten, which makes
//   Normalize idempotent.
//
// =============================================================================

package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Synonym maps label variants to one canonical label.
type Synonym struct {
	Canonical string
	Variants  []string
}

// Synonyms is an ordered synonym table. Earlier entries are applied first.
type Synonyms []Synonym

// =============================================================================
// SYNONYM TABLES
// =============================================================================

// SalesSynonyms applies to the Sell Out export.
var SalesSynonyms = Synonyms{
	{Canonical: "ANO", Variants: []string{"ANO", "YEAR"}},
	{Canonical: "MES", Variants: []string{"MONTH"}},
	{Canonical: "FECHA", Variants: []string{"DATE"}},
	{Canonical: "CLIENTE", Variants: []string{"NOMBRE CLIENTE", "CUSTOMER"}},
	{Canonical: "COD.CLIENTE", Variants: []string{"COD CLIENTE", "COD. CLIENTE", "CODIGO CLIENTE"}},
	{Canonical: "CAI", Variants: []string{"CODIGO", "MATERIAL", "ARTICULO"}},
	{Canonical: "CANTIDAD", Variants: []string{"QTY", "QUANTITY", "CANT"}},
}

// ZoneSynonyms applies to the zone workbook. The account manager variants
// are misspellings seen in upstream files.
var ZoneSynonyms = Synonyms{
	{Canonical: "ACCOUNT MANAGER", Variants: []string{"AM", "ACOOUNT MANAGER", "ACCOUNT MANGER"}},
	{Canonical: "COD.CLIENTE", Variants: []string{"COD CLIENTE", "COD. CLIENTE", "CODIGO CLIENTE"}},
}

// ProductSynonyms applies to the product catalog.
var ProductSynonyms = Synonyms{
	{Canonical: "SEGMENTO LB", Variants: []string{"SEGMENTO", "SEGMENT"}},
	{Canonical: "MACRO MACHINE", Variants: []string{"MACRO_ MACHINE", "MACRO_MACHINE"}},
	{Canonical: "CLASIFICACION DR", Variants: []string{"CLASIFICACION"}},
	{Canonical: "DENOMINATION", Variants: []string{"DENOMINACION", "DESCRIPCION"}},
	{Canonical: "MARCA", Variants: []string{"BRAND"}},
	{Canonical: "CAI", Variants: []string{"CODIGO", "MATERIAL", "ARTICULO"}},
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// CanonicalLabel trims, upper-cases, collapses inner whitespace and removes
// accents, so "  Clasificación  dr" becomes "CLASIFICACION DR".
func CanonicalLabel(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}

// Normalize canonicalizes every label and then applies synonyms in table
// order. For each entry whose canonical label is absent, the first column
// whose label is one of the variants is renamed. The input is not modified.
func Normalize(headers []string, synonyms Synonyms) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = CanonicalLabel(h)
	}

	for _, syn := range synonyms {
		canonical := CanonicalLabel(syn.Canonical)
		if indexOf(out, canonical) >= 0 {
			continue
		}
		for _, variant := range syn.Variants {
			if i := indexOf(out, CanonicalLabel(variant)); i >= 0 {
				out[i] = canonical
				break
			}
		}
	}

	return out
}

// indexOf returns the first position of label in labels, or -1.
func indexOf(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}
	return -1
}
