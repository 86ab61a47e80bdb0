package trend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ginjaninja78/sellout-trends/internal/types"
)

// Dimension is an attribute the grid can be filtered on.
type Dimension string

const (
	Segment        Dimension = "segment"
	Brand          Dimension = "brand"
	Classification Dimension = "classification"
	AccountManager Dimension = "account_manager"
	Department     Dimension = "department"
	Province       Dimension = "province"
	District       Dimension = "district"
)

// Dimensions lists the filterable attributes, product block first.
var Dimensions = []Dimension{Segment, Brand, Classification, AccountManager, Department, Province, District}

// ParseDimension accepts a dimension name, case-insensitive, with dashes or
// spaces in place of underscores.
func ParseDimension(s string) (Dimension, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.NewReplacer("-", "_", " ", "_").Replace(name)
	for _, d := range Dimensions {
		if string(d) == name {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown filter dimension %q", s)
}

// Value returns the attribute of u for d.
func (d Dimension) Value(u types.UnifiedFact) string {
	switch d {
	case Segment:
		return u.Product.Segment
	case Brand:
		return u.Product.Brand
	case Classification:
		return u.Product.Classification
	case AccountManager:
		return u.Zone.AccountManager
	case Department:
		return u.Zone.Department
	case Province:
		return u.Zone.Province
	case District:
		return u.Zone.District
	default:
		return ""
	}
}

// Predicates maps dimensions to accepted values. A dimension with no values
// does not constrain.
type Predicates map[Dimension][]string

// Active reports whether any predicate constrains rows.
func (p Predicates) Active() bool {
	for _, values := range p {
		if len(values) > 0 {
			return true
		}
	}
	return false
}

// Filter keeps the rows matching every predicate. With no active predicate
// it returns rows unchanged.
func Filter(rows []types.UnifiedFact, preds Predicates) []types.UnifiedFact {
	if !preds.Active() {
		return rows
	}

	sets := make(map[Dimension]map[string]struct{}, len(preds))
	for d, values := range preds {
		if len(values) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
		}
		sets[d] = set
	}

	out := make([]types.UnifiedFact, 0, len(rows))
	for _, u := range rows {
		keep := true
		for d, set := range sets {
			if _, ok := set[d.Value(u)]; !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, u)
		}
	}
	return out
}

// Options returns the sorted distinct values of every dimension.
func Options(rows []types.UnifiedFact) map[Dimension][]string {
	seen := make(map[Dimension]map[string]struct{}, len(Dimensions))
	for _, d := range Dimensions {
		seen[d] = make(map[string]struct{})
	}
	for _, u := range rows {
		for _, d := range Dimensions {
			seen[d][d.Value(u)] = struct{}{}
		}
	}

	out := make(map[Dimension][]string, len(Dimensions))
	for d, set := range seen {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		out[d] = values
	}
	return out
}

// Years returns the distinct years of dated rows, most recent first.
func Years(rows []types.UnifiedFact) []int {
	seen := make(map[int]struct{})
	for _, u := range rows {
		if u.Date != nil {
			seen[u.Date.Year()] = struct{}{}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
