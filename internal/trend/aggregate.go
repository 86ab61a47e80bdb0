// Package trend computes windowed quantity trends over unified facts.
//
// For each window size the current period is (max-size, max] and the
// previous period is (max-2*size, max-size], where max is the latest date in
// the rows being aggregated. Rows without a date fall into no window.
package trend

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sellout-trends/internal/types"
)

// AggregateOptions controls Aggregate.
type AggregateOptions struct {
	// ReferenceYear selects the year summed into ReferenceYearTotal.
	// 0 means none and leaves the total at zero.
	ReferenceYear int

	// Now is used as max date when no row has a date. Defaults to time.Now.
	Now func() time.Time
}

// MaxDate returns the latest date in rows. ok is false when no row is dated.
func MaxDate(rows []types.UnifiedFact) (latest time.Time, ok bool) {
	for _, u := range rows {
		if u.Date == nil {
			continue
		}
		if !ok || u.Date.After(latest) {
			latest = *u.Date
			ok = true
		}
	}
	return latest, ok
}

// EffectiveMaxDate is MaxDate with the Now fallback applied.
func EffectiveMaxDate(rows []types.UnifiedFact, now func() time.Time) time.Time {
	if latest, ok := MaxDate(rows); ok {
		return latest
	}
	if now == nil {
		now = time.Now
	}
	return now()
}

type groupKey struct {
	client         string
	productCode    string
	description    string
	classification string
}

// Aggregate groups rows by client, product code, description and
// classification and sums quantities per window bucket. Rows are returned
// sorted by client, then product label.
func Aggregate(rows []types.UnifiedFact, opts AggregateOptions) []types.TrendRow {
	end := EffectiveMaxDate(rows, opts.Now)

	groups := make(map[groupKey]*types.TrendRow)
	for _, u := range rows {
		key := groupKey{
			client:         u.ClientName,
			productCode:    u.ProductCode,
			description:    u.Product.Description,
			classification: u.Product.Classification,
		}

		row, ok := groups[key]
		if !ok {
			row = newTrendRow(key)
			groups[key] = row
		}

		if u.Date == nil {
			continue
		}
		d := *u.Date

		for i, w := range Windows {
			switch w.bucketOf(d, end) {
			case current:
				row.Windows[i].Current = row.Windows[i].Current.Add(u.Quantity)
			case previous:
				row.Windows[i].Previous = row.Windows[i].Previous.Add(u.Quantity)
			}
		}

		if opts.ReferenceYear != 0 && d.Year() == opts.ReferenceYear {
			row.ReferenceYearTotal = row.ReferenceYearTotal.Add(u.Quantity)
		}

		if row.LastActivity == nil || d.After(*row.LastActivity) {
			last := d
			row.LastActivity = &last
			row.LastActivityEpochMs = d.UnixMilli()
		}
	}

	out := make([]types.TrendRow, 0, len(groups))
	for _, row := range groups {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Client != out[j].Client {
			return out[i].Client < out[j].Client
		}
		if out[i].ProductLabel != out[j].ProductLabel {
			return out[i].ProductLabel < out[j].ProductLabel
		}
		return out[i].Classification < out[j].Classification
	})
	return out
}

func newTrendRow(key groupKey) *types.TrendRow {
	windows := make([]types.WindowSum, len(Windows))
	for i, w := range Windows {
		windows[i] = types.WindowSum{
			Label:    w.Label,
			Months:   w.Months,
			Current:  decimal.Zero,
			Previous: decimal.Zero,
		}
	}
	return &types.TrendRow{
		Client:             key.client,
		ProductCode:        key.productCode,
		Description:        key.description,
		ProductLabel:       ProductLabel(key.productCode, key.description),
		Classification:     key.classification,
		Windows:            windows,
		ReferenceYearTotal: decimal.Zero,
	}
}

// ProductLabel is the product level of the grid: "<code> | <description>".
func ProductLabel(code, description string) string {
	if description == "" {
		return code
	}
	return code + " | " + description
}
