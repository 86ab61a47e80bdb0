// Package reconcile joins sales facts with the zone and product references.
//
// Both joins are left joins on normalized keys (trimmed, upper-cased, exact
// match). The reference tables are deduplicated on load, so each fact row
// matches at most one reference row and the row count never changes.
// Attributes that are missing, either because the key did not match or
// because the reference cell was blank, become explicit sentinels.
package reconcile

import (
	"github.com/ginjaninja78/sellout-trends/internal/loader"
	"github.com/ginjaninja78/sellout-trends/internal/types"
)

// Stats counts join outcomes.
type Stats struct {
	Rows             int
	ZoneMatched      int
	ZoneUnmatched    int
	ProductMatched   int
	ProductUnmatched int

	// ZoneAvailable and ProductAvailable are false when the reference was
	// absent for the run.
	ZoneAvailable    bool
	ProductAvailable bool
}

// Reconcile enriches every fact with its zone and product attributes.
// A nil table is an absent reference: every row gets sentinels.
func Reconcile(facts []types.SalesFact, zones *loader.ZoneTable, products *loader.ProductTable) ([]types.UnifiedFact, Stats) {
	stats := Stats{
		Rows:             len(facts),
		ZoneAvailable:    zones != nil,
		ProductAvailable: products != nil,
	}

	out := make([]types.UnifiedFact, len(facts))
	for i, f := range facts {
		u := types.UnifiedFact{SalesFact: f}

		zone, ok := zones.Lookup(f.ClientCode)
		u.ZoneMatched = ok
		u.Zone = types.ZoneRecord{
			ClientCode:     f.ClientCode,
			AccountManager: orSentinel(zone.AccountManager, types.Unassigned),
			Department:     orSentinel(zone.Department, types.Unassigned),
			Province:       orSentinel(zone.Province, types.Unassigned),
			District:       orSentinel(zone.District, types.Unassigned),
		}
		if ok {
			stats.ZoneMatched++
		} else {
			stats.ZoneUnmatched++
		}

		product, ok := products.Lookup(f.ProductCode)
		u.ProductMatched = ok
		u.Product = types.ProductRecord{
			ProductCode:    f.ProductCode,
			Segment:        orSentinel(product.Segment, types.Other),
			Brand:          orSentinel(product.Brand, types.Other),
			MachineClass:   orSentinel(product.MachineClass, types.Other),
			Description:    orSentinel(product.Description, types.Other),
			Classification: orSentinel(product.Classification, types.Other),
		}
		if ok {
			stats.ProductMatched++
		} else {
			stats.ProductUnmatched++
		}

		out[i] = u
	}

	return out, stats
}

func orSentinel(v, sentinel string) string {
	if v == "" {
		return sentinel
	}
	return v
}
