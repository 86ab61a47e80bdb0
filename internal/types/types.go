// =============================================================================
// Sell Out Trends - Shared Types
// =============================================================================
//
// This package contains the typed entities that flow through the pipeline.
// Keeping them here avoids import cycles between:
//   - loader     (produces SalesFact, ZoneRecord, ProductRecord)
//   - reconcile  (produces UnifiedFact)
//   - trend      (produces TrendRow)
//   - report     (consumes TrendRow)
//
// Every column the pipeline cares about is an explicit field. Loosely typed
// spreadsheet cells are converted once, during loading.
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL VALUES
// =============================================================================

const (
	// Unassigned replaces zone attributes for clients with no zone match.
	Unassigned = "UNASSIGNED"

	// Other replaces product attributes for products with no catalog match.
	Other = "OTHER"
)

// =============================================================================
// SOURCE ENTITIES
// =============================================================================

// SalesFact is one transaction line from the Sell Out export.
type SalesFact struct {
	// ClientCode is the zone join key: trimmed, upper-cased, one trailing
	// period stripped.
	ClientCode string

	// ClientName is the display label for the client level of the grid.
	// Cleaned the same way as ClientCode.
	ClientName string

	// ProductCode is the product resolution key (trimmed).
	ProductCode string

	// Date is nil when the source value could not be parsed.
	Date *time.Time

	// Quantity is zero when the source value was not numeric.
	Quantity decimal.Decimal

	// SourceRow is the 1-based row number in the source sheet.
	SourceRow int
}

// ZoneRecord is one row of the zone reference after deduplication.
// The struct is the allow-list: nothing else from the source survives.
type ZoneRecord struct {
	ClientCode     string
	AccountManager string
	Department     string
	Province       string
	District       string
}

// ProductRecord is one row of the product catalog after deduplication.
type ProductRecord struct {
	ProductCode    string
	Segment        string
	Brand          string
	MachineClass   string
	Description    string
	Classification string
}

// =============================================================================
// UNIFIED FACT
// =============================================================================

// UnifiedFact is a SalesFact enriched with its zone and product attributes.
// Zone and Product never hold empty strings: unmatched rows carry the
// Unassigned / Other sentinels.
type UnifiedFact struct {
	SalesFact

	Zone    ZoneRecord
	Product ProductRecord

	// ZoneMatched and ProductMatched record whether the joins found a row.
	ZoneMatched    bool
	ProductMatched bool
}

// =============================================================================
// TREND ROWS
// =============================================================================

// WindowSum holds the paired current / previous sums for one window size.
type WindowSum struct {
	// Label is the display label ("6M", "1Y", "1.5Y").
	Label string

	// Months is the window length.
	Months int

	Current  decimal.Decimal
	Previous decimal.Decimal
}

// TrendRow is one group of the aggregated grid.
type TrendRow struct {
	// Client is the client label (ClientName of the facts).
	Client string

	ProductCode string
	Description string

	// ProductLabel is "<code> | <description>", the product level of the grid.
	ProductLabel string

	Classification string

	// Windows is ordered 6M, 1Y, 1.5Y.
	Windows []WindowSum

	// ReferenceYearTotal is the quantity summed over the reference year.
	// Zero when no reference year was selected.
	ReferenceYearTotal decimal.Decimal

	// LastActivity is nil when no row of the group carries a date.
	LastActivity *time.Time

	// LastActivityEpochMs mirrors LastActivity for sorting; 0 when unknown.
	LastActivityEpochMs int64
}
