package trend

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ginjaninja78/sellout-trends/internal/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func row(client, product string, date *time.Time, qty int64) types.UnifiedFact {
	return types.UnifiedFact{
		SalesFact: types.SalesFact{
			ClientCode:  client,
			ClientName:  client,
			ProductCode: product,
			Date:        date,
			Quantity:    decimal.NewFromInt(qty),
		},
		Zone:    types.ZoneRecord{ClientCode: client, AccountManager: types.Unassigned, Department: types.Unassigned, Province: types.Unassigned, District: types.Unassigned},
		Product: types.ProductRecord{ProductCode: product, Segment: types.Other, Brand: types.Other, MachineClass: types.Other, Description: types.Other, Classification: types.Other},
	}
}

func ptr(t time.Time) *time.Time { return &t }

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestClassify(t *testing.T) {
	t.Parallel()

	d := decimal.NewFromInt
	tests := []struct {
		prev, cur int64
		want      Trend
		glyph     string
	}{
		{0, 0, Neutral, "⚪"},
		{5, 0, Lost, "💀"},
		{0, 5, New, "✨"},
		{3, 7, Up, "🟢"},
		{7, 3, Down, "🔴"},
		{4, 4, Flat, "🟡"},
	}
	for _, tt := range tests {
		got := Classify(d(tt.prev), d(tt.cur))
		assert.Equal(t, tt.want, got, "classify(%d,%d)", tt.prev, tt.cur)
		assert.Equal(t, tt.glyph, got.Glyph())
	}
}

func TestClassify_Total(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		prev := decimal.NewFromInt(int64(rapid.IntRange(-5, 50).Draw(t, "prev")))
		cur := decimal.NewFromInt(int64(rapid.IntRange(-5, 50).Draw(t, "cur")))

		got := Classify(prev, cur)
		assert.NotEmpty(t, got.Glyph())
		if cur.GreaterThan(prev) {
			assert.Contains(t, []Trend{New, Up}, got)
		}
		if cur.LessThan(prev) {
			assert.Contains(t, []Trend{Lost, Down}, got)
		}
	})
}

// =============================================================================
// WINDOWS
// =============================================================================

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	t.Parallel()

	assert.Equal(t, day(2023, 2, 28), AddMonths(day(2023, 8, 31), -6))
	assert.Equal(t, day(2024, 2, 29), AddMonths(day(2023, 8, 31), 6))
	assert.Equal(t, day(2022, 7, 20), AddMonths(day(2023, 7, 20), -12))
	assert.Equal(t, day(2021, 1, 31), AddMonths(day(2022, 7, 31), -18))
}

func TestWindowBounds_MeasuredFromEnd(t *testing.T) {
	t.Parallel()

	cur, prev := Windows[0].Bounds(day(2023, 8, 31))
	assert.Equal(t, day(2023, 2, 28), cur)
	assert.Equal(t, day(2022, 8, 31), prev)
}

func TestWindow_HalfOpenBoundaries(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		end := day(2020, 1, 1).AddDate(0, 0, rapid.IntRange(0, 2000).Draw(t, "offset"))
		w := Windows[rapid.IntRange(0, len(Windows)-1).Draw(t, "window")]
		curStart, prevStart := w.Bounds(end)

		assert.Equal(t, current, w.bucketOf(end, end))
		assert.Equal(t, previous, w.bucketOf(curStart, end))
		assert.Equal(t, current, w.bucketOf(curStart.Add(time.Second), end))
		assert.Equal(t, outside, w.bucketOf(prevStart, end))
		assert.Equal(t, outside, w.bucketOf(end.Add(time.Second), end))

		rows := []types.UnifiedFact{
			row("C", "P", ptr(end), 1),
			row("C", "P", ptr(curStart), 10),
		}
		got := Aggregate(rows, AggregateOptions{})
		require.Len(t, got, 1)
		for i, ws := range got[0].Windows {
			if Windows[i] == w {
				assert.Equal(t, "1", ws.Current.String())
				assert.Equal(t, "10", ws.Previous.String())
			}
		}
	})
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestAggregate_EndToEnd(t *testing.T) {
	t.Parallel()

	rows := []types.UnifiedFact{
		row("C1", "P1", ptr(day(2023, 1, 15)), 10),
		row("C1", "P1", ptr(day(2023, 7, 20)), 4),
	}

	latest, ok := MaxDate(rows)
	require.True(t, ok)
	assert.Equal(t, day(2023, 7, 20), latest)

	got := Aggregate(rows, AggregateOptions{ReferenceYear: 2023})
	require.Len(t, got, 1)
	tr := got[0]

	six := tr.Windows[0]
	assert.Equal(t, "6M", six.Label)
	assert.Equal(t, "4", six.Current.String())
	assert.Equal(t, "10", six.Previous.String())
	assert.Equal(t, Down, Classify(six.Previous, six.Current))

	assert.Equal(t, "14", tr.ReferenceYearTotal.String())
	require.NotNil(t, tr.LastActivity)
	assert.Equal(t, day(2023, 7, 20).UnixMilli(), tr.LastActivityEpochMs)
	assert.Equal(t, "P1 | OTHER", tr.ProductLabel)

	// 1Y: both rows are in the current year-long window.
	assert.Equal(t, "14", tr.Windows[1].Current.String())
	assert.True(t, tr.Windows[1].Previous.IsZero())
}

func TestAggregate_NoReferenceYearAndUndatedRows(t *testing.T) {
	t.Parallel()

	now := day(2024, 3, 1)
	rows := []types.UnifiedFact{
		row("C2", "P2", nil, 7),
		row("C1", "P1", nil, 3),
	}

	got := Aggregate(rows, AggregateOptions{Now: func() time.Time { return now }})
	require.Len(t, got, 2)
	assert.Equal(t, "C1", got[0].Client)
	for _, tr := range got {
		assert.True(t, tr.ReferenceYearTotal.IsZero())
		assert.Nil(t, tr.LastActivity)
		assert.Zero(t, tr.LastActivityEpochMs)
		for _, w := range tr.Windows {
			assert.True(t, w.Current.IsZero())
			assert.True(t, w.Previous.IsZero())
		}
	}

	assert.Equal(t, now, EffectiveMaxDate(rows, func() time.Time { return now }))
}

func TestAggregate_GroupsByProductAndClient(t *testing.T) {
	t.Parallel()

	d := ptr(day(2023, 5, 1))
	rows := []types.UnifiedFact{
		row("C1", "P1", d, 1),
		row("C1", "P1", d, 2),
		row("C1", "P2", d, 3),
		row("C2", "P1", d, 4),
	}

	got := Aggregate(rows, AggregateOptions{ReferenceYear: 2022})
	require.Len(t, got, 3)
	assert.Equal(t, "3", got[0].Windows[0].Current.String())
	assert.True(t, got[0].ReferenceYearTotal.IsZero())
}

// =============================================================================
// FILTERS
// =============================================================================

func TestFilter(t *testing.T) {
	t.Parallel()

	a := row("C1", "P1", nil, 1)
	a.Product.Brand = "MICHELIN"
	a.Zone.AccountManager = "ANA"
	b := row("C2", "P2", nil, 1)
	b.Product.Brand = "BFG"
	b.Zone.AccountManager = "ANA"
	rows := []types.UnifiedFact{a, b}

	assert.Len(t, Filter(rows, nil), 2)
	assert.Len(t, Filter(rows, Predicates{Brand: {}}), 2)
	assert.Len(t, Filter(rows, Predicates{AccountManager: {"ANA"}}), 2)

	got := Filter(rows, Predicates{AccountManager: {"ANA"}, Brand: {"MICHELIN", "X"}})
	require.Len(t, got, 1)
	assert.Equal(t, "C1", got[0].ClientCode)

	assert.Empty(t, Filter(rows, Predicates{District: {"MIRAFLORES"}}))
}

func TestOptionsAndYears(t *testing.T) {
	t.Parallel()

	a := row("C1", "P1", ptr(day(2022, 1, 1)), 1)
	a.Product.Brand = "MICHELIN"
	b := row("C2", "P2", ptr(day(2023, 1, 1)), 1)
	b.Product.Brand = "BFG"
	c := row("C3", "P3", nil, 1)

	opts := Options([]types.UnifiedFact{a, b, c})
	assert.Equal(t, []string{"BFG", "MICHELIN", types.Other}, opts[Brand])
	assert.Equal(t, []string{types.Unassigned}, opts[District])
	assert.Len(t, opts, len(Dimensions))

	assert.Equal(t, []int{2023, 2022}, Years([]types.UnifiedFact{a, b, c}))
}

func TestParseDimension(t *testing.T) {
	t.Parallel()

	d, err := ParseDimension("Account-Manager")
	require.NoError(t, err)
	assert.Equal(t, AccountManager, d)

	_, err = ParseDimension("zone")
	assert.Error(t, err)
}
