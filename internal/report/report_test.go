package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sellout-trends/internal/trend"
	"github.com/ginjaninja78/sellout-trends/internal/types"
)

func trendRow(client, code, desc string, cur, prev, ref int64, last *time.Time) types.TrendRow {
	windows := make([]types.WindowSum, len(trend.Windows))
	for i, w := range trend.Windows {
		windows[i] = types.WindowSum{
			Label:    w.Label,
			Months:   w.Months,
			Current:  decimal.NewFromInt(cur),
			Previous: decimal.NewFromInt(prev),
		}
	}
	r := types.TrendRow{
		Client:             client,
		ProductCode:        code,
		Description:        desc,
		ProductLabel:       trend.ProductLabel(code, desc),
		Classification:     "A",
		Windows:            windows,
		ReferenceYearTotal: decimal.NewFromInt(ref),
		LastActivity:       last,
	}
	if last != nil {
		r.LastActivityEpochMs = last.UnixMilli()
	}
	return r
}

func at(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func fixtureRows() []types.TrendRow {
	return []types.TrendRow{
		trendRow("ACME", "P1", "TYRE 205", 4, 10, 14, at(2023, 7, 20)),
		trendRow("ACME", "P2", "TYRE 195", 5, 0, 5, at(2023, 3, 1)),
		trendRow("BETA", "P1", "TYRE 205", 0, 3, 0, nil),
	}
}

func fixtureMeta(h Hierarchy) Meta {
	return Meta{
		GeneratedAt:   time.Date(2023, 8, 1, 9, 0, 0, 0, time.UTC),
		MaxDate:       *at(2023, 7, 20),
		ReferenceYear: 2023,
		Hierarchy:     h,
		Filters:       map[string][]string{"brand": {"MICHELIN"}},
		Sources:       []string{"Sell Out 2023.xlsx"},
		Rows:          12,
	}
}

// =============================================================================
// TREE
// =============================================================================

func TestBuildTree_ClientHierarchy(t *testing.T) {
	t.Parallel()

	tree := BuildTree(fixtureRows(), HierarchyClient)
	groups := tree.Groups()
	require.Len(t, groups, 2)

	acme := groups[0]
	assert.Equal(t, "ACME", acme.Label)
	assert.Equal(t, "client", acme.Level)
	assert.Equal(t, "9", acme.Windows[0].Current.String())
	assert.Equal(t, "10", acme.Windows[0].Previous.String())
	assert.Equal(t, "19", acme.ReferenceYearTotal.String())
	assert.Equal(t, at(2023, 7, 20).UnixMilli(), acme.LastActivityEpochMs())
	assert.Equal(t, trend.Down, acme.Trends()[0])

	require.Len(t, acme.Children, 2)
	assert.Equal(t, "P1 | TYRE 205", acme.Children[0].Label)
	assert.Equal(t, "A", acme.Children[0].Classification)
	assert.Equal(t, trend.New, acme.Children[1].Trends()[0])

	beta := groups[1]
	assert.Nil(t, beta.LastActivity)
	assert.Zero(t, beta.LastActivityEpochMs())
	assert.Equal(t, trend.Lost, beta.Trends()[0])

	assert.Equal(t, "9", tree.Total.Windows[0].Current.String())
	assert.Equal(t, "13", tree.Total.Windows[0].Previous.String())
	assert.Equal(t, 3, tree.Total.Rows)
}

func TestBuildTree_ProductHierarchy(t *testing.T) {
	t.Parallel()

	tree := BuildTree(fixtureRows(), HierarchyProduct)
	groups := tree.Groups()
	require.Len(t, groups, 2)

	p1 := groups[0]
	assert.Equal(t, "P1 | TYRE 205", p1.Label)
	assert.Equal(t, "product", p1.Level)
	assert.Equal(t, "A", p1.Classification)
	require.Len(t, p1.Children, 2)
	assert.Equal(t, "ACME", p1.Children[0].Label)
	assert.Equal(t, "BETA", p1.Children[1].Label)
	assert.Empty(t, p1.Children[0].Classification)
	assert.Equal(t, "13", p1.Windows[0].Previous.String())
}

func TestBuildTree_SumsRollUp(t *testing.T) {
	t.Parallel()

	tree := BuildTree(fixtureRows(), HierarchyClient)
	for _, g := range tree.Groups() {
		for i := range g.Windows {
			cur, prev := decimal.Zero, decimal.Zero
			for _, c := range g.Children {
				cur = cur.Add(c.Windows[i].Current)
				prev = prev.Add(c.Windows[i].Previous)
			}
			assert.True(t, cur.Equal(g.Windows[i].Current), "group %s window %d", g.Label, i)
			assert.True(t, prev.Equal(g.Windows[i].Previous))
		}
	}
}

func TestParseHierarchy(t *testing.T) {
	t.Parallel()

	h, err := ParseHierarchy("")
	require.NoError(t, err)
	assert.Equal(t, HierarchyClient, h)

	h, err = ParseHierarchy(" Product ")
	require.NoError(t, err)
	assert.Equal(t, HierarchyProduct, h)

	_, err = ParseHierarchy("zone")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := ParseFormat(".XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Equal(t, ".xlsx", f.Extension())

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

// =============================================================================
// WRITERS
// =============================================================================

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, fixtureRows(), fixtureMeta(HierarchyClient)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	header := records[0]
	assert.Equal(t, "client", header[0])
	assert.Contains(t, header, "reference_year_total")
	assert.Contains(t, header, "last_activity_epoch_ms")
	for _, w := range trend.Windows {
		assert.Contains(t, header, "current_"+w.Label)
		assert.Contains(t, header, "previous_"+w.Label)
		assert.Contains(t, header, "trend_"+w.Label)
	}

	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("column %s not found", name)
		return -1
	}
	first := records[1]
	assert.Equal(t, "ACME", first[col("client")])
	assert.Equal(t, "14", first[col("reference_year_total")])
	assert.Equal(t, "4", first[col("current_6M")])
	assert.Equal(t, "10", first[col("previous_6M")])
	assert.Equal(t, "down", first[col("trend_6M")])
	assert.Equal(t, "0", records[3][col("last_activity_epoch_ms")])
}

func TestWriteCSV_ProductHierarchyOrdersKeys(t *testing.T) {
	t.Parallel()

	header := CSVHeader(HierarchyProduct)
	assert.Equal(t, "product_code", header[0])
	assert.Equal(t, "client", header[4])
}

func TestWriteXML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tree := BuildTree(fixtureRows(), HierarchyClient)
	require.NoError(t, WriteXML(&buf, tree, fixtureMeta(HierarchyClient), DefaultXMLOptions()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<selloutTrends hierarchy="client" maxDate="2023-07-20" referenceYear="2023">`)
	assert.Contains(t, out, `<group n="1" level="client" label="ACME">`)
	assert.Contains(t, out, `<group n="2" level="product" label="P1 | TYRE 205" classification="A">`)
	assert.Contains(t, out, `<group n="4" level="client" label="BETA">`)
	assert.Contains(t, out, `<window label="6M" months="6" current="4" previous="10" trend="down"/>`)
	assert.Contains(t, out, `<filter dimension="brand">`)
	assert.Contains(t, out, `<lastActivity epochMs="0"/>`)
}

func TestEscapeXML(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A &amp; B &lt;C&gt; &quot;D&quot; &apos;E&apos;", escapeXML(`A & B <C> "D" 'E'`))
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, fixtureRows(), fixtureMeta(HierarchyClient)))

	var doc struct {
		Meta struct {
			ReferenceYear int    `json:"reference_year"`
			Hierarchy     string `json:"hierarchy"`
			Rows          int    `json:"rows"`
		} `json:"meta"`
		Rows []struct {
			Client  string `json:"client"`
			Windows []struct {
				Label   string `json:"label"`
				Current string `json:"current"`
				Trend   string `json:"trend"`
			} `json:"windows"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, 2023, doc.Meta.ReferenceYear)
	assert.Equal(t, "client", doc.Meta.Hierarchy)
	assert.Equal(t, 12, doc.Meta.Rows)
	require.Len(t, doc.Rows, 3)
	assert.Equal(t, "4", doc.Rows[0].Windows[0].Current)
	assert.Equal(t, "down", doc.Rows[0].Windows[0].Trend)
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tree := BuildTree(fixtureRows(), HierarchyClient)
	require.NoError(t, WriteXLSX(&buf, tree, fixtureMeta(HierarchyClient)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetTrends, SheetInfo}, f.GetSheetList())

	rows, err := f.GetRows(SheetTrends)
	require.NoError(t, err)
	// Two header rows, total, two groups and three leaves.
	require.Len(t, rows, 8)
	assert.Equal(t, "TOTAL 2023 (Q)", rows[0][3])
	assert.Equal(t, "Period 6M", rows[0][4])
	assert.Equal(t, []string{"Prev", "Act", "Trend"}, rows[1][4:7])

	assert.Equal(t, "TOTAL", rows[2][0])
	assert.Equal(t, "ACME", rows[3][0])
	assert.Equal(t, "07-23", rows[3][2])
	assert.Equal(t, "P1 | TYRE 205", rows[4][0])
	assert.Equal(t, trend.Down.Glyph(), rows[4][6])
	assert.Equal(t, "-", rows[7][2])

	level, err := f.GetRowOutlineLevel(SheetTrends, 5)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), level)
	level, err = f.GetRowOutlineLevel(SheetTrends, 4)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), level)

	info, err := f.GetRows(SheetInfo)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data analysed up to", "2023-07-20"}, info[0])
	assert.Equal(t, []string{"Filter brand", "MICHELIN"}, info[len(info)-1])
}

func TestWrite_Dispatch(t *testing.T) {
	t.Parallel()

	for _, f := range Formats {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, f, fixtureRows(), fixtureMeta(HierarchyProduct)), "format %s", f)
		assert.NotZero(t, buf.Len())
	}
	assert.Error(t, Write(&bytes.Buffer{}, Format("pdf"), nil, Meta{}))
}
