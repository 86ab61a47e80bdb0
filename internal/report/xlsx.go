// =============================================================================
// Sell Out Trends - XLSX Grid Writer
// =============================================================================
//
// Lays the report tree out as a spreadsheet:
//
//   | Hierarchy | Classification | Last Purchase | TOTAL 2023 (Q) |   Period 6M    | ...
//   |           |                |               |                | Prev|Act|Trend | ...
//
// Rows are the total, then each outer group followed by its children at
// outline level 1 so Excel can collapse them. The two header rows and the
// tree column are frozen.
//
// =============================================================================

package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	// SheetTrends holds the grid.
	SheetTrends = "Trends"

	// SheetInfo holds the run metadata.
	SheetInfo = "Info"

	// fixedColumns precede the window columns.
	fixedColumns = 4
)

type gridStyles struct {
	header    int
	total     int
	group     int
	leaf      int
	reference int
	current   int
	glyph     int
}

// WriteXLSX writes the tree as a workbook.
func WriteXLSX(w io.Writer, tree *Tree, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetTrends); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newGridStyles(f)
	if err != nil {
		return err
	}

	if err := writeGridHeader(f, tree, meta, styles); err != nil {
		return err
	}

	row := 3
	if tree.Total != nil {
		if err := writeGridRow(f, row, tree.Total, styles.total, styles); err != nil {
			return err
		}
		row++
	}
	for _, group := range tree.Groups() {
		if err := writeGridRow(f, row, group, styles.group, styles); err != nil {
			return err
		}
		row++
		for _, leaf := range group.Children {
			if err := writeGridRow(f, row, leaf, styles.leaf, styles); err != nil {
				return err
			}
			if err := f.SetRowOutlineLevel(SheetTrends, row, 1); err != nil {
				return fmt.Errorf("failed to set outline level on row %d: %w", row, err)
			}
			row++
		}
	}

	if err := f.SetPanes(SheetTrends, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      2,
		TopLeftCell: "B3",
		ActivePane:  "bottomRight",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if err := writeInfoSheet(f, meta); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

type styleDef struct {
	dst   *int
	style *excelize.Style
}

func newGridStyles(f *excelize.File) (gridStyles, error) {
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
	}

	var s gridStyles
	defs := []styleDef{
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      fill("D9E1F2"),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		}},
		{&s.total, &excelize.Style{Font: &excelize.Font{Bold: true}, Fill: fill("E7E6E6")}},
		{&s.group, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&s.leaf, &excelize.Style{Alignment: &excelize.Alignment{Indent: 2}}},
		{&s.reference, &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      fill("FFF3CD"),
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{&s.current, &excelize.Style{Font: &excelize.Font{Bold: true}, Fill: fill("F0F2F6")}},
		{&s.glyph, &excelize.Style{Alignment: &excelize.Alignment{Horizontal: "center"}}},
	}

	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("failed to create style: %w", err)
		}
		*d.dst = id
	}
	return s, nil
}

func writeGridHeader(f *excelize.File, tree *Tree, meta Meta, styles gridStyles) error {
	top := []interface{}{tree.Hierarchy.Title(), "Classification", "Last Purchase", meta.ReferenceColumn()}
	sub := []interface{}{"", "", "", ""}
	for _, w := range tree.Total.Windows {
		top = append(top, "Period "+w.Label, "", "")
		sub = append(sub, "Prev", "Act", "Trend")
	}

	if err := f.SetSheetRow(SheetTrends, "A1", &top); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetSheetRow(SheetTrends, "A2", &sub); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// Fixed columns span both header rows; each window spans its three.
	for col := 1; col <= fixedColumns; col++ {
		if err := mergeCells(f, col, 1, col, 2); err != nil {
			return err
		}
	}
	for i := range tree.Total.Windows {
		first := fixedColumns + 1 + i*3
		if err := mergeCells(f, first, 1, first+2, 1); err != nil {
			return err
		}
	}

	last := cellName(fixedColumns+3*len(tree.Total.Windows), 2)
	if err := f.SetCellStyle(SheetTrends, "A1", last, styles.header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	if err := f.SetColWidth(SheetTrends, "A", "A", 48); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(SheetTrends, "B", "D", 16); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	return nil
}

func writeGridRow(f *excelize.File, row int, node *Node, rowStyle int, styles gridStyles) error {
	values := []interface{}{
		node.Label,
		node.Classification,
		formatMonth(node.LastActivity),
		node.ReferenceYearTotal.InexactFloat64(),
	}
	trends := node.Trends()
	for i, ws := range node.Windows {
		values = append(values,
			ws.Previous.InexactFloat64(),
			ws.Current.InexactFloat64(),
			trends[i].Glyph(),
		)
	}

	if err := f.SetSheetRow(SheetTrends, cellName(1, row), &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}

	lastCol := len(values)
	if err := f.SetCellStyle(SheetTrends, cellName(1, row), cellName(lastCol, row), rowStyle); err != nil {
		return fmt.Errorf("failed to style row %d: %w", row, err)
	}
	if err := f.SetCellStyle(SheetTrends, cellName(fixedColumns, row), cellName(fixedColumns, row), styles.reference); err != nil {
		return fmt.Errorf("failed to style row %d: %w", row, err)
	}
	for i := range node.Windows {
		act := fixedColumns + 2 + i*3
		if err := f.SetCellStyle(SheetTrends, cellName(act, row), cellName(act, row), styles.current); err != nil {
			return fmt.Errorf("failed to style row %d: %w", row, err)
		}
		if err := f.SetCellStyle(SheetTrends, cellName(act+1, row), cellName(act+1, row), styles.glyph); err != nil {
			return fmt.Errorf("failed to style row %d: %w", row, err)
		}
	}
	return nil
}

func writeInfoSheet(f *excelize.File, meta Meta) error {
	if _, err := f.NewSheet(SheetInfo); err != nil {
		return fmt.Errorf("failed to create info sheet: %w", err)
	}

	analysed := "-"
	if !meta.MaxDate.IsZero() {
		analysed = meta.MaxDate.Format("2006-01-02")
	}
	reference := "none"
	if meta.ReferenceYear != 0 {
		reference = fmt.Sprintf("%d", meta.ReferenceYear)
	}

	rows := [][]interface{}{
		{"Data analysed up to", analysed},
		{"Reference year", reference},
		{"Hierarchy", string(meta.Hierarchy)},
		{"Rows", meta.Rows},
		{"Generated at", meta.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Sources", strings.Join(meta.Sources, ", ")},
	}

	dims := make([]string, 0, len(meta.Filters))
	for d := range meta.Filters {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	for _, d := range dims {
		if len(meta.Filters[d]) == 0 {
			continue
		}
		rows = append(rows, []interface{}{"Filter " + d, strings.Join(meta.Filters[d], ", ")})
	}

	for i, r := range rows {
		r := r
		if err := f.SetSheetRow(SheetInfo, cellName(1, i+1), &r); err != nil {
			return fmt.Errorf("failed to write info row: %w", err)
		}
	}
	if err := f.SetColWidth(SheetInfo, "A", "A", 22); err != nil {
		return fmt.Errorf("failed to size info sheet: %w", err)
	}
	return nil
}

func mergeCells(f *excelize.File, col1, row1, col2, row2 int) error {
	if col1 == col2 && row1 == row2 {
		return nil
	}
	if err := f.MergeCell(SheetTrends, cellName(col1, row1), cellName(col2, row2)); err != nil {
		return fmt.Errorf("failed to merge header cells: %w", err)
	}
	return nil
}

// cellName panics only on non-positive coordinates, which callers never pass.
func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(err)
	}
	return name
}
