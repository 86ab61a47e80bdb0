package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook creates an xlsx file with the given sheets, in order.
func writeWorkbook(t *testing.T, name string, sheets []string, rows map[string][][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sheet))
		} else {
			_, err := f.NewSheet(sheet)
			require.NoError(t, err)
		}
		for r, row := range rows[sheet] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestRead_PrefersNamedSheet(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, "zones.xlsx", []string{"Resumen", "Sell Out"}, map[string][][]any{
		"Resumen":  {{"ignored"}},
		"Sell Out": {{"COD.CLIENTE", "AM"}, {"C1", "ANA"}},
	})

	table, err := Read(path, Options{Sheet: "sell out"})
	require.NoError(t, err)
	assert.Equal(t, "Sell Out", table.Sheet)
	assert.Equal(t, []string{"Resumen", "Sell Out"}, table.Sheets)
	assert.Equal(t, [][]string{{"COD.CLIENTE", "AM"}, {"C1", "ANA"}}, table.Rows)
}

func TestRead_FallsBackToFirstSheet(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, "cat.xlsx", []string{"Hoja1", "Hoja2"}, map[string][][]any{
		"Hoja1": {{"CAI", "MARCA"}, {"P1", "MICHELIN"}},
	})

	table, err := Read(path, Options{Sheet: "Sell Out"})
	require.NoError(t, err)
	assert.Equal(t, "Hoja1", table.Sheet)
	assert.Len(t, table.Rows, 2)
}

func TestRead_RawNumbersAndLimit(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, "SO.xlsx", []string{"Sell Out"}, map[string][][]any{
		"Sell Out": {
			{"Reporte de ventas"},
			{"CAI", "CANTIDAD"},
			{"P1", 10.5},
			{"P2", 3},
		},
	})

	table, err := Read(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "10.5"}, table.Rows[2])
	assert.Equal(t, []string{"P2", "3"}, table.Rows[3])
}

func TestRead_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), "missing.xlsx"), Options{})
	assert.Error(t, err)

	_, err = Read(filepath.Join(t.TempDir(), "missing.xls"), Options{})
	assert.Error(t, err)
}

func TestSelectSheet(t *testing.T) {
	t.Parallel()

	_, ok := SelectSheet(nil, "Sell Out")
	assert.False(t, ok)

	name, ok := SelectSheet([]string{"A", " Sell Out "}, "Sell Out")
	assert.True(t, ok)
	assert.Equal(t, " Sell Out ", name)

	name, _ = SelectSheet([]string{"A", "B"}, "")
	assert.Equal(t, "A", name)
}

func TestToUTF8(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "AÑO", toUTF8("AÑO"))
	assert.Equal(t, "AÑO", toUTF8(string([]byte{'A', 0xD1, 'O'})))
}
