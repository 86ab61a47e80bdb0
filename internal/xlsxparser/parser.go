// =============================================================================
// Sell Out Trends - Workbook Reader
// =============================================================================
//
// This module reads one sheet of an Excel workbook into raw string rows.
// Header detection and column interpretation happen later (schema package),
// so nothing here assumes a header row.
//
// SUPPORTED FORMATS:
//   - .xlsx / .xlsm : github.com/xuri/excelize/v2
//   - .xls          : github.com/shakinm/xlsReader (BIFF8)
//
// SHEET SELECTION:
//   The sheet whose name matches Options.Sheet (case-insensitive, trimmed)
//   wins. Otherwise the first sheet is read.
//
// CELL VALUES:
//   xlsx cells are read raw (RawCellValue), so dates come through as Excel
//   serial numbers and numbers without display formatting. The loader turns
//   serials into dates.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// ErrNoSheets is returned for a workbook without any readable sheet.
var ErrNoSheets = errors.New("workbook has no sheets")

// =============================================================================
// TABLE STRUCTURE
// =============================================================================

// Table is the raw content of one sheet.
type Table struct {
	// Rows contains every row of the sheet, title rows included.
	// Rows may have different lengths.
	Rows [][]string

	// SourceFile is the path of the workbook.
	SourceFile string

	// Sheet is the name of the sheet actually read.
	Sheet string

	// Sheets lists every sheet in the workbook, in order.
	Sheets []string
}

// Options controls which sheet is read.
type Options struct {
	// Sheet is the preferred sheet name. Empty means the first sheet.
	Sheet string
}

// =============================================================================
// READER FUNCTIONS
// =============================================================================

// Read opens a workbook and returns the raw rows of the selected sheet.
//
// PARAMETERS:
//   - path: The path to the .xlsx, .xlsm or .xls file.
//   - opts: Sheet preference.
//
// RETURNS:
//   - A pointer to the Table.
//   - An error if the workbook cannot be opened or has no sheets.
func Read(path string, opts Options) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xls":
		return readXLS(path, opts)
	default:
		return readXLSX(path, opts)
	}
}

// readXLSX reads an OOXML workbook with excelize.
func readXLSX(path string, opts Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	sheet, ok := SelectSheet(sheets, opts.Sheet)
	if !ok {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheet, err)
	}

	return &Table{
		Rows:       rows,
		SourceFile: path,
		Sheet:      sheet,
		Sheets:     sheets,
	}, nil
}

// readXLS reads a legacy BIFF workbook with xlsReader.
func readXLS(path string, opts Options) (*Table, error) {
	workbook, err := xls.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	var names []string
	index := make(map[string]int)
	for i := 0; i < workbook.GetNumberSheets(); i++ {
		sheet, err := workbook.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		name := toUTF8(sheet.GetName())
		names = append(names, name)
		index[name] = i
	}

	name, ok := SelectSheet(names, opts.Sheet)
	if !ok {
		return nil, ErrNoSheets
	}

	sheet, err := workbook.GetSheet(index[name])
	if err != nil || sheet == nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}

	var rows [][]string
	for i := 0; i <= int(sheet.GetNumberRows()); i++ {
		row, err := sheet.GetRow(i)
		if err != nil || row == nil {
			// Keep row positions stable so header indexes line up.
			rows = append(rows, nil)
			continue
		}

		cols := row.GetCols()
		values := make([]string, len(cols))
		for c, col := range cols {
			if col != nil {
				values[c] = toUTF8(col.GetString())
			}
		}
		rows = append(rows, values)
	}

	return &Table{
		Rows:       trimTrailingEmpty(rows),
		SourceFile: path,
		Sheet:      name,
		Sheets:     names,
	}, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// SelectSheet returns the sheet matching preferred (trimmed, case-insensitive),
// or the first sheet. ok is false when there are no sheets.
func SelectSheet(sheets []string, preferred string) (string, bool) {
	if len(sheets) == 0 {
		return "", false
	}

	want := strings.TrimSpace(preferred)
	if want != "" {
		for _, s := range sheets {
			if strings.EqualFold(strings.TrimSpace(s), want) {
				return s, true
			}
		}
	}

	return sheets[0], true
}

// toUTF8 decodes legacy single-byte strings found in old .xls files.
func toUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return strings.ToValidUTF8(s, "�")
	}
	return decoded
}

// trimTrailingEmpty drops empty rows at the end of the sheet.
func trimTrailingEmpty(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && isRowEmpty(rows[end-1]) {
		end--
	}
	return rows[:end]
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
