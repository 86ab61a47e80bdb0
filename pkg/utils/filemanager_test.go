package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultRules = SalesRules{
	NameTokens:    []string{"Sell Out", "SO"},
	ExcludeTokens: []string{"Zonas", "historico", "CAI"},
	Extensions:    []string{".xlsx", ".xls", ".csv"},
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestIsSalesFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"Sell Out 2023.xlsx", true},
		{"SO_enero.csv", true},
		{"Sell Out legacy.XLS", true},
		{"~$Sell Out 2023.xlsx", false},
		{"Sell Out Zonas.xlsx", false},
		{"CAI historico 2.xlsx", false},
		{"Sell Out 2023.pdf", false},
		{"sell out lower.xlsx", false},
		{"ventas.xlsx", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSalesFileName(tt.name, defaultRules), tt.name)
	}
}

func TestFindSalesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "Sell Out Zonas.xlsx")
	touch(t, dir, "CAI historico 2.xlsx")
	touch(t, dir, "~$Sell Out 2023.xlsx")
	touch(t, dir, "Sell Out 2024.xlsx")
	want := touch(t, dir, "Sell Out 2023.xlsx")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Sell Out archive.csv"), 0o755))

	fm := NewFileManager(dir, filepath.Join(dir, "out"))
	got, err := fm.FindSalesFile(defaultRules)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	empty := NewFileManager(t.TempDir(), "")
	got, err = empty.FindSalesFile(defaultRules)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = NewFileManager(filepath.Join(dir, "missing"), "").FindSalesFile(defaultRules)
	assert.Error(t, err)
}

func TestFindFirstExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xls := touch(t, dir, "Sell Out Zonas.xls")

	fm := NewFileManager(dir, "")
	assert.Equal(t, xls, fm.FindFirstExisting("Sell Out Zonas.xlsx", "Sell Out Zonas.xls"))
	assert.Empty(t, fm.FindFirstExisting("nope.xlsx", ""))
	assert.Equal(t, xls, fm.FindFirstExisting(xls))
}

func TestGenerateOutputFileName(t *testing.T) {
	t.Parallel()

	name := GenerateOutputFileName("sellout_trends_{hierarchy}_{uuid}", ".xlsx", map[string]string{"hierarchy": "product"})
	assert.True(t, strings.HasPrefix(name, "sellout_trends_product_"))
	assert.True(t, strings.HasSuffix(name, ".xlsx"))
	assert.NotContains(t, name, "{")

	assert.Equal(t, "report.csv", GenerateOutputFileName("report.csv", ".csv", nil))
	assert.Len(t, GenerateOutputFileName("{date}", "", nil), len("20060102"))
}

func TestWriteSummaryLog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fm := NewFileManager(dir, filepath.Join(dir, "out"))
	require.NoError(t, fm.EnsureOutputDir())

	start := time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC)
	path, err := WriteSummaryLog(RunSummary{
		StartTime:     start,
		EndTime:       start.Add(2 * time.Second),
		SalesFile:     "Sell Out 2023.xlsx",
		Hierarchy:     "client",
		ReferenceYear: 2023,
		Rows:          10,
		FilteredRows:  4,
		Issues:        []string{"[WARNING] zones: reference not found"},
	}, fm.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, "run_summary_20240115_143022.txt", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "Reference Year:     2023")
	assert.Contains(t, out, "Zones:          -")
	assert.Contains(t, out, "[WARNING] zones: reference not found")
	assert.True(t, FileExists(path))
}
