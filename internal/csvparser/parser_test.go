package csvparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/sellout-trends/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBytes_Delimiters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		setting   string
		wantDelim rune
		wantRows  [][]string
	}{
		{
			name:      "comma sniffed",
			input:     "CAI,CANTIDAD\nP1,10\n",
			setting:   "auto",
			wantDelim: ',',
			wantRows:  [][]string{{"CAI", "CANTIDAD"}, {"P1", "10"}},
		},
		{
			name:      "semicolon sniffed",
			input:     "CAI;CANTIDAD;FECHA\nP1;10,5;2023-01-15\n",
			setting:   "auto",
			wantDelim: ';',
			wantRows:  [][]string{{"CAI", "CANTIDAD", "FECHA"}, {"P1", "10,5", "2023-01-15"}},
		},
		{
			name:      "tab fixed",
			input:     "CAI\tCANTIDAD\nP1\t3\n",
			setting:   "tab",
			wantDelim: '\t',
			wantRows:  [][]string{{"CAI", "CANTIDAD"}, {"P1", "3"}},
		},
		{
			name:      "quoted commas do not count",
			input:     "\"A, B, C\"|X\n\"D, E\"|Y\n",
			setting:   "auto",
			wantDelim: '|',
			wantRows:  [][]string{{"A, B, C", "X"}, {"D, E", "Y"}},
		},
		{
			name:      "ragged title rows",
			input:     "Reporte\n\nCAI,CANTIDAD\nP1,1\n",
			setting:   "auto",
			wantDelim: ',',
			wantRows:  [][]string{{"Reporte"}, {"CAI", "CANTIDAD"}, {"P1", "1"}},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, err := ParseBytes([]byte(tt.input), config.CSVSettings{Delimiter: tt.setting, Encoding: "auto"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantDelim, data.Delimiter)
			assert.Equal(t, tt.wantRows, data.Rows)
		})
	}
}

func TestParseBytes_Encodings(t *testing.T) {
	t.Parallel()

	// "AÑO" in Windows-1252 / Latin-1: Ñ = 0xD1.
	latin := []byte{'A', 0xD1, 'O', ',', 'C', 'A', 'I', '\n', '2', '0', '2', '3', ',', 'P', '1', '\n'}

	data, err := ParseBytes(latin, config.CSVSettings{Encoding: "auto"})
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", data.Encoding)
	assert.Equal(t, "AÑO", data.Rows[0][0])

	data, err = ParseBytes(latin, config.CSVSettings{Encoding: "iso-8859-1"})
	require.NoError(t, err)
	assert.Equal(t, "AÑO", data.Rows[0][0])

	bom := append([]byte{0xEF, 0xBB, 0xBF}, []byte("CAI,CANTIDAD\n")...)
	data, err = ParseBytes(bom, config.CSVSettings{Encoding: "auto"})
	require.NoError(t, err)
	assert.Equal(t, "utf-8", data.Encoding)
	assert.Equal(t, "CAI", data.Rows[0][0])

	_, err = ParseBytes(bom, config.CSVSettings{Encoding: "klingon"})
	assert.Error(t, err)
}

func TestParse_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "SO.csv")
	require.NoError(t, os.WriteFile(path, []byte("CAI,CANTIDAD\nP1,4\n"), 0o644))

	data, err := Parse(path, config.CSVSettings{})
	require.NoError(t, err)
	assert.Equal(t, path, data.SourceFile)
	assert.Len(t, data.Rows, 2)

	_, err = Parse(filepath.Join(t.TempDir(), "missing.csv"), config.CSVSettings{})
	assert.Error(t, err)
}

func TestIsRowEmpty(t *testing.T) {
	t.Parallel()
	assert.True(t, IsRowEmpty(nil))
	assert.True(t, IsRowEmpty([]string{"", "  "}))
	assert.False(t, IsRowEmpty([]string{"", "x"}))
}
