// =============================================================================
// Sell Out Trends - CSV Parser Module
// =============================================================================
//
// This module reads delimited-text Sell Out exports into raw rows. It does
// not assume a header row: the header is located later by the schema
// package, because exports carry between zero and several title rows.
//
// FEATURES:
//   - Delimiter sniffing (comma, semicolon, tab, pipe) or a fixed delimiter
//   - Encoding handling: UTF-8 (with or without BOM), ISO-8859-1,
//     Windows-1252, or automatic detection
//   - Ragged rows (variable field counts) and lazy quotes
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/sellout-trends/internal/config"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// utf8BOM is stripped from the start of UTF-8 exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// candidateDelimiters are tried, in order, when the delimiter is "auto".
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents a parsed CSV file with no header interpretation.
type CSVData struct {
	// Rows contains every record, including title and header rows.
	Rows [][]string

	// SourceFile is the path to the source CSV file.
	SourceFile string

	// Delimiter is the separator actually used.
	Delimiter rune

	// Encoding is the encoding actually used to decode the file.
	Encoding string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns its raw rows.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and encoding settings.
//
// RETURNS:
//   - A pointer to the CSVData struct.
//   - An error if the file cannot be read or parsed.
func Parse(filePath string, settings config.CSVSettings) (*CSVData, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	data, err := ParseBytes(raw, settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath

	return data, nil
}

// ParseBytes decodes and parses an in-memory CSV export.
func ParseBytes(raw []byte, settings config.CSVSettings) (*CSVData, error) {
	decoded, encoding, err := decode(raw, settings.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to decode CSV: %w", err)
	}

	delimiter := resolveDelimiter(settings.Delimiter, decoded)

	csvReader := csv.NewReader(bytes.NewReader(decoded))
	configureReader(csvReader, delimiter)

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return &CSVData{
		Rows:      rows,
		Delimiter: delimiter,
		Encoding:  encoding,
	}, nil
}

// configureReader configures the CSV reader for tolerant parsing.
func configureReader(reader *csv.Reader, delimiter rune) {
	reader.Comma = delimiter

	// Exports are ragged: title rows have one cell, data rows many.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// =============================================================================
// ENCODING
// =============================================================================

// decode converts raw bytes to UTF-8 according to the configured encoding.
//
// ENCODINGS:
//   - "auto"         : strip a UTF-8 BOM; if the rest is not valid UTF-8,
//                      decode as Windows-1252 (a superset of ISO-8859-1 for
//                      printable characters, which covers Ñ and accented
//                      vowels in Spanish exports)
//   - "utf-8"        : strip a BOM, no conversion
//   - "iso-8859-1"   : Latin-1
//   - "windows-1252" : Windows Western
func decode(raw []byte, encoding string) ([]byte, string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "auto":
		body := bytes.TrimPrefix(raw, utf8BOM)
		if utf8.Valid(body) {
			return body, "utf-8", nil
		}
		out, err := decodeWith(body, charmap.Windows1252)
		return out, "windows-1252", err

	case "utf-8", "utf8":
		return bytes.TrimPrefix(raw, utf8BOM), "utf-8", nil

	case "iso-8859-1", "latin1":
		out, err := decodeWith(raw, charmap.ISO8859_1)
		return out, "iso-8859-1", err

	case "windows-1252", "cp1252":
		out, err := decodeWith(raw, charmap.Windows1252)
		return out, "windows-1252", err

	default:
		return nil, "", fmt.Errorf("unsupported encoding %q", encoding)
	}
}

// decodeWith runs raw through a charmap decoder.
func decodeWith(raw []byte, cm *charmap.Charmap) ([]byte, error) {
	reader := transform.NewReader(bytes.NewReader(raw), cm.NewDecoder())
	return io.ReadAll(reader)
}

// =============================================================================
// DELIMITER DETECTION
// =============================================================================

// resolveDelimiter maps the configured delimiter to a rune, sniffing the
// data when set to "auto".
func resolveDelimiter(setting string, data []byte) rune {
	switch setting {
	case "", "auto", "AUTO":
		return sniffDelimiter(data)
	case "\\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon":
		return ';'
	default:
		r, _ := utf8.DecodeRuneInString(setting)
		if r == utf8.RuneError {
			return ','
		}
		return r
	}
}

// sniffDelimiter picks the candidate that occurs most often, outside quotes,
// in the first few non-empty lines. Ties keep candidate order, so plain
// single-column files fall back to comma.
func sniffDelimiter(data []byte) rune {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	counts := make(map[rune]int, len(candidateDelimiters))
	lines := 0
	for scanner.Scan() && lines < 5 {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines++

		inQuotes := false
		for _, r := range line {
			if r == '"' {
				inQuotes = !inQuotes
				continue
			}
			if !inQuotes {
				counts[r]++
			}
		}
	}

	best := ','
	bestCount := 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best = d
			bestCount = counts[d]
		}
	}
	return best
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// IsRowEmpty checks if a row contains only empty values.
func IsRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
