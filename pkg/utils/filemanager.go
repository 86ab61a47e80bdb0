// =============================================================================
// Sell Out Trends - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the report tool:
//   - Discovery of the Sell Out export and the reference workbooks
//   - Output directory management
//   - Report file naming
//   - Run summary logs
//
// DISCOVERY RULES:
//   - The sales export is the first file (by name) in the data directory
//     whose name contains one of the sales tokens and ends in an accepted
//     extension.
//   - Excel lock files ("~$...") and reference workbooks (names containing
//     an exclude token such as "Zonas" or "CAI") are never picked.
//   - Reference files are looked up by exact candidate names; first hit wins.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the report tool.
type FileManager struct {
	// DataDir is the directory holding the sales export and references.
	DataDir string

	// OutputDir is the directory where reports and logs are placed.
	OutputDir string
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(dataDir, outputDir string) *FileManager {
	return &FileManager{
		DataDir:   dataDir,
		OutputDir: outputDir,
	}
}

// EnsureOutputDir creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureOutputDir() error {
	if fm.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(fm.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// SalesRules controls FindSalesFile.
type SalesRules struct {
	// NameTokens: the file name must contain one of these (case-sensitive).
	NameTokens []string

	// ExcludeTokens: names containing any of these are skipped.
	ExcludeTokens []string

	// Extensions are the accepted suffixes, compared case-insensitively.
	Extensions []string
}

// FindSalesFile scans the data directory for the sales export.
//
// RETURNS:
//   - The path of the first matching file in name order, or "" if none.
//   - An error if the directory cannot be read.
func (fm *FileManager) FindSalesFile(rules SalesRules) (string, error) {
	entries, err := os.ReadDir(fm.DataDir)
	if err != nil {
		return "", fmt.Errorf("failed to read data directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if IsSalesFileName(name, rules) {
			return filepath.Join(fm.DataDir, name), nil
		}
	}
	return "", nil
}

// IsSalesFileName applies the discovery rules to a bare file name.
func IsSalesFileName(name string, rules SalesRules) bool {
	if strings.HasPrefix(name, "~$") {
		return false
	}
	if !containsAny(name, rules.NameTokens) {
		return false
	}
	if containsAny(name, rules.ExcludeTokens) {
		return false
	}

	lower := strings.ToLower(name)
	for _, ext := range rules.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// FindFirstExisting returns the first candidate that exists in the data
// directory, or "" if none does. Absolute candidates are used as is.
func (fm *FileManager) FindFirstExisting(candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		path := fm.Resolve(c)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Resolve joins a relative name onto the data directory.
func (fm *FileManager) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(fm.DataDir, name)
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a report file name from a format string.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {hierarchy} - client or product (from params)
//   - ext: The extension to ensure, including the dot (".xlsx").
//   - params: Extra placeholder values.
//
// EXAMPLE:
//   format: "sellout_trends_{hierarchy}_{timestamp}"
//   params: {"hierarchy": "client"}
//   output: "sellout_trends_client_20240115_143022.xlsx"
func GenerateOutputFileName(format, ext string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about one report run.
type RunSummary struct {
	StartTime time.Time
	EndTime   time.Time

	SalesFile   string
	ZoneFile    string
	ProductFile string
	OutputFile  string

	Hierarchy     string
	ReferenceYear int
	MaxDate       time.Time

	// Rows counts unified facts before and after filtering.
	Rows         int
	FilteredRows int
	TrendRows    int

	ZoneMatched      int
	ZoneUnmatched    int
	ProductMatched   int
	ProductUnmatched int

	// Issues are the formatted warnings and errors of the run.
	Issues []string
}

// WriteSummaryLog writes a run summary to a log file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	timestamp := summary.StartTime.Format("20060102_150405")
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("run_summary_%s.txt", timestamp))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	maxDate := "-"
	if !summary.MaxDate.IsZero() {
		maxDate = summary.MaxDate.Format("2006-01-02")
	}
	reference := "none"
	if summary.ReferenceYear != 0 {
		reference = fmt.Sprintf("%d", summary.ReferenceYear)
	}

	fmt.Fprintf(writer, "Sell Out Trends - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Sources:\n"+
		"  Sales:          %s\n"+
		"  Zones:          %s\n"+
		"  Products:       %s\n"+
		"  Output:         %s\n\n"+
		"Statistics:\n"+
		"  Hierarchy:          %s\n"+
		"  Reference Year:     %s\n"+
		"  Data Up To:         %s\n"+
		"  Rows:               %d\n"+
		"  Rows After Filter:  %d\n"+
		"  Trend Rows:         %d\n"+
		"  Zone Matched:       %d\n"+
		"  Zone Unmatched:     %d\n"+
		"  Product Matched:    %d\n"+
		"  Product Unmatched:  %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		orDash(summary.SalesFile),
		orDash(summary.ZoneFile),
		orDash(summary.ProductFile),
		orDash(summary.OutputFile),
		summary.Hierarchy,
		reference,
		maxDate,
		summary.Rows,
		summary.FilteredRows,
		summary.TrendRows,
		summary.ZoneMatched,
		summary.ZoneUnmatched,
		summary.ProductMatched,
		summary.ProductUnmatched)

	if len(summary.Issues) > 0 {
		writer.WriteString("Issues:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, issue := range summary.Issues {
			fmt.Fprintf(writer, "  %s\n", issue)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
