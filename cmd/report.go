// =============================================================================
// Sell Out Trends - Report Command
// =============================================================================
//
// This file defines the 'report' command, the main command of the tool. It
// runs the pipeline and writes the trend grid.
//
// COMMAND USAGE:
//   sellout report [flags]
//
// FLAGS:
//   --format, -f   : xlsx, csv, xml or json (default from config)
//   --hierarchy    : client (client > product) or product (product > client)
//   --year         : reference year; 0 = latest available, -1 = none
//   --filter       : dimension=value[,value...] (repeatable)
//   --file         : sales export to read instead of discovering one
//   --output, -o   : output file path (default: generated in output_dir)
//   --strict       : fail when any warning was raised
//   --summary      : also write a run summary log
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sellout-trends/internal/loader"
	"github.com/ginjaninja78/sellout-trends/internal/pipeline"
	"github.com/ginjaninja78/sellout-trends/internal/report"
	"github.com/ginjaninja78/sellout-trends/internal/schema"
	"github.com/ginjaninja78/sellout-trends/internal/trend"
	"github.com/ginjaninja78/sellout-trends/internal/validation"
	"github.com/ginjaninja78/sellout-trends/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	reportFormat    string
	reportHierarchy string
	reportYear      int
	reportFilters   []string
	reportFile      string
	reportOutput    string
	reportStrict    bool
	reportSummary   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the client/product trend grid",
	Long: `The report command locates the Sell Out export in the data directory,
joins it with the zone and product references, applies the filters and
writes the trend grid.

A missing or unusable reference workbook is not fatal: its attributes show as
UNASSIGNED (zones) or OTHER (products) and a warning is logged. A sales export
without a product code column is fatal.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "", "Output format: xlsx, csv, xml or json")
	reportCmd.Flags().StringVar(&reportHierarchy, "hierarchy", "", "Tree order: client or product")
	reportCmd.Flags().IntVar(&reportYear, "year", 0, "Reference year (0 = latest available, -1 = none)")
	reportCmd.Flags().StringArrayVar(&reportFilters, "filter", nil, "Filter as dimension=value[,value...]; repeatable")
	reportCmd.Flags().StringVar(&reportFile, "file", "", "Sales export to read instead of discovering one")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Output file path")
	reportCmd.Flags().BoolVar(&reportStrict, "strict", false, "Fail when any warning was raised")
	reportCmd.Flags().BoolVar(&reportSummary, "summary", false, "Write a run summary log to the output directory")
}

// =============================================================================
// MAIN REPORT FUNCTION
// =============================================================================

func runReport(cmd *cobra.Command) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 1: RESOLVE THE VIEW
	// =========================================================================

	format, err := report.ParseFormat(firstNonEmpty(reportFormat, cfg.OutputFormat))
	if err != nil {
		return err
	}

	hierarchy, err := report.ParseHierarchy(firstNonEmpty(reportHierarchy, cfg.Defaults.Hierarchy))
	if err != nil {
		return err
	}

	year := cfg.Defaults.ReferenceYear
	if cmd.Flags().Changed("year") {
		year = reportYear
	}

	preds, err := parseFilters(cfg.Defaults.Filters, reportFilters)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: RUN THE PIPELINE
	// =========================================================================

	cache, err := loader.NewCache(cfg.CacheSize)
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Predicates:    preds,
		ReferenceYear: year,
		Hierarchy:     hierarchy,
		SalesFile:     reportFile,
		Strict:        reportStrict,
	}

	runName := utils.GenerateOutputFileName(cfg.OutputNameFormat, "", map[string]string{"hierarchy": string(hierarchy)})

	result, runErr := pipeline.New(cfg, logger, cache).Run(cmd.Context(), req)
	if runErr != nil && !errors.Is(runErr, pipeline.ErrStrict) {
		if logPath, err := writeFatalLog(cfg.OutputDir, runName, runErr); err != nil {
			logger.Warn().Err(err).Msg("Failed to write issue log")
		} else if logPath != "" {
			fmt.Fprintf(out, "Issues logged to:  %s\n", logPath)
		}
		return runErr
	}

	fmt.Fprintln(out, "=== Sell Out Trends ===")
	printResultHeader(out, result)

	files := utils.NewFileManager(cfg.DataDir, cfg.OutputDir)
	if err := files.EnsureOutputDir(); err != nil {
		return err
	}

	if logPath, err := validation.WriteIssueLog(cfg.OutputDir, runName, result.Issues); err != nil {
		logger.Warn().Err(err).Msg("Failed to write issue log")
	} else if logPath != "" {
		fmt.Fprintf(out, "Issues logged to:  %s\n", logPath)
	}

	if runErr != nil {
		fmt.Fprint(out, validation.FormatIssues(result.Issues))
		return runErr
	}

	// =========================================================================
	// STEP 3: WRITE THE GRID
	// =========================================================================

	outputPath := ""
	if result.Empty {
		fmt.Fprintln(out, "No rows match the selected filters; nothing written.")
	} else {
		outputPath = reportOutput
		if outputPath == "" {
			outputPath = filepath.Join(cfg.OutputDir, runName+format.Extension())
		}

		meta := result.Meta(hierarchy, preds, time.Now())
		if err := writeReport(outputPath, format, result, meta); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s report:  %s\n", format, outputPath)
	}

	// =========================================================================
	// STEP 4: SUMMARY
	// =========================================================================

	if reportSummary {
		path, err := utils.WriteSummaryLog(buildSummary(startTime, hierarchy, outputPath, result), cfg.OutputDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Summary:           %s\n", path)
	}

	fmt.Fprintf(out, "Time elapsed:      %s\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func writeReport(path string, format report.Format, result *pipeline.Result, meta report.Meta) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := report.Write(f, format, result.Trends, meta); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}

// writeFatalLog records a run-stopping error in the issue log. Cancelled
// runs leave no log.
func writeFatalLog(dir, runName string, runErr error) (string, error) {
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		return "", nil
	}

	source := "pipeline"
	var mce *schema.MissingColumnError
	if errors.As(runErr, &mce) && mce.Source != "" {
		source = filepath.Base(mce.Source)
	}

	issues := validation.NewCollector(validation.Options{})
	issues.Error(source, runErr)
	return validation.WriteIssueLog(dir, runName, issues.Issues())
}

func printResultHeader(out io.Writer, result *pipeline.Result) {
	fmt.Fprintf(out, "Sales file:        %s\n", result.Sources.Sales)
	fmt.Fprintf(out, "Zone reference:    %s\n", orNone(result.Sources.Zones))
	fmt.Fprintf(out, "Product reference: %s\n", orNone(result.Sources.Products))

	if result.HasDates {
		fmt.Fprintf(out, "Data analysed up to: %s\n", result.MaxDate.Format("2006-01-02"))
	} else {
		fmt.Fprintln(out, "Data analysed up to: no dated rows")
	}
	if result.ReferenceYear != 0 {
		fmt.Fprintf(out, "Reference year:    %d\n", result.ReferenceYear)
	}

	rs := result.Stats.Reconcile
	fmt.Fprintf(out, "Rows:              %d (%d after filters)\n", rs.Rows, result.Stats.FilteredRows)
	fmt.Fprintf(out, "Zone matches:      %d matched, %d unmatched\n", rs.ZoneMatched, rs.ZoneUnmatched)
	fmt.Fprintf(out, "Product matches:   %d matched, %d unmatched\n", rs.ProductMatched, rs.ProductUnmatched)
	fmt.Fprintf(out, "Trend rows:        %d\n", result.Stats.TrendRows)

	if n := len(result.Issues); n > 0 {
		fmt.Fprintf(out, "Warnings:          %d\n", n)
	}
}

func buildSummary(start time.Time, h report.Hierarchy, outputPath string, result *pipeline.Result) utils.RunSummary {
	rs := result.Stats.Reconcile
	summary := utils.RunSummary{
		StartTime:        start,
		EndTime:          time.Now(),
		SalesFile:        result.Sources.Sales,
		ZoneFile:         result.Sources.Zones,
		ProductFile:      result.Sources.Products,
		OutputFile:       outputPath,
		Hierarchy:        string(h),
		ReferenceYear:    result.ReferenceYear,
		Rows:             rs.Rows,
		FilteredRows:     result.Stats.FilteredRows,
		TrendRows:        result.Stats.TrendRows,
		ZoneMatched:      rs.ZoneMatched,
		ZoneUnmatched:    rs.ZoneUnmatched,
		ProductMatched:   rs.ProductMatched,
		ProductUnmatched: rs.ProductUnmatched,
	}
	if result.HasDates {
		summary.MaxDate = result.MaxDate
	}
	for _, issue := range result.Issues {
		summary.Issues = append(summary.Issues, issue.String())
	}
	return summary
}

// parseFilters merges the configured default filters with --filter flags.
// A flag replaces the default for its dimension.
func parseFilters(defaults map[string][]string, specs []string) (trend.Predicates, error) {
	preds := make(trend.Predicates)

	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d, err := trend.ParseDimension(name)
		if err != nil {
			return nil, fmt.Errorf("invalid default filter: %w", err)
		}
		preds[d] = cleanValues(defaults[name])
	}

	flagged := make(map[trend.Dimension]bool)
	for _, spec := range specs {
		name, values, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid filter %q (want dimension=value[,value...])", spec)
		}
		d, err := trend.ParseDimension(name)
		if err != nil {
			return nil, err
		}
		if !flagged[d] {
			preds[d] = nil
			flagged[d] = true
		}
		preds[d] = append(preds[d], cleanValues(strings.Split(values, ","))...)
	}
	return preds, nil
}

func cleanValues(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
