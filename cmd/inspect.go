// =============================================================================
// Sell Out Trends - Inspect Command
// =============================================================================
//
// Shows how the header of a source file was located and resolved, without
// running the pipeline. Useful when a new export layout fails to load.
//
// COMMAND USAGE:
//   sellout inspect [file] [--kind sales|zones|products]
//
// Without a file argument the file is discovered in the data directory the
// same way the report command does.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sellout-trends/internal/config"
	"github.com/ginjaninja78/sellout-trends/internal/loader"
	"github.com/ginjaninja78/sellout-trends/internal/pipeline"
	"github.com/ginjaninja78/sellout-trends/pkg/utils"
)

var inspectKind string

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Show how a source file's header is resolved",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, opts, err := configFor()
		if err != nil {
			return err
		}

		kind, err := parseKind(inspectKind)
		if err != nil {
			return err
		}

		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			path, err = discover(cfg, kind)
			if err != nil {
				return err
			}
		}

		insp, err := loader.Inspect(path, kind, opts)
		if err != nil {
			return err
		}
		printInspection(cmd.OutOrStdout(), insp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectKind, "kind", "k", "sales", "Source kind: sales, zones or products")
}

func parseKind(s string) (loader.SourceKind, error) {
	switch loader.SourceKind(strings.ToLower(strings.TrimSpace(s))) {
	case loader.KindSales:
		return loader.KindSales, nil
	case loader.KindZones:
		return loader.KindZones, nil
	case loader.KindProducts:
		return loader.KindProducts, nil
	default:
		return "", fmt.Errorf("unknown source kind %q (want sales, zones or products)", s)
	}
}

func discover(cfg *config.Config, kind loader.SourceKind) (string, error) {
	files := utils.NewFileManager(cfg.DataDir, cfg.OutputDir)

	var path string
	switch kind {
	case loader.KindSales:
		found, err := files.FindSalesFile(utils.SalesRules{
			NameTokens:    cfg.Sources.SalesNameTokens,
			ExcludeTokens: cfg.Sources.SalesExcludeTokens,
			Extensions:    cfg.Sources.SalesExtensions,
		})
		if err != nil {
			return "", err
		}
		if found == "" {
			return "", fmt.Errorf("%w in %s", pipeline.ErrNoSalesSource, cfg.DataDir)
		}
		path = found
	case loader.KindZones:
		path = files.FindFirstExisting(cfg.Sources.ZoneFiles...)
		if path == "" {
			return "", fmt.Errorf("no zone reference found in %s (looked for %s)", cfg.DataDir, strings.Join(cfg.Sources.ZoneFiles, ", "))
		}
	case loader.KindProducts:
		path = files.Resolve(cfg.Sources.ProductFile)
	}
	return path, nil
}

func printInspection(out io.Writer, insp *loader.Inspection) {
	fmt.Fprintf(out, "File:       %s\n", insp.Source)
	fmt.Fprintf(out, "Kind:       %s\n", insp.Kind)
	if insp.Sheet != "" {
		fmt.Fprintf(out, "Sheet:      %s\n", insp.Sheet)
	}
	fmt.Fprintf(out, "Header row: %d\n", insp.HeaderRow+1)
	fmt.Fprintf(out, "Data rows:  %d\n", insp.Rows)

	fmt.Fprintln(out, "\nColumns (raw -> normalized):")
	for i, col := range insp.Columns {
		raw := ""
		if i < len(insp.Raw) {
			raw = insp.Raw[i]
		}
		fmt.Fprintf(out, "  %-30q -> %s\n", raw, col)
	}

	fmt.Fprintln(out, "\nBound fields:")
	for _, b := range insp.Bound {
		fmt.Fprintf(out, "  %s\n", b)
	}

	for _, fb := range insp.Fallbacks {
		fmt.Fprintf(out, "\nWARNING: %s bound by prefix fallback to column %q\n", fb.Field, fb.Column)
	}

	if insp.Missing != nil {
		fmt.Fprintf(out, "\nERROR: %v\n", insp.Missing)
	}
}
