// =============================================================================
// Sell Out Trends - Options Command
// =============================================================================
//
// Lists the values each filter dimension can take and the available
// reference years, as found in the reconciled data.
//
// COMMAND USAGE:
//   sellout options [--dimension brand]
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sellout-trends/internal/loader"
	"github.com/ginjaninja78/sellout-trends/internal/pipeline"
	"github.com/ginjaninja78/sellout-trends/internal/trend"
)

var optionsDimension string

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List filter values and available reference years",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		dims := trend.Dimensions
		if optionsDimension != "" {
			d, err := trend.ParseDimension(optionsDimension)
			if err != nil {
				return err
			}
			dims = []trend.Dimension{d}
		}

		cache, err := loader.NewCache(cfg.CacheSize)
		if err != nil {
			return err
		}

		result, err := pipeline.New(cfg, logger, cache).Run(cmd.Context(), pipeline.Request{ReferenceYear: pipeline.NoYear})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		years := make([]string, len(result.Years))
		for i, y := range result.Years {
			years[i] = fmt.Sprintf("%d", y)
		}
		fmt.Fprintf(out, "years: %s\n", strings.Join(years, ", "))

		for _, d := range dims {
			fmt.Fprintf(out, "%s:\n", d)
			for _, v := range result.Options[d] {
				fmt.Fprintf(out, "  %s\n", v)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
	optionsCmd.Flags().StringVar(&optionsDimension, "dimension", "", "Only list one dimension")
}
