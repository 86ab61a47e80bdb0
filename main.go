// =============================================================================
// Sell Out Trends - Main Entry Point
// =============================================================================
//
// USAGE:
//   sellout report     - Build the trend grid for the data directory
//   sellout options    - List filter values and available years
//   sellout inspect    - Show how a source file's header was resolved
//   sellout version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Loading, reconciliation, trends and report writers
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sellout-trends/cmd"
)

func main() {
	cmd.Execute()
}
