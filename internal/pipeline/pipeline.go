// =============================================================================
// Sell Out Trends - Pipeline
// =============================================================================
//
// This module orchestrates one report run, from source discovery to the
// aggregated trend rows.
//
// PIPELINE:
//   1. Locate the Sell Out export and the two reference workbooks
//   2. Load the sales facts (fatal on a missing product code column)
//   3. Load the zone and product references (soft: warnings on failure)
//   4. Reconcile facts with both references
//   5. Resolve the reference year and the filter options
//   6. Filter by the requested predicates
//   7. Aggregate windowed trends
//
// CONCURRENCY:
//   Runs on one Pipeline are serialized. Loaded tables are shared through the
//   loader cache, so repeated runs against unchanged files skip parsing.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/sellout-trends/internal/config"
	"github.com/ginjaninja78/sellout-trends/internal/loader"
	"github.com/ginjaninja78/sellout-trends/internal/reconcile"
	"github.com/ginjaninja78/sellout-trends/internal/report"
	"github.com/ginjaninja78/sellout-trends/internal/trend"
	"github.com/ginjaninja78/sellout-trends/internal/types"
	"github.com/ginjaninja78/sellout-trends/internal/validation"
	"github.com/ginjaninja78/sellout-trends/pkg/utils"
)

var (
	// ErrNoSalesSource is returned when no Sell Out export is found.
	ErrNoSalesSource = errors.New("no Sell Out file found")

	// ErrStrict is returned by strict runs that produced warnings.
	ErrStrict = errors.New("warnings treated as errors")
)

// =============================================================================
// REQUEST AND RESULT
// =============================================================================

// Reference year selectors for Request.ReferenceYear.
const (
	LatestYear = 0
	NoYear     = -1
)

// Request selects the view computed by Run.
type Request struct {
	// Predicates filter unified rows before aggregation.
	Predicates trend.Predicates

	// ReferenceYear is a year, LatestYear (0) or NoYear (-1).
	ReferenceYear int

	// Hierarchy orders the report tree.
	Hierarchy report.Hierarchy

	// SalesFile skips discovery when set.
	SalesFile string

	// Strict fails the run when any warning was collected.
	Strict bool
}

// Sources lists the files read by a run. Zones and Products are empty when
// the reference was absent.
type Sources struct {
	Sales    string
	Zones    string
	Products string
}

// Names returns the base names of the files that were read.
func (s Sources) Names() []string {
	var out []string
	for _, p := range []string{s.Sales, s.Zones, s.Products} {
		if p != "" {
			out = append(out, filepath.Base(p))
		}
	}
	return out
}

// Stats contains run statistics.
type Stats struct {
	Reconcile reconcile.Stats

	// SkippedRows counts blank rows in the sales export.
	SkippedRows int

	FilteredRows int
	TrendRows    int

	Cache    loader.CacheStats
	Duration time.Duration
}

// Result is the outcome of one run.
type Result struct {
	Sources Sources

	// Unified holds every reconciled fact; Filtered the ones that passed
	// the predicates.
	Unified  []types.UnifiedFact
	Filtered []types.UnifiedFact

	Trends []types.TrendRow

	// MaxDate is the latest date of the filtered rows. HasDates is false
	// when no filtered row is dated and MaxDate fell back to the clock.
	MaxDate  time.Time
	HasDates bool

	// Years are the reference years present in the filtered rows, most
	// recent first.
	Years []int

	// ReferenceYear is the resolved year, 0 when none.
	ReferenceYear int

	// Options are the filterable values per dimension.
	Options map[trend.Dimension][]string

	Issues []validation.Issue
	Stats  Stats

	// Empty is set when the predicates matched no row.
	Empty bool
}

// Meta builds the report metadata for the run.
func (r *Result) Meta(h report.Hierarchy, preds trend.Predicates, now time.Time) report.Meta {
	meta := report.Meta{
		GeneratedAt:   now,
		ReferenceYear: r.ReferenceYear,
		Hierarchy:     h,
		Filters:       FilterNames(preds),
		Sources:       r.Sources.Names(),
		Rows:          len(r.Filtered),
	}
	if r.HasDates {
		meta.MaxDate = r.MaxDate
	}
	return meta
}

// FilterNames converts predicates to a dimension name map, dropping empty
// predicates.
func FilterNames(preds trend.Predicates) map[string][]string {
	if !preds.Active() {
		return nil
	}
	out := make(map[string][]string, len(preds))
	for d, values := range preds {
		if len(values) == 0 {
			continue
		}
		sorted := append([]string(nil), values...)
		sort.Strings(sorted)
		out[string(d)] = sorted
	}
	return out
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline runs reports against one configuration.
type Pipeline struct {
	mu     sync.Mutex
	cfg    *config.Config
	logger zerolog.Logger
	cache  *loader.Cache
	files  *utils.FileManager

	// now is the clock used when no row is dated.
	now func() time.Time
}

// New creates a Pipeline. cache may be nil to load every file on every run.
func New(cfg *config.Config, logger zerolog.Logger, cache *loader.Cache) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		logger: logger,
		cache:  cache,
		files:  utils.NewFileManager(cfg.DataDir, cfg.OutputDir),
		now:    time.Now,
	}
}

// Run executes the pipeline.
//
// RETURNS:
//   - The result; on ErrStrict the result is returned alongside the error.
//   - ErrNoSalesSource, a wrapped *schema.MissingColumnError or a read
//     error when the sales data cannot be loaded.
//   - The context error when ctx is cancelled between stages.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	issues := validation.NewCollector(validation.Options{TreatWarningsAsErrors: req.Strict})
	result := &Result{}

	// =========================================================================
	// STEP 1: LOCATE SOURCES
	// =========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	salesPath := req.SalesFile
	if salesPath == "" {
		found, err := p.files.FindSalesFile(utils.SalesRules{
			NameTokens:    p.cfg.Sources.SalesNameTokens,
			ExcludeTokens: p.cfg.Sources.SalesExcludeTokens,
			Extensions:    p.cfg.Sources.SalesExtensions,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to locate sales file: %w", err)
		}
		if found == "" {
			return nil, fmt.Errorf("%w in %s", ErrNoSalesSource, p.cfg.DataDir)
		}
		salesPath = found
	}
	result.Sources.Sales = salesPath

	zonePath := p.files.FindFirstExisting(p.cfg.Sources.ZoneFiles...)
	productPath := p.files.Resolve(p.cfg.Sources.ProductFile)

	p.logger.Debug().
		Str("sales", salesPath).
		Str("zones", zonePath).
		Str("products", productPath).
		Msg("Sources located")

	opts := loader.OptionsFromConfig(p.cfg)

	// =========================================================================
	// STEP 2: LOAD SALES FACTS
	// =========================================================================

	facts, err := p.cache.Facts(salesPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales data: %w", err)
	}
	issues.Add(facts.Issues...)
	result.Stats.SkippedRows = facts.SkippedRows

	p.logger.Info().
		Str("file", filepath.Base(salesPath)).
		Str("sheet", facts.Sheet).
		Int("header_row", facts.HeaderRow).
		Int("rows", len(facts.Facts)).
		Msg("Loaded sales data")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 3: LOAD REFERENCES
	// =========================================================================

	zones, zoneIssues := p.cache.Zones(zonePath, opts)
	issues.Add(zoneIssues...)
	if zones != nil {
		result.Sources.Zones = zonePath
		p.logger.Info().Str("file", filepath.Base(zonePath)).Int("clients", zones.Len()).Msg("Loaded zone reference")
	}

	products, productIssues := p.cache.Products(productPath, opts)
	issues.Add(productIssues...)
	if products != nil {
		result.Sources.Products = productPath
		p.logger.Info().Str("file", filepath.Base(productPath)).Int("products", products.Len()).Msg("Loaded product reference")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 4: RECONCILE
	// =========================================================================

	unified, stats := reconcile.Reconcile(facts.Facts, zones, products)
	result.Unified = unified
	result.Stats.Reconcile = stats

	p.logger.Debug().
		Int("zone_matched", stats.ZoneMatched).
		Int("zone_unmatched", stats.ZoneUnmatched).
		Int("product_matched", stats.ProductMatched).
		Int("product_unmatched", stats.ProductUnmatched).
		Msg("Reconciled")

	// =========================================================================
	// STEP 5: FILTER
	// =========================================================================

	result.Options = trend.Options(unified)

	result.Filtered = trend.Filter(unified, req.Predicates)
	result.Stats.FilteredRows = len(result.Filtered)
	result.MaxDate, result.HasDates = trend.MaxDate(result.Filtered)

	// =========================================================================
	// STEP 6: REFERENCE YEAR
	// =========================================================================

	// Only years left after filtering can be picked as the latest one.
	result.Years = trend.Years(result.Filtered)
	result.ReferenceYear = resolveReferenceYear(req.ReferenceYear, result.Years)

	if len(result.Filtered) == 0 {
		result.Empty = true
		p.logger.Warn().Int("rows", len(unified)).Msg("No rows match the selected filters")
		return p.finish(result, issues, start)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 7: AGGREGATE
	// =========================================================================

	result.Trends = trend.Aggregate(result.Filtered, trend.AggregateOptions{
		ReferenceYear: result.ReferenceYear,
		Now:           p.now,
	})
	result.Stats.TrendRows = len(result.Trends)
	if !result.HasDates {
		result.MaxDate = trend.EffectiveMaxDate(result.Filtered, p.now)
	}

	p.logger.Info().
		Int("rows", len(result.Filtered)).
		Int("trend_rows", len(result.Trends)).
		Time("max_date", result.MaxDate).
		Int("reference_year", result.ReferenceYear).
		Msg("Aggregated trends")

	return p.finish(result, issues, start)
}

func (p *Pipeline) finish(result *Result, issues *validation.Collector, start time.Time) (*Result, error) {
	result.Issues = issues.Issues()
	result.Stats.Cache = p.cache.Stats()
	result.Stats.Duration = time.Since(start)

	for _, i := range result.Issues {
		p.logger.Warn().Str("source", i.Source).Int("count", i.Count).Msg(i.Message)
	}

	if issues.Failed() {
		errs, warnings := issues.Counts()
		return result, fmt.Errorf("%w: %d errors, %d warnings", ErrStrict, errs, warnings)
	}
	return result, nil
}

// resolveReferenceYear maps the request selector onto an available year.
func resolveReferenceYear(requested int, years []int) int {
	switch requested {
	case NoYear:
		return 0
	case LatestYear:
		if len(years) == 0 {
			return 0
		}
		return years[0]
	default:
		return requested
	}
}
