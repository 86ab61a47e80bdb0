// =============================================================================
// Sell Out Trends - Run Diagnostics
// =============================================================================
//
// This module collects the non-fatal problems found during a pipeline run.
// Malformed values are never reported per row: the loaders count them and
// report one aggregate issue per kind.
//
// ERROR HANDLING:
//   - Issues are collected, not returned as errors
//   - Each issue names its source file and, for aggregates, a row count
//   - Issues are warnings (the run continues) or errors (the run failed)
//   - With TreatWarningsAsErrors the CLI exits non-zero on any warning
//
// =============================================================================

package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// ISSUE TYPES
// =============================================================================

// Severity of an issue.
type Severity string

const (
	// SeverityWarning marks a problem the run recovered from.
	SeverityWarning Severity = "warning"

	// SeverityError marks a problem that stopped the run.
	SeverityError Severity = "error"
)

// Issue is one diagnostic.
type Issue struct {
	// Severity is warning or error.
	Severity Severity

	// Source is the file or stage the issue comes from.
	Source string

	// Message is a human-readable description.
	Message string

	// Count is the number of rows affected, 0 when not row-based.
	Count int
}

// String formats the issue for the console and the issue log.
func (i Issue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", strings.ToUpper(string(i.Severity)))
	if i.Source != "" {
		fmt.Fprintf(&b, " %s:", i.Source)
	}
	fmt.Fprintf(&b, " %s", i.Message)
	if i.Count > 0 {
		fmt.Fprintf(&b, " (%d rows)", i.Count)
	}
	return b.String()
}

// Warning builds a warning issue.
func Warning(source, message string, count int) Issue {
	return Issue{Severity: SeverityWarning, Source: source, Message: message, Count: count}
}

// Warningf builds a warning issue with a formatted message.
func Warningf(source string, count int, format string, args ...any) Issue {
	return Warning(source, fmt.Sprintf(format, args...), count)
}

// =============================================================================
// COLLECTOR
// =============================================================================

// Options controls how collected issues are judged.
type Options struct {
	// TreatWarningsAsErrors makes Failed report true for any warning.
	// Default: false
	TreatWarningsAsErrors bool
}

// Collector accumulates issues. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	issues  []Issue
	options Options
}

// NewCollector creates an empty collector.
func NewCollector(options Options) *Collector {
	return &Collector{options: options}
}

// Add records issues.
func (c *Collector) Add(issues ...Issue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issues = append(c.issues, issues...)
}

// Error records a fatal issue.
func (c *Collector) Error(source string, err error) {
	c.Add(Issue{Severity: SeverityError, Source: source, Message: err.Error()})
}

// Issues returns a copy of the collected issues in insertion order.
func (c *Collector) Issues() []Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Issue, len(c.issues))
	copy(out, c.issues)
	return out
}

// Counts returns the number of errors and warnings.
func (c *Collector) Counts() (errs, warnings int) {
	for _, i := range c.Issues() {
		switch i.Severity {
		case SeverityError:
			errs++
		default:
			warnings++
		}
	}
	return errs, warnings
}

// Failed reports whether the run should be treated as failed.
func (c *Collector) Failed() bool {
	errs, warnings := c.Counts()
	if errs > 0 {
		return true
	}
	return c.options.TreatWarningsAsErrors && warnings > 0
}

// =============================================================================
// OUTPUT
// =============================================================================

// FormatIssues renders issues one per line, errors first, then by source.
func FormatIssues(issues []Issue) string {
	sorted := make([]Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(a, b int) bool {
		if sorted[a].Severity != sorted[b].Severity {
			return sorted[a].Severity == SeverityError
		}
		return sorted[a].Source < sorted[b].Source
	})

	var b strings.Builder
	for _, i := range sorted {
		b.WriteString(i.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteIssueLog writes the issues of a run to dir and returns the log path.
// Nothing is written when there are no issues.
//
// PARAMETERS:
//   - dir: The directory for the log file.
//   - runName: The base name of the report the issues belong to.
//   - issues: The issues to write.
func WriteIssueLog(dir, runName string, issues []Issue) (string, error) {
	if len(issues) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("=============================================================================\n")
	b.WriteString("SELL OUT TRENDS - ISSUE LOG\n")
	b.WriteString("=============================================================================\n\n")
	fmt.Fprintf(&b, "Run: %s\n", runName)
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Issues: %d\n\n", len(issues))
	b.WriteString(FormatIssues(issues))

	path := filepath.Join(dir, runName+"_issues.log")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write issue log: %w", err)
	}

	return path, nil
}
