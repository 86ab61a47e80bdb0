package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ginjaninja78/sellout-trends/internal/trend"
	"github.com/ginjaninja78/sellout-trends/internal/types"
)

// CSVHeader returns the flat column names for hierarchy h. Grouping keys come
// first in hierarchy order, followed by the totals and three columns per
// window.
func CSVHeader(h Hierarchy) []string {
	clientCols := []string{"client"}
	productCols := []string{"product_code", "description", "product_label", "classification"}

	var header []string
	if h == HierarchyProduct {
		header = append(append(header, productCols...), clientCols...)
	} else {
		header = append(append(header, clientCols...), productCols...)
	}

	header = append(header, "reference_year_total", "last_activity_epoch_ms")
	for _, w := range trend.Windows {
		header = append(header, "current_"+w.Label, "previous_"+w.Label, "trend_"+w.Label)
	}
	return header
}

// WriteCSV writes one line per trend row.
func WriteCSV(w io.Writer, rows []types.TrendRow, meta Meta) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader(meta.Hierarchy)); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, r := range rows {
		client := []string{r.Client}
		product := []string{r.ProductCode, r.Description, r.ProductLabel, r.Classification}

		var record []string
		if meta.Hierarchy == HierarchyProduct {
			record = append(append(record, product...), client...)
		} else {
			record = append(append(record, client...), product...)
		}

		record = append(record, r.ReferenceYearTotal.String(), strconv.FormatInt(r.LastActivityEpochMs, 10))
		for _, ws := range r.Windows {
			record = append(record,
				ws.Current.String(),
				ws.Previous.String(),
				string(trend.Classify(ws.Previous, ws.Current)),
			)
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
