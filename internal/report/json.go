package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sellout-trends/internal/trend"
	"github.com/ginjaninja78/sellout-trends/internal/types"
)

type jsonDocument struct {
	Meta jsonMeta  `json:"meta"`
	Rows []jsonRow `json:"rows"`
}

type jsonMeta struct {
	GeneratedAt   time.Time           `json:"generated_at"`
	MaxDate       *time.Time          `json:"max_date,omitempty"`
	ReferenceYear int                 `json:"reference_year,omitempty"`
	Hierarchy     Hierarchy           `json:"hierarchy"`
	Filters       map[string][]string `json:"filters,omitempty"`
	Sources       []string            `json:"sources,omitempty"`
	Rows          int                 `json:"rows"`
}

type jsonRow struct {
	Client              string          `json:"client"`
	ProductCode         string          `json:"product_code"`
	Description         string          `json:"description"`
	ProductLabel        string          `json:"product_label"`
	Classification      string          `json:"classification"`
	ReferenceYearTotal  decimal.Decimal `json:"reference_year_total"`
	LastActivityEpochMs int64           `json:"last_activity_epoch_ms"`
	Windows             []jsonWindow    `json:"windows"`
}

type jsonWindow struct {
	Label    string          `json:"label"`
	Months   int             `json:"months"`
	Current  decimal.Decimal `json:"current"`
	Previous decimal.Decimal `json:"previous"`
	Trend    trend.Trend     `json:"trend"`
}

// WriteJSON writes the flat trend rows plus run metadata as one indented
// document.
func WriteJSON(w io.Writer, rows []types.TrendRow, meta Meta) error {
	doc := jsonDocument{
		Meta: jsonMeta{
			GeneratedAt:   meta.GeneratedAt,
			ReferenceYear: meta.ReferenceYear,
			Hierarchy:     meta.Hierarchy,
			Filters:       meta.Filters,
			Sources:       meta.Sources,
			Rows:          meta.Rows,
		},
		Rows: make([]jsonRow, 0, len(rows)),
	}
	if !meta.MaxDate.IsZero() {
		maxDate := meta.MaxDate
		doc.Meta.MaxDate = &maxDate
	}

	for _, r := range rows {
		jr := jsonRow{
			Client:              r.Client,
			ProductCode:         r.ProductCode,
			Description:         r.Description,
			ProductLabel:        r.ProductLabel,
			Classification:      r.Classification,
			ReferenceYearTotal:  r.ReferenceYearTotal,
			LastActivityEpochMs: r.LastActivityEpochMs,
			Windows:             make([]jsonWindow, 0, len(r.Windows)),
		}
		for _, ws := range r.Windows {
			jr.Windows = append(jr.Windows, jsonWindow{
				Label:    ws.Label,
				Months:   ws.Months,
				Current:  ws.Current,
				Previous: ws.Previous,
				Trend:    trend.Classify(ws.Previous, ws.Current),
			})
		}
		doc.Rows = append(doc.Rows, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}
