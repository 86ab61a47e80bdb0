package trend

import "github.com/shopspring/decimal"

// Trend is the movement between a previous and a current window.
type Trend string

const (
	Neutral Trend = "neutral"
	Lost    Trend = "lost"
	New     Trend = "new"
	Up      Trend = "up"
	Down    Trend = "down"
	Flat    Trend = "flat"
)

// Classify compares previous and current quantities. It is total: every
// pair of values maps to exactly one Trend.
func Classify(prev, cur decimal.Decimal) Trend {
	switch {
	case prev.IsZero() && cur.IsZero():
		return Neutral
	case cur.IsZero() && prev.IsPositive():
		return Lost
	case prev.IsZero() && cur.IsPositive():
		return New
	case cur.GreaterThan(prev):
		return Up
	case cur.LessThan(prev):
		return Down
	default:
		return Flat
	}
}

var glyphs = map[Trend]string{
	Neutral: "⚪",
	Lost:    "💀",
	New:     "✨",
	Up:      "🟢",
	Down:    "🔴",
	Flat:    "🟡",
}

// Glyph returns the icon shown in trend cells.
func (t Trend) Glyph() string {
	return glyphs[t]
}
