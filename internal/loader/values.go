package loader

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// maxExcelSerial is 9999-12-31 in the 1900 date system.
const maxExcelSerial = 2958465

// dayFirstLayouts are tried after dateparse, which reads slashes month-first.
var dayFirstLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"02/01/2006 15:04:05",
	"02/01/06",
}

// ParseDate reads a spreadsheet date cell. Numbers are Excel serials, text
// goes through dateparse and then day-first layouts. It returns nil for
// empty or unparseable values.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// Out-of-range numbers such as 20230115 fall through to dateparse.
	if serial, err := decimal.NewFromString(s); err == nil {
		if f := serial.InexactFloat64(); f > 0 && f <= maxExcelSerial {
			t, err := excelize.ExcelDateToTime(f, false)
			if err != nil {
				return nil
			}
			return dateOnly(t)
		}
	}

	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return dateOnly(t)
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return dateOnly(t)
		}
	}

	return nil
}

// dateOnly keeps the calendar date and time of day, normalized to UTC.
func dateOnly(t time.Time) *time.Time {
	u := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	return &u
}

// DateFromYearMonth builds the first day of the month. Invalid combinations
// (year outside 1..9999, month outside 1..12) give nil.
func DateFromYearMonth(year, month int) *time.Time {
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return nil
	}
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return &t
}

// ParseNumber reads a numeric cell. It accepts a plain decimal, a decimal
// comma ("10,5") and thousands separators in either convention ("1,234.5",
// "1.234,5"). When both separators appear the last one is the decimal mark.
// Badly grouped digits ("12,34.5") are rejected rather than guessed.
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	if d, err := decimal.NewFromString(s); err == nil {
		return d, true
	}

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")

	var mark, group string
	switch {
	case dot >= 0 && comma >= 0:
		if dot > comma {
			mark, group = ".", ","
		} else {
			mark, group = ",", "."
		}
	case comma >= 0 && strings.Count(s, ",") == 1:
		return parseDecimal(strings.Replace(s, ",", ".", 1))
	case comma >= 0:
		group = ","
	case dot >= 0:
		group = "."
	default:
		return decimal.Zero, false
	}

	whole, frac := s, ""
	if mark != "" {
		if strings.Count(s, mark) != 1 {
			return decimal.Zero, false
		}
		i := strings.LastIndex(s, mark)
		whole, frac = s[:i], s[i+1:]
	}
	if !groupedDigits(whole, group) {
		return decimal.Zero, false
	}

	plain := strings.ReplaceAll(whole, group, "")
	if frac != "" {
		plain += "." + frac
	}
	return parseDecimal(plain)
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// groupedDigits reports whether s splits on sep into a leading group of one
// to three characters followed by groups of exactly three.
func groupedDigits(s, sep string) bool {
	s = strings.TrimLeft(s, "+-")
	parts := strings.Split(s, sep)
	if len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}

// CoerceInt reads an integer cell, truncating decimals. Non-numeric input
// returns def and false.
func CoerceInt(s string, def int) (int, bool) {
	d, ok := ParseNumber(s)
	if !ok {
		return def, false
	}
	return int(d.IntPart()), true
}

// CleanClient trims and upper-cases client text and strips one trailing
// period: " acme s.a. " becomes "ACME S.A".
func CleanClient(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.TrimSuffix(s, ".")
}

// NormalizeKey is the join-key form used on both sides of every join.
func NormalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
