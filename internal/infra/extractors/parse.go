// internal/infra/extractors/parse.go
package extractors

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var currencySymbols = []string{"$", "€", "£", "¥", "₹", "₦"}

// ParseAmount strips surrounding space, a leading currency symbol and
// thousands separators, then reads the remainder as a decimal. ok is false when
// nothing numeric is left.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}
	for _, sym := range currencySymbols {
		if strings.HasPrefix(s, sym) {
			s = strings.TrimSpace(strings.TrimPrefix(s, sym))
			break
		}
	}
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1-2-2006",
	"01/02/06",
	"1/2/06",
	"01-02-06",
	"2006/01/02",
	"02-Jan-2006",
	"2-Jan-2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Jan. 2, 2006",
	"2 January 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// NormalizeDate returns raw as an ISO calendar date when it matches a known
// layout. Slash and dash numeric dates are read month first. Unrecognised
// values come back unchanged with ok false.
func NormalizeDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return s, false
}

// normalizeCellDate also understands spreadsheet serial dates left unformatted.
func normalizeCellDate(raw string) string {
	if iso, ok := NormalizeDate(raw); ok {
		return iso
	}
	if serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return strings.TrimSpace(raw)
}
