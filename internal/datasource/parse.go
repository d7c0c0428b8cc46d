package datasource

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order before falling back to Excel serial dates
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
}

// ParseNumber accepts both "1.234,56" and "1,234.56". With a single kind
// of separator, one occurrence followed by exactly three digits is read as
// a thousands separator ("60.000" is sixty thousand).
func ParseNumber(raw string) (decimal.Decimal, error) {
	s := strings.NewReplacer("€", "", "$", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(raw))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = normalizeSeparator(s, ",")
	case lastDot >= 0:
		s = normalizeSeparator(s, ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", raw)
	}
	return d, nil
}

func normalizeSeparator(s, sep string) string {
	tail := s[strings.LastIndex(s, sep)+1:]
	if strings.Count(s, sep) > 1 || len(tail) == 3 {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}

var (
	maxInt = decimal.NewFromInt(math.MaxInt32)
	minInt = decimal.NewFromInt(math.MinInt32)
)

// ParseInt parses a whole number written in any ParseNumber form. Values
// outside the int32 range are rejected.
func ParseInt(raw string) (int, error) {
	d, err := ParseNumber(raw)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%q is not a whole number", raw)
	}
	if d.GreaterThan(maxInt) || d.LessThan(minInt) {
		return 0, fmt.Errorf("%q is out of range", raw)
	}
	return int(d.IntPart()), nil
}

// ParseDate accepts ISO dates, dd/mm/yyyy and Excel serial day numbers.
// The result is midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}

	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < 1 {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return truncateDay(t), nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeSource maps the Spanish and English spellings used in
// spreadsheets onto the stored source names. Unknown values pass through
// lower-cased so validation can report them.
func NormalizeSource(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "subasta", "subastas", "auction", "auctions":
		return "auction"
	case "pvp", "venta", "ventas", "retail":
		return "pvp"
	default:
		return s
	}
}
