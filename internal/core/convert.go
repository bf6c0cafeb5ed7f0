package core

// convert.go turns raw cell text into typed field values during hydration.
//
// These functions handle the messy reality of spreadsheet exports:
//   - Decimal commas ("3,14")
//   - Thousands separators in integer columns ("1,000")
//   - Integral values written as floats ("2.0", "1e3")
//
// Conversion never fails. Unparseable input becomes the zero value of the
// column type so that one bad cell never aborts a row.

import (
	"math"
	"strings"
)

// ConvertCell converts raw cell text according to the column type.
// Returns int, float64 or string.
func ConvertCell(raw string, t ColumnType) any {
	switch t {
	case ColumnInteger:
		return ToInt(raw)
	case ColumnFloat:
		return ToFloat(raw)
	default:
		return raw
	}
}

// ToInt converts a cell to int, returning 0 for blank or invalid input.
func ToInt(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if n, ok := parseInt(s); ok {
		return n
	}

	// Invariant grouping separators: "1,000,000"
	if n, ok := parseInt(strings.ReplaceAll(s, ",", "")); ok {
		return n
	}

	// Integral float notation: "2.0", "1e3"
	if f, ok := parseFloat(s); ok && f == math.Trunc(f) && f >= math.MinInt && f < math.MaxInt {
		return int(f)
	}

	return 0
}

// ToFloat converts a cell to float64, returning 0 for blank or invalid input.
// A comma is treated as the decimal separator.
func ToFloat(s string) float64 {
	if f, ok := parseFloat(s); ok {
		return f
	}
	return 0
}
