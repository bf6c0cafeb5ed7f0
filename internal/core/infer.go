package core

import (
	"regexp"
	"strconv"
	"strings"
)

// decimalRegex matches invariant decimal syntax after comma-to-dot
// normalization: integers, decimals and scientific notation.
var decimalRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// InferType classifies a sample cell value.
//
// Float-shaped samples (containing '.', ',', 'e' or 'E') are tried as floats
// before integers so that "3,14" and "1e6" never fall through as strings.
// A blank sample is a String.
func InferType(sample string) ColumnType {
	s := strings.TrimSpace(sample)
	if s == "" {
		return ColumnString
	}

	if strings.ContainsAny(s, ".,eE") {
		if _, ok := parseFloat(s); ok {
			return ColumnFloat
		}
	}

	if _, ok := parseInt(s); ok {
		return ColumnInteger
	}

	if _, ok := parseFloat(s); ok {
		return ColumnFloat
	}

	return ColumnString
}

// SampleColumn returns the first non-blank trimmed cell at index across
// data rows, or "" when the column is entirely blank.
func SampleColumn(dataRows [][]string, index int) string {
	for _, row := range dataRows {
		if index >= len(row) {
			continue
		}
		if cell := strings.TrimSpace(row[index]); cell != "" {
			return cell
		}
	}
	return ""
}

// parseInt parses a base-10 integer with an optional sign and no grouping.
func parseInt(s string) (int, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, strconv.IntSize)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// parseFloat parses an invariant decimal, accepting ',' as the decimal separator.
// Non-finite words (Inf, NaN) and hex floats are rejected.
func parseFloat(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if !decimalRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
