package core

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// utf8BOM is stripped from the start of fetched payloads.
const utf8BOM = "\uFEFF"

// Tokenize splits CSV text into rows of cells.
//
// Quoted cells may contain commas, newlines and doubled quotes. Outside quotes
// "\r\n", "\n" and "\r" all end a row. A trailing empty row left by a final
// newline is dropped. Quotes are not balance-checked: an unterminated quote
// swallows the rest of the input into one cell.
func Tokenize(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		cell     strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inQuotes {
			if c != '"' {
				cell.WriteByte(c)
				continue
			}
			if i+1 < len(text) && text[i+1] == '"' {
				cell.WriteByte('"')
				i++
				continue
			}
			inQuotes = false
			continue
		}

		switch c {
		case '"':
			inQuotes = true
		case ',':
			row = append(row, cell.String())
			cell.Reset()
		case '\r', '\n':
			row = append(row, cell.String())
			cell.Reset()
			rows = append(rows, row)
			row = nil
			if c == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		default:
			cell.WriteByte(c)
		}
	}

	row = append(row, cell.String())
	rows = append(rows, row)

	if last := rows[len(rows)-1]; len(last) == 1 && last[0] == "" {
		rows = rows[:len(rows)-1]
	}

	return rows
}

// SanitizePayload strips a UTF-8 BOM and replaces invalid UTF-8 bytes with U+FFFD.
func SanitizePayload(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte(utf8BOM))
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
