package core

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// DefaultTypeName is used when header text yields no identifier characters.
	DefaultTypeName = "Unnamed"
	// DefaultFieldName is the field counterpart of DefaultTypeName.
	DefaultFieldName = "field"
)

// reservedGoNames are methods on generated record types.
var reservedGoNames = map[string]bool{
	"Fields":   true,
	"SetField": true,
}

// ToTypeIdentifier converts arbitrary text into a Pascal-case identifier.
// "player hp!" becomes "PlayerHp".
func ToTypeIdentifier(text string) string {
	pascal := toPascalCase(text)
	if pascal == "" {
		return DefaultTypeName
	}
	return replaceInvalid(pascal)
}

// ToFieldIdentifier converts arbitrary text into a camel-case identifier:
// the Pascal form with only its first character lower-cased.
func ToFieldIdentifier(text string) string {
	pascal := toPascalCase(text)
	if pascal == "" {
		return DefaultFieldName
	}
	r := []rune(pascal)
	r[0] = unicode.ToLower(r[0])
	return replaceInvalid(string(r))
}

// MakeUnique suffixes repeated names with _1, _2, ... in input order.
// The first occurrence keeps its name.
func MakeUnique(names []string) []string {
	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))
	for _, n := range names {
		name := n
		for suffix := 1; seen[name]; suffix++ {
			name = fmt.Sprintf("%s_%d", n, suffix)
		}
		seen[name] = true
		result = append(result, name)
	}
	return result
}

// FieldIdentifiers returns the unique field identifier for each column.
// Code generation and hydration both bind fields through this function.
func FieldIdentifiers(columns []ColumnSpec) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = ToFieldIdentifier(c.Name)
	}
	return MakeUnique(names)
}

// GoFieldName returns the exported struct field name for a field identifier.
func GoFieldName(fieldIdent string) string {
	r := []rune(fieldIdent)
	if len(r) == 0 {
		return "X"
	}

	var name string
	if unicode.IsLetter(r[0]) {
		r[0] = unicode.ToUpper(r[0])
		name = string(r)
	} else {
		name = "X" + fieldIdent
	}

	// Non-Latin letters may have no upper case form.
	if !unicode.IsUpper([]rune(name)[0]) {
		name = "X" + name
	}

	if reservedGoNames[name] {
		name += "_"
	}
	return name
}

// toPascalCase splits on any non-alphanumeric rune, title-cases the first
// rune of each word and lower-cases the rest.
func toPascalCase(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	for _, w := range words {
		r := []rune(w)
		b.WriteRune(unicode.ToTitle(r[0]))
		b.WriteString(strings.ToLower(string(r[1:])))
	}
	return b.String()
}

// replaceInvalid maps every rune that is not a letter, digit or underscore
// to '_', and a leading rune that is not a letter or underscore to '_'.
func replaceInvalid(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range []rune(s) {
		switch {
		case r == '_' || unicode.IsLetter(r):
			b.WriteRune(r)
		case i > 0 && unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// SheetFolder returns the directory name used for a sheet's artifacts.
func SheetFolder(sheetName string) string {
	return ToTypeIdentifier(sheetName)
}

// ComputeTypeNames derives the record and collection type names for a sheet.
func ComputeTypeNames(sheetName string) (recordType, collectionType string) {
	base := ToTypeIdentifier(sheetName)
	return base + "Row", base + "Collection"
}
