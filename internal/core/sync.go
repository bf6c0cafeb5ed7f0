package core

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/sheetsync/collection"
)

// Engine hydrates generated collections from fetched rows.
type Engine struct {
	registry *collection.Registry
}

// NewEngine creates an engine resolving types from registry.
// A nil registry means collection.Default().
func NewEngine(registry *collection.Registry) *Engine {
	if registry == nil {
		registry = collection.Default()
	}
	return &Engine{registry: registry}
}

// ResolveType looks up a generated type by its fully qualified name.
func (e *Engine) ResolveType(fullName string) (collection.Handle, bool) {
	return e.registry.Lookup(fullName)
}

// HydrateResult summarizes one hydration pass.
type HydrateResult struct {
	Records  int
	Warnings []Warning
}

// Hydrate replaces the contents of coll with one record per data row.
//
// Columns whose field is missing from the compiled type, whose configured
// type no longer matches the compiled field, or whose header is missing from
// the fetched rows are skipped with a drift warning. Cells
// beyond the end of a short row convert from "".
func (e *Engine) Hydrate(schema *SheetSchema, rows [][]string, h collection.Handle, coll collection.Collection) (HydrateResult, error) {
	var result HydrateResult

	if !h.Valid() || coll == nil {
		return result, fmt.Errorf("hydrate %s: %w", schema.SheetName, ErrNotCompiled)
	}

	var headers []string
	var dataRows [][]string
	if len(rows) > 0 {
		headers = rows[0]
		dataRows = rows[1:]
	}

	headerIndex := make(map[string]int, len(headers))
	for i, header := range headers {
		key := strings.ToLower(header)
		if _, exists := headerIndex[key]; !exists {
			headerIndex[key] = i
		}
	}

	type binding struct {
		field  string
		index  int
		column ColumnType
	}

	fields := make(map[string]bool)
	for _, f := range h.NewRecord().Fields() {
		fields[f] = true
	}

	blank := h.NewRecord()
	var bound []binding
	for _, fb := range BindFields(schema.Columns) {
		if !fields[fb.Ident] {
			result.Warnings = append(result.Warnings, drift(schema.SheetName, fb, "field missing from compiled type"))
			continue
		}
		if !blank.SetField(fb.Ident, ConvertCell("", fb.Type)) {
			result.Warnings = append(result.Warnings, drift(schema.SheetName, fb, "field type differs from compiled type"))
			continue
		}
		index, ok := headerIndex[strings.ToLower(fb.Column)]
		if !ok {
			result.Warnings = append(result.Warnings, drift(schema.SheetName, fb, "column missing from sheet"))
			continue
		}
		bound = append(bound, binding{field: fb.Ident, index: index, column: fb.Type})
	}

	coll.Clear()
	for _, row := range dataRows {
		rec := h.NewRecord()
		for _, b := range bound {
			var raw string
			if b.index < len(row) {
				raw = row[b.index]
			}
			rec.SetField(b.field, ConvertCell(raw, b.column))
		}
		if err := coll.Append(rec); err != nil {
			return result, fmt.Errorf("hydrate %s: %w", schema.SheetName, err)
		}
		result.Records++
	}

	return result, nil
}

func drift(sheet string, fb FieldBinding, msg string) Warning {
	return Warning{
		Sheet:   sheet,
		Column:  fb.Column,
		Field:   fb.Ident,
		Message: fmt.Sprintf("%s: %s", ErrDrift, msg),
	}
}
