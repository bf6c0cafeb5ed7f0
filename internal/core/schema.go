package core

import (
	"fmt"
	"path"
	"strings"
)

// DefaultNamespace is the Go package name used for generated code.
const DefaultNamespace = "sheetdata"

// ColumnSpec is one configured column of a sheet.
type ColumnSpec struct {
	Name string     // Raw header text, the lookup key into fetched rows
	Type ColumnType // User-overridden or inferred
}

// SheetSchema is the configuration of one sheet and its generated types.
type SheetSchema struct {
	SheetName          string
	Selected           bool
	Columns            []ColumnSpec
	RecordTypeName     string
	CollectionTypeName string
	LastSchemaHash     string // Written after each generation pass; advisory only
	TargetArtifactPath string // Where the hydrated collection is persisted
}

// NewSheetSchema creates a selected sheet with derived type names.
func NewSheetSchema(sheetName string) *SheetSchema {
	s := &SheetSchema{SheetName: sheetName, Selected: true}
	s.EnsureTypeNames()
	return s
}

// EnsureTypeNames derives the type names from the sheet name if unset.
func (s *SheetSchema) EnsureTypeNames() {
	if strings.TrimSpace(s.RecordTypeName) == "" || strings.TrimSpace(s.CollectionTypeName) == "" {
		s.RecordTypeName, s.CollectionTypeName = ComputeTypeNames(s.SheetName)
	}
}

// Column returns the column matching name case-insensitively.
func (s *SheetSchema) Column(name string) (*ColumnSpec, bool) {
	for i := range s.Columns {
		if strings.EqualFold(s.Columns[i].Name, name) {
			return &s.Columns[i], true
		}
	}
	return nil, false
}

// RefreshColumns replaces the columns from freshly fetched rows (header first).
//
// Headers keep their fetched order. A header matching an existing column
// (case-insensitively) keeps that column's type; a new header gets an
// inferred type from the first non-blank cell below it. Blank headers are
// skipped and columns missing from the fetch are dropped. When two headers
// differ only by case, the later one replaces the earlier in place.
func (s *SheetSchema) RefreshColumns(rows [][]string) {
	if len(rows) == 0 {
		s.Columns = nil
		return
	}
	headers := rows[0]
	dataRows := rows[1:]

	existing := make(map[string]ColumnType, len(s.Columns))
	for _, c := range s.Columns {
		existing[strings.ToLower(c.Name)] = c.Type
	}

	var cols []ColumnSpec
	position := make(map[string]int)
	for i, header := range headers {
		if strings.TrimSpace(header) == "" {
			continue
		}
		key := strings.ToLower(header)

		t, ok := existing[key]
		if !ok {
			t = InferType(SampleColumn(dataRows, i))
		}
		spec := ColumnSpec{Name: header, Type: t}

		if pos, dup := position[key]; dup {
			cols[pos] = spec
			continue
		}
		position[key] = len(cols)
		cols = append(cols, spec)
	}
	s.Columns = cols
}

// Hash returns the fingerprint of the current column set.
func (s *SheetSchema) Hash() string {
	return HashSchema(s.Columns)
}

// SchemaChanged reports whether the columns differ from the last generated
// set. It is informational only and never gates generation or sync.
func (s *SheetSchema) SchemaChanged() bool {
	return s.LastSchemaHash != "" && s.LastSchemaHash != s.Hash()
}

// Project is the owning configuration for a set of sheets from one spreadsheet.
type Project struct {
	SpreadsheetID         string
	Namespace             string
	AutoCreateCollections bool
	BaseDir               string
	Sheets                []*SheetSchema
}

// Sheet returns the sheet with the given name (case-insensitive).
func (p *Project) Sheet(name string) (*SheetSchema, bool) {
	for _, s := range p.Sheets {
		if strings.EqualFold(s.SheetName, name) {
			return s, true
		}
	}
	return nil, false
}

// Selected returns the selected sheets, or every sheet when none is selected.
func (p *Project) Selected() []*SheetSchema {
	var selected []*SheetSchema
	for _, s := range p.Sheets {
		if s.Selected {
			selected = append(selected, s)
		}
	}
	if len(selected) == 0 {
		return p.Sheets
	}
	return selected
}

// NamespaceOrDefault returns the configured namespace or DefaultNamespace.
func (p *Project) NamespaceOrDefault() string {
	if strings.TrimSpace(p.Namespace) == "" {
		return DefaultNamespace
	}
	return p.Namespace
}

// AddSheet appends a new sheet. Sheet names are unique case-insensitively.
func (p *Project) AddSheet(name string) (*SheetSchema, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: sheet name is empty", ErrInvalidInput)
	}
	s := NewSheetSchema(name)
	if err := p.Conflict(s); err != nil {
		return nil, err
	}
	s.TargetArtifactPath = p.CollectionPath(s)
	p.Sheets = append(p.Sheets, s)
	return s, nil
}

// Conflict reports whether s would share a name, a generated type name or a
// sheet folder with another sheet of the project. Comparisons ignore case
// since type names become file names.
func (p *Project) Conflict(s *SheetSchema) error {
	for _, other := range p.Sheets {
		if other == s {
			continue
		}
		switch {
		case strings.EqualFold(other.SheetName, s.SheetName):
			return fmt.Errorf("%w: sheet %q already configured", ErrInvalidInput, s.SheetName)
		case strings.EqualFold(SheetFolder(other.SheetName), SheetFolder(s.SheetName)):
			return fmt.Errorf("%w: sheet %q shares folder %q with sheet %q",
				ErrInvalidInput, s.SheetName, SheetFolder(s.SheetName), other.SheetName)
		case strings.EqualFold(other.RecordTypeName, s.RecordTypeName),
			strings.EqualFold(other.CollectionTypeName, s.CollectionTypeName):
			return fmt.Errorf("%w: sheet %q generates the same types as sheet %q",
				ErrInvalidInput, s.SheetName, other.SheetName)
		}
	}
	return nil
}

// RemoveSheet deletes a sheet from the project.
func (p *Project) RemoveSheet(name string) error {
	for i, s := range p.Sheets {
		if strings.EqualFold(s.SheetName, name) {
			p.Sheets = append(p.Sheets[:i], p.Sheets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownSheet, name)
}

// SheetDir returns the per-sheet base directory.
func (p *Project) SheetDir(s *SheetSchema) string {
	return path.Join(p.baseDir(), SheetFolder(s.SheetName))
}

// GeneratedDir returns the directory holding a sheet's generated Go package.
func (p *Project) GeneratedDir(s *SheetSchema) string {
	return path.Join(p.SheetDir(s), "generated")
}

// CollectionPath returns the default data artifact path for a sheet.
func (p *Project) CollectionPath(s *SheetSchema) string {
	return path.Join(p.SheetDir(s), s.CollectionTypeName+".json")
}

func (p *Project) baseDir() string {
	if strings.TrimSpace(p.BaseDir) == "" {
		return "."
	}
	return p.BaseDir
}
