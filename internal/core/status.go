package core

import (
	"context"
	"slices"
)

// SheetStatus is a read-only view of one configured sheet.
type SheetStatus struct {
	Name           string       `json:"name"`
	Selected       bool         `json:"selected"`
	Columns        []ColumnSpec `json:"columns"`
	RecordType     string       `json:"record_type"`
	CollectionType string       `json:"collection_type"`
	SchemaHash     string       `json:"schema_hash"`
	LastSchemaHash string       `json:"last_schema_hash,omitempty"`
	SchemaChanged  bool         `json:"schema_changed"`
	Compiled       bool         `json:"compiled"`
	DataPath       string       `json:"data_path"`
	DataExists     bool         `json:"data_exists"`
}

// ProjectStatus is a read-only view of the project and the workflow guard.
type ProjectStatus struct {
	SpreadsheetID         string        `json:"spreadsheet_id"`
	Namespace             string        `json:"namespace"`
	AutoCreateCollections bool          `json:"auto_create_collections"`
	Guard                 GuardStatus   `json:"guard"`
	Sheets                []SheetStatus `json:"sheets"`
}

// Status reports the project configuration and artifact state.
// It never takes the guard, so it can be called while a workflow runs.
func (s *Service) Status(ctx context.Context) (ProjectStatus, error) {
	s.mu.RLock()
	status := ProjectStatus{
		SpreadsheetID:         s.project.SpreadsheetID,
		Namespace:             s.project.NamespaceOrDefault(),
		AutoCreateCollections: s.project.AutoCreateCollections,
		Guard:                 s.guard.Status(),
	}
	for _, sheet := range s.project.Sheets {
		status.Sheets = append(status.Sheets, SheetStatus{
			Name:           sheet.SheetName,
			Selected:       sheet.Selected,
			Columns:        slices.Clone(sheet.Columns),
			RecordType:     sheet.RecordTypeName,
			CollectionType: sheet.CollectionTypeName,
			SchemaHash:     sheet.Hash(),
			LastSchemaHash: sheet.LastSchemaHash,
			SchemaChanged:  sheet.SchemaChanged(),
			DataPath:       s.project.CollectionPath(sheet),
		})
		if sheet.TargetArtifactPath != "" {
			status.Sheets[len(status.Sheets)-1].DataPath = sheet.TargetArtifactPath
		}
	}
	s.mu.RUnlock()

	for i := range status.Sheets {
		sheet := &status.Sheets[i]
		_, sheet.Compiled = s.resolve(&SheetSchema{
			RecordTypeName:     sheet.RecordType,
			CollectionTypeName: sheet.CollectionType,
		})

		exists, err := s.store.Exists(ctx, sheet.DataPath)
		if err != nil {
			return status, err
		}
		sheet.DataExists = exists
	}
	return status, nil
}

// Sheet returns a copy of one configured sheet.
func (s *Service) Sheet(name string) (SheetSchema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sheet, ok := s.project.Sheet(name)
	if !ok {
		return SheetSchema{}, false
	}
	cp := *sheet
	cp.Columns = slices.Clone(sheet.Columns)
	return cp, true
}
