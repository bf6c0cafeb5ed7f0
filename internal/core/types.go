package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/sheetsync/collection"
)

// ColumnType is the declared type of a sheet column.
type ColumnType int

const (
	ColumnString ColumnType = iota
	ColumnInteger
	ColumnFloat
)

// String returns the type tag used in hashes and the project file.
func (t ColumnType) String() string {
	switch t {
	case ColumnInteger:
		return "Integer"
	case ColumnFloat:
		return "Float"
	default:
		return "String"
	}
}

// GoType returns the Go type generated for the column.
func (t ColumnType) GoType() string {
	switch t {
	case ColumnInteger:
		return "int"
	case ColumnFloat:
		return "float64"
	default:
		return "string"
	}
}

// ParseColumnType converts a type tag to a ColumnType.
// Accepts the canonical tags and the short forms int, float and string.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "integer", "int":
		return ColumnInteger, nil
	case "float":
		return ColumnFloat, nil
	case "string", "":
		return ColumnString, nil
	default:
		return ColumnString, fmt.Errorf("%w: unknown column type %q", ErrInvalidInput, s)
	}
}

// Fetcher retrieves the rows of one sheet, header row first.
type Fetcher interface {
	FetchTable(ctx context.Context, sourceID, sheetName string) ([][]string, error)
}

// ArtifactStore persists generated source and collection instances.
type ArtifactStore interface {
	EnsureFolder(path string) error
	WriteTextFile(path string, content []byte) error
	Exists(ctx context.Context, path string) (bool, error)
	LoadOrCreate(ctx context.Context, path string, h collection.Handle) (collection.Collection, bool, error)
	MarkDirty(path string, c collection.Collection)
	Save(ctx context.Context) error
}

// ProjectStore persists the owning configuration.
type ProjectStore interface {
	Save(p *Project) error
}

// Status is the outcome of one sheet within a batch.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Warning is a recoverable problem recorded while processing a sheet.
type Warning struct {
	Sheet   string `json:"sheet"`
	Column  string `json:"column,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Column != "" {
		return fmt.Sprintf("%s/%s: %s", w.Sheet, w.Column, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Sheet, w.Message)
}

// SheetResult is the outcome of one operation for one sheet.
type SheetResult struct {
	Sheet    string    `json:"sheet"`
	Status   Status    `json:"status"`
	Records  int       `json:"records,omitempty"`
	Columns  int       `json:"columns,omitempty"`
	Warnings []Warning `json:"warnings,omitempty"`
	Error    string    `json:"error,omitempty"`
	Files    []string  `json:"files,omitempty"`
}

// BatchResult is the outcome of one operation across sheets.
type BatchResult struct {
	Operation string        `json:"operation"`
	RunID     string        `json:"run_id"`
	Sheets    []SheetResult `json:"sheets"`
}

// Failed returns the number of sheets that failed.
func (b BatchResult) Failed() int {
	n := 0
	for _, s := range b.Sheets {
		if s.Status == StatusFailed {
			n++
		}
	}
	return n
}
