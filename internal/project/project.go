// Package project reads and writes the HCL project file.
//
// The project file is the owning configuration of a sheetsync project: the
// spreadsheet ID, the sheets to generate and their columns. It is edited by
// the tool and may also be edited by hand.
//
//	spreadsheet_id          = env.SHEET_ID
//	namespace               = "sheetdata"
//	auto_create_collections = true
//	base_dir                = "data"
//
//	sheet "Monsters" {
//	  selected = true
//
//	  column "Name" {
//	    type = "String"
//	  }
//	  column "HP" {
//	    type = "Integer"
//	  }
//	}
//
// Expressions may read environment variables through the env object.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/JonMunkholm/sheetsync/internal/core"
)

// fileRoot mirrors the top level of the project file.
type fileRoot struct {
	SpreadsheetID         string        `hcl:"spreadsheet_id,optional"`
	Namespace             string        `hcl:"namespace,optional"`
	AutoCreateCollections bool          `hcl:"auto_create_collections,optional"`
	BaseDir               string        `hcl:"base_dir,optional"`
	Sheets                []*sheetBlock `hcl:"sheet,block"`
}

type sheetBlock struct {
	Name           string         `hcl:"name,label"`
	Selected       *bool          `hcl:"selected,optional"`
	RecordType     string         `hcl:"record_type,optional"`
	CollectionType string         `hcl:"collection_type,optional"`
	LastSchemaHash string         `hcl:"last_schema_hash,optional"`
	DataPath       string         `hcl:"data_path,optional"`
	Columns        []*columnBlock `hcl:"column,block"`
}

type columnBlock struct {
	Name string `hcl:"name,label"`
	Type string `hcl:"type,optional"`
}

// Load reads the project file at path. A missing file yields an empty project.
func Load(path string) (*core.Project, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &core.Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	return Parse(path, src)
}

// Parse decodes project file source. filename is used in diagnostics.
func Parse(filename string, src []byte) (*core.Project, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse project file %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode project file %s: %w", filename, diags)
	}

	return translate(&root)
}

func translate(root *fileRoot) (*core.Project, error) {
	p := &core.Project{
		SpreadsheetID:         strings.TrimSpace(root.SpreadsheetID),
		Namespace:             root.Namespace,
		AutoCreateCollections: root.AutoCreateCollections,
		BaseDir:               root.BaseDir,
	}

	for _, sb := range root.Sheets {
		if _, dup := p.Sheet(sb.Name); dup {
			return nil, fmt.Errorf("%w: sheet %q declared twice", core.ErrInvalidInput, sb.Name)
		}

		s := &core.SheetSchema{
			SheetName:          sb.Name,
			Selected:           sb.Selected == nil || *sb.Selected,
			RecordTypeName:     sb.RecordType,
			CollectionTypeName: sb.CollectionType,
			LastSchemaHash:     sb.LastSchemaHash,
			TargetArtifactPath: sb.DataPath,
		}
		s.EnsureTypeNames()
		if err := p.Conflict(s); err != nil {
			return nil, err
		}

		for _, cb := range sb.Columns {
			t, err := core.ParseColumnType(cb.Type)
			if err != nil {
				return nil, fmt.Errorf("sheet %q column %q: %w", sb.Name, cb.Name, err)
			}
			s.Columns = append(s.Columns, core.ColumnSpec{Name: cb.Name, Type: t})
		}

		p.Sheets = append(p.Sheets, s)
	}
	return p, nil
}

// evalContext exposes the process environment as env.<NAME>.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !isEnvName(name) {
			continue
		}
		vars[name] = cty.StringVal(value)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

func isEnvName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
