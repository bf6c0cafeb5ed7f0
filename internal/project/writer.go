package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/JonMunkholm/sheetsync/internal/core"
)

// File is a project file on disk. It implements core.ProjectStore.
type File struct {
	Path string
}

// Save rewrites the project file.
func (f File) Save(p *core.Project) error {
	return Save(f.Path, p)
}

// Save writes p to path, replacing the whole file.
//
// An existing spreadsheet_id = env.NAME reference is kept as long as it
// still resolves to the project's spreadsheet ID.
func Save(path string, p *core.Project) error {
	var previous *hclwrite.File
	if src, err := os.ReadFile(path); err == nil {
		previous, _ = hclwrite.ParseConfig(src, path, hcl.InitialPos)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read project file: %w", err)
	}

	out := Encode(p, previous)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create project folder: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write project file: %w", err)
	}
	return nil
}

// Encode renders p as HCL. previous, if non-nil, supplies env references to keep.
func Encode(p *core.Project, previous *hclwrite.File) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	if tokens, ok := keptEnvReference(previous, "spreadsheet_id", p.SpreadsheetID); ok {
		body.SetAttributeRaw("spreadsheet_id", tokens)
	} else {
		body.SetAttributeValue("spreadsheet_id", cty.StringVal(p.SpreadsheetID))
	}
	if p.Namespace != "" {
		body.SetAttributeValue("namespace", cty.StringVal(p.Namespace))
	}
	body.SetAttributeValue("auto_create_collections", cty.BoolVal(p.AutoCreateCollections))
	if p.BaseDir != "" {
		body.SetAttributeValue("base_dir", cty.StringVal(p.BaseDir))
	}

	for _, s := range p.Sheets {
		body.AppendNewline()
		block := body.AppendNewBlock("sheet", []string{s.SheetName})
		sb := block.Body()

		sb.SetAttributeValue("selected", cty.BoolVal(s.Selected))
		sb.SetAttributeValue("record_type", cty.StringVal(s.RecordTypeName))
		sb.SetAttributeValue("collection_type", cty.StringVal(s.CollectionTypeName))
		if s.LastSchemaHash != "" {
			sb.SetAttributeValue("last_schema_hash", cty.StringVal(s.LastSchemaHash))
		}
		if s.TargetArtifactPath != "" {
			sb.SetAttributeValue("data_path", cty.StringVal(s.TargetArtifactPath))
		}

		for _, c := range s.Columns {
			sb.AppendNewline()
			sb.AppendBlock(gohcl.EncodeAsBlock(&columnBlock{Name: c.Name, Type: c.Type.String()}, "column"))
		}
	}

	return hclwrite.Format(f.Bytes())
}

var envRefPattern = regexp.MustCompile(`^\s*env\.([A-Za-z_][A-Za-z0-9_-]*)\s*$`)

func keptEnvReference(previous *hclwrite.File, name, want string) (hclwrite.Tokens, bool) {
	if previous == nil {
		return nil, false
	}
	attr := previous.Body().GetAttribute(name)
	if attr == nil {
		return nil, false
	}

	tokens := attr.Expr().BuildTokens(nil)
	m := envRefPattern.FindStringSubmatch(string(tokens.Bytes()))
	if m == nil {
		return nil, false
	}
	if strings.TrimSpace(os.Getenv(m[1])) != want {
		return nil, false
	}
	return tokens, true
}
