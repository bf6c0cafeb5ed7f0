package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetsync/internal/core"
)

const sampleProject = `
spreadsheet_id          = "1AbC"
namespace               = "gamedata"
auto_create_collections = true
base_dir                = "data"

sheet "Monsters" {
  column "Name" {
    type = "String"
  }
  column "HP" {
    type = "int"
  }
  column "Speed" {
    type = "Float"
  }
}

sheet "Loot Table" {
  selected         = false
  last_schema_hash = "abc"
}
`

func TestParse(t *testing.T) {
	p, err := Parse("sheets.hcl", []byte(sampleProject))
	require.NoError(t, err)

	assert.Equal(t, "1AbC", p.SpreadsheetID)
	assert.Equal(t, "gamedata", p.Namespace)
	assert.True(t, p.AutoCreateCollections)
	assert.Equal(t, "data", p.BaseDir)
	require.Len(t, p.Sheets, 2)

	monsters := p.Sheets[0]
	assert.Equal(t, "Monsters", monsters.SheetName)
	assert.True(t, monsters.Selected, "selected defaults to true")
	assert.Equal(t, "MonstersRow", monsters.RecordTypeName)
	assert.Equal(t, "MonstersCollection", monsters.CollectionTypeName)
	assert.Equal(t, []core.ColumnSpec{
		{Name: "Name", Type: core.ColumnString},
		{Name: "HP", Type: core.ColumnInteger},
		{Name: "Speed", Type: core.ColumnFloat},
	}, monsters.Columns)

	loot := p.Sheets[1]
	assert.False(t, loot.Selected)
	assert.Equal(t, "LootTableRow", loot.RecordTypeName)
	assert.Equal(t, "abc", loot.LastSchemaHash)
	assert.Empty(t, loot.Columns)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax error", `spreadsheet_id = `},
		{"unknown attribute", `colour = "red"`},
		{"unknown column type", `sheet "A" { column "x" { type = "Date" } }`},
		{"duplicate sheet", `
sheet "A" {}
sheet "a" {}
`},
		{"unset env var", `spreadsheet_id = env.SHEETSYNC_TEST_SURELY_UNSET`},
		{"same folder", `
sheet "Monsters" {}
sheet "monsters!" {}
`},
		{"same record type", `
sheet "Monsters" {}
sheet "Bosses" {
  record_type     = "MonstersRow"
  collection_type = "BossesCollection"
}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("sheets.hcl", []byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestParse_EnvReference(t *testing.T) {
	t.Setenv("SHEETSYNC_TEST_SHEET_ID", "  1XyZ ")

	p, err := Parse("sheets.hcl", []byte(`spreadsheet_id = env.SHEETSYNC_TEST_SHEET_ID`))
	require.NoError(t, err)
	assert.Equal(t, "1XyZ", p.SpreadsheetID)
}

func TestLoad_MissingFile(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Empty(t, p.SpreadsheetID)
	assert.Empty(t, p.Sheets)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sheets.hcl")

	p := &core.Project{SpreadsheetID: "1AbC", Namespace: "gamedata", AutoCreateCollections: true}
	s, err := p.AddSheet("Monsters")
	require.NoError(t, err)
	s.Columns = []core.ColumnSpec{
		{Name: "Name", Type: core.ColumnString},
		{Name: "Max HP", Type: core.ColumnInteger},
	}
	s.LastSchemaHash = s.Hash()
	_, err = p.AddSheet("Loot")
	require.NoError(t, err)
	p.Sheets[1].Selected = false

	require.NoError(t, File{Path: path}.Save(p))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestSave_KeepsEnvReference(t *testing.T) {
	t.Setenv("SHEETSYNC_TEST_SHEET_ID", "1XyZ")
	path := filepath.Join(t.TempDir(), "sheets.hcl")
	require.NoError(t, os.WriteFile(path, []byte("spreadsheet_id = env.SHEETSYNC_TEST_SHEET_ID\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	_, err = p.AddSheet("Monsters")
	require.NoError(t, err)
	require.NoError(t, Save(path, p))

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(src), "env.SHEETSYNC_TEST_SHEET_ID")
	assert.Contains(t, string(src), `sheet "Monsters"`)

	// A changed ID replaces the reference with a literal.
	p.SpreadsheetID = "other"
	require.NoError(t, Save(path, p))
	src, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(src), "env.")
	assert.Contains(t, string(src), `"other"`)
}
