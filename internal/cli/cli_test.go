package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetsync/internal/core"
	"github.com/JonMunkholm/sheetsync/internal/project"
)

type cliEnv struct {
	dir     string
	env     map[string]string
	fetches int
	csv     map[string]string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	e := &cliEnv{
		dir: t.TempDir(),
		csv: map[string]string{
			"Monsters": "\"Name\",\"HP\",\"Speed\"\n\"Goblin\",\"10\",\"1.5\"\n",
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.fetches++
		body, ok := e.csv[r.URL.Query().Get("sheet")]
		if !ok {
			http.Error(w, "no such sheet", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	e.env = map[string]string{
		"SHEETSYNC_CONFIG": filepath.Join(e.dir, "sheets.hcl"),
		"FETCH_BASE_URL":   srv.URL,
		"LOG_LEVEL":        "error",
	}

	// Keep generated files and data artifacts inside the temp dir.
	initial := fmt.Sprintf("base_dir = %q\n", e.dir)
	require.NoError(t, os.WriteFile(e.env["SHEETSYNC_CONFIG"], []byte(initial), 0o644))
	return e
}

func (e *cliEnv) lookup(key string) (string, bool) {
	v, ok := e.env[key]
	return v, ok
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), e.lookup, args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := e.run(t, args...)
	require.NoError(t, err, "stderr: %s", errOut)
	return out
}

func (e *cliEnv) project(t *testing.T) *core.Project {
	t.Helper()
	p, err := project.Load(e.env["SHEETSYNC_CONFIG"])
	require.NoError(t, err)
	return p
}

func TestParseURLAndSource(t *testing.T) {
	e := newCLIEnv(t)

	out := e.mustRun(t, "parse-url", "https://docs.google.com/spreadsheets/d/1AbC-x_9/edit#gid=0")
	assert.Contains(t, out, "1AbC-x_9")
	assert.Equal(t, "1AbC-x_9", e.project(t).SpreadsheetID)

	e.mustRun(t, "source", "set", "plainId")
	assert.Equal(t, "plainId", e.project(t).SpreadsheetID)

	out = e.mustRun(t, "source")
	assert.Equal(t, "plainId\n", out)

	_, _, err := e.run(t, "parse-url", "https://example.com/nothing")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSheetCommands(t *testing.T) {
	e := newCLIEnv(t)

	out := e.mustRun(t, "sheet", "add", "Monsters")
	assert.Contains(t, out, "MonstersRow")
	e.mustRun(t, "sheet", "add", "Loot")
	e.mustRun(t, "sheet", "deselect", "Loot")

	p := e.project(t)
	require.Len(t, p.Sheets, 2)
	assert.True(t, p.Sheets[0].Selected)
	assert.False(t, p.Sheets[1].Selected)

	out = e.mustRun(t, "sheet", "list")
	assert.Contains(t, out, "Monsters")
	assert.Contains(t, out, "Loot")

	_, _, err := e.run(t, "sheet", "add", "monsters")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	e.mustRun(t, "sheet", "remove", "Loot")
	assert.Len(t, e.project(t).Sheets, 1)

	_, _, err = e.run(t, "sheet", "remove", "Loot")
	assert.ErrorIs(t, err, core.ErrUnknownSheet)
}

func TestColumnsAndGenerate(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun(t, "source", "set", "abc123")
	e.mustRun(t, "sheet", "add", "Monsters")

	out := e.mustRun(t, "columns")
	assert.Contains(t, out, "Monsters")
	assert.Contains(t, out, "3 columns")

	out = e.mustRun(t, "column", "set", "Monsters", "hp", "Float")
	assert.Contains(t, out, "Float")

	sheet := e.project(t).Sheets[0]
	assert.Equal(t, []core.ColumnSpec{
		{Name: "Name", Type: core.ColumnString},
		{Name: "HP", Type: core.ColumnFloat},
		{Name: "Speed", Type: core.ColumnFloat},
	}, sheet.Columns)

	out = e.mustRun(t, "generate")
	assert.Contains(t, out, "generate")
	assert.Contains(t, out, "ok")

	src, err := os.ReadFile(filepath.Join(e.dir, "Monsters", "generated", "MonstersRow.go"))
	require.NoError(t, err)
	assert.Regexp(t, `Hp\s+float64`, string(src))
	assert.FileExists(t, filepath.Join(e.dir, "Monsters", "generated", "MonstersCollection.go"))

	sheet = e.project(t).Sheets[0]
	assert.Equal(t, sheet.Hash(), sheet.LastSchemaHash)

	hash := e.mustRun(t, "hash", "Monsters")
	assert.Equal(t, sheet.Hash()+"\n", hash)
}

func TestSync_NotCompiled(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun(t, "source", "set", "abc123")
	e.mustRun(t, "sheet", "add", "Monsters")

	out := e.mustRun(t, "--format", "json", "sync")

	var res core.BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, core.OpSync, res.Operation)
	require.Len(t, res.Sheets, 1)
	assert.Equal(t, core.StatusSkipped, res.Sheets[0].Status)
	assert.Zero(t, e.fetches, "uncompiled sheets are skipped before fetching")
}

func TestColumns_FailedSheet(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun(t, "source", "set", "abc123")
	e.mustRun(t, "sheet", "add", "Monsters")
	e.mustRun(t, "sheet", "add", "Missing")

	out, _, err := e.run(t, "columns")
	var failed *batchFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 1, failed.failed)
	assert.Equal(t, 2, failed.total)
	assert.Contains(t, out, "failed")

	// The healthy sheet still got its columns.
	assert.Len(t, e.project(t).Sheets[0].Columns, 3)
}

func TestStatusJSON(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun(t, "sheet", "add", "Monsters")

	out := e.mustRun(t, "status", "--format", "json")

	var st core.ProjectStatus
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, core.DefaultNamespace, st.Namespace)
	require.Len(t, st.Sheets, 1)
	assert.Equal(t, "Monsters", st.Sheets[0].Name)
	assert.False(t, st.Sheets[0].Compiled)
}

func TestSetupErrors(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		args     []string
		wantCode string
	}{
		{
			name:     "bad format",
			args:     []string{"--format", "yaml", "status"},
			wantCode: "ERR000",
		},
		{
			name:     "bad storage driver",
			env:      map[string]string{"STORAGE_DRIVER": "redis"},
			args:     []string{"status"},
			wantCode: "CFG001",
		},
		{
			name:     "no sheets",
			args:     []string{"columns"},
			wantCode: "SRC004",
		},
		{
			name:     "unknown sheet",
			args:     []string{"hash", "Nope"},
			wantCode: "SRC003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newCLIEnv(t)
			for k, v := range tt.env {
				e.env[k] = v
			}

			_, _, err := e.run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, core.MapError(err).Code)

			var buf bytes.Buffer
			printError(&buf, err)
			assert.Contains(t, buf.String(), "Error:")
		})
	}
}
