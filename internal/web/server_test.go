package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetsync/collection"
	"github.com/JonMunkholm/sheetsync/internal/config"
	"github.com/JonMunkholm/sheetsync/internal/core"
	"github.com/JonMunkholm/sheetsync/internal/project"
	"github.com/JonMunkholm/sheetsync/internal/sheets"
	"github.com/JonMunkholm/sheetsync/internal/storage"
)

const monstersCSV = "\"Name\",\"HP\",\"Speed\"\n\"Goblin\",\"10\",\"1.5\"\n"

type testEnv struct {
	server  *Server
	service *core.Service
	project *core.Project
	dir     string
}

func newTestEnv(t *testing.T, sec config.SecurityConfig) *testEnv {
	t.Helper()

	sheetsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(monstersCSV))
	}))
	t.Cleanup(sheetsSrv.Close)

	dir := t.TempDir()
	p := &core.Project{SpreadsheetID: "abc123", BaseDir: dir}
	_, err := p.AddSheet("Monsters")
	require.NoError(t, err)

	svc := core.NewService(p, core.Deps{
		Fetcher:  sheets.New(sheets.WithBaseURL(sheetsSrv.URL)),
		Store:    storage.New(storage.NewFileBackend()),
		Projects: project.File{Path: filepath.Join(dir, "sheets.hcl")},
		Registry: collection.NewRegistry(),
	})

	return &testEnv{
		server:  NewServer(svc, &config.Config{Security: sec}),
		service: svc,
		project: p,
		dir:     dir,
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})

	rec := env.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	status := decode[core.ProjectStatus](t, rec)
	assert.Equal(t, "abc123", status.SpreadsheetID)
	require.Len(t, status.Sheets, 1)
	assert.Equal(t, "Monsters", status.Sheets[0].Name)
	assert.False(t, status.Sheets[0].Compiled)
	assert.False(t, status.Sheets[0].DataExists)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})
	_, err := env.service.AddSheet("<b>Loot</b>")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "Monsters")
	assert.Contains(t, body, "&lt;b&gt;Loot&lt;/b&gt;")
	assert.NotContains(t, body, "<b>Loot</b>")
	assert.Contains(t, body, "idle")
}

func TestSheetEndpoints(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})

	rec := env.do(t, http.MethodPost, "/api/sheets", `{"name":"Loot Table"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode[SheetView](t, rec)
	assert.Equal(t, "LootTableRow", added.RecordType)
	assert.True(t, added.Selected)

	rec = env.do(t, http.MethodPost, "/api/sheets", `{"name":"loot table"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/sheets/Loot%20Table/selected", `{"selected":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[SheetView](t, rec).Selected)

	rec = env.do(t, http.MethodGet, "/api/sheets/Nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SRC003", decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodDelete, "/api/sheets/Loot%20Table", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := env.service.Sheet("Loot Table")
	assert.False(t, ok)

	// Edits are persisted to the project file.
	saved, err := project.Load(filepath.Join(env.dir, "sheets.hcl"))
	require.NoError(t, err)
	require.Len(t, saved.Sheets, 1)
	assert.Equal(t, "Monsters", saved.Sheets[0].SheetName)
}

func TestSourceEndpoints(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})

	rec := env.do(t, http.MethodPost, "/api/parse-url",
		`{"url":"https://docs.google.com/spreadsheets/d/1AbC-x_9/edit#gid=0"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1AbC-x_9", env.project.SpreadsheetID)

	rec = env.do(t, http.MethodPost, "/api/parse-url", `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/source", `{"spreadsheet_id":"plainId"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "plainId", env.project.SpreadsheetID)

	rec = env.do(t, http.MethodPut, "/api/source", `{"spreadsheet_id":" "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "SRC001", decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPut, "/api/source", `{"bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkflowEndpoints(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})

	rec := env.do(t, http.MethodPost, "/api/columns", `{"sheets":["Monsters"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[core.BatchResult](t, rec)
	assert.Equal(t, core.OpColumns, res.Operation)
	require.Len(t, res.Sheets, 1)
	assert.Equal(t, 3, res.Sheets[0].Columns)

	rec = env.do(t, http.MethodPut, "/api/sheets/Monsters/columns/HP", `{"type":"Float"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Float", decode[SheetView](t, rec).Columns[1].Type)

	rec = env.do(t, http.MethodPost, "/api/generate", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res = decode[core.BatchResult](t, rec)
	require.Len(t, res.Sheets, 1)
	assert.Equal(t, core.StatusOK, res.Sheets[0].Status)
	_, err := os.Stat(filepath.Join(env.dir, "Monsters", "generated", "MonstersRow.go"))
	assert.NoError(t, err)

	// Types are not linked into the test binary.
	rec = env.do(t, http.MethodPost, "/api/sync", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res = decode[core.BatchResult](t, rec)
	assert.Equal(t, core.StatusSkipped, res.Sheets[0].Status)
	require.NotEmpty(t, res.Sheets[0].Warnings)
}

func TestWorkflowEndpoints_Busy(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})
	require.True(t, env.service.Guard().TryAcquire(core.OpSync))
	defer env.service.Guard().Release()

	rec := env.do(t, http.MethodPost, "/api/generate", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "WF001", decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[core.ProjectStatus](t, rec)
	assert.True(t, status.Guard.Busy)
	assert.Equal(t, core.OpSync, status.Guard.Operation)
}

func TestAPIKeyAuth(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}})

	tests := []struct {
		name   string
		key    string
		status int
		code   string
	}{
		{name: "missing", status: http.StatusUnauthorized, code: "AUTH001"},
		{name: "wrong", key: "nope", status: http.StatusForbidden, code: "AUTH002"},
		{name: "second key", key: "k2", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers []string
			if tt.key != "" {
				headers = []string{"X-API-Key", tt.key}
			}
			rec := env.do(t, http.MethodPut, "/api/source", `{"spreadsheet_id":"xyz"}`, headers...)
			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
			}
		})
	}

	// Reads stay open.
	rec := env.do(t, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})

	rec := env.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["busy"])
}
