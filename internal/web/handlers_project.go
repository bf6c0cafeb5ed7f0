package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetsync/internal/core"
	"github.com/JonMunkholm/sheetsync/internal/sheets"
)

// decodeBody decodes an optional JSON body into v. An empty body is allowed.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid request body: %w", core.ErrInvalidInput, err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"busy":   s.service.Guard().Busy(),
	})
}

// handleStatus returns the project and artifact state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(r.Context())
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleGetSheet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "sheet")
	sheet, ok := s.service.Sheet(name)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %q", core.ErrUnknownSheet, name), 0)
		return
	}
	writeJSON(w, http.StatusOK, sheetView(sheet))
}

// handleParseURL extracts the spreadsheet ID from a sheet URL and stores it.
func (s *Server) handleParseURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	id, ok := sheets.ExtractSpreadsheetID(req.URL)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: no spreadsheet id in url", core.ErrInvalidInput), 0)
		return
	}
	if err := s.service.SetSource(id); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"spreadsheet_id": id})
}

func (s *Server) handleSetSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SpreadsheetID string `json:"spreadsheet_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	id, err := sheets.ResolveSpreadsheetID(req.SpreadsheetID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if err := s.service.SetSource(id); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"spreadsheet_id": id})
}

func (s *Server) handleAddSheet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	sheet, err := s.service.AddSheet(req.Name)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusCreated, sheetView(*sheet))
}

func (s *Server) handleRemoveSheet(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveSheet(chi.URLParam(r, "sheet")); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectSheet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Selected bool `json:"selected"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	name := chi.URLParam(r, "sheet")
	if err := s.service.SelectSheet(name, req.Selected); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.handleGetSheet(w, r)
}

func (s *Server) handleSetColumnType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	err := s.service.SetColumnType(chi.URLParam(r, "sheet"), chi.URLParam(r, "column"), req.Type)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.handleGetSheet(w, r)
}

// SheetView is the JSON form of one configured sheet.
type SheetView struct {
	Name           string       `json:"name"`
	Selected       bool         `json:"selected"`
	RecordType     string       `json:"record_type"`
	CollectionType string       `json:"collection_type"`
	Columns        []ColumnView `json:"columns"`
	SchemaHash     string       `json:"schema_hash"`
	LastSchemaHash string       `json:"last_schema_hash,omitempty"`
	DataPath       string       `json:"data_path,omitempty"`
}

// ColumnView is the JSON form of one column.
type ColumnView struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func sheetView(s core.SheetSchema) SheetView {
	v := SheetView{
		Name:           s.SheetName,
		Selected:       s.Selected,
		RecordType:     s.RecordTypeName,
		CollectionType: s.CollectionTypeName,
		Columns:        make([]ColumnView, 0, len(s.Columns)),
		SchemaHash:     s.Hash(),
		LastSchemaHash: s.LastSchemaHash,
		DataPath:       s.TargetArtifactPath,
	}
	for _, c := range s.Columns {
		v.Columns = append(v.Columns, ColumnView{Name: c.Name, Type: c.Type.String()})
	}
	return v
}
