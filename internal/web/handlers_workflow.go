package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/sheetsync/internal/core"
)

// handleLoadColumns fetches headers and refreshes columns.
// The body may name sheets: {"sheets": ["Monsters"]}. Otherwise the
// selected sheets are used.
func (s *Server) handleLoadColumns(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sheets []string `json:"sheets"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	s.runWorkflow(w, r, func(ctx context.Context) (core.BatchResult, error) {
		return s.service.LoadColumns(ctx, req.Sheets...)
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	s.runWorkflow(w, r, s.service.Generate)
}

func (s *Server) handleCreateCollections(w http.ResponseWriter, r *http.Request) {
	s.runWorkflow(w, r, s.service.CreateCollections)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	s.runWorkflow(w, r, s.service.Sync)
}

// runWorkflow runs one batch and writes its result. Per-sheet failures are
// part of a 200 response; only batch errors become error responses.
func (s *Server) runWorkflow(w http.ResponseWriter, r *http.Request, fn func(context.Context) (core.BatchResult, error)) {
	result, err := fn(r.Context())
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
