package web

import (
	"net/http"

	"github.com/JonMunkholm/sheetsync/internal/core"
	"github.com/JonMunkholm/sheetsync/internal/logging"
	"github.com/JonMunkholm/sheetsync/internal/web/templates"
)

// handleDashboard renders the read-only status page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(r.Context())
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard(dashboardData(status)).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render dashboard", "error", err)
	}
}

func dashboardData(status core.ProjectStatus) templates.DashboardData {
	data := templates.DashboardData{
		SpreadsheetID: status.SpreadsheetID,
		Namespace:     status.Namespace,
		Busy:          status.Guard.Busy,
		Operation:     status.Guard.Operation,
		Sheets:        make([]templates.SheetRow, len(status.Sheets)),
	}
	if status.Guard.Busy {
		data.Since = status.Guard.Since.Format("15:04:05")
	}

	for i, sheet := range status.Sheets {
		data.Sheets[i] = templates.SheetRow{
			Name:          sheet.Name,
			Selected:      sheet.Selected,
			Columns:       len(sheet.Columns),
			RecordType:    sheet.RecordType,
			Generated:     sheet.LastSchemaHash != "",
			SchemaChanged: sheet.SchemaChanged,
			Compiled:      sheet.Compiled,
			DataExists:    sheet.DataExists,
			DataPath:      sheet.DataPath,
		}
	}
	return data
}
