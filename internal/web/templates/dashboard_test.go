package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, d DashboardData) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Dashboard(d).Render(context.Background(), &buf))
	return buf.String()
}

func TestDashboard(t *testing.T) {
	tests := []struct {
		name    string
		data    DashboardData
		want    []string
		notWant []string
	}{
		{
			name:    "empty project",
			data:    DashboardData{Namespace: "sheetdata"},
			want:    []string{"<!doctype html>", "(not set)", "<code>sheetdata</code>", `<span class="ok">idle</span>`, "No sheets configured."},
			notWant: []string{"<table>"},
		},
		{
			name: "busy workflow",
			data: DashboardData{SpreadsheetID: "1AbC", Busy: true, Operation: "sync", Since: "12:30:00"},
			want: []string{"<code>1AbC</code>", `<span class="warn">running sync since 12:30:00</span>`},
		},
		{
			name: "sheet rows",
			data: DashboardData{Sheets: []SheetRow{
				{Name: "Monsters", Selected: true, Columns: 3, RecordType: "MonstersRow", Generated: true, Compiled: true, DataPath: "data/Monsters/MonstersCollection.json"},
				{Name: "<b>Loot</b>", Generated: true, SchemaChanged: true},
				{Name: "Bosses"},
			}},
			want: []string{
				"<td>Monsters</td><td>yes</td><td>3</td><td><code>MonstersRow</code></td>",
				`<span class="ok">current</span>`,
				`<span class="warn">changed</span>`,
				`<span class="warn">not generated</span>`,
				`<span class="ok">yes</span></td><td><span class="bad">no</span><code>data/Monsters/MonstersCollection.json</code>`,
				"&lt;b&gt;Loot&lt;/b&gt;",
			},
			notWant: []string{"<b>Loot</b>", "No sheets configured."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := render(t, tt.data)
			for _, w := range tt.want {
				assert.Contains(t, body, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, body, w)
			}
		})
	}
}
