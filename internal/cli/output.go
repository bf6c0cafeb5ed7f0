package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/JonMunkholm/sheetsync/internal/core"
)

var (
	okColor   = color.New(color.FgGreen).SprintFunc()
	warnColor = color.New(color.FgYellow).SprintFunc()
	failColor = color.New(color.FgRed, color.Bold).SprintFunc()
	dimColor  = color.New(color.Faint).SprintFunc()
)

// batchFailedError reports sheets that failed inside an otherwise completed batch.
type batchFailedError struct {
	op     string
	failed int
	total  int
}

func (e *batchFailedError) Error() string {
	return fmt.Sprintf("%s: %d of %d sheets failed", e.op, e.failed, e.total)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusLabel(s core.Status) string {
	switch s {
	case core.StatusOK:
		return okColor(string(s))
	case core.StatusSkipped:
		return warnColor(string(s))
	default:
		return failColor(string(s))
	}
}

func yesNo(b bool) string {
	if b {
		return okColor("yes")
	}
	return dimColor("no")
}

// formatBatchText prints one line per sheet plus its warnings and files.
func formatBatchText(w io.Writer, res core.BatchResult) {
	fmt.Fprintf(w, "%s %s\n", res.Operation, dimColor("run "+res.RunID))
	if len(res.Sheets) == 0 {
		fmt.Fprintln(w, "  nothing to do")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range res.Sheets {
		detail := ""
		switch {
		case s.Error != "":
			detail = s.Error
		case s.Records > 0 || res.Operation == core.OpSync:
			detail = fmt.Sprintf("%d records", s.Records)
		case s.Columns > 0:
			detail = fmt.Sprintf("%d columns", s.Columns)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", s.Sheet, statusLabel(s.Status), detail)
	}
	tw.Flush()

	for _, s := range res.Sheets {
		for _, f := range s.Files {
			fmt.Fprintf(w, "  wrote %s\n", f)
		}
		for _, warn := range s.Warnings {
			fmt.Fprintf(w, "  %s %s\n", warnColor("warning:"), warn)
		}
	}
}

func formatStatusText(w io.Writer, st core.ProjectStatus) {
	source := st.SpreadsheetID
	if source == "" {
		source = warnColor("(not set)")
	}
	fmt.Fprintf(w, "Spreadsheet: %s\n", source)
	fmt.Fprintf(w, "Namespace:   %s\n", st.Namespace)
	fmt.Fprintf(w, "Auto-create: %s\n", yesNo(st.AutoCreateCollections))
	if st.Guard.Busy {
		fmt.Fprintf(w, "Workflow:    %s\n", warnColor("running "+st.Guard.Operation))
	}
	fmt.Fprintln(w)

	if len(st.Sheets) == 0 {
		fmt.Fprintln(w, "No sheets configured.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SHEET\tSELECTED\tCOLUMNS\tRECORD\tSCHEMA\tCOMPILED\tDATA")
	for _, s := range st.Sheets {
		schema := okColor("current")
		switch {
		case s.LastSchemaHash == "":
			schema = dimColor("not generated")
		case s.SchemaChanged:
			schema = warnColor("changed")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			s.Name, yesNo(s.Selected), len(s.Columns), s.RecordType, schema, yesNo(s.Compiled), yesNo(s.DataExists))
	}
	tw.Flush()
}

func formatSheetText(w io.Writer, s core.SheetSchema) {
	fmt.Fprintf(w, "Sheet:      %s\n", s.SheetName)
	fmt.Fprintf(w, "Selected:   %s\n", yesNo(s.Selected))
	fmt.Fprintf(w, "Record:     %s\n", s.RecordTypeName)
	fmt.Fprintf(w, "Collection: %s\n", s.CollectionTypeName)
	if s.TargetArtifactPath != "" {
		fmt.Fprintf(w, "Data:       %s\n", s.TargetArtifactPath)
	}
	fmt.Fprintln(w)

	if len(s.Columns) == 0 {
		fmt.Fprintln(w, "No columns loaded. Run `sheetsync columns`.")
		return
	}
	idents := core.FieldIdentifiers(s.Columns)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tFIELD")
	for i, c := range s.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Type, idents[i])
	}
	tw.Flush()
}
