package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetsync/internal/core"
	"github.com/JonMunkholm/sheetsync/internal/sheets"
)

// =============================================================================
// Project edits
// =============================================================================

func (a *app) parseURLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-url <url>",
		Short: "Set the spreadsheet ID from a sheet URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := sheets.ExtractSpreadsheetID(args[0])
			if !ok {
				return fmt.Errorf("%w: no spreadsheet id in %q", core.ErrInvalidInput, args[0])
			}
			return a.setSource(id)
		},
	}
}

func (a *app) sourceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Show or change the spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.service.Status(cmd.Context())
			if err != nil {
				return err
			}
			if a.flagFormat == formatJSON {
				return writeJSON(a.out, map[string]string{"spreadsheet_id": st.SpreadsheetID})
			}
			fmt.Fprintln(a.out, st.SpreadsheetID)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <id-or-url>",
		Short: "Set the spreadsheet by ID or URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := sheets.ResolveSpreadsheetID(args[0])
			if err != nil {
				return err
			}
			return a.setSource(id)
		},
	})
	return cmd
}

func (a *app) setSource(id string) error {
	if err := a.service.SetSource(id); err != nil {
		return err
	}
	if a.flagFormat == formatJSON {
		return writeJSON(a.out, map[string]string{"spreadsheet_id": id})
	}
	fmt.Fprintf(a.out, "spreadsheet_id = %s\n", okColor(id))
	return nil
}

func (a *app) sheetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Manage the sheets of the project",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List configured sheets",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.printStatus(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "show <name>",
			Short: "Show one sheet and its columns",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.printSheet(args[0])
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add a sheet by its tab name",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := a.service.AddSheet(args[0]); err != nil {
					return err
				}
				return a.printSheet(args[0])
			},
		},
		&cobra.Command{
			Use:   "remove <name>",
			Short: "Remove a sheet from the project",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.service.RemoveSheet(args[0]); err != nil {
					return err
				}
				if a.flagFormat == formatText {
					fmt.Fprintf(a.out, "removed %s\n", args[0])
				}
				return nil
			},
		},
		a.selectCommand("select", true),
		a.selectCommand("deselect", false),
	)
	return cmd
}

func (a *app) selectCommand(use string, selected bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>...",
		Short: strings.ToUpper(use[:1]) + use[1:] + " sheets for batch operations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				if err := a.service.SelectSheet(name, selected); err != nil {
					return err
				}
			}
			return a.printStatus(cmd.Context())
		},
	}
}

func (a *app) columnCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "column",
		Short: "Override column types",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <sheet> <column> <Integer|Float|String>",
		Short: "Set the type of one column",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.service.SetColumnType(args[0], args[1], args[2]); err != nil {
				return err
			}
			return a.printSheet(args[0])
		},
	})
	return cmd
}

func (a *app) hashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <sheet>",
		Short: "Print the schema fingerprint of a sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, ok := a.service.Sheet(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", core.ErrUnknownSheet, args[0])
			}

			if a.flagFormat == formatJSON {
				return writeJSON(a.out, map[string]any{
					"sheet":            sheet.SheetName,
					"schema_hash":      sheet.Hash(),
					"last_schema_hash": sheet.LastSchemaHash,
					"schema_changed":   sheet.SchemaChanged(),
				})
			}
			fmt.Fprintln(a.out, sheet.Hash())
			if sheet.SchemaChanged() {
				fmt.Fprintf(a.out, "%s columns changed since the last generate (%s)\n", warnColor("note:"), sheet.LastSchemaHash)
			}
			return nil
		},
	}
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the project, its sheets and artifact state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printStatus(cmd.Context())
		},
	}
}

func (a *app) printStatus(ctx context.Context) error {
	st, err := a.service.Status(ctx)
	if err != nil {
		return err
	}
	if a.flagFormat == formatJSON {
		return writeJSON(a.out, st)
	}
	formatStatusText(a.out, st)
	return nil
}

func (a *app) printSheet(name string) error {
	sheet, ok := a.service.Sheet(name)
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownSheet, name)
	}
	if a.flagFormat == formatJSON {
		return writeJSON(a.out, sheet)
	}
	formatSheetText(a.out, sheet)
	return nil
}

// =============================================================================
// Workflows
// =============================================================================

func (a *app) columnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "columns [sheet...]",
		Short: "Fetch headers and refresh column lists",
		Long:  "Fetches each sheet and replaces its columns. Known columns keep their type; new ones get an inferred type. Without arguments the selected sheets are used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd.Context(), func(ctx context.Context) (core.BatchResult, error) {
				return a.service.LoadColumns(ctx, args...)
			})
		},
	}
}

func (a *app) generateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Write record and collection types for the selected sheets",
		Long:  "Generates Go source for each selected sheet. Rebuild a binary that imports the generated packages, then run sync with it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd.Context(), a.service.Generate)
		},
	}
}

func (a *app) collectionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "Create missing data artifacts for compiled types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd.Context(), a.service.CreateCollections)
		},
	}
}

func (a *app) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch live data and hydrate the selected collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd.Context(), a.service.Sync)
		},
	}
}

// runBatch runs one workflow, prints its result and fails when any sheet failed.
func (a *app) runBatch(ctx context.Context, fn func(context.Context) (core.BatchResult, error)) error {
	res, err := fn(ctx)
	if err != nil {
		return err
	}

	if a.flagFormat == formatJSON {
		if err := writeJSON(a.out, res); err != nil {
			return err
		}
	} else {
		formatBatchText(a.out, res)
	}

	if n := res.Failed(); n > 0 {
		return &batchFailedError{op: res.Operation, failed: n, total: len(res.Sheets)}
	}
	return nil
}
