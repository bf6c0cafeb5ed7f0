// Package cli implements the sheetsync command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetsync/internal/config"
	"github.com/JonMunkholm/sheetsync/internal/core"
	"github.com/JonMunkholm/sheetsync/internal/logging"
	"github.com/JonMunkholm/sheetsync/internal/project"
	"github.com/JonMunkholm/sheetsync/internal/sheets"
	"github.com/JonMunkholm/sheetsync/internal/storage"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	if err := run(ctx, os.LookupEnv, args, os.Stdout, os.Stderr); err != nil {
		printError(os.Stderr, err)
		return 1
	}
	return 0
}

// app holds the flags and the wired service for one invocation.
type app struct {
	lookup config.LookupFunc
	out    io.Writer
	errOut io.Writer

	flagConfig string
	flagFormat string

	cfg         *config.Config
	projectPath string
	store       *storage.Store
	service     *core.Service
}

func run(ctx context.Context, lookup config.LookupFunc, args []string, out, errOut io.Writer) error {
	a := &app{lookup: lookup, out: out, errOut: errOut}
	defer a.close()

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "sheetsync",
		Short:             "Generate typed Go collections from spreadsheet tabs and keep their data in sync",
		Long:              "sheetsync reads a published spreadsheet, generates a Go record and collection type per sheet, and hydrates collection artifacts from the live data.",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.flagConfig, "config", "", "project file (default: $SHEETSYNC_CONFIG or sheets.hcl)")
	root.PersistentFlags().StringVar(&a.flagFormat, "format", formatText, "output format: text|json")

	root.AddCommand(
		a.parseURLCommand(),
		a.sourceCommand(),
		a.sheetCommand(),
		a.columnCommand(),
		a.hashCommand(),
		a.statusCommand(),
		a.columnsCommand(),
		a.generateCommand(),
		a.collectionsCommand(),
		a.syncCommand(),
		a.serveCommand(),
	)
	return root
}

// setup loads configuration and wires the service before any subcommand.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.flagFormat != formatText && a.flagFormat != formatJSON {
		return fmt.Errorf("%w: --format must be text or json, got %q", core.ErrInvalidInput, a.flagFormat)
	}

	cfg, err := config.LoadFrom(a.lookup)
	if err != nil {
		return err
	}
	a.cfg = cfg
	logging.SetupWriter(a.errOut, cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	a.projectPath = cfg.Project.Path
	if a.flagConfig != "" {
		a.projectPath = a.flagConfig
	}
	p, err := project.Load(a.projectPath)
	if err != nil {
		return err
	}

	store, err := storage.Open(cmd.Context(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorage, err)
	}
	a.store = store

	fetcher := sheets.New(
		sheets.WithBaseURL(cfg.Fetch.BaseURL),
		sheets.WithTimeout(cfg.Fetch.Timeout),
	)
	a.service = core.NewService(p, core.Deps{
		Fetcher:  fetcher,
		Store:    store,
		Projects: project.File{Path: a.projectPath},
	})

	if cmd.Name() != "collections" {
		if _, err := a.service.Bootstrap(cmd.Context()); err != nil {
			slog.Warn("creating collections on startup failed", "error", err)
		}
	}
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	}
}

// printError writes the coded user message, or the raw error when no
// code applies.
func printError(w io.Writer, err error) {
	var failed *batchFailedError
	switch {
	case errors.As(err, &failed):
		fmt.Fprintf(w, "%s %s\n", failColor("Error:"), err)
	case core.IsUserFacing(err):
		fmt.Fprintf(w, "%s %s\n", failColor("Error:"), core.FormatUserError(err))
		fmt.Fprintf(w, "  %s\n", err)
	default:
		fmt.Fprintf(w, "%s %s\n", failColor("Error:"), err)
	}
}
