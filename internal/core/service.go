package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/JonMunkholm/sheetsync/collection"
	"github.com/JonMunkholm/sheetsync/internal/logging"
)

// Operation names reported in BatchResult and guard status.
const (
	OpColumns     = "columns"
	OpGenerate    = "generate"
	OpCollections = "collections"
	OpSync        = "sync"
	OpEdit        = "edit"
)

// Deps are the collaborators of a Service.
type Deps struct {
	Fetcher  Fetcher
	Store    ArtifactStore
	Projects ProjectStore
	Registry *collection.Registry // nil means collection.Default()
}

// Service coordinates the column, generate, collections and sync workflows
// for one project.
//
// At most one workflow or project edit runs at a time; a concurrent call
// fails with ErrBusy. Sheets are processed in order, one at a time.
type Service struct {
	fetcher  Fetcher
	store    ArtifactStore
	projects ProjectStore
	engine   *Engine
	guard    *Guard

	mu      sync.RWMutex // guards project against Status readers
	project *Project
}

// NewService creates a Service for project.
func NewService(project *Project, deps Deps) *Service {
	if project == nil {
		project = &Project{}
	}
	return &Service{
		fetcher:  deps.Fetcher,
		store:    deps.Store,
		projects: deps.Projects,
		engine:   NewEngine(deps.Registry),
		guard:    NewGuard(),
		project:  project,
	}
}

// Guard exposes the busy guard for shutdown and monitoring.
func (s *Service) Guard() *Guard {
	return s.guard
}

// Bootstrap creates missing data artifacts when the project asks for it.
// Call once at startup after generated packages are linked in.
func (s *Service) Bootstrap(ctx context.Context) (BatchResult, error) {
	s.mu.RLock()
	auto := s.project.AutoCreateCollections && len(s.project.Sheets) > 0
	s.mu.RUnlock()

	if !auto {
		return BatchResult{Operation: OpCollections}, nil
	}
	return s.CreateCollections(ctx)
}

// =============================================================================
// Project edits
// =============================================================================

// AddSheet adds a sheet to the project and saves it.
func (s *Service) AddSheet(name string) (*SheetSchema, error) {
	var added *SheetSchema
	err := s.edit(func(p *Project) error {
		sheet, err := p.AddSheet(strings.TrimSpace(name))
		added = sheet
		return err
	})
	return added, err
}

// RemoveSheet removes a sheet from the project and saves it.
// Generated files and data artifacts are left in place.
func (s *Service) RemoveSheet(name string) error {
	return s.edit(func(p *Project) error {
		return p.RemoveSheet(name)
	})
}

// SelectSheet marks a sheet as selected or not.
func (s *Service) SelectSheet(name string, selected bool) error {
	return s.edit(func(p *Project) error {
		sheet, ok := p.Sheet(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownSheet, name)
		}
		sheet.Selected = selected
		return nil
	})
}

// SetColumnType overrides the type of one column.
func (s *Service) SetColumnType(sheetName, column, typeName string) error {
	t, err := ParseColumnType(typeName)
	if err != nil {
		return err
	}
	return s.edit(func(p *Project) error {
		sheet, ok := p.Sheet(sheetName)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownSheet, sheetName)
		}
		col, ok := sheet.Column(column)
		if !ok {
			return fmt.Errorf("%w: sheet %q has no column %q", ErrInvalidInput, sheet.SheetName, column)
		}
		col.Type = t
		return nil
	})
}

// SetSource sets the spreadsheet ID.
func (s *Service) SetSource(spreadsheetID string) error {
	if strings.TrimSpace(spreadsheetID) == "" {
		return fmt.Errorf("%w: spreadsheet id is empty", ErrInvalidInput)
	}
	return s.edit(func(p *Project) error {
		p.SpreadsheetID = strings.TrimSpace(spreadsheetID)
		return nil
	})
}

func (s *Service) edit(fn func(p *Project) error) error {
	if !s.guard.TryAcquire(OpEdit) {
		return ErrBusy
	}
	defer s.guard.Release()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.project); err != nil {
		return err
	}
	return s.saveProject()
}

// =============================================================================
// Workflows
// =============================================================================

// LoadColumns fetches the header rows of the named sheets, or of the selected
// sheets when no names are given, and refreshes their columns.
func (s *Service) LoadColumns(ctx context.Context, names ...string) (BatchResult, error) {
	return s.run(ctx, OpColumns, names, true, func(ctx context.Context, sheet *SheetSchema, res *SheetResult) error {
		rows, err := s.fetch(ctx, sheet)
		if err != nil {
			return err
		}

		s.mu.Lock()
		sheet.RefreshColumns(rows)
		sheet.EnsureTypeNames()
		s.mu.Unlock()

		res.Columns = len(sheet.Columns)
		if res.Columns == 0 {
			res.Status = StatusSkipped
			res.Warnings = append(res.Warnings, Warning{Sheet: sheet.SheetName, Message: "sheet has no header columns"})
		}
		return nil
	}, s.saveProjectLocked)
}

// Generate writes the record and collection source for each selected sheet.
// Sheets without columns have them loaded first.
func (s *Service) Generate(ctx context.Context) (BatchResult, error) {
	s.mu.RLock()
	namespace := s.project.NamespaceOrDefault()
	s.mu.RUnlock()

	if !isIdentifier(namespace) {
		return BatchResult{Operation: OpGenerate}, fmt.Errorf("%w: namespace %q is not a Go identifier", ErrInvalidInput, namespace)
	}

	return s.run(ctx, OpGenerate, nil, false, func(ctx context.Context, sheet *SheetSchema, res *SheetResult) error {
		s.mu.Lock()
		sheet.EnsureTypeNames()
		s.mu.Unlock()

		if len(sheet.Columns) == 0 {
			rows, err := s.fetch(ctx, sheet)
			if err != nil {
				return err
			}
			s.mu.Lock()
			sheet.RefreshColumns(rows)
			s.mu.Unlock()
		}
		if len(sheet.Columns) == 0 {
			res.Status = StatusSkipped
			res.Warnings = append(res.Warnings, Warning{Sheet: sheet.SheetName, Message: ErrNoColumns.Error()})
			return nil
		}

		recordSrc, err := GenerateRecordSource(namespace, sheet.RecordTypeName, sheet.Columns)
		if err != nil {
			return err
		}
		collectionSrc, err := GenerateCollectionSource(namespace, sheet.CollectionTypeName, sheet.RecordTypeName)
		if err != nil {
			return err
		}

		dir := s.project.GeneratedDir(sheet)
		if err := s.store.EnsureFolder(dir); err != nil {
			return abort(err)
		}
		files := []struct {
			path string
			src  []byte
		}{
			{path.Join(dir, sheet.RecordTypeName+".go"), recordSrc},
			{path.Join(dir, sheet.CollectionTypeName+".go"), collectionSrc},
		}
		for _, f := range files {
			if err := s.store.WriteTextFile(f.path, f.src); err != nil {
				return abort(err)
			}
			res.Files = append(res.Files, f.path)
		}

		s.mu.Lock()
		sheet.LastSchemaHash = sheet.Hash()
		if sheet.TargetArtifactPath == "" {
			sheet.TargetArtifactPath = s.project.CollectionPath(sheet)
		}
		s.mu.Unlock()

		res.Columns = len(sheet.Columns)
		return nil
	}, s.saveProjectLocked)
}

// CreateCollections ensures a data artifact exists for each selected sheet
// whose generated types are compiled in.
func (s *Service) CreateCollections(ctx context.Context) (BatchResult, error) {
	return s.run(ctx, OpCollections, nil, false, func(ctx context.Context, sheet *SheetSchema, res *SheetResult) error {
		h, ok := s.resolve(sheet)
		if !ok {
			res.Status = StatusSkipped
			res.Warnings = append(res.Warnings, notCompiled(sheet))
			return nil
		}

		target := s.targetPath(sheet)
		coll, created, err := s.store.LoadOrCreate(ctx, target, h)
		if err != nil {
			return abort(err)
		}
		if created {
			s.store.MarkDirty(target, coll)
			res.Files = append(res.Files, target)
		}
		res.Records = coll.Count()
		return nil
	}, s.saveStore)
}

// Sync hydrates each selected sheet's collection from freshly fetched rows.
// Sheets without columns have them loaded from the fetched header row, and
// are skipped if that yields none.
func (s *Service) Sync(ctx context.Context) (BatchResult, error) {
	var columnsLoaded bool
	commit := func(ctx context.Context) error {
		if err := s.saveStore(ctx); err != nil {
			return err
		}
		if columnsLoaded {
			return s.saveProjectLocked(ctx)
		}
		return nil
	}

	return s.run(ctx, OpSync, nil, true, func(ctx context.Context, sheet *SheetSchema, res *SheetResult) error {
		h, ok := s.resolve(sheet)
		if !ok {
			res.Status = StatusSkipped
			res.Warnings = append(res.Warnings, notCompiled(sheet))
			return nil
		}

		rows, err := s.fetch(ctx, sheet)
		if errors.Is(err, ErrEmptyResult) {
			res.Status = StatusSkipped
			res.Warnings = append(res.Warnings, Warning{Sheet: sheet.SheetName, Message: err.Error()})
			return nil
		}
		if err != nil {
			return err
		}

		s.mu.Lock()
		if len(sheet.Columns) == 0 {
			sheet.RefreshColumns(rows)
			columnsLoaded = columnsLoaded || len(sheet.Columns) > 0
		}
		columns := len(sheet.Columns)
		s.mu.Unlock()
		if columns == 0 {
			res.Status = StatusSkipped
			res.Warnings = append(res.Warnings, Warning{Sheet: sheet.SheetName, Message: ErrNoColumns.Error()})
			return nil
		}

		target := s.targetPath(sheet)
		coll, _, err := s.store.LoadOrCreate(ctx, target, h)
		if err != nil {
			return abort(err)
		}

		hydrated, err := s.engine.Hydrate(sheet, rows, h, coll)
		if err != nil {
			return err
		}
		s.store.MarkDirty(target, coll)

		res.Records = hydrated.Records
		res.Columns = columns
		res.Warnings = append(res.Warnings, hydrated.Warnings...)
		return nil
	}, commit)
}

// sheetFunc processes one sheet. Returning an error fails that sheet;
// returning an error wrapped by abort stops the whole batch.
type sheetFunc func(ctx context.Context, sheet *SheetSchema, res *SheetResult) error

type abortError struct{ err error }

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

func abort(err error) error {
	return &abortError{err: fmt.Errorf("%w: %w", ErrStorage, err)}
}

// run executes fn for each target sheet under the guard, then commits.
func (s *Service) run(ctx context.Context, op string, names []string, needsSource bool, fn sheetFunc, commit func(context.Context) error) (BatchResult, error) {
	ctx, runID := logging.WithRun(ctx)
	result := BatchResult{Operation: op, RunID: runID}

	if !s.guard.TryAcquire(op) {
		return result, ErrBusy
	}
	defer s.guard.Release()

	logger := logging.FromContext(ctx).With("operation", op)

	sheets, err := s.targets(names)
	if err != nil {
		return result, err
	}
	if needsSource || needsColumns(sheets, op) {
		if err := s.requireSource(); err != nil {
			return result, err
		}
	}

	logger.Info("workflow started", "sheets", len(sheets))

	// A started batch runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	for _, sheet := range sheets {
		res := SheetResult{Sheet: sheet.SheetName, Status: StatusOK}
		err := fn(ctx, sheet, &res)

		var aborted *abortError
		if errors.As(err, &aborted) {
			res.Status = StatusFailed
			res.Error = err.Error()
			result.Sheets = append(result.Sheets, res)
			logger.Error("workflow aborted", "sheet", sheet.SheetName, "error", err)

			abortErr := fmt.Errorf("%s %s: %w", op, sheet.SheetName, aborted.err)
			if commit != nil {
				if err := commit(ctx); err != nil {
					logger.Error("commit failed", "error", err)
					abortErr = errors.Join(abortErr, fmt.Errorf("%s: %w", op, err))
				}
			}
			return result, abortErr
		}
		if err != nil {
			res.Status = StatusFailed
			res.Error = err.Error()
		}

		logSheet(logger, res)
		result.Sheets = append(result.Sheets, res)
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			logger.Error("commit failed", "error", err)
			return result, fmt.Errorf("%s: %w", op, err)
		}
	}

	logger.Info("workflow finished", "sheets", len(result.Sheets), "failed", result.Failed())
	return result, nil
}

func logSheet(logger *slog.Logger, res SheetResult) {
	for _, w := range res.Warnings {
		logger.Warn(w.Message, "sheet", w.Sheet, "column", w.Column, "field", w.Field)
	}
	switch res.Status {
	case StatusFailed:
		logger.Error("sheet failed", "sheet", res.Sheet, "error", res.Error)
	case StatusSkipped:
		logger.Info("sheet skipped", "sheet", res.Sheet)
	default:
		logger.Info("sheet done", "sheet", res.Sheet, "records", res.Records, "columns", res.Columns)
	}
}

// targets resolves explicit sheet names, or the selected sheets.
func (s *Service) targets(names []string) ([]*SheetSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(names) == 0 {
		if len(s.project.Sheets) == 0 {
			return nil, fmt.Errorf("%w: project has no sheets", ErrInvalidInput)
		}
		return slices.Clone(s.project.Selected()), nil
	}

	sheets := make([]*SheetSchema, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: sheet name is empty", ErrInvalidInput)
		}
		sheet, ok := s.project.Sheet(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSheet, name)
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

func needsColumns(sheets []*SheetSchema, op string) bool {
	if op != OpGenerate {
		return false
	}
	for _, sheet := range sheets {
		if len(sheet.Columns) == 0 {
			return true
		}
	}
	return false
}

func (s *Service) requireSource() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if strings.TrimSpace(s.project.SpreadsheetID) == "" {
		return fmt.Errorf("%w: spreadsheet id is empty", ErrInvalidInput)
	}
	return nil
}

func (s *Service) fetch(ctx context.Context, sheet *SheetSchema) ([][]string, error) {
	s.mu.RLock()
	id := s.project.SpreadsheetID
	s.mu.RUnlock()

	return s.fetcher.FetchTable(ctx, id, sheet.SheetName)
}

func (s *Service) resolve(sheet *SheetSchema) (collection.Handle, bool) {
	s.mu.RLock()
	ns := s.project.NamespaceOrDefault()
	s.mu.RUnlock()

	rec, recOK := s.engine.ResolveType(collection.QualifiedName(ns, sheet.RecordTypeName))
	coll, collOK := s.engine.ResolveType(collection.QualifiedName(ns, sheet.CollectionTypeName))
	if !recOK || !collOK || rec.CollectionName() != coll.CollectionName() {
		return collection.Handle{}, false
	}
	return coll, true
}

func (s *Service) targetPath(sheet *SheetSchema) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sheet.TargetArtifactPath != "" {
		return sheet.TargetArtifactPath
	}
	return s.project.CollectionPath(sheet)
}

func notCompiled(sheet *SheetSchema) Warning {
	return Warning{
		Sheet:   sheet.SheetName,
		Message: fmt.Sprintf("%s: run generate and rebuild", ErrNotCompiled),
	}
}

func (s *Service) saveProjectLocked(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveProject()
}

// saveProject persists the project. Caller holds s.mu.
func (s *Service) saveProject() error {
	if s.projects == nil {
		return nil
	}
	if err := s.projects.Save(s.project); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

func (s *Service) saveStore(ctx context.Context) error {
	if err := s.store.Save(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}
