package core

import "errors"

var (
	// ErrInvalidInput marks a missing or malformed argument: blank source ID,
	// blank sheet name, unknown column type.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyResult is returned by a Fetcher when the export has no rows.
	ErrEmptyResult = errors.New("sheet returned no rows")

	// ErrUnknownSheet is returned when a named sheet is not in the project.
	ErrUnknownSheet = errors.New("unknown sheet")

	// ErrNoColumns is returned when generation runs before columns are loaded.
	ErrNoColumns = errors.New("no columns loaded")

	// ErrNotCompiled means the generated types for a sheet are not registered
	// in the running binary. Rebuild after generating, then retry.
	ErrNotCompiled = errors.New("types not compiled")

	// ErrDrift marks a column that no longer matches a generated field.
	// Drift is reported as a warning and never aborts a sync.
	ErrDrift = errors.New("schema drift")

	// ErrBusy is returned when a workflow is already running.
	ErrBusy = errors.New("workflow busy")

	// ErrStorage wraps failures in the artifact store.
	ErrStorage = errors.New("storage failure")
)
