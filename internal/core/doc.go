// Package core provides the business logic for turning a published
// spreadsheet into typed Go code and data.
//
// This package contains all domain logic independent of any CLI or transport
// layer. It is used by the command tree, the HTTP API and tests alike.
//
// # Pipeline
//
// A sheet moves through two phases separated by a rebuild of the host binary:
//
//  1. Generate: fetch the sheet, [Tokenize] it, infer column types with
//     [InferType], and render Go source for a record type and a collection
//     type with [GenerateRecordSource] and [GenerateCollectionSource].
//  2. Sync: resolve the compiled types through the collection registry,
//     fetch the sheet again, and [Engine.Hydrate] the collection.
//
// Generated code registers itself with the collection package from init,
// so nothing is resolved by reflection.
//
// # Workflows
//
// [Service] runs the workflows (columns, generate, collections, sync). One
// workflow runs at a time; a concurrent request fails with [ErrBusy].
// Sheets are processed in order and failures stay isolated per sheet unless
// the artifact store fails, which aborts the batch.
//
// # Schema drift
//
// Columns that disappear from the sheet, or that were added after the last
// build, are reported as warnings and skipped. Sync never fails because the
// sheet moved ahead of the compiled code.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - SRC001-SRC003: Source errors (missing ID, missing or unknown sheet)
//   - NET001-NET002: Fetch errors
//   - GEN001-GEN002: Generation errors (not compiled, no columns)
//   - WF001: Busy
package core
