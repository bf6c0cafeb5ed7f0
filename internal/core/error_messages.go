package core

// # Error Codes Reference
//
// Workflow errors are mapped to user messages with a code that can be quoted
// when reporting a problem. The CLI prints them and the HTTP API returns them
// in the error body.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Missing spreadsheet ID
//	         Action: Set spreadsheet_id in the project file or paste the sheet URL
//	SRC002 - Missing sheet name
//	         Action: Add a sheet with `sheetsync sheet add <name>`
//	SRC003 - Unknown sheet
//	         Action: Check the sheet name with `sheetsync sheet list`
//
// # Network Errors (NET001-NET099)
//
//	NET001 - Fetch failed: the spreadsheet could not be downloaded
//	         Action: Check the sheet is shared publicly and retry
//	NET002 - Empty sheet: the export contained no rows
//	         Action: Check the sheet name and that the tab has a header row
//
// # Generation Errors (GEN001-GEN099)
//
//	GEN001 - Types not compiled: generated code is not in this binary
//	         Action: Rebuild after running generate, then sync again
//	GEN002 - No columns: nothing to generate
//	         Action: Run `sheetsync columns` first
//
// # Workflow Errors (WF001-WF099)
//
//	WF001 - Busy: another operation is running
//	        Action: Wait for it to finish and try again
//
// # Configuration and Storage (CFG001, STO001)
//
//	CFG001 - Invalid configuration
//	STO001 - Artifact storage failure
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error.
//
// Sentinel errors are matched with errors.Is before text patterns. Text
// patterns are matched case-insensitively and the first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern maps an error to a user message, either by sentinel or by
// a lower-case substring of the error text.
type errorPattern struct {
	target  error
	pattern string
	msg     UserMessage
}

var (
	msgMissingSource = UserMessage{
		Message: "No spreadsheet ID is configured",
		Action:  "Set spreadsheet_id in the project file or paste the sheet URL",
		Code:    "SRC001",
	}
	msgMissingSheet = UserMessage{
		Message: "No sheet name was given",
		Action:  "Add a sheet with `sheetsync sheet add <name>`",
		Code:    "SRC002",
	}
)

var errorPatterns = []errorPattern{
	// Source
	{pattern: "spreadsheet id is empty", msg: msgMissingSource},
	{pattern: "sheet name is empty", msg: msgMissingSheet},
	{
		target: ErrUnknownSheet,
		msg: UserMessage{
			Message: "That sheet is not configured",
			Action:  "Check the sheet name with `sheetsync sheet list`",
			Code:    "SRC003",
		},
	},
	{
		pattern: "project has no sheets",
		msg: UserMessage{
			Message: "The project has no sheets",
			Action:  "Add a sheet with `sheetsync sheet add <name>`",
			Code:    "SRC004",
		},
	},

	// Network
	{
		pattern: "returned no rows",
		msg: UserMessage{
			Message: "The sheet export was empty",
			Action:  "Check the sheet name and that the tab has a header row",
			Code:    "NET002",
		},
	},
	{
		pattern: "fetch failed",
		msg: UserMessage{
			Message: "The spreadsheet could not be downloaded",
			Action:  "Check the sheet is shared publicly and retry",
			Code:    "NET001",
		},
	},

	// Generation
	{
		target: ErrNotCompiled,
		msg: UserMessage{
			Message: "Generated types are not compiled into this binary",
			Action:  "Rebuild after running generate, then sync again",
			Code:    "GEN001",
		},
	},
	{
		target: ErrNoColumns,
		msg: UserMessage{
			Message: "There are no columns to generate",
			Action:  "Run `sheetsync columns` first",
			Code:    "GEN002",
		},
	},

	// Workflow
	{
		target: ErrBusy,
		msg: UserMessage{
			Message: "Another operation is already running",
			Action:  "Wait for it to finish and try again",
			Code:    "WF001",
		},
	},

	// Configuration and storage
	{
		pattern: "invalid configuration",
		msg: UserMessage{
			Message: "The configuration is invalid",
			Action:  "Fix the reported settings and restart",
			Code:    "CFG001",
		},
	},
	{
		target: ErrStorage,
		msg: UserMessage{
			Message: "Artifacts could not be stored",
			Action:  "Check the storage settings and available disk space",
			Code:    "STO001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for details",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(fmt.Errorf("sync: %w", ErrBusy))
//	// msg.Code == "WF001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if ep.target != nil && errors.Is(err, ep.target) {
			return ep.msg
		}
		if ep.pattern != "" && strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
