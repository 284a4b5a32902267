package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// EntriesEmpty indicates the entry file list is empty or absent
	EntriesEmpty ErrorCode = "ENTRIES_EMPTY"
	// ConfigInvalid indicates configuration could not be read or validated
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// RepoInvalid indicates the repository root is missing or not a directory
	RepoInvalid ErrorCode = "REPO_INVALID"
	// OutputFailed indicates the flat output could not be written
	OutputFailed ErrorCode = "OUTPUT_FAILED"
	// IndexMissing indicates no scan index exists for extraction
	IndexMissing ErrorCode = "INDEX_MISSING"
	// SchemaInvalid indicates a JSON schema without a usable $defs section
	SchemaInvalid ErrorCode = "SCHEMA_INVALID"
	// StorageFailed indicates the index store could not be opened or written
	StorageFailed ErrorCode = "STORAGE_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests changing a configuration value
	EditConfig FixActionType = "edit-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Field       string        `json:"field,omitempty"`
	Description string        `json:"description,omitempty"`
}

// DepflatError represents a depflat error with code, message, and suggestions
type DepflatError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a DepflatError with the registered fixes for its code
func New(code ErrorCode, message string, cause error) *DepflatError {
	return &DepflatError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *DepflatError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DepflatError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *DepflatError) WithDetails(details interface{}) *DepflatError {
	e.Details = details
	return e
}

// Is reports whether any error in err's chain is a DepflatError with the given code.
func Is(err error, code ErrorCode) bool {
	var de *DepflatError
	if stderrors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	EntriesEmpty: {
		{
			Type:        EditConfig,
			Field:       "files",
			Description: "List at least one entry file, or pass entries as arguments",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "depflat config init",
			Description: "Write a sample configuration file",
		},
	},
	IndexMissing: {
		{
			Type:        RunCommand,
			Command:     "depflat scan",
			Description: "Build the file index before extracting by ID",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
