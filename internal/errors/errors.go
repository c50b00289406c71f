package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidFormat indicates a persisted tour failed structural validation
	InvalidFormat ErrorCode = "INVALID_FORMAT"
	// TourNotFound indicates a tour file could not be read
	TourNotFound ErrorCode = "TOUR_NOT_FOUND"
	// FileNotFound indicates a repository file named by a step or command cannot be read
	FileNotFound ErrorCode = "FILE_NOT_FOUND"
	// BackendUnavailable indicates git or a symbol backend is not usable
	BackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	// IndexMissing indicates SCIP index not found
	IndexMissing ErrorCode = "INDEX_MISSING"
	// InvalidRange indicates a step line range violates 1 <= start <= end
	InvalidRange ErrorCode = "INVALID_RANGE"
	// Timeout indicates a git invocation timed out
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// TourError represents a codetour error with code, message, and suggestions
type TourError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewTourError creates a new TourError
func NewTourError(code ErrorCode, message string, cause error, suggestedFixes []FixAction) *TourError {
	return &TourError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes,
	}
}

// InvalidFormatf builds an INVALID_FORMAT error for a persisted tour.
func InvalidFormatf(format string, args ...interface{}) *TourError {
	return NewTourError(InvalidFormat, fmt.Sprintf(format, args...), nil, GetSuggestedFixes(InvalidFormat))
}

// Error implements the error interface
func (e *TourError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TourError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *TourError) WithDetails(details interface{}) *TourError {
	e.Details = details
	return e
}

// HasCode reports whether err, or any error it wraps, is a TourError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var te *TourError
	if stderrors.As(err, &te) {
		return te.Code == code
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	InvalidFormat: {
		{
			Type:        RunCommand,
			Command:     "codetour validate <tour>",
			Safe:        true,
			Description: "Show every structural problem in the tour file",
		},
	},
	IndexMissing: {
		{
			Type:        RunCommand,
			Command:     "scip-go --output .scip/index.scip",
			Safe:        true,
			Description: "Generate a SCIP index for symbol fallback",
		},
	},
	BackendUnavailable: {
		{
			Type:        RunCommand,
			Command:     "git status",
			Safe:        true,
			Description: "Verify you're in a git repository",
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
