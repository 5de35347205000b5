// Package errors provides the error taxonomy for logbook.
//
// Runtime and configuration failures travel as *AppError values. Failures that
// happen inside a tool never escape as errors: they are rendered to text with
// ToolFailure so the model can explain them to the user.
package errors

import (
	"errors"
	"strings"
)

// ============================================================
// Error Categories
// ============================================================

// Category defines the type of error for handling decisions.
type Category int

const (
	// CategoryUser errors are caused by user input (bad expression, missing file)
	CategoryUser Category = iota

	// CategoryExternal errors come from a dependency (network, model backend, remote tools)
	CategoryExternal

	// CategoryConfig errors are detected at startup and are fatal
	CategoryConfig

	// CategorySystem errors are local I/O failures (disk full, permissions)
	CategorySystem
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategoryExternal:
		return "external"
	case CategoryConfig:
		return "config"
	case CategorySystem:
		return "system"
	default:
		return "unknown"
	}
}

// ============================================================
// AppError - Main Error Type
// ============================================================

// AppError is the main error type for all logbook errors.
type AppError struct {
	// Code is a unique error code for programmatic handling
	Code string

	// Message is a user-friendly error message
	Message string

	// Category determines how the error should be handled
	Category Category

	// Inner is the underlying error
	Inner error

	// Suggestions are recovery suggestions for the user
	Suggestions []string

	// Context is additional debugging information
	Context map[string]interface{}
}

// Error returns the error message.
func (e *AppError) Error() string {
	var sb strings.Builder

	if e.Code != "" {
		sb.WriteString("[")
		sb.WriteString(e.Code)
		sb.WriteString("] ")
	}

	sb.WriteString(e.Message)

	if e.Inner != nil {
		innerMsg := e.Inner.Error()
		if innerMsg != "" && innerMsg != e.Message {
			sb.WriteString(": ")
			sb.WriteString(innerMsg)
		}
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Inner
}

// ============================================================
// Error Constructors
// ============================================================

// New creates a new AppError.
func New(code, message string, category Category) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Category: category,
	}
}

// Wrap wraps an existing error with context.
func Wrap(err error, code, message string, category Category) *AppError {
	if err == nil {
		return nil
	}

	// Keep suggestions from an inner AppError so they still reach the user
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:        code,
			Message:     message,
			Category:    category,
			Inner:       appErr,
			Suggestions: appErr.Suggestions,
			Context:     appErr.Context,
		}
	}

	return &AppError{
		Code:     code,
		Message:  message,
		Category: category,
		Inner:    err,
	}
}

// User creates a user input error.
func User(code, message string) *AppError {
	return New(code, message, CategoryUser)
}

// External creates a dependency error.
func External(code, message string) *AppError {
	return New(code, message, CategoryExternal)
}

// Config creates a configuration error.
func Config(code, message string) *AppError {
	return New(code, message, CategoryConfig)
}

// ============================================================
// Builder Pattern for Fluent Error Construction
// ============================================================

// Builder provides fluent error construction.
type Builder struct {
	err *AppError
}

// NewBuilder starts building a new error.
func NewBuilder(code, message string) *Builder {
	return &Builder{
		err: &AppError{
			Code:     code,
			Message:  message,
			Category: CategoryExternal,
			Context:  make(map[string]interface{}),
		},
	}
}

// User marks the error as a user input error.
func (b *Builder) User() *Builder {
	b.err.Category = CategoryUser
	return b
}

// External marks the error as a dependency error.
func (b *Builder) External() *Builder {
	b.err.Category = CategoryExternal
	return b
}

// Config marks the error as a configuration error.
func (b *Builder) Config() *Builder {
	b.err.Category = CategoryConfig
	return b
}

// System marks the error as a system error.
func (b *Builder) System() *Builder {
	b.err.Category = CategorySystem
	return b
}

// Wrap sets the underlying error.
func (b *Builder) Wrap(err error) *Builder {
	b.err.Inner = err
	return b
}

// WithSuggestion adds a recovery suggestion.
func (b *Builder) WithSuggestion(suggestion string) *Builder {
	b.err.Suggestions = append(b.err.Suggestions, suggestion)
	return b
}

// WithContext adds context information.
func (b *Builder) WithContext(key string, value interface{}) *Builder {
	b.err.Context[key] = value
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *AppError {
	return b.err
}

// ============================================================
// Error Codes
// ============================================================

const (
	// Model errors
	CodeModelUnavailable     = "MODEL_UNAVAILABLE"
	CodeModelInvalidResponse = "MODEL_INVALID_RESPONSE"
	CodeModelUnsupported     = "MODEL_UNSUPPORTED"

	// Tool errors
	CodeToolNotFound        = "TOOL_NOT_FOUND"
	CodeToolExecutionFailed = "TOOL_EXECUTION_FAILED"
	CodeToolInvalidParams   = "TOOL_INVALID_PARAMS"
	CodeToolRoundLimit      = "TOOL_ROUND_LIMIT"

	// Remote tool-call protocol errors
	CodeRemoteUnavailable = "REMOTE_UNAVAILABLE"
	CodeRemoteToolFailed  = "REMOTE_TOOL_FAILED"

	// Upstream data errors
	CodeLocationNotFound = "LOCATION_NOT_FOUND"
	CodeTickerNotFound   = "TICKER_NOT_FOUND"
	CodeUpstreamFailed   = "UPSTREAM_FAILED"

	// File errors
	CodeFileNotFound    = "FILE_NOT_FOUND"
	CodeFileInvalid     = "FILE_INVALID"
	CodeFileWriteFailed = "FILE_WRITE_FAILED"

	// Config errors
	CodeConfigInvalid = "CONFIG_INVALID"

	// Validation errors
	CodeInvalidInput = "INVALID_INPUT"
)

// ============================================================
// Helpers
// ============================================================

// GetCategory extracts the category from an error.
// Returns CategoryExternal for non-AppError errors.
func GetCategory(err error) Category {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Category
	}
	return CategoryExternal
}

// GetCode extracts the outermost error code, or "" for foreign errors.
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether any AppError in the chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetSuggestions returns recovery suggestions for an error.
func GetSuggestions(err error) []string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Suggestions
	}
	return nil
}

// FormatUserMessage formats a user-friendly error message with suggestions.
func FormatUserMessage(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}

	var sb strings.Builder
	sb.WriteString(appErr.Message)
	if appErr.Inner != nil {
		sb.WriteString(": ")
		sb.WriteString(appErr.Inner.Error())
	}

	if len(appErr.Suggestions) > 0 {
		sb.WriteString("\n\nSuggestions:")
		for _, s := range appErr.Suggestions {
			sb.WriteString("\n  • ")
			sb.WriteString(s)
		}
	}

	return sb.String()
}

// ToolFailure renders err as the text a tool hands back to the model.
func ToolFailure(err error) string {
	if err == nil {
		return ""
	}
	return "Error: " + FailureText(err)
}

// FailureText is the error message with the code prefix dropped; the model
// only needs the message.
func FailureText(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		msg := appErr.Message
		if appErr.Inner != nil {
			msg += ": " + innerText(appErr.Inner)
		}
		return msg
	}
	return err.Error()
}

func innerText(err error) string {
	if appErr, ok := err.(*AppError); ok {
		if appErr.Inner != nil {
			return appErr.Message + ": " + innerText(appErr.Inner)
		}
		return appErr.Message
	}
	return err.Error()
}
