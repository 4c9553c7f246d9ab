package model

import "fmt"

// ParseError represents parsing errors with format context
type ParseError struct {
	Format  Format
	Field   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Format, e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Format, e.Field, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError creates a new parse error
func NewParseError(format Format, field, message string, cause error) *ParseError {
	return &ParseError{
		Format:  format,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// ValidationFailure is returned when a blocking rule prevents an export
type ValidationFailure struct {
	RuleID  string
	Path    string
	Message string
	// Diagnostics holds every blocking diagnostic of the failed export
	Diagnostics Diagnostics
}

func (e *ValidationFailure) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Path, e.Message, e.RuleID)
	}
	return fmt.Sprintf("validation failed: %s (rule=%s)", e.Message, e.RuleID)
}

// NewValidationFailure creates a failure from the first blocking diagnostic
func NewValidationFailure(diags Diagnostics) *ValidationFailure {
	blocking := diags.Blocking()
	if len(blocking) == 0 {
		return nil
	}
	first := blocking[0]
	return &ValidationFailure{
		RuleID:      first.RuleID,
		Path:        first.Path,
		Message:     first.Message,
		Diagnostics: blocking,
	}
}

// ExtractionError represents failures extracting an invoice from a container
type ExtractionError struct {
	Method  string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed [%s]: %s (%v)", e.Method, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction failed [%s]: %s", e.Method, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// NewExtractionError creates a new extraction error
func NewExtractionError(method, message string, cause error) *ExtractionError {
	return &ExtractionError{
		Method:  method,
		Message: message,
		Cause:   cause,
	}
}
