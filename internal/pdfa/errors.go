package pdfa

import "fmt"

// Error codes for PDF packaging
const (
	ErrCodeNotPDF           = "NOT_PDF"
	ErrCodeInvalidLevel     = "INVALID_LEVEL"
	ErrCodeReadFailed       = "READ_FAILED"
	ErrCodeWriteFailed      = "WRITE_FAILED"
	ErrCodeToolUnavailable  = "TOOL_UNAVAILABLE"
	ErrCodeConversionFailed = "CONVERSION_FAILED"
	ErrCodeNoAttachment     = "NO_ATTACHMENT"
)

// PackageError represents PDF packaging and extraction errors
type PackageError struct {
	Code    string
	Message string
	Cause   error
}

func (e *PackageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *PackageError) Unwrap() error {
	return e.Cause
}

// NewPackageError creates a new packaging error
func NewPackageError(code, message string, cause error) *PackageError {
	return &PackageError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrNotPDF returns error when the input does not start with the PDF header
func ErrNotPDF() *PackageError {
	return NewPackageError(ErrCodeNotPDF, "input is not a PDF document", nil)
}

// ErrInvalidLevel returns error for an unknown Factur-X conformance level
func ErrInvalidLevel(level string) *PackageError {
	return NewPackageError(ErrCodeInvalidLevel, fmt.Sprintf("unknown conformance level: %q", level), nil)
}

// ErrToolUnavailable returns error when the external converter is not installed
func ErrToolUnavailable(tool string) *PackageError {
	return NewPackageError(ErrCodeToolUnavailable, fmt.Sprintf("external tool not available: %s", tool), nil)
}

// ErrNoAttachment returns error when a PDF carries no e-invoice attachment
func ErrNoAttachment() *PackageError {
	return NewPackageError(ErrCodeNoAttachment, "no e-invoice attachment found", nil)
}
