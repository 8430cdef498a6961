package errors

import "errors"

// Domain is the error domain for Drishti errors.
const Domain = "github.com/Swappnil85/Drishti-V2-sub003"

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs/telemetry)
	Metadata map[string]string // Additional context for callers
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with caller-facing metadata.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf extracts the code from an error chain, or CodeUnknown.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}

// IsValidation reports whether err is a validation failure. Validation
// failures are never retried and surface immediately to the caller.
func IsValidation(err error) bool {
	switch CodeOf(err) {
	case CodeValidation, CodeBatchEmpty, CodeBatchTooLarge, CodeOperationIDMissing,
		CodeOperationDataMissing, CodeResourceIDMissing, CodeCalculationParamsEmpty:
		return true
	}
	return false
}

// IsUnsupported reports whether err identifies an unknown calculation or
// resource type. Unsupported operations are terminal regardless of retries.
func IsUnsupported(err error) bool {
	switch CodeOf(err) {
	case CodeUnsupportedCalculation, CodeUnsupportedResource, CodeUnsupportedOperation:
		return true
	}
	return false
}

// IsTransient reports whether err may succeed on a later attempt.
// Unclassified errors count as transient so an unlabelled dependency
// failure is retried rather than dropped.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	switch CodeOf(err) {
	case CodeTransient, CodeComputeUnavailable, CodeStorageUnavailable, CodeUnknown:
		return true
	}
	return false
}

// IsTimeout reports whether err marks an exceeded aggregate budget.
func IsTimeout(err error) bool {
	switch CodeOf(err) {
	case CodeTimeout, CodeBatchTimeout:
		return true
	}
	return false
}
