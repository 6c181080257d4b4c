package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ParseUnmatchedDelimiter indicates an unclosed parenthesis in the query
	ParseUnmatchedDelimiter ErrorCode = "PARSE_UNMATCHED_DELIMITER"
	// ParseUnterminatedString indicates a quoted string with no closing quote
	ParseUnterminatedString ErrorCode = "PARSE_UNTERMINATED_STRING"
	// ParseAmbiguousKeyword indicates a key abbreviation matching more than one keyword
	ParseAmbiguousKeyword ErrorCode = "PARSE_AMBIGUOUS_KEYWORD"
	// ParseMalformedNear indicates a near operator whose operands are not plain strings
	ParseMalformedNear ErrorCode = "PARSE_MALFORMED_NEAR"
	// ParseInvalidValue indicates a key given a value kind it cannot take
	ParseInvalidValue ErrorCode = "PARSE_INVALID_VALUE"
	// ContactsUnconfigured indicates a contact search with no lookup sources configured
	ContactsUnconfigured ErrorCode = "CONTACTS_UNCONFIGURED"
	// EngineUnknown indicates a server configured with an unrecognized engine name
	EngineUnknown ErrorCode = "ENGINE_UNKNOWN"
	// BackendFailed indicates a backend invocation returned a non-zero exit or protocol error
	BackendFailed ErrorCode = "BACKEND_FAILED"
	// ConfigInvalid indicates an unusable configuration value
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// QueryError represents a fedsearch error with a stable code and message
type QueryError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new QueryError
func New(code ErrorCode, message string, cause error) *QueryError {
	return &QueryError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a new QueryError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *QueryError {
	return &QueryError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *QueryError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *QueryError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *QueryError) WithDetails(details interface{}) *QueryError {
	e.Details = details
	return e
}

// CodeOf extracts the error code from err, or InternalError for plain errors
func CodeOf(err error) ErrorCode {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return InternalError
}

// IsParseError reports whether err is fatal to the current query:
// a malformed query rather than a backend or configuration problem.
func IsParseError(err error) bool {
	switch CodeOf(err) {
	case ParseUnmatchedDelimiter, ParseUnterminatedString,
		ParseAmbiguousKeyword, ParseMalformedNear, ParseInvalidValue,
		ContactsUnconfigured:
		return true
	}
	return false
}
