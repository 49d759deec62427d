// Package domainerrors carries coded errors across layer boundaries so
// transports can map them to responses without string matching.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of domain failure.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal"

	// Configuration-time failures. These are fatal and never retried.
	CodeMalformedSpec    Code = "malformed_field_spec"
	CodeCyclicFieldPath  Code = "cyclic_field_path"
	CodeUnregisteredType Code = "unregistered_entity_type"
	CodeUnknownPurpose   Code = "unknown_purpose"
	CodeDuplicateSlug    Code = "duplicate_purpose_slug"

	// Deanonymize-time failures, recoverable by the caller.
	CodeIrreversibleField     Code = "irreversible_field"
	CodeNoAnonymizationRecord Code = "no_anonymization_record"
)

// Error is the carrier type. Construct via New or Wrap.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus centralizes the code to status mapping used by transports.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeMalformedSpec, CodeCyclicFieldPath, CodeIrreversibleField:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound, CodeUnknownPurpose, CodeUnregisteredType, CodeNoAnonymizationRecord:
		return http.StatusNotFound
	case CodeConflict, CodeDuplicateSlug:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
