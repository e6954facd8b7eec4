// Package domainerrors defines coded errors shared by services and the HTTP
// layer. Services wrap infrastructure failures with a code; the transport
// layer translates codes to statuses and stable machine-readable envelopes.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure. Generic codes cover validation and
// infrastructure; protocol codes are part of the login API contract and must
// not change without a caller migration.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnavailable  Code = "unavailable"
	CodeInternal     Code = "internal"

	// Protocol codes surfaced to login callers.
	CodeNotRegistered  Code = "NOT_REGISTERED"
	CodeProvisionError Code = "CREATE_CUSTOMER_FAILED"
)

// Error carries a code, a human-readable message, and optionally the wrapped
// cause. Status, when non-zero, overrides the default code-to-status mapping;
// provisioning failures use it to mirror the upstream status verbatim.
type Error struct {
	Code    Code
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithStatus pins an explicit HTTP status on the error.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the message from an error chain. Falls back to the raw
// error text for uncoded errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// ToHTTPStatus maps an error to the status the transport layer should write.
func ToHTTPStatus(err error) int {
	var de *Error
	if errors.As(err, &de) {
		if de.Status != 0 {
			return de.Status
		}
		return statusForCode(de.Code)
	}
	return http.StatusInternalServerError
}

func statusForCode(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound, CodeNotRegistered:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeProvisionError:
		// No upstream status recorded; treat as a bad gateway.
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
