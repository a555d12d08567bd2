package devpath

import (
	"errors"
	"fmt"
)

// Kind classifies a client error so callers can choose an accurate,
// actionable reaction instead of string-matching messages.
type Kind string

const (
	// KindTransportUnavailable means no response was obtained at all
	// (DNS, connection refused, timeout). The backend address is part
	// of the message so the user can check their configuration.
	KindTransportUnavailable Kind = "transport_unavailable"

	// KindSessionExpired means the backend answered 401. The stored
	// credential has already been cleared; the user must log in again.
	KindSessionExpired Kind = "session_expired"

	// KindAPIError is a non-success response with a usable message,
	// either extracted from a structured error body or mapped from a
	// well-known status.
	KindAPIError Kind = "api_error"

	// KindMalformedSuccessBody means a success response could not be
	// parsed into the expected result type.
	KindMalformedSuccessBody Kind = "malformed_success_body"

	// KindMalformedErrorBody means an error response claimed to be
	// structured but carried no extractable message.
	KindMalformedErrorBody Kind = "malformed_error_body"

	// KindValidation is a local precondition failure. It never reaches
	// the network.
	KindValidation Kind = "validation"
)

// Error is the uniform error type produced by the client and by local
// validation in the requesters.
type Error struct {
	Kind    Kind
	Status  int // HTTP status for KindAPIError, zero otherwise
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is (or wraps) an Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}

	return false
}

func transportUnavailable(baseURL string, err error) *Error {
	return &Error{
		Kind:    KindTransportUnavailable,
		Message: fmt.Sprintf("backend at %s is unreachable", baseURL),
		Err:     err,
	}
}

func sessionExpired() *Error {
	return &Error{
		Kind:    KindSessionExpired,
		Message: "session expired, please log in again",
	}
}

func apiError(status int, message string) *Error {
	return &Error{
		Kind:    KindAPIError,
		Status:  status,
		Message: message,
	}
}

func malformedSuccessBody(err error) *Error {
	return &Error{
		Kind:    KindMalformedSuccessBody,
		Message: "backend returned an unreadable response",
		Err:     err,
	}
}

func malformedErrorBody(status int) *Error {
	return &Error{
		Kind:    KindMalformedErrorBody,
		Status:  status,
		Message: fmt.Sprintf("backend returned an unreadable error (status %d)", status),
	}
}

// Validation builds a local precondition failure.
func Validation(message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
	}
}
