package cpbrules

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	EINTERNAL    = "internal"
	EINVALID     = "invalid"
	ENOTFOUND    = "not_found"
	EFETCH       = "fetch"
	EUNAVAILABLE = "unavailable"
	EHEADING     = "heading_not_found"
	ECONTAINER   = "container_not_found"
	EMALFORMED   = "malformed_response"
	ESCHEMA      = "schema_validation"
)

// Error represents an application-specific error. Err holds the wrapped
// cause, if any.
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf is a helper function to return an Error with a given code and
// formatted message. A %w verb in format records the wrapped cause.
func Errorf(code string, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{
		Code:    code,
		Message: err.Error(),
		Err:     errors.Unwrap(err),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// IsPermanent reports whether retrying the operation that produced err
// cannot succeed. Timeouts are not permanent: whether the caller has given
// up is decided by the caller's context, not by the error.
func IsPermanent(err error) bool {
	switch ErrorCode(err) {
	case EFETCH, EINVALID:
		return true
	}
	return false
}
