package api

import (
	"errors"
	"fmt"
	"net/http"
)

// DefaultMessage is the body written for failures that carry no message.
const DefaultMessage = "Internal Server Error"

// Error is a status-tagged failure. The transport writes Status as the
// response code and Message as the plain-text body.
type Error struct {
	Status  int
	Message string

	// Err is the underlying cause, if any. It is not exposed to clients.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}

// HTTPStatus returns the carried status code.
func (e *Error) HTTPStatus() int {
	return e.Status
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCoder is implemented by errors that carry their own HTTP status.
// *Error implements it, and so may errors from other packages.
type StatusCoder interface {
	HTTPStatus() int
}

// NewError creates a status-tagged error.
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Errorf creates a status-tagged error with a formatted message.
func Errorf(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags an existing error with a status. The message defaults to the
// cause's text.
func Wrap(status int, err error) *Error {
	return &Error{Status: status, Err: err}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *Error {
	return NewError(http.StatusBadRequest, message)
}

// NotFound creates a 404 error.
func NotFound(message string) *Error {
	return NewError(http.StatusNotFound, message)
}

// Internal creates a 500 error.
func Internal(message string) *Error {
	return NewError(http.StatusInternalServerError, message)
}

// StatusFromError maps an error to the status and message written on the
// wire. tagged reports whether the status came from the error itself.
//
// Untagged errors map to 500 with their text, or DefaultMessage when the
// text is empty. A tagged status outside 100-599 is treated as 500.
func StatusFromError(err error) (status int, message string, tagged bool) {
	if err == nil {
		return http.StatusOK, "", false
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		status, tagged = apiErr.Status, true
		message = apiErr.Error()
	} else {
		var coder StatusCoder
		if errors.As(err, &coder) {
			status, tagged = coder.HTTPStatus(), true
		} else {
			status = http.StatusInternalServerError
		}
		message = err.Error()
	}

	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	if message == "" {
		message = http.StatusText(status)
		if message == "" || !tagged {
			message = DefaultMessage
		}
	}
	return status, message, tagged
}

// Detail returns the error text intended for logs. For an *Error that has
// both a client message and a cause, the cause is appended; the client
// only ever sees the message.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Err != nil {
		return err.Error() + ": " + apiErr.Err.Error()
	}
	return err.Error()
}
