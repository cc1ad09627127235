package intel

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	ECONFLICT = "conflict"
	EINTERNAL = "internal"
	EINVALID  = "invalid"
	ENOTFOUND = "not_found"
)

// Pipeline failure codes. These are recorded on failed articles.
const (
	// EEXTRACTION reports a network or parse error while extracting a page.
	EEXTRACTION = "extraction_failed"

	// ETOOSHORT reports extracted text below the minimum usable length.
	ETOOSHORT = "extraction_too_short"

	// EUNAVAILABLE reports an LLM connectivity failure or timeout.
	EUNAVAILABLE = "llm_unavailable"

	// EINVALIDRESPONSE reports LLM output that failed validation on every attempt.
	EINVALIDRESPONSE = "invalid_response"

	// ECANCELED reports a caller-initiated cancellation.
	ECANCELED = "cancelled"

	// ESTORE reports a failed write to the record store. It aborts batches.
	ESTORE = "store_write_failed"
)

// Error represents an application-specific error.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface. Not used by the application otherwise.
func (e *Error) Error() string {
	return fmt.Sprintf("intel error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
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
