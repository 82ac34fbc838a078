package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig    = "CONFIG"
	ErrNotFound  = "NOT_FOUND"
	ErrTransport = "TRANSPORT"
	ErrParse     = "PARSE"
	ErrExec      = "EXEC"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrTransport code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrTransport,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// NotFound reports an id that is absent from the current configuration,
// e.g. NotFound("machine", "geode-0").
func NotFound(kind, id string) *Error {
	suggestion := "Run 'provmon machines list' to see configured machines."
	if kind == "provider" {
		suggestion = "Run 'provmon machines show <machine>' to see its providers."
	}
	return &Error{
		Code:       ErrNotFound,
		Message:    fmt.Sprintf("%s '%s' not found", capitalize(kind), id),
		Suggestion: suggestion,
	}
}

// Transport reports a network failure talking to a status endpoint.
func Transport(url string, cause error) *Error {
	return &Error{
		Code:       ErrTransport,
		Message:    fmt.Sprintf("Couldn't reach status endpoint %s", url),
		Suggestion: "Check that the machine is online and the URL is correct.",
		Cause:      cause,
	}
}

// TransportStatus reports a non-2xx response from a status endpoint.
func TransportStatus(url string, status int) *Error {
	return &Error{
		Code:       ErrTransport,
		Message:    fmt.Sprintf("Status endpoint %s returned HTTP %d", url, status),
		Suggestion: "The endpoint is up but unhealthy. Check its logs.",
	}
}

// Parse reports a response body that doesn't match the provider list schema.
func Parse(url string, cause error) *Error {
	return &Error{
		Code:       ErrParse,
		Message:    fmt.Sprintf("Status endpoint %s returned a malformed body", url),
		Suggestion: "The endpoint must return a JSON array of provider records.",
		Cause:      cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var pmErr *Error
	if errors.As(err, &pmErr) {
		return pmErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool { return IsCode(err, ErrNotFound) }

// IsTransport reports whether err is a TRANSPORT error.
func IsTransport(err error) bool { return IsCode(err, ErrTransport) }

// IsParse reports whether err is a PARSE error.
func IsParse(err error) bool { return IsCode(err, ErrParse) }

// Summary returns the first line of a structured error without the ✗ prefix,
// or err.Error() for anything else. Used where a single line is needed (logs, tables).
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var pmErr *Error
	if errors.As(err, &pmErr) {
		if pmErr.Cause != nil {
			return pmErr.Message + ": " + pmErr.Cause.Error()
		}
		return pmErr.Message
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
