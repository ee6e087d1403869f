package xhr

import "fmt"

// Kind classifies the errors returned synchronously by a Request.
type Kind string

const (
	// InvalidStateError means a method was called in the wrong ready state, or
	// while a send is already in flight.
	InvalidStateError Kind = "InvalidStateError"

	// SyntaxError means a header name is not a valid token.
	SyntaxError Kind = "SyntaxError"

	// TypeError means a header name contains characters outside Latin-1, or a
	// body could not be converted for sending.
	TypeError Kind = "TypeError"
)

var (
	// ErrInvalidState matches any *Error of kind InvalidStateError.
	ErrInvalidState = &Error{Kind: InvalidStateError}

	// ErrSyntax matches any *Error of kind SyntaxError.
	ErrSyntax = &Error{Kind: SyntaxError}

	// ErrType matches any *Error of kind TypeError.
	ErrType = &Error{Kind: TypeError}
)

// Error is returned when a precondition of a Request method is violated.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func newError(k Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    k,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}

	return string(e.Kind) + ": " + e.Message
}

// Is returns true if target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DecodeError is the detail of the error event dispatched when a response
// declared as JSON can not be parsed.
type DecodeError struct {
	// Text is the response text that failed to parse.
	Text string
}

func (e *DecodeError) Error() string {
	return "xhr: response is not valid JSON"
}
