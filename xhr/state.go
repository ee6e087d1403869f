package xhr

import "strconv"

// ReadyState indicates a request's progress through its life-cycle.
type ReadyState int

const (
	// Unsent is the initial state of a request, before Open is called.
	Unsent ReadyState = iota

	// Opened means that Open has been called. Headers may be set and the
	// request may be sent.
	Opened

	// HeadersReceived means that the response status and headers are
	// available.
	HeadersReceived

	// Loading means that the response payload is being received.
	Loading

	// Done means that the request has completed, successfully or otherwise.
	Done
)

func (s ReadyState) String() string {
	switch s {
	case Unsent:
		return "UNSENT"
	case Opened:
		return "OPENED"
	case HeadersReceived:
		return "HEADERS_RECEIVED"
	case Loading:
		return "LOADING"
	case Done:
		return "DONE"
	default:
		return "ReadyState(" + strconv.Itoa(int(s)) + ")"
	}
}
