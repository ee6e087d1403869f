// Package event provides the listener registry shared by XMLHttpRequest-style
// objects and their upload sub-targets.
package event

import "time"

// Names of the events dispatched by a request and its upload target.
const (
	ReadyStateChange = "readystatechange"
	LoadStart        = "loadstart"
	Progress         = "progress"
	Load             = "load"
	Abort            = "abort"
	Error            = "error"
	Timeout          = "timeout"
	LoadEnd          = "loadend"
)

// Event is the value passed to a listener.
type Event struct {
	// Type is the name the event was dispatched under.
	Type string

	// TimeStamp is the time at which the event was dispatched.
	TimeStamp time.Time

	// Detail is optional event-specific data. Progress events carry a
	// ProgressDetail, error events carry the error that caused them.
	Detail interface{}
}

// ProgressDetail describes how much of a payload has been transferred.
type ProgressDetail struct {
	LengthComputable bool
	Loaded           int64
	Total            int64
}

// Listener is a callback registered for a named event.
type Listener func(Event)
