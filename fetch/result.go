package fetch

import "github.com/icecave/fetchblob/blob"

// Kind describes how the payload of a successful transfer was materialised.
type Kind string

const (
	// KindBase64 means the payload was read into memory.
	KindBase64 Kind = "base64"

	// KindPath means the payload was staged to a blob store.
	KindPath Kind = "path"
)

// Response types reported in StateChange.RespType.
const (
	RespTypeJSON = "json"
	RespTypeText = "text"
	RespTypeBlob = "blob"
)

// StateChange is delivered to a task's state-change hook when the response
// headers are received.
type StateChange struct {
	// State is "2" once headers have been received.
	State string

	Status     int
	StatusText string
	Headers    Header

	// RespType is the response type inferred from the Content-Type header.
	RespType string

	// URL is the final URL of the response, after any redirects.
	URL string
}

// Result is the terminal value of a successful transfer.
type Result struct {
	Kind Kind

	// Data holds the payload when Kind is KindBase64.
	Data []byte

	// Ref is the staged payload's reference in Store when Kind is KindPath.
	Ref   string
	Store blob.Store

	Size        int64
	ContentType string
}

// Text returns the in-memory payload as a string.
func (r *Result) Text() string {
	return string(r.Data)
}


// Blob returns a handle to the staged payload. It returns nil unless Kind is
// KindPath.
func (r *Result) Blob() *blob.Blob {
	if r.Kind != KindPath {
		return nil
	}

	return &blob.Blob{
		Ref:   r.Ref,
		Size:  r.Size,
		Type:  r.ContentType,
		Store: r.Store,
	}
}
