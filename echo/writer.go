package echo

import (
	"net/http"

	humanize "github.com/dustin/go-humanize"
)

// responseWriter is an http.ResponseWriter that traps the status code and the
// number of bytes written, for logging.
type responseWriter struct {
	http.ResponseWriter

	status   int
	bytesOut int64
}

// Write sends data to the client. If data is written before the HTTP headers
// have been sent, a response code of 200 OK is used.
func (w *responseWriter) Write(data []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}

	size, err := w.ResponseWriter.Write(data)
	w.bytesOut += int64(size)

	return size, err
}

// WriteHeader sends the HTTP headers.
func (w *responseWriter) WriteHeader(statusCode int) {
	if w.status == 0 {
		w.status = statusCode
	}

	w.ResponseWriter.WriteHeader(statusCode)
}

// Flush calls Flush() on the inner writer if it implements http.Flusher.
func (w *responseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}

	return w.status
}

func humanizeBytes(n int64) string {
	return humanize.Bytes(uint64(n))
}
