// Package echo is an HTTP server used to exercise the transfer engine and the
// XMLHttpRequest state machine during development and testing.
package echo

import (
	"bytes"
	"io"
	"io/ioutil"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultSlowDelay is the delay applied by /slow when no delay is requested.
const DefaultSlowDelay = time.Second

// Handler is an http.Handler that serves the echo server's routes:
//
//	/echo            the request's method, headers, body and remote address as JSON
//	/upload          the request's headers as JSON
//	/unicode         a JSON document containing non-ASCII text
//	/redirect        a redirect to /public/github.png
//	/public/...      static binary payloads
//	/bytes/{n}       n bytes of text, with an optional ?type= content type
//	/slow            a response sent after ?delay= (default 1s)
//	/status/{code}   a status page for the given code
type Handler struct {
	// PublicDir is served under /public/. If it is empty, a built-in image
	// is served as /public/github.png.
	PublicDir string

	Logger zerolog.Logger

	once sync.Once
	mux  *http.ServeMux
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.init)

	writer := &responseWriter{ResponseWriter: w}
	startedAt := time.Now()

	h.mux.ServeHTTP(writer, r)

	h.log(writer, r, time.Since(startedAt))
}

func (h *Handler) init() {
	h.mux = http.NewServeMux()
	h.mux.HandleFunc("/echo", h.echo)
	h.mux.HandleFunc("/upload", h.upload)
	h.mux.HandleFunc("/unicode", h.unicode)
	h.mux.HandleFunc("/redirect", h.redirect)
	h.mux.HandleFunc("/bytes/", h.bytes)
	h.mux.HandleFunc("/slow", h.slow)
	h.mux.HandleFunc("/status/", h.status)

	if h.PublicDir != "" {
		h.mux.Handle("/public/", http.StripPrefix("/public/", http.FileServer(http.Dir(h.PublicDir))))
	} else {
		h.mux.HandleFunc("/public/github.png", h.image)
	}

	h.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		WriteStatus(w, r, http.StatusNotFound)
	})
}

func (h *Handler) echo(w http.ResponseWriter, r *http.Request) {
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		WriteStatus(w, r, http.StatusBadRequest)
		return
	}

	doc, _ := sjson.Set("", "method", r.Method)
	doc = setHeaders(doc, r)
	doc, _ = sjson.Set(doc, "body", string(body))
	doc, _ = sjson.Set(doc, "remoteAddr", r.RemoteAddr)

	writeJSON(w, doc)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	io.Copy(ioutil.Discard, r.Body)

	writeJSON(w, gjson.Get(setHeaders("", r), "headers").Raw)
}

func (h *Handler) unicode(w http.ResponseWriter, r *http.Request) {
	doc, _ := sjson.Set("", "data", "你好!")
	writeJSON(w, doc)
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/public/github.png", http.StatusFound)
}

func (h *Handler) image(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	http.ServeContent(w, r, "github.png", time.Time{}, bytes.NewReader(Image))
}

func (h *Handler) bytes(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/bytes/"))
	if err != nil || n < 0 {
		WriteStatus(w, r, http.StatusBadRequest)
		return
	}

	contentType := r.URL.Query().Get("type")
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	io.CopyN(w, repeatReader('x'), int64(n))
}

func (h *Handler) slow(w http.ResponseWriter, r *http.Request) {
	delay := DefaultSlowDelay
	if v := r.URL.Query().Get("delay"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			WriteStatus(w, r, http.StatusBadRequest)
			return
		}
		delay = d
	}

	select {
	case <-time.After(delay):
	case <-r.Context().Done():
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "slow")
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/status/"))
	if err != nil || code < 100 || code > 599 {
		WriteStatus(w, r, http.StatusBadRequest)
		return
	}

	WriteStatus(w, r, code)
}

func (h *Handler) log(w *responseWriter, r *http.Request, elapsed time.Duration) {
	h.Logger.Info().
		Str("remote", r.RemoteAddr).
		Str("request", r.Method+" "+r.URL.RequestURI()+" "+r.Proto).
		Int("status", w.statusCode()).
		Str("sent", humanizeBytes(w.bytesOut)).
		Dur("elapsed", elapsed).
		Msg("request served")
}

// setHeaders adds the request's headers to doc under "headers", keyed by
// their lowercase names.
func setHeaders(doc string, r *http.Request) string {
	names := make([]string, 0, len(r.Header))
	for name := range r.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	doc, _ = sjson.SetRaw(doc, "headers", "{}")
	for _, name := range names {
		doc, _ = sjson.Set(
			doc,
			"headers."+escapePath(strings.ToLower(name)),
			strings.Join(r.Header[name], ", "),
		)
	}

	if r.Host != "" {
		doc, _ = sjson.Set(doc, "headers.host", r.Host)
	}

	return doc
}

// escapePath escapes the characters that have special meaning in an sjson
// path.
func escapePath(key string) string {
	var buf strings.Builder
	for _, c := range key {
		switch c {
		case '.', '*', '?', '|', '#', '@', '\\':
			buf.WriteRune('\\')
		}
		buf.WriteRune(c)
	}

	return buf.String()
}

func writeJSON(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, doc)
}

type repeatReader byte

func (r repeatReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r)
	}

	return len(p), nil
}
