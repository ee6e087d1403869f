// Package xhr implements the XMLHttpRequest life-cycle on top of the fetch
// transfer engine.
//
// A Request is driven by its caller through Open, SetRequestHeader and Send.
// Once sent, the request reports its progress exclusively through events
// dispatched on the request and on its upload target:
//
//	req := xhr.New(client)
//	req.SetOnReadyStateChange(func() {
//		if req.ReadyState() == xhr.Done {
//			fmt.Println(req.Status(), req.Response())
//		}
//	})
//	req.Open("GET", "https://example.org/")
//	err := req.Send(nil)
package xhr

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/icecave/fetchblob/blob"
	"github.com/icecave/fetchblob/event"
	"github.com/icecave/fetchblob/fetch"
	"github.com/rs/zerolog"
)

// Engine starts transfers on behalf of a Request. *fetch.Client satisfies this
// interface.
type Engine interface {
	Configure(fetch.Config) fetch.Fetcher
}

// Option configures a Request.
type Option func(*Request)

// WithLogger sets the logger used for diagnostics. By default nothing is
// logged.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Request) {
		r.logger = l
	}
}

// Request is an XMLHttpRequest-style HTTP request.
//
// Listeners registered on the request receive readystatechange, progress,
// load, error, timeout, abort and loadend events. Listeners registered on
// Upload() receive loadstart, progress and load events for the request body.
// All listeners are removed once the request completes.
type Request struct {
	event.Target

	engine Engine
	logger zerolog.Logger
	upload event.Target

	mutex              sync.Mutex
	readyState         ReadyState
	sendFlag           bool
	method             string
	url                string
	headers            fetch.Header
	timeout            int
	task               fetch.Task
	onReadyStateChange func()
	onAbort            func()

	status          int
	statusText      string
	responseHeaders fetch.Header
	responseType    string
	response        interface{}
	responseText    string
	hasText         bool
	responseURL     string
}

// New returns a request that performs its transfers using engine.
func New(engine Engine, options ...Option) *Request {
	r := &Request{
		engine: engine,
		logger: zerolog.Nop(),
	}

	for _, opt := range options {
		opt(r)
	}

	return r
}

// Open prepares the request. It clears any previously set request headers
// and moves the request to the Opened state.
//
// Requests are always asynchronous. Open does not cancel a request that is
// already in flight; call Abort first.
func (r *Request) Open(method, url string) {
	r.logger.Debug().Str("method", method).Str("url", url).Msg("open")

	r.mutex.Lock()
	r.method = method
	r.url = url
	r.headers = nil
	r.status = 0
	r.statusText = ""
	r.responseHeaders = nil
	r.responseType = ""
	r.response = nil
	r.responseText = ""
	r.hasText = false
	r.responseURL = ""
	r.mutex.Unlock()

	r.dispatchReadyStateChange(Opened)
}

// SetRequestHeader sets a request header. Setting a header that is already
// set replaces its value. Names are case-sensitive.
//
// It returns an InvalidStateError unless the request is opened and has not
// been sent, or a TypeError or SyntaxError if name is not a valid header name.
func (r *Request) SetRequestHeader(name, value string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.readyState != Opened || r.sendFlag {
		return newError(InvalidStateError, "can not set request header in state %s", r.readyState)
	}

	if err := ValidateHeaderName(name); err != nil {
		return err
	}

	r.headers.Set(name, value)

	return nil
}

// OverrideMimeType sets the Content-Type request header, regardless of the
// request's state.
func (r *Request) OverrideMimeType(mime string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.headers.Set("Content-Type", mime)
}

// Send starts the transfer and returns immediately.
//
// body may be nil, a string, a []byte or a blob.Blob (or pointer to one),
// which is streamed from its store. Maps, slices, arrays and structs are sent as JSON; any other
// value is formatted with fmt.Sprint.
//
// It returns an InvalidStateError if the request is not opened or has already
// been sent, or a TypeError if body can not be serialized.
func (r *Request) Send(body interface{}) error {
	r.mutex.Lock()

	if r.readyState != Opened || r.sendFlag {
		state := r.readyState
		r.mutex.Unlock()
		return newError(InvalidStateError, "can not send request in state %s", state)
	}

	body, err := coerceBody(body)
	if err != nil {
		r.mutex.Unlock()
		return err
	}

	r.sendFlag = true
	method, url, headers, timeout := r.method, r.url, r.headers.Clone(), r.timeout
	r.mutex.Unlock()

	task := r.engine.
		Configure(fetch.Config{Auto: true, Timeout: timeout}).
		Fetch(method, url, headers, body)

	r.mutex.Lock()
	r.task = task
	r.mutex.Unlock()

	r.logger.Debug().
		Str("task", task.ID()).
		Str("method", method).
		Str("url", url).
		Int("timeout", timeout).
		Msg("send")

	r.Dispatch(event.Load, nil)

	p := &relay{req: r}

	task.
		OnStateChange(func(s fetch.StateChange) {
			r.headerReceived(task, s)
		}).
		OnUploadProgress(func(sent, total int64) {
			if r.owns(task) {
				p.upload(sent, total)
			}
		}).
		OnProgress(func(received, total int64) {
			if r.owns(task) {
				p.download(received, total)
			}
		}).
		OnFailure(func(err error) {
			r.onError(task, err)
		}).
		OnSuccess(func(res *fetch.Result) {
			r.onDone(task, res)
		})

	task.Start()

	return nil
}

// Abort cancels the request in flight, if any.
//
// Once the cancellation takes effect the abort handler is called and an abort
// event is dispatched, or an error event if the transfer could not be
// canceled. The ready state is left unchanged.
func (r *Request) Abort() {
	r.mutex.Lock()
	task := r.task
	r.mutex.Unlock()

	if task == nil {
		return
	}

	r.logger.Debug().Str("task", task.ID()).Msg("abort")

	task.Cancel(func(err error) {
		r.mutex.Lock()
		if r.task == task {
			r.task = nil
			r.sendFlag = false
		}
		onAbort := r.onAbort
		r.mutex.Unlock()

		if onAbort != nil {
			onAbort()
		}

		if err != nil {
			r.logger.Debug().Str("task", task.ID()).Err(err).Msg("abort failed")
			r.Dispatch(event.Error, err)
			r.clearListeners()
			return
		}

		r.Dispatch(event.Abort, nil)
	})
}

// GetResponseHeader returns the value of the response header called name.
// ok is false if no such header was received.
func (r *Request) GetResponseHeader(name string) (value string, ok bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.responseHeaders.Get(name)
}

// GetAllResponseHeaders returns all response headers as "name:value" lines,
// each terminated by CRLF, in the order they were received.
func (r *Request) GetAllResponseHeaders() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var b strings.Builder
	for _, f := range r.responseHeaders {
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(f.Value)
		b.WriteString("\r\n")
	}

	return b.String()
}

// ReadyState returns the current state of the request.
func (r *Request) ReadyState() ReadyState {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.readyState
}

// Status returns the HTTP status code of the response.
//
// If the transfer fails, it is the first number that appears in the failure
// message, or 404 if there is none.
func (r *Request) Status() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.status
}

// StatusText returns the HTTP status text of the response, or the failure
// message if the transfer fails.
func (r *Request) StatusText() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.statusText
}

// Response returns the response payload once the request is done.
//
// It is a *blob.Blob if the payload was staged, the parsed JSON value if the
// response type is "json", and otherwise the response text. It is nil until
// the request is done, and again after Open.
func (r *Request) Response() interface{} {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.response
}

// ResponseText returns the response payload as text. ok is false if the
// request is not done or its payload was staged.
func (r *Request) ResponseText() (text string, ok bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.responseText, r.hasText
}

// ResponseURL returns the final URL of the response, after redirects.
func (r *Request) ResponseURL() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.responseURL
}

// ResponseType returns the type of the response as reported by the engine,
// one of "json", "text" or "blob", or an empty string if no response has been
// received.
func (r *Request) ResponseType() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.responseType
}

// Timeout returns the transfer timeout in milliseconds. Zero means no timeout.
func (r *Request) Timeout() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.timeout
}

// SetTimeout sets the transfer timeout, in seconds. It applies to subsequent
// calls to Send.
func (r *Request) SetTimeout(seconds float64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.timeout = int(math.Round(seconds * 1000))
}

// SetOnReadyStateChange sets a function that is called after every change to
// the ready state, before the readystatechange event is dispatched.
func (r *Request) SetOnReadyStateChange(fn func()) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.onReadyStateChange = fn
}

// SetOnAbort sets a function that is called when an abort takes effect,
// before the abort or error event is dispatched.
func (r *Request) SetOnAbort(fn func()) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.onAbort = fn
}

// Upload returns the event target for request body events.
func (r *Request) Upload() *event.Target {
	return &r.upload
}

// Task returns the transfer in flight, or nil if there is none.
func (r *Request) Task() fetch.Task {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.task
}

// owns returns true if t is the transfer in flight.
func (r *Request) owns(t fetch.Task) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.task == t
}

func (r *Request) headerReceived(t fetch.Task, s fetch.StateChange) {
	r.logger.Debug().
		Str("task", t.ID()).
		Str("state", s.State).
		Int("status", s.Status).
		Msg("headers received")

	r.mutex.Lock()
	if r.task != t || s.State != "2" {
		r.mutex.Unlock()
		return
	}

	r.responseURL = s.URL
	r.responseHeaders = s.Headers.Clone()
	r.status = s.Status
	r.statusText = s.StatusText
	r.responseType = s.RespType
	r.mutex.Unlock()

	r.dispatchReadyStateChange(HeadersReceived)
}

func (r *Request) onError(t fetch.Task, err error) {
	r.mutex.Lock()
	if r.task != t {
		r.mutex.Unlock()
		return
	}

	r.task = nil
	r.sendFlag = false
	r.status = statusFromError(err)
	r.statusText = err.Error()
	r.mutex.Unlock()

	r.logger.Debug().Str("task", t.ID()).Err(err).Msg("transfer failed")

	if isTimeout(err) {
		r.Dispatch(event.Timeout, err)
	}
	r.Dispatch(event.Error, err)
	r.Dispatch(event.LoadEnd, nil)
	r.dispatchReadyStateChange(Done)
	r.clearListeners()
}

func (r *Request) onDone(t fetch.Task, res *fetch.Result) {
	r.mutex.Lock()
	if r.task != t {
		r.mutex.Unlock()
		return
	}

	r.task = nil
	r.sendFlag = false

	text, hasText, response, err := decodeResponse(res, r.responseType)
	r.responseText = text
	r.hasText = hasText
	r.response = response
	r.mutex.Unlock()

	if err != nil {
		r.logger.Debug().Str("task", t.ID()).Err(err).Msg("unable to decode response")
		r.Dispatch(event.Error, err)
	} else {
		r.logger.Debug().Str("task", t.ID()).Msg("done")
		r.Dispatch(event.Load, nil)
	}

	r.Dispatch(event.LoadEnd, nil)
	r.dispatchReadyStateChange(Done)
	r.clearListeners()
}

// dispatchReadyStateChange moves the request to state s, then notifies the
// handler and listeners.
func (r *Request) dispatchReadyStateChange(s ReadyState) {
	r.mutex.Lock()
	r.readyState = s
	fn := r.onReadyStateChange
	r.mutex.Unlock()

	if fn != nil {
		fn()
	}

	r.Dispatch(event.ReadyStateChange, s)
}

func (r *Request) clearListeners() {
	r.Clear()
	r.upload.Clear()
}

// coerceBody converts a request body into a form accepted by the engine.
func coerceBody(body interface{}) (interface{}, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string, []byte:
		return b, nil
	case *blob.Blob:
		if b == nil {
			return nil, nil
		}
		return fetch.Wrap(b.Ref), nil
	case blob.Blob:
		return fetch.Wrap(b.Ref), nil
	}

	switch reflect.ValueOf(body).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Ptr, reflect.Interface:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{
				Kind:    TypeError,
				Message: fmt.Sprintf("unable to serialize request body of type %T", body),
				Err:     err,
			}
		}
		return string(data), nil
	default:
		return fmt.Sprint(body), nil
	}
}

var (
	statusPattern  = regexp.MustCompile(`\d+`)
	timeoutPattern = regexp.MustCompile(`timed\sout|timedout`)
)

// statusFromError returns the first number that appears in the message of err,
// or 404 if there is none.
func statusFromError(err error) int {
	if m := statusPattern.FindString(err.Error()); m != "" {
		if n, e := strconv.Atoi(m); e == nil {
			return n
		}
	}

	return 404
}

// isTimeout returns true if err describes a timeout.
func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return true
	}

	return timeoutPattern.MatchString(err.Error())
}
