package fetch

import (
	"context"
	"errors"
	"io"
	"io/ioutil"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"go.uber.org/multierr"
)

// transfer performs the HTTP exchange for a single task.
type transfer struct {
	client  *Client
	config  Config
	method  string
	url     string
	headers Header
	body    interface{}
}

func (tr *transfer) run(ctx context.Context, t *task) (*Result, error) {
	startedAt := time.Now()
	logger := tr.client.Logger.With().
		Str("task", t.id).
		Str("method", tr.method).
		Str("url", tr.url).
		Logger()

	if tr.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tr.timeout())
		defer cancel()
	}

	result, err := tr.exchange(ctx, t)
	if err != nil {
		err = tr.classify(ctx, err)
		logger.Warn().Err(err).Dur("elapsed", time.Since(startedAt)).Msg("transfer failed")
		return nil, err
	}

	logger.Info().
		Str("kind", string(result.Kind)).
		Str("received", humanize.Bytes(uint64(result.Size))).
		Dur("elapsed", time.Since(startedAt)).
		Msg("transfer complete")

	return result, nil
}

func (tr *transfer) exchange(ctx context.Context, t *task) (*Result, error) {
	u, err := normalizeURL(tr.url)
	if err != nil {
		return nil, err
	}

	body, size, err := tr.openBody(ctx)
	if err != nil {
		return nil, err
	}

	if body != nil && size == 0 {
		if err := body.Close(); err != nil {
			return nil, err
		}
		body = nil
	}

	if body != nil {
		body = &progressReader{
			ReadCloser: body,
			total:      size,
			report: func(sent, total int64) {
				t.emit(func(h hooks) {
					if h.uploadProgress != nil {
						h.uploadProgress(sent, total)
					}
				})
			},
		}
	}

	req, err := http.NewRequestWithContext(ctx, tr.method, u.String(), body)
	if err != nil {
		if body != nil {
			err = multierr.Append(err, body.Close())
		}
		return nil, err
	}

	if body != nil {
		req.ContentLength = size
	}

	for _, f := range tr.headers {
		// Assigned directly so that the caller's spelling of the name is sent
		// as-is rather than canonicalized.
		req.Header[f.Name] = []string{f.Value}
	}

	res, err := tr.client.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	state := StateChange{
		State:      "2",
		Status:     res.StatusCode,
		StatusText: strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)+" "),
		Headers:    responseHeaders(res.Header),
		RespType:   responseType(res.Header),
		URL:        res.Request.URL.String(),
	}

	t.emit(func(h hooks) {
		if h.stateChange != nil {
			h.stateChange(state)
		}
	})

	r := &progressReader{
		ReadCloser: res.Body,
		total:      res.ContentLength,
		report: func(received, total int64) {
			t.emit(func(h hooks) {
				if h.progress != nil {
					h.progress(received, total)
				}
			})
		},
	}

	contentType := res.Header.Get("Content-Type")

	if tr.config.FileCache || (tr.config.Auto && state.RespType == RespTypeBlob) {
		ref, n, err := tr.client.store.Put(ctx, r, res.ContentLength, contentType)
		if err != nil {
			return nil, err
		}

		return &Result{
			Kind:        KindPath,
			Ref:         ref,
			Store:       tr.client.store,
			Size:        n,
			ContentType: contentType,
		}, nil
	}

	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return &Result{
		Kind:        KindBase64,
		Data:        data,
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

// openBody returns a reader for the request body and its length.
func (tr *transfer) openBody(ctx context.Context) (io.ReadCloser, int64, error) {
	switch body := tr.body.(type) {
	case nil:
		return nil, 0, nil
	case string:
		if ref, ok := Unwrap(body); ok {
			return tr.client.store.Open(ctx, ref)
		}
		return ioutil.NopCloser(strings.NewReader(body)), int64(len(body)), nil
	case []byte:
		return ioutil.NopCloser(strings.NewReader(string(body))), int64(len(body)), nil
	default:
		return nil, 0, unsupportedBody(body)
	}
}

// discard removes the staged payload of a result that will never be
// delivered.
func (tr *transfer) discard(result *Result) {
	if result.Kind != KindPath {
		return
	}

	if err := result.Store.Remove(context.Background(), result.Ref); err != nil {
		tr.client.Logger.Warn().Err(err).Str("ref", result.Ref).Msg("unable to discard staged payload")
	}
}

// classify converts timeouts into a TimeoutError.
func (tr *transfer) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{After: tr.timeout(), Err: err}
	}

	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return &TimeoutError{After: tr.timeout(), Err: err}
	}

	return err
}

func (tr *transfer) timeout() time.Duration {
	return time.Duration(tr.config.Timeout) * time.Millisecond
}

// responseHeaders flattens h into a Header, sorted by name.
func responseHeaders(h http.Header) Header {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make(Header, 0, len(names))
	for _, name := range names {
		headers = append(headers, Field{name, strings.Join(h[name], ", ")})
	}

	return headers
}
