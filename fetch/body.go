package fetch

import (
	"fmt"
	"io"
	"strings"
)

// WrapPrefix marks a request body string as a reference to a staged payload.
const WrapPrefix = "fetchblob-file://"

// Wrap returns a request body that refers to the staged payload identified by
// ref.
func Wrap(ref string) string {
	return WrapPrefix + ref
}

// Unwrap returns the staged payload reference contained in body. ok is false if
// body was not produced by Wrap.
func Unwrap(body string) (ref string, ok bool) {
	if !strings.HasPrefix(body, WrapPrefix) {
		return "", false
	}

	return strings.TrimPrefix(body, WrapPrefix), true
}

func unsupportedBody(body interface{}) error {
	return fmt.Errorf("%w: %T", ErrUnsupportedBody, body)
}

// progressReader reports the cumulative number of bytes read from the
// underlying reader.
type progressReader struct {
	io.ReadCloser

	total  int64
	count  int64
	report func(count, total int64)
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if n > 0 {
		r.count += int64(n)
		r.report(r.count, r.total)
	}

	return n, err
}
