// Package blob provides an opaque handle to binary payloads that are staged
// outside of memory, and the stores that hold them.
package blob

import (
	"context"
	"errors"
	"io"
	"io/ioutil"
)

// ErrNotFound is returned when a reference does not identify a staged payload.
var ErrNotFound = errors.New("blob not found")

// Store stages binary payloads.
type Store interface {
	// Put copies r into the store. size is the expected length of the payload,
	// or -1 if it is unknown. It returns a reference to the staged payload and
	// the number of bytes copied.
	Put(ctx context.Context, r io.Reader, size int64, contentType string) (ref string, n int64, err error)

	// Open returns a reader for the payload identified by ref, along with its
	// size.
	Open(ctx context.Context, ref string) (io.ReadCloser, int64, error)

	// Remove deletes the payload identified by ref.
	Remove(ctx context.Context, ref string) error
}

// Blob is a handle to a staged binary payload.
type Blob struct {
	// Ref identifies the payload within Store. For a FileStore it is the path
	// of the staged file.
	Ref string

	// Size is the length of the payload in bytes, or -1 if it is unknown.
	Size int64

	// Type is the MIME type of the payload, if known.
	Type string

	// Store holds the payload.
	Store Store
}

// Create stages the content of r in store and returns a Blob referring to it.
func Create(
	ctx context.Context,
	store Store,
	r io.Reader,
	contentType string,
) (*Blob, error) {
	ref, n, err := store.Put(ctx, r, -1, contentType)
	if err != nil {
		return nil, err
	}

	return &Blob{
		Ref:   ref,
		Size:  n,
		Type:  contentType,
		Store: store,
	}, nil
}

// Open returns a reader for the blob's payload.
func (b *Blob) Open(ctx context.Context) (io.ReadCloser, error) {
	r, _, err := b.Store.Open(ctx, b.Ref)
	return r, err
}

// Bytes reads the entire payload into memory.
func (b *Blob) Bytes(ctx context.Context) ([]byte, error) {
	r, err := b.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return ioutil.ReadAll(r)
}

// Close removes the staged payload. The blob must not be used afterwards.
func (b *Blob) Close(ctx context.Context) error {
	return b.Store.Remove(ctx, b.Ref)
}
