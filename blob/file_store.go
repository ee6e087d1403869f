package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// FileStore stages payloads as files in a directory.
//
// References produced by a FileStore are absolute file paths. Open accepts
// any readable path, so existing files can be used as request bodies without
// being copied.
type FileStore struct {
	// Dir is the directory in which payloads are staged. If it is empty, a
	// "fetchblob" directory inside os.TempDir() is used.
	Dir string
}

// Put copies r into a new file in the staging directory.
func (s *FileStore) Put(
	_ context.Context,
	r io.Reader,
	_ int64,
	_ string,
) (string, int64, error) {
	dir := s.dir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", 0, err
	}

	path := filepath.Join(dir, uuid.New().String())
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", 0, err
	}

	n, err := io.Copy(file, r)
	err = multierr.Append(err, file.Close())
	if err != nil {
		return "", n, multierr.Append(err, os.Remove(path))
	}

	return path, n, nil
}

// Open opens the file at ref.
func (s *FileStore) Open(_ context.Context, ref string) (io.ReadCloser, int64, error) {
	file, err := os.Open(ref)
	if os.IsNotExist(err) {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, ref)
	} else if err != nil {
		return nil, 0, err
	}

	info, err := file.Stat()
	if err != nil {
		return nil, 0, multierr.Append(err, file.Close())
	}

	return file, info.Size(), nil
}

// Remove deletes the file at ref.
func (s *FileStore) Remove(_ context.Context, ref string) error {
	err := os.Remove(ref)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}

	return err
}

func (s *FileStore) dir() string {
	if s.Dir != "" {
		return s.Dir
	}

	return filepath.Join(os.TempDir(), "fetchblob")
}
