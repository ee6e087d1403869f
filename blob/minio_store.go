package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/multierr"
)

// MinioStore stages payloads as objects in an S3-compatible bucket.
type MinioStore struct {
	Client *minio.Client
	Bucket string

	// Prefix is prepended to the name of each object.
	Prefix string
}

// NewMinioStore returns a MinioStore for the given bucket, creating the bucket
// if it does not already exist.
func NewMinioStore(
	ctx context.Context,
	endpoint, region, bucket, accessKeyID, secretAccessKey string,
	useSSL bool,
) (*MinioStore, error) {
	c, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	ok, err := c.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}

	if !ok {
		if err := c.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &MinioStore{
		Client: c,
		Bucket: bucket,
	}, nil
}

// Put uploads r as a new object.
func (s *MinioStore) Put(
	ctx context.Context,
	r io.Reader,
	size int64,
	contentType string,
) (string, int64, error) {
	name := s.Prefix + uuid.New().String()

	info, err := s.Client.PutObject(
		ctx,
		s.Bucket,
		name,
		r,
		size,
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", 0, err
	}

	return name, info.Size, nil
}

// Open downloads the object named ref.
func (s *MinioStore) Open(ctx context.Context, ref string) (io.ReadCloser, int64, error) {
	obj, err := s.Client.GetObject(ctx, s.Bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, s.translate(err, ref)
	}

	info, err := obj.Stat()
	if err != nil {
		return nil, 0, multierr.Append(s.translate(err, ref), obj.Close())
	}

	return obj, info.Size, nil
}

// Remove deletes the object named ref.
func (s *MinioStore) Remove(ctx context.Context, ref string) error {
	return s.translate(
		s.Client.RemoveObject(ctx, s.Bucket, ref, minio.RemoveObjectOptions{}),
		ref,
	)
}

func (s *MinioStore) translate(err error, ref string) error {
	if err == nil {
		return nil
	}

	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}

	return err
}
