package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisStore stages payloads as Redis hashes.
type RedisStore struct {
	Client *redis.Client

	// Prefix is prepended to the key of each payload. Defaults to "blob:".
	Prefix string

	// TTL is the expiry applied to each payload. A value of zero means
	// payloads never expire.
	TTL time.Duration
}

// Put reads r into memory and stores it under a new key.
func (s *RedisStore) Put(
	ctx context.Context,
	r io.Reader,
	_ int64,
	contentType string,
) (string, int64, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return "", int64(len(data)), err
	}

	key := s.prefix() + uuid.New().String()

	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"data": data,
			"type": contentType,
		})
		if s.TTL > 0 {
			pipe.Expire(ctx, key, s.TTL)
		}
		return nil
	})
	if err != nil {
		return "", 0, err
	}

	return key, int64(len(data)), nil
}

// Open fetches the payload stored under ref.
func (s *RedisStore) Open(ctx context.Context, ref string) (io.ReadCloser, int64, error) {
	data, err := s.Client.HGet(ctx, ref, "data").Bytes()
	if err == redis.Nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, ref)
	} else if err != nil {
		return nil, 0, err
	}

	return ioutil.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

// Remove deletes the payload stored under ref.
func (s *RedisStore) Remove(ctx context.Context, ref string) error {
	n, err := s.Client.Del(ctx, ref).Result()
	if err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}

	return nil
}

func (s *RedisStore) prefix() string {
	if s.Prefix != "" {
		return s.Prefix
	}

	return "blob:"
}
