package cmd

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/icecave/fetchblob/blob"
)

// NewStore returns the blob store selected by BLOB_STORE, one of "file",
// "redis" or "minio".
func NewStore(ctx context.Context, config *Config) (blob.Store, error) {
	c := config.Store

	switch c.Kind {
	case "", "file":
		return &blob.FileStore{Dir: c.Dir}, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddress,
			Password: c.RedisPassword,
		})

		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("unable to connect to redis at %s: %w", c.RedisAddress, err)
		}

		return &blob.RedisStore{
			Client: rdb,
			Prefix: c.RedisPrefix,
			TTL:    c.RedisTTL,
		}, nil

	case "minio":
		s, err := blob.NewMinioStore(
			ctx,
			c.MinioEndpoint,
			c.MinioRegion,
			c.MinioBucket,
			c.MinioAccessKey,
			c.MinioSecretKey,
			c.MinioSSL,
		)
		if err != nil {
			return nil, err
		}
		s.Prefix = c.MinioPrefix

		return s, nil

	default:
		return nil, fmt.Errorf("unknown blob store '%s'", c.Kind)
	}
}
