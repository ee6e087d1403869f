package cmd_test

import (
	"context"
	"crypto/tls"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/icecave/fetchblob/blob"
	"github.com/icecave/fetchblob/cmd"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
)

var _ = Describe("GetConfigFromEnvironment", func() {
	var saved map[string]*string

	setenv := func(key, value string) {
		if _, ok := saved[key]; !ok {
			if v, ok := os.LookupEnv(key); ok {
				saved[key] = &v
			} else {
				saved[key] = nil
			}
		}
		os.Setenv(key, value)
	}

	BeforeEach(func() {
		saved = map[string]*string{}
	})

	AfterEach(func() {
		for k, v := range saved {
			if v == nil {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, *v)
			}
		}
	})

	It("reads values from the environment", func() {
		setenv("PORT", "9000")
		setenv("PROXY_PROTOCOL", "true")
		setenv("REQUEST_TIMEOUT", "1500ms")
		setenv("TLS_MIN_VERSION", "v1.2")
		setenv("BLOB_STORE", "Redis")
		setenv("REDIS_BLOB_TTL", "5m")
		setenv("LOG_MAX_SIZE_MB", "7")

		config := cmd.GetConfigFromEnvironment()

		Expect(config.Port).To(Equal("9000"))
		Expect(config.ProxyProtocol).To(BeTrue())
		Expect(config.Timeout).To(Equal(1500 * time.Millisecond))
		Expect(config.MinTLSVersion).To(BeEquivalentTo(tls.VersionTLS12))
		Expect(config.Store.Kind).To(Equal("redis"))
		Expect(config.Store.RedisTTL).To(Equal(5 * time.Minute))
		Expect(config.Log.MaxSizeMB).To(Equal(7))
	})

	It("falls back to the default for malformed durations", func() {
		setenv("REDIS_BLOB_TTL", "soon")

		config := cmd.GetConfigFromEnvironment()

		Expect(config.Store.RedisTTL).To(Equal(time.Hour))
	})

	DescribeTable(
		"it parses TLS versions",
		func(value string, expected uint16) {
			setenv("TLS_MIN_VERSION", value)
			Expect(cmd.GetConfigFromEnvironment().MinTLSVersion).To(Equal(expected))
		},
		Entry("1.0", "tlsv1.0", uint16(tls.VersionTLS10)),
		Entry("1.1", "1.1", uint16(tls.VersionTLS11)),
		Entry("1.3", "1_3", uint16(tls.VersionTLS13)),
		Entry("unknown", "ssl3", uint16(0)),
	)
})

var _ = Describe("NewStore", func() {
	It("returns a file store by default", func() {
		config := &cmd.Config{}
		config.Store.Dir = "/var/tmp/blobs"

		store, err := cmd.NewStore(context.Background(), config)
		Expect(err).NotTo(HaveOccurred())
		Expect(store).To(Equal(&blob.FileStore{Dir: "/var/tmp/blobs"}))
	})

	It("returns a redis store", func() {
		server, err := miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		defer server.Close()

		config := &cmd.Config{}
		config.Store.Kind = "redis"
		config.Store.RedisAddress = server.Addr()
		config.Store.RedisPrefix = "test:"
		config.Store.RedisTTL = time.Minute

		store, err := cmd.NewStore(context.Background(), config)
		Expect(err).NotTo(HaveOccurred())

		rs, ok := store.(*blob.RedisStore)
		Expect(ok).To(BeTrue())
		Expect(rs.Prefix).To(Equal("test:"))
		Expect(rs.TTL).To(Equal(time.Minute))
	})

	It("fails when redis is unreachable", func() {
		server, err := miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		addr := server.Addr()
		server.Close()

		config := &cmd.Config{}
		config.Store.Kind = "redis"
		config.Store.RedisAddress = addr

		_, err = cmd.NewStore(context.Background(), config)
		Expect(err).To(MatchError(ContainSubstring("unable to connect to redis")))
	})

	It("fails for an unknown store", func() {
		config := &cmd.Config{}
		config.Store.Kind = "tape"

		_, err := cmd.NewStore(context.Background(), config)
		Expect(err).To(MatchError("unknown blob store 'tape'"))
	})
})

var _ = Describe("NewLogger", func() {
	It("uses the configured level", func() {
		config := &cmd.Config{}
		config.Log.Level = "debug"

		Expect(cmd.NewLogger(config).GetLevel()).To(Equal(zerolog.DebugLevel))
	})

	It("defaults to info for an unknown level", func() {
		config := &cmd.Config{}
		config.Log.Level = "chatty"

		Expect(cmd.NewLogger(config).GetLevel()).To(Equal(zerolog.InfoLevel))
	})
})
