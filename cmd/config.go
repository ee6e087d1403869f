package cmd

import (
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration values for commands.
type Config struct {
	Port          string
	PublicDir     string
	ProxyProtocol bool
	H2C           bool
	Timeout       time.Duration
	MinTLSVersion uint16
	Store         storeConfig
	Log           logConfig
}

type storeConfig struct {
	Kind           string
	Dir            string
	RedisAddress   string
	RedisPassword  string
	RedisPrefix    string
	RedisTTL       time.Duration
	MinioEndpoint  string
	MinioRegion    string
	MinioBucket    string
	MinioAccessKey string
	MinioSecretKey string
	MinioPrefix    string
	MinioSSL       bool
}

type logConfig struct {
	Level     string
	File      string
	MaxSizeMB int
	Console   bool
}

// GetConfigFromEnvironment creates Config object based on the shell environment.
func GetConfigFromEnvironment() *Config {
	return &Config{
		Port:          env("PORT", "8080"),
		PublicDir:     env("PUBLIC_DIR", ""),
		ProxyProtocol: envBool("PROXY_PROTOCOL", false),
		H2C:           envBool("H2C", false),
		Timeout:       envDuration("REQUEST_TIMEOUT", 0),
		MinTLSVersion: envTLSVersion("TLS_MIN_VERSION"),
		Store: storeConfig{
			Kind:           strings.ToLower(env("BLOB_STORE", "file")),
			Dir:            env("BLOB_DIR", ""),
			RedisAddress:   env("REDIS_ADDR", "localhost:6379"),
			RedisPassword:  env("REDIS_PASSWORD", ""),
			RedisPrefix:    env("REDIS_PREFIX", "blob:"),
			RedisTTL:       envDuration("REDIS_BLOB_TTL", time.Hour),
			MinioEndpoint:  env("MINIO_ENDPOINT", "localhost:9000"),
			MinioRegion:    env("MINIO_REGION", ""),
			MinioBucket:    env("MINIO_BUCKET", "fetchblob"),
			MinioAccessKey: env("MINIO_ACCESS_KEY", ""),
			MinioSecretKey: env("MINIO_SECRET_KEY", ""),
			MinioPrefix:    env("MINIO_PREFIX", ""),
			MinioSSL:       envBool("MINIO_SSL", false),
		},
		Log: logConfig{
			Level:     env("LOG_LEVEL", "info"),
			File:      env("LOG_FILE", ""),
			MaxSizeMB: int(envInt("LOG_MAX_SIZE_MB", 100)),
			Console:   envBool("LOG_CONSOLE", true),
		},
	}
}

func env(key string, def string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return def
}

func envInt(key string, def int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		i, _ := strconv.ParseInt(value, 10, 64)
		return i
	}

	return def
}

func envTLSVersion(key string) uint16 {
	if value, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(value) {
		case "tlsv1.0", "v1.0", "1.0", "1_0":
			return tls.VersionTLS10
		case "tlsv1.1", "v1.1", "1.1", "1_1":
			return tls.VersionTLS11
		case "tlsv1.2", "v1.2", "1.2", "1_2":
			return tls.VersionTLS12
		case "tlsv1.3", "v1.3", "1.3", "1_3":
			return tls.VersionTLS13
		default:
			return 0
		}
	}

	return 0
}

func envBool(key string, def bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		i, _ := strconv.ParseBool(value)
		return i
	}

	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			return def
		}
		return d
	}

	return def
}
