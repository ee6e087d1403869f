// Package fetch is an asynchronous HTTP transfer engine that understands
// staged binary payloads.
//
// A Client is configured once per request shape and hands out Tasks. Each Task
// performs one transfer on its own goroutine and reports its progress through
// hooks:
//
//	task := client.Configure(fetch.Config{Auto: true, Timeout: 5000}).
//		Fetch("GET", "https://example.org/", nil, nil)
//	task.OnStateChange(onHeaders).
//		OnProgress(onProgress).
//		OnFailure(onFailure).
//		OnSuccess(onSuccess)
//	task.Start()
package fetch

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/icecave/fetchblob/blob"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// Config holds per-request options.
type Config struct {
	// Auto stages binary responses (RespType "blob") to the blob store instead
	// of reading them into memory.
	Auto bool

	// Timeout is the maximum duration of the transfer in milliseconds. A value
	// of zero or less means no timeout.
	Timeout int

	// FileCache stages every response to the blob store, regardless of its
	// type.
	FileCache bool
}

// Fetcher starts transfers with a fixed Config.
type Fetcher interface {
	// Fetch prepares a transfer. The transfer does not begin until the
	// returned task is started.
	//
	// body may be nil, a string, or a []byte. A string produced by Wrap is
	// treated as a reference to a staged payload, which is streamed from the
	// blob store.
	Fetch(method, url string, headers Header, body interface{}) Task
}

// Client is the transfer engine.
type Client struct {
	// HTTPClient is used to perform requests. If it is nil, a client is built
	// from the remaining fields.
	HTTPClient *http.Client

	// Store holds staged request and response payloads. Defaults to a
	// FileStore in the system's temporary directory.
	Store blob.Store

	// TLSConfig is used for HTTPS connections.
	TLSConfig *tls.Config

	// ProxyProtocol causes a PROXY protocol v2 header to be written at the
	// start of each connection.
	ProxyProtocol bool

	// H2C causes requests to be sent using HTTP/2 over cleartext TCP.
	H2C bool

	Logger zerolog.Logger

	once   sync.Once
	client *http.Client
	store  blob.Store
}

// Configure returns a Fetcher that starts transfers with the given config.
func (c *Client) Configure(config Config) Fetcher {
	c.init()

	return &fetcher{
		client: c,
		config: config,
	}
}

func (c *Client) init() {
	c.once.Do(func() {
		c.store = c.Store
		if c.store == nil {
			c.store = &blob.FileStore{}
		}

		c.client = c.HTTPClient
		if c.client != nil {
			return
		}

		if c.H2C {
			c.client = &http.Client{
				Transport: &http2.Transport{
					AllowHTTP: true,
					DialTLS: func(network, addr string, _ *tls.Config) (net.Conn, error) {
						return c.dial(context.Background(), network, addr)
					},
				},
			}
			return
		}

		c.client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           c.dial,
				TLSClientConfig:       c.TLSConfig,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	})
}

type fetcher struct {
	client *Client
	config Config
}

func (f *fetcher) Fetch(method, url string, headers Header, body interface{}) Task {
	tr := &transfer{
		client:  f.client,
		config:  f.config,
		method:  method,
		url:     url,
		headers: headers.Clone(),
		body:    body,
	}

	return &task{
		id:      uuid.New().String(),
		run:     tr.run,
		discard: tr.discard,
	}
}
