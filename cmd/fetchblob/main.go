package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/icecave/fetchblob/blob"
	"github.com/icecave/fetchblob/cmd"
	"github.com/icecave/fetchblob/event"
	"github.com/icecave/fetchblob/fetch"
	"github.com/icecave/fetchblob/xhr"
	"github.com/tidwall/gjson"
)

type headerFlags []string

func (h *headerFlags) String() string {
	return strings.Join(*h, ", ")
}

func (h *headerFlags) Set(v string) error {
	*h = append(*h, v)
	return nil
}

func main() {
	var (
		method  = flag.String("X", "GET", "request method")
		body    = flag.String("d", "", "request body, or @path to send a file")
		asJSON  = flag.Bool("json", false, "print the response as indented JSON")
		headers headerFlags
	)
	flag.Var(&headers, "H", "request header as 'Name: value' (repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: fetchblob [-X method] [-H 'Name: value']... [-d body] [-json] URL\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	config := cmd.GetConfigFromEnvironment()
	logger := cmd.NewLogger(config)
	ctx := context.Background()

	store, err := cmd.NewStore(ctx, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to create blob store")
	}

	client := &fetch.Client{
		Store:         store,
		ProxyProtocol: config.ProxyProtocol,
		H2C:           config.H2C,
		TLSConfig:     &tls.Config{MinVersion: config.MinTLSVersion},
		Logger:        logger,
	}

	req := xhr.New(client, xhr.WithLogger(logger))
	req.SetTimeout(config.Timeout.Seconds())

	done := make(chan struct{})
	trace(req, done)

	req.Open(*method, flag.Arg(0))

	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			logger.Fatal().Str("header", h).Msg("header must be in the form 'Name: value'")
		}

		if err := req.SetRequestHeader(strings.TrimSpace(name), strings.TrimSpace(value)); err != nil {
			logger.Fatal().Err(err).Msg("invalid header")
		}
	}

	payload, err := requestBody(ctx, store, *body)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to read request body")
	}

	if err := req.Send(payload); err != nil {
		releaseBody(ctx, payload)
		logger.Fatal().Err(err).Msg("unable to send request")
	}

	<-done

	if err := releaseBody(ctx, payload); err != nil {
		logger.Warn().Err(err).Msg("unable to remove staged request body")
	}

	if err := printResponse(ctx, req, *asJSON); err != nil {
		logger.Fatal().Err(err).Msg("unable to print response")
	}

	if req.Status() >= 400 {
		os.Exit(1)
	}
}

// trace prints each event dispatched by req to stderr, and closes done when
// the request is complete.
func trace(req *xhr.Request, done chan<- struct{}) {
	printer := func(prefix string) event.Listener {
		return func(ev event.Event) {
			line := fmt.Sprintf("%s%-16s %s", prefix, ev.Type, req.ReadyState())

			switch d := ev.Detail.(type) {
			case event.ProgressDetail:
				if d.LengthComputable {
					line += fmt.Sprintf(" %s / %s", humanize.Bytes(uint64(d.Loaded)), humanize.Bytes(uint64(d.Total)))
				} else {
					line += " " + humanize.Bytes(uint64(d.Loaded))
				}
			case error:
				line += " " + d.Error()
			}

			fmt.Fprintln(os.Stderr, line)
		}
	}

	for _, name := range []string{
		event.ReadyStateChange,
		event.Progress,
		event.Load,
		event.Abort,
		event.Error,
		event.Timeout,
		event.LoadEnd,
	} {
		req.AddListener(name, printer(""))
	}

	for _, name := range []string{event.LoadStart, event.Progress, event.Load} {
		req.Upload().AddListener(name, printer("upload "))
	}

	req.SetOnReadyStateChange(func() {
		if req.ReadyState() == xhr.Done {
			close(done)
		}
	})
}

// requestBody returns the body to send for the -d flag. A value beginning with
// "@" names a file, which is sent as a blob.
func requestBody(ctx context.Context, store blob.Store, v string) (interface{}, error) {
	if v == "" {
		return nil, nil
	}

	if !strings.HasPrefix(v, "@") {
		return v, nil
	}

	f, err := os.Open(strings.TrimPrefix(v, "@"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return blob.Create(ctx, store, f, "application/octet-stream")
}

// releaseBody removes a request body staged by requestBody.
func releaseBody(ctx context.Context, payload interface{}) error {
	if b, ok := payload.(*blob.Blob); ok {
		return b.Close(ctx)
	}

	return nil
}

func printResponse(ctx context.Context, req *xhr.Request, asJSON bool) error {
	fmt.Fprintf(os.Stderr, "%d %s\n", req.Status(), req.StatusText())
	fmt.Fprint(os.Stderr, req.GetAllResponseHeaders())

	switch r := req.Response().(type) {
	case *blob.Blob:
		defer r.Close(ctx)

		rc, err := r.Open(ctx)
		if err != nil {
			return err
		}
		defer rc.Close()

		fmt.Fprintf(os.Stderr, "(%s staged as %s)\n", humanize.Bytes(uint64(r.Size)), r.Ref)
		_, err = io.Copy(os.Stdout, rc)
		return err

	case nil:
		return nil

	default:
		text, ok := req.ResponseText()
		if !ok {
			return nil
		}

		if asJSON && gjson.Valid(text) {
			text = gjson.Get(text, "@pretty").String()
		}

		fmt.Fprintln(os.Stdout, text)
		return nil
	}
}
