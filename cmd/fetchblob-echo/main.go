package main

import (
	"net"
	"net/http"

	"github.com/icecave/fetchblob/cmd"
	"github.com/icecave/fetchblob/echo"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func main() {
	config := cmd.GetConfigFromEnvironment()
	logger := cmd.NewLogger(config)

	var handler http.Handler = &echo.Handler{
		PublicDir: config.PublicDir,
		Logger:    logger,
	}

	if config.H2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	listener, err := net.Listen("tcp", ":"+config.Port)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to listen")
	}

	if config.ProxyProtocol {
		listener = echo.NewListener(listener)
	}

	logger.Info().
		Str("port", config.Port).
		Bool("proxy_protocol", config.ProxyProtocol).
		Bool("h2c", config.H2C).
		Msg("listening")

	server := &http.Server{
		Handler: handler,
	}

	if err := server.Serve(listener); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
