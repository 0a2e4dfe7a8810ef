package server

import (
	"io"
	"net/http"

	"github.com/henvic/httpretty"
)

func traceMiddleware(out io.Writer, colors bool) func(http.Handler) http.Handler {
	logger := &httpretty.Logger{
		Time:            true,
		TLS:             true,
		Colors:          colors,
		RequestHeader:   true,
		RequestBody:     true,
		ResponseHeader:  true,
		ResponseBody:    true,
		Formatters:      []httpretty.Formatter{&httpretty.JSONFormatter{}},
		MaxResponseBody: 50000,
	}
	logger.SetOutput(out)
	return logger.Middleware
}
