package infra

import (
	"context"
	"net"
	"net/http"
	"time"
)

// HTTPServer wraps http.Server with start and stop helpers. The write
// timeout must outlast the slowest provider round trip: a transcription
// request blocks on the upstream call before the first response byte.
type HTTPServer struct {
	srv *http.Server
}

// NewHTTPServer builds the server from config-driven timeouts.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{srv: &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}}
}

// Start blocks serving requests until the listener closes.
func (s *HTTPServer) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
