package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = time.Second * 5

type server struct {
	inner   *http.Server
	errChan chan<- error
}

func newServer(handler http.Handler, errChan chan<- error) *server {
	return &server{
		inner: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       90 * time.Second,
		},
		errChan: errChan,
	}
}

func (s *server) start(listener net.Listener) {
	go func() {
		if err := s.inner.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errChan <- err
		}
	}()
}

func (s *server) stop(ctx context.Context) {
	timeoutCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.inner.Shutdown(timeoutCtx); err != nil {
		slog.Warn("Failed to cleanly shut down server", "error", err)
	}
}
