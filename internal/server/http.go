package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// APIServer serves the JSON API.
type APIServer struct {
	httpServer *http.Server
	health     *HealthChecker
	addr       string
	logger     *slog.Logger
}

// NewAPIServer wraps handler. There is no write timeout: POST /authenticate
// blocks until the operator finished OAuth.
func NewAPIServer(addr string, handler http.Handler, health *HealthChecker, logger *slog.Logger) *APIServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIServer{
		addr:   addr,
		health: health,
		logger: logger,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// ListenAndServe serves until ctx is done, then drains in-flight requests for
// up to DefaultShutdownTimeout.
func (s *APIServer) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.addr = ln.Addr().String()
	s.logger.Info("http server listening", slog.String("addr", s.addr))
	if s.health != nil {
		s.health.SetReady(true)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if s.health != nil {
		s.health.MarkShuttingDown()
	}
	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// Addr returns the bound address once listening, else the configured one.
func (s *APIServer) Addr() string {
	return s.addr
}
