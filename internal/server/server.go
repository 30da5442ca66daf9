// ABOUTME: TLS server bootstrap owning the listener and handshake configuration
// ABOUTME: Fails fast on any startup problem; never serves half-configured

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/inkwell-notes/inkwell/internal/config"
	"github.com/inkwell-notes/inkwell/internal/device"
)

// shutdownTimeout bounds the drain of in-flight requests on shutdown.
const shutdownTimeout = 10 * time.Second

// Server owns the TLS listener and wires every accepted connection
// through the dispatcher. It is the only component that touches the
// credential files on disk.
type Server struct {
	cfg        *config.Config
	handler    http.Handler
	logger     *slog.Logger
	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// New creates a server that authenticates requests against registry
// before delegating them to handler.
func New(cfg *config.Config, registry *device.Registry, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		handler: Dispatch(registry, handler, logger),
		logger:  logger.With("component", "server"),
	}
}

// Start binds the TLS listener and serves until ctx is cancelled. Any
// startup failure (unreadable or malformed credentials, port already
// bound) aborts before a single connection is accepted. On success it
// blocks for the lifetime of the process.
func (s *Server) Start(ctx context.Context) error {
	if err := s.listen(); err != nil {
		return err
	}
	return s.serve(ctx)
}

// listen loads the TLS credentials and binds the port. The keypair is
// parsed before the port is bound so a bad certificate never leaves a
// dangling listener behind.
func (s *Server) listen() error {
	cert, err := tls.LoadX509KeyPair(s.cfg.CertFile(), s.cfg.KeyFile())
	if err != nil {
		return fmt.Errorf("loading TLS credentials: %w", err)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("binding port %d: %w", s.cfg.Server.Port, err)
	}

	tlsLn := tls.NewListener(ln, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})

	s.mu.Lock()
	s.listener = tlsLn
	s.mu.Unlock()

	port := ln.Addr().(*net.TCPAddr).Port
	s.logger.Info("listening", "url", fmt.Sprintf("https://%s:%d/", s.cfg.Server.Host, port))
	return nil
}

// serve runs the HTTP server over the bound listener and drains it when
// ctx is cancelled.
func (s *Server) serve(ctx context.Context) error {
	s.httpServer = &http.Server{
		Handler: s.handler,
	}

	done := make(chan error, 1)
	go func() {
		done <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		<-done
		return nil
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	}
}

// Addr returns the bound listener address, or the empty string before
// listen succeeds.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
