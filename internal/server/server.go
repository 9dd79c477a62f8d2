// Package server runs the docservice HTTP listener.
//
// The server owns the listener and the http.Server; routing lives in
// package handler. Shutdown stops accepting connections and waits for
// in-flight requests up to the configured drain timeout.
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

	"github.com/xtxerr/docservice/config"
	"github.com/xtxerr/docservice/internal/logging"
)

var log = logging.Component("server")

// =============================================================================
// Server Configuration
// =============================================================================

// Config holds server configuration.
type Config struct {
	// Handler serves every request (required).
	Handler http.Handler

	// Listen is the address to listen on (e.g., "0.0.0.0:3000").
	Listen string

	// TLS configuration (optional).
	TLSCertFile string
	TLSKeyFile  string

	// Timeouts. Zero uses the defaults from package config.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DrainTimeout time.Duration
}

// =============================================================================
// Server
// =============================================================================

// Server is the docservice HTTP server.
type Server struct {
	cfg Config
	srv *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// New creates a new server.
func New(cfg Config) *Server {
	// Apply defaults
	if cfg.Listen == "" {
		cfg.Listen = config.DefaultListen
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = time.Duration(config.DefaultReadTimeoutSec) * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = time.Duration(config.DefaultWriteTimeoutSec) * time.Second
	}
	if cfg.DrainTimeout == 0 {
		cfg.DrainTimeout = time.Duration(config.DefaultDrainTimeoutSec) * time.Second
	}

	return &Server{
		cfg: cfg,
		srv: &http.Server{
			Handler:           cfg.Handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		},
	}
}

// Listen binds the configured address, with TLS when a certificate pair is
// configured.
func (s *Server) Listen() error {
	var ln net.Listener
	var err error

	if s.cfg.TLSCertFile != "" && s.cfg.TLSKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("load TLS cert: %w", err)
		}
		tlsCfg := &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		ln, err = tls.Listen("tcp", s.cfg.Listen, tlsCfg)
		if err != nil {
			return fmt.Errorf("TLS listen: %w", err)
		}
		log.Info("listening with TLS", "address", ln.Addr().String())
	} else {
		ln, err = net.Listen("tcp", s.cfg.Listen)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		log.Info("listening without TLS", "address", ln.Addr().String())
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens (unless Listen was already called) and serves until ctx is
// cancelled, then shuts down gracefully. It returns nil after a clean
// shutdown.
func (s *Server) Run(ctx context.Context) error {
	if s.Addr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	if err := s.Shutdown(); err != nil {
		return err
	}
	<-errCh
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	log.Info("shutting down", "drain_timeout", s.cfg.DrainTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.DrainTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		// Drain timed out; cut the remaining connections.
		s.srv.Close()
		return fmt.Errorf("drain: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
