// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/z5labs/typedapi/config"
)

// DefaultAddr is the address [TCPListener] binds when none is configured.
const DefaultAddr = ":8080"

// TCPListener returns a reader which binds a TCP listener on the address
// read from addr, falling back to [DefaultAddr].
func TCPListener(addr config.Reader[string]) config.Reader[net.Listener] {
	return config.ReaderFunc[net.Listener](func(ctx context.Context) (config.Value[net.Listener], error) {
		a := config.MustOr(ctx, DefaultAddr, addr)

		ln, err := net.Listen("tcp", a)
		if err != nil {
			return config.Value[net.Listener]{}, err
		}
		return config.ValueOf(ln), nil
	})
}

// AddrFromEnv reads the listen address from TYPEDAPI_HTTP_ADDR.
func AddrFromEnv() config.Reader[string] {
	return config.Env("TYPEDAPI_HTTP_ADDR")
}

// Server holds the settings of the [http.Server] an [Api] is served with.
type Server struct {
	Listener          config.Reader[net.Listener]
	ReadTimeout       config.Reader[time.Duration]
	ReadHeaderTimeout config.Reader[time.Duration]
	WriteTimeout      config.Reader[time.Duration]
	IdleTimeout       config.Reader[time.Duration]
	MaxHeaderBytes    config.Reader[int]
}

// ServerOption configures a [Server].
type ServerOption func(*Server)

// ReadTimeout sets the maximum duration for reading an entire request. The default is 5 seconds.
func ReadTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(s *Server) {
		s.ReadTimeout = d
	}
}

// ReadHeaderTimeout sets the maximum duration for reading request headers. The default is 2 seconds.
func ReadHeaderTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(s *Server) {
		s.ReadHeaderTimeout = d
	}
}

// WriteTimeout sets the maximum duration for writing a response. The default is 10 seconds.
func WriteTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(s *Server) {
		s.WriteTimeout = d
	}
}

// IdleTimeout sets how long keep-alive connections may idle. The default is 120 seconds.
func IdleTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(s *Server) {
		s.IdleTimeout = d
	}
}

// MaxHeaderBytes limits the size of request headers. The default is 1 MB.
func MaxHeaderBytes(n config.Reader[int]) ServerOption {
	return func(s *Server) {
		s.MaxHeaderBytes = n
	}
}

// TimeoutsFromEnv reads every timeout from the TYPEDAPI_HTTP_*_TIMEOUT
// environment variables, e.g. TYPEDAPI_HTTP_READ_TIMEOUT=5s.
func TimeoutsFromEnv() ServerOption {
	return func(s *Server) {
		s.ReadTimeout = config.DurationFromString(config.Env("TYPEDAPI_HTTP_READ_TIMEOUT"))
		s.ReadHeaderTimeout = config.DurationFromString(config.Env("TYPEDAPI_HTTP_READ_HEADER_TIMEOUT"))
		s.WriteTimeout = config.DurationFromString(config.Env("TYPEDAPI_HTTP_WRITE_TIMEOUT"))
		s.IdleTimeout = config.DurationFromString(config.Env("TYPEDAPI_HTTP_IDLE_TIMEOUT"))
	}
}

// NewServer returns a [Server] listening on ln. Every setting which is not
// configured by an option falls back to its default.
func NewServer(ln config.Reader[net.Listener], opts ...ServerOption) Server {
	s := Server{
		Listener:          ln,
		ReadTimeout:       config.EmptyReader[time.Duration](),
		ReadHeaderTimeout: config.EmptyReader[time.Duration](),
		WriteTimeout:      config.EmptyReader[time.Duration](),
		IdleTimeout:       config.EmptyReader[time.Duration](),
		MaxHeaderBytes:    config.EmptyReader[int](),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Serve serves h until ctx is cancelled and then shuts down gracefully.
// It returns nil after a clean shutdown.
func (s Server) Serve(ctx context.Context, h http.Handler) error {
	ln, err := config.Read(ctx, s.Listener)
	if err != nil {
		return fmt.Errorf("server: failed to read listener: %w", err)
	}

	srv := &http.Server{
		Handler:           h,
		ReadTimeout:       config.MustOr(ctx, 5*time.Second, s.ReadTimeout),
		ReadHeaderTimeout: config.MustOr(ctx, 2*time.Second, s.ReadHeaderTimeout),
		WriteTimeout:      config.MustOr(ctx, 10*time.Second, s.WriteTimeout),
		IdleTimeout:       config.MustOr(ctx, 120*time.Second, s.IdleTimeout),
		MaxHeaderBytes:    config.MustOr(ctx, 1048576, s.MaxHeaderBytes),
	}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		return srv.Serve(ln)
	})
	p.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return srv.Shutdown(context.Background())
	})

	err = p.Wait()
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
