package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skekre98/arc/config"
	"github.com/skekre98/arc/core"
)

const Name = "web"

const shutdownCap = 10 * time.Second

// Server is the HTTP server module. Other modules add routes during their
// Configure hook; the listener opens in Start.
type Server struct {
	core.Base
	cfg    config.ServerConfig
	logger *slog.Logger
	opts   Options
	engine *gin.Engine

	mu         sync.Mutex
	configured bool
	server     *http.Server
	addr       net.Addr
}

// Options collects route and middleware registrations passed to New.
type Options struct {
	Routes      []func(r Router)
	Middlewares []Handler
}

type Option func(*Options)

// WithRoutes registers f to run once, during Configure.
func WithRoutes(f func(r Router)) Option {
	return func(o *Options) { o.Routes = append(o.Routes, f) }
}

// WithMiddlewares appends m after the built-in request-id, recovery and
// access-log middleware.
func WithMiddlewares(m ...Handler) Option {
	return func(o *Options) { o.Middlewares = append(o.Middlewares, m...) }
}

// Key is the capability the web server is published under.
func Key() core.Key { return core.KeyFor[*Server]() }

func New(cfg config.ServerConfig, logger *slog.Logger, opts ...Option) *Server {
	var options Options
	for _, o := range opts {
		o(&options)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(RecoveryProblem(logger))
	r.Use(AccessLog(logger))
	r.Use(options.Middlewares...)

	return &Server{cfg: cfg, logger: logger, opts: options, engine: r}
}

func (s *Server) Name() string { return Name }

// Routes registers routes on the engine. The engine is not safe to modify
// while serving, so call it before Start.
func (s *Server) Routes(f func(r Router)) {
	f(s.engine)
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Addr is the bound listener address, nil until Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Configure applies the routes given as options, once.
func (s *Server) Configure(core.Resolver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.configured {
		return nil
	}
	for _, reg := range s.opts.Routes {
		reg(s.engine)
	}
	s.configured = true
	return nil
}

// Serving reports whether Start has opened a listener that Stop has not
// yet closed.
func (s *Server) Serving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server != nil
}

// Start binds the listener so address errors surface here, then serves in
// the background. It is a no-op while already serving.
func (s *Server) Start(ctx context.Context, _ core.Resolver) error {
	if s.Serving() {
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("http listen %s: %w", s.cfg.Addr, err)
	}
	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.mu.Lock()
	s.server = srv
	s.addr = ln.Addr()
	s.mu.Unlock()

	go func() {
		s.logger.Info("http server starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context, _ core.Resolver) error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.addr = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownCap)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
