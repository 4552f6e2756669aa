package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

type options struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	server          *http.Server
	logger          *slog.Logger
	startHooks      []func(*slog.Logger)
	stopHooks       []func(*slog.Logger)
}

// Server wraps http.Server with signal handling and graceful shutdown.
type Server struct {
	opts *options

	mu   sync.Mutex
	srv  *http.Server
	once sync.Once
}

// New returns a Server listening on :8080 unless configured otherwise.
func New(opts ...Option) *Server {
	o := &options{addr: ":8080", shutdownTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return &Server{opts: o}
}

// Run serves handler until ctx is done or a termination signal arrives.
// A nil handler answers 404 to everything.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	srv, err := s.prepare(handler)
	if err != nil {
		return err
	}

	for _, h := range s.opts.startHooks {
		h(s.opts.logger)
	}
	s.opts.logger.InfoContext(ctx, "http server starting", slog.String("addr", srv.Addr))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		if err := s.Shutdown(context.WithoutCancel(ctx)); err != nil {
			s.opts.logger.ErrorContext(ctx, "http server shutdown failed", slog.Any("error", err))
		}
		err = <-errCh
	case err = <-errCh:
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrStart, err)
	}
	s.opts.logger.InfoContext(ctx, "http server stopped")
	return nil
}

func (s *Server) prepare(handler http.Handler) (*http.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return nil, errors.Join(ErrStart, ErrAlreadyRunning)
	}

	srv := s.opts.server
	if srv == nil {
		srv = &http.Server{}
	}
	if srv.Addr == "" {
		srv.Addr = s.opts.addr
	}
	if srv.ReadTimeout == 0 {
		srv.ReadTimeout = s.opts.readTimeout
	}
	if srv.WriteTimeout == 0 {
		srv.WriteTimeout = s.opts.writeTimeout
	}
	if srv.IdleTimeout == 0 {
		srv.IdleTimeout = s.opts.idleTimeout
	}
	srv.Handler = handler

	s.srv = srv
	return srv, nil
}

// Shutdown drains the running server. Calls before Run and repeated calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	var err error
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, s.opts.shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)

		for _, h := range s.opts.stopHooks {
			h(s.opts.logger)
		}
	})

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}
