package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

// Option configures a Server.
type Option func(*options)

func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: empty address")
	}
	return func(o *options) { o.addr = addr }
}

func WithReadTimeout(d time.Duration) Option {
	mustPositive("read timeout", d)
	return func(o *options) { o.readTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	mustPositive("write timeout", d)
	return func(o *options) { o.writeTimeout = d }
}

func WithIdleTimeout(d time.Duration) Option {
	mustPositive("idle timeout", d)
	return func(o *options) { o.idleTimeout = d }
}

func WithShutdownTimeout(d time.Duration) Option {
	mustPositive("shutdown timeout", d)
	return func(o *options) { o.shutdownTimeout = d }
}

// WithServer runs the given http.Server. Its Addr and timeouts win over options
// when already set; Handler is always replaced.
func WithServer(srv *http.Server) Option {
	if srv == nil {
		panic("httpserver: nil server")
	}
	return func(o *options) { o.server = srv }
}

// WithLogger sets the logger for lifecycle messages. nil discards them.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStartHook runs h right before the server starts listening.
func WithStartHook(h func(*slog.Logger)) Option {
	if h == nil {
		panic("httpserver: nil start hook")
	}
	return func(o *options) { o.startHooks = append(o.startHooks, h) }
}

// WithStopHook runs h after the server has drained.
func WithStopHook(h func(*slog.Logger)) Option {
	if h == nil {
		panic("httpserver: nil stop hook")
	}
	return func(o *options) { o.stopHooks = append(o.stopHooks, h) }
}

func mustPositive(name string, d time.Duration) {
	if d <= 0 {
		panic("httpserver: " + name + " must be positive")
	}
}
