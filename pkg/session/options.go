package session

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithCookieManager sets the cookie manager used for the id cookie and the cookie driver.
func WithCookieManager(cookies *cookie.Manager) Option {
	return func(m *Manager) {
		m.cookies = cookies
	}
}

// WithMemoryTable shares table with the memory driver instead of a private one.
func WithMemoryTable(table *MemoryTable) Option {
	return func(m *Manager) {
		m.memory = table
	}
}

// WithRedisClient sets the client used by the redis driver.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(m *Manager) {
		m.redis = client
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.logger = log
		}
	}
}

// WithDriver registers an additional driver, or replaces a built-in one.
func WithDriver(name string, factory DriverFactory) Option {
	return func(m *Manager) {
		m.Extend(name, factory)
	}
}
