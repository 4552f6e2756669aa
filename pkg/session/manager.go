package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Manager holds the resolved configuration and the driver registry, and
// creates one Session per request.
type Manager struct {
	config Resolved

	mu      sync.RWMutex
	drivers map[string]DriverFactory

	cookies *cookie.Manager
	memory  *MemoryTable
	redis   redis.UniversalClient
	logger  *slog.Logger
}

// NewManager resolves cfg and checks that the selected driver has what it
// needs, so misconfiguration fails at startup rather than on the first request.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		config:  resolved,
		drivers: make(map[string]DriverFactory),
		logger:  slog.Default(),
	}
	m.drivers[DriverMemory] = m.memoryDriver
	m.drivers[DriverFile] = m.fileDriver
	m.drivers[DriverRedis] = m.redisDriver
	m.drivers[DriverCookie] = m.cookieDriver

	for _, opt := range opts {
		opt(m)
	}

	m.logger = m.logger.With(logger.Component("session"))
	if m.memory == nil {
		m.memory = NewMemoryTable()
	}

	if !resolved.Enabled {
		return m, nil
	}
	if m.cookies == nil {
		return nil, ErrNoCookieManager
	}
	if _, ok := m.factory(resolved.Driver); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, resolved.Driver)
	}
	if resolved.Driver == DriverRedis && m.redis == nil {
		return nil, ErrNoRedisClient
	}
	if resolved.Driver == DriverFile {
		if _, err := NewFileDriver(resolved.File.Location, resolved.Age, m.cookies); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Extend registers factory under name. Later registrations win.
func (m *Manager) Extend(name string, factory DriverFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || factory == nil {
		return
	}
	m.mu.Lock()
	m.drivers[name] = factory
	m.mu.Unlock()
}

func (m *Manager) factory(name string) (DriverFactory, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.drivers[name]
	return f, ok
}

// IsEnabled reports whether sessions are switched on.
func (m *Manager) IsEnabled() bool {
	return m.config.Enabled
}

// Config returns the resolved configuration.
func (m *Manager) Config() Resolved {
	return m.config
}

// Memory returns the table behind the memory driver.
func (m *Manager) Memory() *MemoryTable {
	return m.memory
}

// Create returns a new uninitiated Session bound to a fresh driver for this request.
func (m *Manager) Create(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if !m.config.Enabled {
		return nil, ErrDisabled
	}
	driver, err := m.newDriver(w, r)
	if err != nil {
		return nil, err
	}
	return newSession(m.config, driver, m.cookies, w, r, m.logger), nil
}

func (m *Manager) newDriver(w http.ResponseWriter, r *http.Request) (Driver, error) {
	factory, ok := m.factory(m.config.Driver)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, m.config.Driver)
	}
	driver, err := factory(m.config, w, r)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("session: build %s driver", m.config.Driver), err)
	}
	return driver, nil
}

func (m *Manager) memoryDriver(Resolved, http.ResponseWriter, *http.Request) (Driver, error) {
	return NewMemoryDriver(m.memory), nil
}

func (m *Manager) fileDriver(cfg Resolved, _ http.ResponseWriter, _ *http.Request) (Driver, error) {
	return NewFileDriver(cfg.File.Location, cfg.Age, m.cookies)
}

func (m *Manager) redisDriver(cfg Resolved, _ http.ResponseWriter, _ *http.Request) (Driver, error) {
	if m.redis == nil {
		return nil, ErrNoRedisClient
	}
	return NewRedisDriver(m.redis, cfg.Redis.KeyPrefix, cfg.Age, m.cookies), nil
}

func (m *Manager) cookieDriver(cfg Resolved, w http.ResponseWriter, r *http.Request) (Driver, error) {
	return NewCookieDriver(m.cookies, cfg.Cookie, w, r), nil
}
