package session_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/store"
)

const testSecret = "test-secret-key-that-is-long-enough"

func newCookies(t *testing.T) *cookie.Manager {
	t.Helper()
	m, err := cookie.New([]string{testSecret})
	require.NoError(t, err)
	return m
}

// newManager builds a manager over the memory driver unless mutate says otherwise.
func newManager(t *testing.T, mutate func(*session.Config), opts ...session.Option) *session.Manager {
	t.Helper()

	cfg := session.DefaultConfig()
	cfg.Driver = session.DriverMemory
	cfg.File.Location = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}

	base := []session.Option{
		session.WithCookieManager(newCookies(t)),
		session.WithLogger(slog.New(slog.DiscardHandler)),
	}
	m, err := session.NewManager(cfg, append(base, opts...)...)
	require.NoError(t, err)
	return m
}

// requestWith returns a GET request carrying cookies.
func requestWith(cookies []*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

// record decodes the memory record stored under id.
func record(t *testing.T, table *session.MemoryTable, id string) (map[string]any, bool) {
	t.Helper()
	data, ok := table.Get(id)
	if !ok {
		return nil, false
	}
	st, err := store.Decode(data)
	require.NoError(t, err)
	return st.All(), true
}

// browser replays cookies between requests the way a user agent would.
type browser struct {
	handler http.Handler
	jar     map[string]*http.Cookie
}

func newBrowser(h http.Handler) *browser {
	return &browser{handler: h, jar: make(map[string]*http.Cookie)}
}

func (b *browser) do(r *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.jar {
		r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, r)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.jar, c.Name)
			continue
		}
		b.jar[c.Name] = c
	}
	return rec
}

type counters struct {
	reads, writes, touches, destroys atomic.Int32
}

// countingDriver wraps a driver and counts calls.
type countingDriver struct {
	session.Driver
	c *counters
}

func (d countingDriver) Read(ctx context.Context, id string) (string, bool, error) {
	d.c.reads.Add(1)
	return d.Driver.Read(ctx, id)
}

func (d countingDriver) Write(ctx context.Context, id, data string) error {
	d.c.writes.Add(1)
	return d.Driver.Write(ctx, id, data)
}

func (d countingDriver) Touch(ctx context.Context, id string) error {
	d.c.touches.Add(1)
	return d.Driver.Touch(ctx, id)
}

func (d countingDriver) Destroy(ctx context.Context, id string) error {
	d.c.destroys.Add(1)
	return d.Driver.Destroy(ctx, id)
}

// countingManager returns a manager whose "counting" driver wraps a memory table.
func countingManager(t *testing.T) (*session.Manager, *counters, *session.MemoryTable) {
	t.Helper()
	c := &counters{}
	table := session.NewMemoryTable()
	m := newManager(t,
		func(cfg *session.Config) { cfg.Driver = "counting" },
		session.WithDriver("counting", func(session.Resolved, http.ResponseWriter, *http.Request) (session.Driver, error) {
			return countingDriver{Driver: session.NewMemoryDriver(table), c: c}, nil
		}),
	)
	return m, c, table
}

// stubDriver answers Read with fixed results.
type stubDriver struct {
	*session.MemoryDriver
	data    string
	found   bool
	readErr error
}

func (d *stubDriver) Read(context.Context, string) (string, bool, error) {
	return d.data, d.found, d.readErr
}
