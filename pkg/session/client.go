package session

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"

	"github.com/google/uuid"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/store"
)

// Client prepares and inspects session records without serving a request.
// Tests use it to seed a session, then attach Cookies to a real request.
type Client struct {
	manager *Manager
	id      string
	values  map[string]any
	flash   map[string]any
	jar     map[string]*http.Cookie
}

// NewClient returns a Client over the manager's configured driver.
func (m *Manager) NewClient() *Client {
	return &Client{
		manager: m,
		values:  make(map[string]any),
		flash:   make(map[string]any),
		jar:     make(map[string]*http.Cookie),
	}
}

// SetSessionID pins the id used by Commit and ReadSession.
func (c *Client) SetSessionID(id string) *Client {
	c.id = id
	return c
}

// ID returns the session id, generating one on first use.
func (c *Client) ID() string {
	if c.id == "" {
		c.id = uuid.NewString()
	}
	return c.id
}

// Load merges values into the data written by Commit.
func (c *Client) Load(values map[string]any) *Client {
	maps.Copy(c.values, values)
	return c
}

// Flash merges values into the flash bag written by Commit.
func (c *Client) Flash(values map[string]any) *Client {
	maps.Copy(c.flash, values)
	return c
}

// Commit writes the loaded values and flash bag, and records the id cookie.
func (c *Client) Commit(ctx context.Context) error {
	st, err := store.FromMap(c.values)
	if err != nil {
		return err
	}
	if len(c.flash) > 0 {
		if err := st.Set(flashKey, c.flash); err != nil {
			return err
		}
	}
	data, err := st.Encode()
	if err != nil {
		return err
	}

	id := c.ID()
	err = c.withDriver(func(d Driver) error {
		return d.Write(ctx, id, data)
	})
	if err != nil {
		return err
	}

	signed, err := c.manager.cookies.Sign(id, c.manager.config.CookieName)
	if err != nil {
		return err
	}
	c.jar[c.manager.config.CookieName] = &http.Cookie{Name: c.manager.config.CookieName, Value: signed}
	return nil
}

// ReadSession returns the stored values and the flash bag found under the id.
// Nothing is consumed.
func (c *Client) ReadSession(ctx context.Context) (values, flash map[string]any, err error) {
	var data string
	var found bool
	id := c.ID()
	err = c.withDriver(func(d Driver) error {
		var rerr error
		data, found, rerr = d.Read(ctx, id)
		return rerr
	})
	if err != nil {
		return nil, nil, err
	}

	st := store.New()
	if found {
		st = store.Parse(data)
	}
	flash, _ = st.Get(flashKey, map[string]any{}).(map[string]any)
	st.Unset(flashKey)
	return st.All(), flash, nil
}

// Destroy removes the record and forgets every cookie.
func (c *Client) Destroy(ctx context.Context) error {
	id := c.ID()
	err := c.withDriver(func(d Driver) error {
		return d.Destroy(ctx, id)
	})
	clear(c.jar)
	return err
}

// Cookies returns the cookies a browser would hold after Commit.
func (c *Client) Cookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(c.jar))
	for _, ck := range c.jar {
		out = append(out, &http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	return out
}

// withDriver runs fn against a driver bound to a synthetic request carrying the
// jar, then stores any cookies the driver set or cleared.
func (c *Client) withDriver(fn func(Driver) error) error {
	if c.manager.cookies == nil {
		return ErrNoCookieManager
	}

	req, err := http.NewRequest(http.MethodGet, "/", nil)
	if err != nil {
		return err
	}
	for _, ck := range c.jar {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()

	driver, err := c.manager.newDriver(rec, req)
	if err != nil {
		return err
	}
	if err := fn(driver); err != nil {
		return fmt.Errorf("session client: %w", err)
	}

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.jar, ck.Name)
			continue
		}
		c.jar[ck.Name] = ck
	}
	return nil
}

var _ Signer = (*cookie.Manager)(nil)
