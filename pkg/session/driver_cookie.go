package session

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// CookieDriver keeps the whole encoded store in an encrypted cookie named after
// the session id. The id is the encryption purpose, so a value copied under
// another name never decrypts.
type CookieDriver struct {
	cookies *cookie.Manager
	opts    cookie.Options
	w       http.ResponseWriter
	r       *http.Request
	cleared map[string]bool
}

func NewCookieDriver(cookies *cookie.Manager, opts cookie.Options, w http.ResponseWriter, r *http.Request) *CookieDriver {
	return &CookieDriver{
		cookies: cookies,
		opts:    opts,
		w:       w,
		r:       r,
		cleared: make(map[string]bool),
	}
}

func (d *CookieDriver) Read(_ context.Context, id string) (string, bool, error) {
	if d.r == nil {
		return "", false, nil
	}
	encrypted, err := d.cookies.Get(d.r, id)
	if err != nil {
		return "", false, nil
	}
	data, err := d.cookies.Decrypt(encrypted, id)
	if err != nil {
		return "", false, nil
	}
	return data, true, nil
}

func (d *CookieDriver) Write(ctx context.Context, id, data string) error {
	if isEmptyPayload(data) {
		return d.Destroy(ctx, id)
	}
	encrypted, err := d.cookies.Encrypt(data, id)
	if err != nil {
		return err
	}
	delete(d.cleared, id)
	return d.cookies.Set(d.w, id, encrypted, cookie.WithOptions(d.opts))
}

// Destroy expires the cookie, but only when the request carried it.
func (d *CookieDriver) Destroy(_ context.Context, id string) error {
	if d.r == nil || d.cleared[id] || !d.cookies.Has(d.r, id) {
		return nil
	}
	d.cookies.Delete(d.w, id, cookie.WithOptions(d.opts))
	d.cleared[id] = true
	return nil
}

// Touch rewrites the current value to refresh the cookie expiry.
func (d *CookieDriver) Touch(ctx context.Context, id string) error {
	data, found, err := d.Read(ctx, id)
	if err != nil || !found {
		return err
	}
	return d.Write(ctx, id, data)
}
