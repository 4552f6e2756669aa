package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/store"
)

// Session is the per-request view of a visitor's session. It is not safe for
// concurrent use and must not outlive the request it was created for.
//
// A session starts uninitiated. Initiate loads the record from the driver;
// Commit persists it and writes the id cookie.
type Session struct {
	id          string
	fresh       bool
	initiated   bool
	readonly    bool
	committed   bool
	regenerate  bool
	regenerated bool

	store         *store.Store
	flashMessages *FlashMessages
	responseFlash *responseFlash

	driver  Driver
	config  Resolved
	cookies *cookie.Manager
	w       http.ResponseWriter
	r       *http.Request
	logger  *slog.Logger
}

func newSession(cfg Resolved, driver Driver, cookies *cookie.Manager, w http.ResponseWriter, r *http.Request, log *slog.Logger) *Session {
	s := &Session{
		driver:        driver,
		config:        cfg,
		cookies:       cookies,
		w:             w,
		r:             r,
		logger:        log,
		flashMessages: &FlashMessages{store: store.New()},
		responseFlash: newResponseFlash(),
	}

	if r != nil {
		if id, err := cookies.GetSigned(r, cfg.CookieName); err == nil && id != "" {
			s.id = id
			return s
		}
	}

	s.id = uuid.NewString()
	s.fresh = true
	return s
}

// ID returns the current session id. After a regenerating commit it is the new id.
func (s *Session) ID() string { return s.id }

// Fresh reports whether the id was generated for this request.
func (s *Session) Fresh() bool { return s.fresh }

func (s *Session) Initiated() bool { return s.initiated }

func (s *Session) Readonly() bool { return s.readonly }

func (s *Session) Committed() bool { return s.committed }

// Regenerated reports whether a commit replaced the id.
func (s *Session) Regenerated() bool { return s.regenerated }

// FlashMessages returns the flash data left by the previous request.
func (s *Session) FlashMessages() *FlashMessages { return s.flashMessages }

// bindRequest points flash input snapshots at the request handlers receive,
// so a form parsed by the handler is the form the session sees.
func (s *Session) bindRequest(r *http.Request) {
	s.r = r
}

// Initiate reads the session record. Calling it again is a no-op.
// In readonly mode the flash bag is left in place and every mutation fails.
func (s *Session) Initiate(ctx context.Context, readonly bool) error {
	if s.initiated {
		return nil
	}

	data, found, err := s.driver.Read(ctx, s.id)
	if err != nil {
		return errors.Join(ErrDriverRead, err)
	}

	st := store.New()
	if found {
		st = store.Parse(data)
	}

	if !readonly && st.HasKey(flashKey) {
		if bag, ok := st.Pull(flashKey, nil).(map[string]any); ok {
			if fm, err := store.FromMap(bag); err == nil {
				s.flashMessages = &FlashMessages{store: fm}
			}
		}
	}

	s.store = st
	s.readonly = readonly
	s.initiated = true
	return nil
}

func (s *Session) ensureReadable() error {
	if !s.initiated {
		return ErrSessionNotReady
	}
	return nil
}

func (s *Session) ensureWritable() error {
	if !s.initiated {
		return ErrSessionNotReady
	}
	if s.readonly {
		return ErrSessionReadonly
	}
	if s.committed {
		return ErrSessionCommitted
	}
	return nil
}

// Put stores value at a dotted path.
func (s *Session) Put(path string, value any) error {
	if err := s.ensureWritable(); err != nil {
		return err
	}
	return s.store.Set(path, value)
}

// Forget removes the value at path.
func (s *Session) Forget(path string) error {
	if err := s.ensureWritable(); err != nil {
		return err
	}
	s.store.Unset(path)
	return nil
}

// Pull returns the value at path, or def, and removes it.
func (s *Session) Pull(path string, def any) (any, error) {
	if err := s.ensureWritable(); err != nil {
		return nil, err
	}
	return s.store.Pull(path, def), nil
}

func (s *Session) Increment(path string, steps int) error {
	if err := s.ensureWritable(); err != nil {
		return err
	}
	return s.store.Increment(path, steps)
}

func (s *Session) Decrement(path string, steps int) error {
	if err := s.ensureWritable(); err != nil {
		return err
	}
	return s.store.Decrement(path, steps)
}

// Clear removes every value.
func (s *Session) Clear() error {
	if err := s.ensureWritable(); err != nil {
		return err
	}
	s.store.Clear()
	return nil
}

// Merge deep-merges values into the session.
func (s *Session) Merge(values map[string]any) error {
	if err := s.ensureWritable(); err != nil {
		return err
	}
	return s.store.Merge(values)
}

// Get returns the value at path, or def when nothing is stored there.
func (s *Session) Get(path string, def any) (any, error) {
	if err := s.ensureReadable(); err != nil {
		return nil, err
	}
	return s.store.Get(path, def), nil
}

// All returns a copy of every value.
func (s *Session) All() (map[string]any, error) {
	if err := s.ensureReadable(); err != nil {
		return nil, err
	}
	return s.store.All(), nil
}

// Has reports whether a value exists at path. Empty arrays count as missing.
func (s *Session) Has(path string) (bool, error) {
	if err := s.ensureReadable(); err != nil {
		return false, err
	}
	return s.store.Has(path), nil
}

// HasKey reports whether path is set at all, empty arrays included.
func (s *Session) HasKey(path string) (bool, error) {
	if err := s.ensureReadable(); err != nil {
		return false, err
	}
	return s.store.HasKey(path), nil
}

// GetString retrieves a string value. It reports false before Initiate.
func (s *Session) GetString(path string) (string, bool) {
	val, err := s.Get(path, nil)
	if err != nil || val == nil {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetInt retrieves a number as int; floats are truncated.
func (s *Session) GetInt(path string) (int, bool) {
	val, err := s.Get(path, nil)
	if err != nil {
		return 0, false
	}
	switch v := val.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func (s *Session) GetBool(path string) (bool, bool) {
	val, err := s.Get(path, nil)
	if err != nil || val == nil {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}

// Regenerate asks Commit to move the data to a new id and destroy the old record.
func (s *Session) Regenerate() {
	s.regenerate = true
}

// Commit persists the session and writes the id cookie. It runs at most once
// successfully; a failed commit can be retried.
//
// An uninitiated session only extends the lifetime of an existing record.
// Otherwise a requested regeneration destroys the old record first, staged
// flash data is folded into the store, and the store is written when it was
// modified or touched when it was not.
func (s *Session) Commit(ctx context.Context) error {
	if s.committed {
		return nil
	}

	if !s.initiated {
		if !s.fresh {
			if err := s.driver.Touch(ctx, s.id); err != nil {
				return errors.Join(ErrDriverTouch, err)
			}
		}
		if err := s.writeIDCookie(); err != nil {
			return err
		}
		s.committed = true
		return nil
	}

	if s.regenerate {
		if err := s.driver.Destroy(ctx, s.id); err != nil {
			return errors.Join(ErrDriverDestroy, err)
		}
		s.logger.DebugContext(ctx, "session regenerated", logger.SessionID(s.id))
		s.id = uuid.NewString()
		s.regenerate = false
		s.regenerated = true
	}

	staged, err := s.responseFlash.payload()
	if err != nil {
		return err
	}
	if len(staged) > 0 {
		if err := s.store.Set(flashKey, staged); err != nil {
			return err
		}
	}

	if s.store.HasBeenModified() || s.regenerated {
		data, err := s.store.Encode()
		if err != nil {
			return err
		}
		if err := s.driver.Write(ctx, s.id, data); err != nil {
			return errors.Join(ErrDriverWrite, err)
		}
	} else if err := s.driver.Touch(ctx, s.id); err != nil {
		return errors.Join(ErrDriverTouch, err)
	}

	if err := s.writeIDCookie(); err != nil {
		return err
	}
	s.committed = true
	return nil
}

func (s *Session) writeIDCookie() error {
	if s.w == nil {
		return nil
	}
	if err := s.cookies.SetSigned(s.w, s.config.CookieName, s.id, cookie.WithOptions(s.config.Cookie)); err != nil {
		return fmt.Errorf("session: set id cookie: %w", err)
	}
	return nil
}
