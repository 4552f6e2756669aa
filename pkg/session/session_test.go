package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/store"
)

// seed writes values under id through the client and returns the cookies to send.
func seed(t *testing.T, m *session.Manager, id string, values, flash map[string]any) []*http.Cookie {
	t.Helper()
	c := m.NewClient().SetSessionID(id).Load(values)
	if flash != nil {
		c.Flash(flash)
	}
	require.NoError(t, c.Commit(context.Background()))
	return c.Cookies()
}

func TestSession_NewID(t *testing.T) {
	t.Parallel()

	m := newManager(t, nil)

	sess, err := m.Create(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, sess.Fresh())
	assert.NotEmpty(t, sess.ID())
	assert.False(t, sess.Initiated())

	cookies := seed(t, m, "known", map[string]any{"a": 1}, nil)
	sess, err = m.Create(httptest.NewRecorder(), requestWith(cookies))
	require.NoError(t, err)
	assert.False(t, sess.Fresh())
	assert.Equal(t, "known", sess.ID())

	t.Run("forged id cookie is ignored", func(t *testing.T) {
		r := requestWith([]*http.Cookie{{Name: m.Config().CookieName, Value: "known"}})
		sess, err := m.Create(httptest.NewRecorder(), r)
		require.NoError(t, err)
		assert.True(t, sess.Fresh())
		assert.NotEqual(t, "known", sess.ID())
	})
}

func TestSession_IdempotentInitiate(t *testing.T) {
	t.Parallel()

	m, c, _ := countingManager(t)
	sess, err := m.Create(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	require.NoError(t, sess.Initiate(context.Background(), false))
	require.NoError(t, sess.Initiate(context.Background(), true))

	assert.Equal(t, int32(1), c.reads.Load())
	assert.False(t, sess.Readonly(), "second call keeps the first mode")
}

func TestSession_DirtyTracking(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("no mutation touches", func(t *testing.T) {
		m, c, _ := countingManager(t)
		cookies := seed(t, m, "abc", map[string]any{"a": 1}, nil)
		c.writes.Store(0)

		sess, err := m.Create(httptest.NewRecorder(), requestWith(cookies))
		require.NoError(t, err)
		require.NoError(t, sess.Initiate(ctx, false))
		_, _ = sess.Get("a", nil)
		_, _ = sess.All()
		_, _ = sess.Has("a")
		require.NoError(t, sess.Commit(ctx))

		assert.Equal(t, int32(0), c.writes.Load())
		assert.Equal(t, int32(1), c.touches.Load())
	})

	t.Run("mutation writes", func(t *testing.T) {
		m, c, table := countingManager(t)
		cookies := seed(t, m, "abc", map[string]any{"a": 1}, nil)
		c.writes.Store(0)

		sess, err := m.Create(httptest.NewRecorder(), requestWith(cookies))
		require.NoError(t, err)
		require.NoError(t, sess.Initiate(ctx, false))
		require.NoError(t, sess.Increment("a", 1))
		require.NoError(t, sess.Commit(ctx))

		assert.Equal(t, int32(1), c.writes.Load())
		assert.Equal(t, int32(0), c.touches.Load())

		rec, ok := record(t, table, "abc")
		require.True(t, ok)
		assert.Equal(t, int64(2), rec["a"])
	})
}

func TestSession_FlashExactlyOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, nil)
	table := m.Memory()
	cookies := seed(t, m, "abc", map[string]any{"name": "virk"}, map[string]any{"a": 1})

	sess, err := m.Create(httptest.NewRecorder(), requestWith(cookies))
	require.NoError(t, err)
	require.NoError(t, sess.Initiate(ctx, false))
	assert.Equal(t, map[string]any{"a": int64(1)}, sess.FlashMessages().All())

	has, err := sess.Has("__flash__")
	require.NoError(t, err)
	assert.False(t, has)
	require.NoError(t, sess.Commit(ctx))

	rec, ok := record(t, table, "abc")
	require.True(t, ok)
	assert.NotContains(t, rec, "__flash__")
	assert.Equal(t, "virk", rec["name"])

	// next request sees nothing and stages new data
	sess, err = m.Create(httptest.NewRecorder(), requestWith(cookies))
	require.NoError(t, err)
	require.NoError(t, sess.Initiate(ctx, false))
	assert.True(t, sess.FlashMessages().IsEmpty())
	require.NoError(t, sess.Flash("b", 2))
	require.NoError(t, sess.Commit(ctx))

	rec, _ = record(t, table, "abc")
	assert.Equal(t, map[string]any{"b": int64(2)}, rec["__flash__"])

	// and the one after consumes it
	sess, err = m.Create(httptest.NewRecorder(), requestWith(cookies))
	require.NoError(t, err)
	require.NoError(t, sess.Initiate(ctx, false))
	assert.Equal(t, int64(2), sess.FlashMessages().Get("b", nil))
	require.NoError(t, sess.Commit(ctx))

	rec, _ = record(t, table, "abc")
	assert.NotContains(t, rec, "__flash__")
}

func TestSession_Regenerate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, nil)
	cookies := seed(t, m, "1234", map[string]any{"user": map[string]any{"age": 22}}, nil)

	rec := httptest.NewRecorder()
	sess, err := m.Create(rec, requestWith(cookies))
	require.NoError(t, err)
	require.NoError(t, sess.Initiate(ctx, false))
	require.NoError(t, sess.Put("user.username", "virk"))
	sess.Regenerate()
	assert.Equal(t, "1234", sess.ID(), "id changes at commit")
	require.NoError(t, sess.Commit(ctx))

	assert.True(t, sess.Regenerated())
	assert.NotEqual(t, "1234", sess.ID())

	_, ok := m.Memory().Get("1234")
	assert.False(t, ok)

	data, ok := record(t, m.Memory(), sess.ID())
	require.True(t, ok)
	assert.Equal(t, map[string]any{"user": map[string]any{"age": int64(22), "username": "virk"}}, data)

	// the response carries the new id
	next, err := m.Create(httptest.NewRecorder(), requestWith(rec.Result().Cookies()))
	require.NoError(t, err)
	assert.Equal(t, sess.ID(), next.ID())
}

func TestSession_RegenerateWithoutChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, nil)
	cookies := seed(t, m, "1234", map[string]any{"a": "b"}, nil)

	sess, err := m.Create(httptest.NewRecorder(), requestWith(cookies))
	require.NoError(t, err)
	require.NoError(t, sess.Initiate(ctx, false))
	sess.Regenerate()
	require.NoError(t, sess.Commit(ctx))

	data, ok := record(t, m.Memory(), sess.ID())
	require.True(t, ok, "carried forward even though nothing changed")
	assert.Equal(t, map[string]any{"a": "b"}, data)
}

func TestSession_Readonly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, nil)
	cookies := seed(t, m, "abc", map[string]any{"user": map[string]any{"age": 22}}, map[string]any{"a": 1})

	sess, err := m.Create(httptest.NewRecorder(), requestWith(cookies))
	require.NoError(t, err)
	require.NoError(t, sess.Initiate(ctx, true))
	assert.True(t, sess.Readonly())

	assert.ErrorIs(t, sess.Put("x", 1), session.ErrSessionReadonly)
	assert.ErrorIs(t, sess.Forget("user"), session.ErrSessionReadonly)
	assert.ErrorIs(t, sess.Clear(), session.ErrSessionReadonly)
	assert.ErrorIs(t, sess.Flash("x", 1), session.ErrSessionReadonly)
	_, err = sess.Pull("user", nil)
	assert.ErrorIs(t, err, session.ErrSessionReadonly)

	v, err := sess.Get("user.age", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(22), v)

	assert.True(t, sess.FlashMessages().IsEmpty(), "flash is not consumed in readonly mode")
	require.NoError(t, sess.Commit(ctx))

	rec, _ := record(t, m.Memory(), "abc")
	assert.Contains(t, rec, "__flash__")
}

func TestSession_NotReady(t *testing.T) {
	t.Parallel()

	m := newManager(t, nil)
	sess, err := m.Create(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	assert.ErrorIs(t, sess.Put("a", 1), session.ErrSessionNotReady)
	assert.ErrorIs(t, sess.Forget("a"), session.ErrSessionNotReady)
	assert.ErrorIs(t, sess.Increment("a", 1), session.ErrSessionNotReady)
	assert.ErrorIs(t, sess.Decrement("a", 1), session.ErrSessionNotReady)
	assert.ErrorIs(t, sess.Clear(), session.ErrSessionNotReady)
	assert.ErrorIs(t, sess.Merge(map[string]any{"a": 1}), session.ErrSessionNotReady)
	assert.ErrorIs(t, sess.Flash("a", 1), session.ErrSessionNotReady)
	assert.ErrorIs(t, sess.FlashAll(), session.ErrSessionNotReady)
	assert.ErrorIs(t, sess.Reflash(), session.ErrSessionNotReady)

	_, err = sess.Get("a", nil)
	assert.ErrorIs(t, err, session.ErrSessionNotReady)
	_, err = sess.All()
	assert.ErrorIs(t, err, session.ErrSessionNotReady)
	_, err = sess.Has("a")
	assert.ErrorIs(t, err, session.ErrSessionNotReady)
	_, err = sess.HasKey("a")
	assert.ErrorIs(t, err, session.ErrSessionNotReady)

	_, ok := sess.GetString("a")
	assert.False(t, ok)
}

func TestSession_MalformedPayload(t *testing.T) {
	t.Parallel()

	for _, data := range []string{"not json", `{"a":{"type":"function","value":1}}`, `[1]`} {
		stub := &stubDriver{MemoryDriver: session.NewMemoryDriver(nil), data: data, found: true}
		m := newManager(t,
			func(cfg *session.Config) { cfg.Driver = "stub" },
			session.WithDriver("stub", func(session.Resolved, http.ResponseWriter, *http.Request) (session.Driver, error) {
				return stub, nil
			}),
		)

		sess, err := m.Create(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		require.NoError(t, sess.Initiate(context.Background(), false), data)

		all, err := sess.All()
		require.NoError(t, err)
		assert.Empty(t, all, data)
	}
}

func TestSession_InitiateFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := &counters{}
	stub := &stubDriver{MemoryDriver: session.NewMemoryDriver(nil), readErr: errors.New("disk on fire")}
	m := newManager(t,
		func(cfg *session.Config) { cfg.Driver = "stub" },
		session.WithDriver("stub", func(session.Resolved, http.ResponseWriter, *http.Request) (session.Driver, error) {
			return countingDriver{Driver: stub, c: c}, nil
		}),
	)
	cookies := seed(t, m, "abc", nil, nil)

	rec := httptest.NewRecorder()
	sess, err := m.Create(rec, requestWith(cookies))
	require.NoError(t, err)

	err = sess.Initiate(ctx, false)
	require.ErrorIs(t, err, session.ErrDriverRead)
	assert.False(t, sess.Initiated())
	assert.ErrorIs(t, sess.Put("a", 1), session.ErrSessionNotReady)

	c.writes.Store(0)
	require.NoError(t, sess.Commit(ctx))
	assert.Equal(t, int32(0), c.writes.Load())
	assert.Equal(t, int32(1), c.touches.Load())
	assert.True(t, sess.Committed())
	assert.NotEmpty(t, rec.Result().Cookies(), "id cookie is refreshed")
}

func TestSession_UninitiatedFreshCommit(t *testing.T) {
	t.Parallel()

	m, c, _ := countingManager(t)
	rec := httptest.NewRecorder()
	sess, err := m.Create(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	require.NoError(t, sess.Commit(context.Background()))
	assert.Equal(t, int32(0), c.touches.Load(), "nothing to keep alive")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, m.Config().CookieName, cookies[0].Name)
	assert.Equal(t, 7200, cookies[0].MaxAge)
}

func TestSession_CommitIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, c, _ := countingManager(t)
	sess, err := m.Create(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, sess.Initiate(ctx, false))
	require.NoError(t, sess.Put("a", 1))

	require.NoError(t, sess.Commit(ctx))
	require.NoError(t, sess.Commit(ctx))
	assert.Equal(t, int32(1), c.writes.Load())
	assert.True(t, sess.Committed())
}

func TestSession_EmptiedStoreRemovesRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, nil)
	cookies := seed(t, m, "abc", map[string]any{"a": 1}, nil)

	sess, err := m.Create(httptest.NewRecorder(), requestWith(cookies))
	require.NoError(t, err)
	require.NoError(t, sess.Initiate(ctx, false))
	require.NoError(t, sess.Clear())
	require.NoError(t, sess.Commit(ctx))

	_, ok := m.Memory().Get("abc")
	assert.False(t, ok)
}

func TestSession_Values(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, nil)
	sess, err := m.Create(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, sess.Initiate(ctx, false))

	require.NoError(t, sess.Put("user.name", "virk"))
	require.NoError(t, sess.Put("user.admin", true))
	require.NoError(t, sess.Increment("visits", 3))
	require.NoError(t, sess.Decrement("visits", 1))
	require.NoError(t, sess.Merge(map[string]any{"user": map[string]any{"age": 22}}))

	name, ok := sess.GetString("user.name")
	assert.True(t, ok)
	assert.Equal(t, "virk", name)

	admin, ok := sess.GetBool("user.admin")
	assert.True(t, ok)
	assert.True(t, admin)

	visits, ok := sess.GetInt("visits")
	assert.True(t, ok)
	assert.Equal(t, 2, visits)

	_, ok = sess.GetInt("user.name")
	assert.False(t, ok)

	age, err := sess.Pull("user.age", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(22), age)

	require.NoError(t, sess.Forget("user.admin"))
	all, err := sess.All()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user": map[string]any{"name": "virk"}, "visits": int64(2)}, all)

	require.NoError(t, sess.Put("label", "x"))
	assert.ErrorIs(t, sess.Increment("label", 1), store.ErrNotANumber)
	assert.Error(t, sess.Put("cb", func() {}))
}

func TestSession_FlashStaging(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, nil)

	form := url.Values{"email": {"virk@example.com"}, "password": {"secret"}, "tags": {"a", "b"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	sess, err := m.Create(httptest.NewRecorder(), req)
	require.NoError(t, err)
	require.NoError(t, sess.Initiate(ctx, false))

	require.NoError(t, sess.FlashAll())
	require.NoError(t, sess.FlashExcept("password"))
	require.NoError(t, sess.Flash("notice", "check the form"))
	require.NoError(t, sess.Flash("email", "overridden@example.com"))
	require.NoError(t, sess.FlashErrors(map[string]string{"email": "taken"}))
	require.NoError(t, sess.FlashErrors(map[string]string{"name": "required"}))
	require.NoError(t, sess.Commit(ctx))

	rec, ok := record(t, m.Memory(), sess.ID())
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"email":  "overridden@example.com",
		"tags":   []any{"a", "b"},
		"notice": "check the form",
		"errors": map[string]any{"email": "taken", "name": "required"},
	}, rec["__flash__"])
}

func TestSession_FlashOnlyOverwritesSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/?a=1&b=2&c=3", nil)
	sess, err := m.Create(httptest.NewRecorder(), req)
	require.NoError(t, err)
	require.NoError(t, sess.Initiate(ctx, false))

	require.NoError(t, sess.FlashOnly("a", "b"))
	require.NoError(t, sess.FlashOnly("c"))
	require.NoError(t, sess.Commit(ctx))

	rec, _ := record(t, m.Memory(), sess.ID())
	assert.Equal(t, map[string]any{"c": "3"}, rec["__flash__"])
}

func TestSession_Reflash(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bag := map[string]any{"errors": map[string]any{"email": "taken"}, "notice": "hi", "old": "x"}

	tests := []struct {
		name    string
		reflash func(*session.Session) error
		want    map[string]any
	}{
		{"all", (*session.Session).Reflash, map[string]any{"errors": map[string]any{"email": "taken"}, "notice": "hi", "old": "x"}},
		{"only", func(s *session.Session) error { return s.ReflashOnly("errors") }, map[string]any{"errors": map[string]any{"email": "taken"}}},
		{"except", func(s *session.Session) error { return s.ReflashExcept("errors", "old") }, map[string]any{"notice": "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := newManager(t, nil)
			cookies := seed(t, m, "abc", map[string]any{"k": 1}, bag)

			sess, err := m.Create(httptest.NewRecorder(), requestWith(cookies))
			require.NoError(t, err)
			require.NoError(t, sess.Initiate(ctx, false))
			require.NoError(t, tt.reflash(sess))
			require.NoError(t, sess.Commit(ctx))

			rec, _ := record(t, m.Memory(), "abc")
			assert.Equal(t, tt.want, rec["__flash__"])
		})
	}
}

// TestSession_DocumentedRace shows that concurrent requests sharing an id are
// not coordinated: the later commit overwrites the earlier one.
func TestSession_DocumentedRace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, nil)
	cookies := seed(t, m, "shared", map[string]any{"count": 0}, nil)

	slow, err := m.Create(httptest.NewRecorder(), requestWith(cookies))
	require.NoError(t, err)
	fast, err := m.Create(httptest.NewRecorder(), requestWith(cookies))
	require.NoError(t, err)

	slowRead := make(chan struct{})
	fastDone := make(chan struct{})
	errs := make(chan error, 8)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := slow.Initiate(ctx, false); err != nil {
			errs <- err
			close(slowRead)
			return
		}
		close(slowRead)
		errs <- slow.Put("writer", "slow")
		<-fastDone
		time.Sleep(10 * time.Millisecond)
		errs <- slow.Commit(ctx)
	}()

	go func() {
		defer wg.Done()
		defer close(fastDone)
		<-slowRead
		if err := fast.Initiate(ctx, false); err != nil {
			errs <- err
			return
		}
		errs <- fast.Put("writer", "fast")
		errs <- fast.Put("fast_only", true)
		errs <- fast.Commit(ctx)
	}()

	go func() {
		wg.Wait()
		close(errs)
	}()
	for err := range errs {
		require.NoError(t, err)
	}

	rec, ok := record(t, m.Memory(), "shared")
	require.True(t, ok)
	assert.Equal(t, "slow", rec["writer"])
	assert.NotContains(t, rec, "fast_only", "the earlier commit is lost")
}

func TestSession_MutationAfterCommit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, nil)
	sess, err := m.Create(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, sess.Initiate(ctx, false))
	require.NoError(t, sess.Commit(ctx))

	assert.ErrorIs(t, sess.Put("user", "virk"), session.ErrSessionCommitted)
	assert.ErrorIs(t, sess.Forget("user"), session.ErrSessionCommitted)
	assert.ErrorIs(t, sess.Flash("notice", "late"), session.ErrSessionCommitted)

	_, err = sess.Get("user", nil)
	assert.NoError(t, err, "reads still work")
}

func TestSession_ExpiredFileStaysExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, func(c *session.Config) {
		c.Driver = session.DriverFile
		c.Age = "1m"
	})
	cookies := seed(t, m, "abc", map[string]any{"user": "virk"}, nil)

	path := filepath.Join(m.Config().File.Location, "abc.session")
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	for i := range 2 {
		sess, err := m.Create(httptest.NewRecorder(), requestWith(cookies))
		require.NoError(t, err)
		require.NoError(t, sess.Initiate(ctx, false))

		user, err := sess.Get("user", nil)
		require.NoError(t, err)
		assert.Nil(t, user, "request %d", i+1)
		require.NoError(t, sess.Commit(ctx))
	}
}

func TestSession_HasKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, nil)
	cookies := seed(t, m, "abc", map[string]any{"tags": []any{}, "user": "virk"}, nil)

	sess, err := m.Create(httptest.NewRecorder(), requestWith(cookies))
	require.NoError(t, err)
	require.NoError(t, sess.Initiate(ctx, true))

	has, err := sess.Has("tags")
	require.NoError(t, err)
	assert.False(t, has, "empty array counts as missing")

	hasKey, err := sess.HasKey("tags")
	require.NoError(t, err)
	assert.True(t, hasKey)

	hasKey, err = sess.HasKey("user")
	require.NoError(t, err)
	assert.True(t, hasKey)

	hasKey, err = sess.HasKey("missing")
	require.NoError(t, err)
	assert.False(t, hasKey)
}
