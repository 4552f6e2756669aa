// Package session keeps per-visitor data on the server across requests and
// carries one-shot flash messages across a single redirect.
//
// # Architecture
//
// A Manager resolves Config once at startup and keeps a registry of storage
// drivers by name. For every request it creates a Session bound to a freshly
// built Driver. The session id travels in a signed cookie; the data lives in
// the driver.
//
//	┌─────────┐  signed id cookie  ┌─────────┐
//	│ Browser │ ─────────────────► │ Session │
//	└─────────┘                    └─────────┘
//	                                    │ Read / Write / Touch / Destroy
//	                                    ▼
//	             ┌────────┬────────┬─────────┬──────────┐
//	             │ memory │  file  │  redis  │  cookie  │
//	             └────────┴────────┴─────────┴──────────┘
//
// The store is encoded with package codec, so numbers, dates, nested objects
// and bson object ids survive the round trip. File and Redis records are
// signed envelopes bound to the session id; the cookie driver encrypts the
// whole store into a cookie named after the id.
//
// # Lifecycle
//
// Initiate reads the record once and moves the "__flash__" bag into
// FlashMessages. Mutations fail with ErrSessionNotReady before Initiate and
// with ErrSessionReadonly on readonly sessions. Commit then:
//
//  1. on an uninitiated session, touches the record and refreshes the id cookie;
//  2. destroys the old record and picks a new id if Regenerate was called;
//  3. folds staged flash data into the store;
//  4. writes the store when it was modified, touches it otherwise;
//  5. sets the signed id cookie.
//
// Requests sharing an id are not coordinated: the last commit wins.
//
// # Usage
//
//	sessions, err := session.NewManager(cfg,
//	    session.WithCookieManager(cookies),
//	    session.WithRedisClient(rdb),
//	)
//	if err != nil {
//	    return err
//	}
//
//	r := chi.NewRouter()
//	r.Use(sessions.Middleware)
//	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
//	    sess := session.MustFromContext(r.Context())
//	    _ = sess.Put("user.id", 42)
//	    sess.Regenerate()
//	    _ = sess.Flash("notice", "Welcome back")
//	    http.Redirect(w, r, "/", http.StatusSeeOther)
//	})
//
// # Drivers
//
// Every built-in driver treats a Write of an empty payload as Destroy, so an
// emptied session leaves nothing behind. Register custom drivers with
// WithDriver or Manager.Extend.
//
// # Testing
//
// Manager.NewClient seeds or inspects records through the configured driver
// without an HTTP server; Client.Cookies returns what a browser would send.
package session
