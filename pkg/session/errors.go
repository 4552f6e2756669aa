package session

import "errors"

var (
	// ErrSessionNotReady is returned by data access before Initiate succeeded.
	ErrSessionNotReady = errors.New("session.not_ready")

	// ErrSessionReadonly is returned by mutating calls on a session initiated in readonly mode.
	ErrSessionReadonly = errors.New("session.readonly")

	// ErrSessionCommitted is returned by mutating calls after the session was
	// committed, typically because the response has already started.
	ErrSessionCommitted = errors.New("session.already_committed")

	// ErrDisabled is returned by Create when sessions are switched off.
	ErrDisabled = errors.New("session.disabled")

	ErrNoDriver        = errors.New("session.no_driver")
	ErrUnknownDriver   = errors.New("session.unknown_driver")
	ErrNoCookieName    = errors.New("session.no_cookie_name")
	ErrInvalidAge      = errors.New("session.invalid_age")
	ErrNoFileLocation  = errors.New("session.no_file_location")
	ErrNoCookieManager = errors.New("session.no_cookie_manager")
	ErrNoRedisClient   = errors.New("session.no_redis_client")

	// ErrInvalidSessionID is returned by drivers for ids that cannot name a record safely.
	ErrInvalidSessionID = errors.New("session.invalid_id")

	ErrDriverRead    = errors.New("session.driver_read_failed")
	ErrDriverWrite   = errors.New("session.driver_write_failed")
	ErrDriverDestroy = errors.New("session.driver_destroy_failed")
	ErrDriverTouch   = errors.New("session.driver_touch_failed")
)
