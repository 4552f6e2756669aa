package session

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// Built-in driver names.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverCookie = "cookie"
)

// Config holds session configuration
type Config struct {
	Enabled bool   `env:"SESSION_ENABLED" envDefault:"true"`
	Driver  string `env:"SESSION_DRIVER" envDefault:"cookie"`

	// CookieName names the cookie carrying the signed session id.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sessionkit-session"`

	// ClearWithBrowser turns every session cookie into a browser-session cookie.
	ClearWithBrowser bool `env:"SESSION_CLEAR_WITH_BROWSER" envDefault:"false"`

	// Age is a Go duration ("2h"), a compact expression ("1d12h"), words ("2 hours")
	// or a bare number of seconds.
	Age string `env:"SESSION_AGE" envDefault:"2h"`

	Cookie CookieConfig `envPrefix:"SESSION_COOKIE_"`
	File   FileConfig   `envPrefix:"SESSION_FILE_"`
	Redis  RedisConfig  `envPrefix:"SESSION_REDIS_"`
}

// CookieConfig holds the attributes of every cookie the session writes.
type CookieConfig struct {
	Path     string `env:"PATH" envDefault:"/"`
	Domain   string `env:"DOMAIN"`
	Secure   bool   `env:"SECURE" envDefault:"false"`
	HttpOnly bool   `env:"HTTP_ONLY" envDefault:"true"`
	SameSite string `env:"SAME_SITE" envDefault:"lax"`
}

type FileConfig struct {
	Location string `env:"LOCATION" envDefault:"tmp/sessions"`
}

type RedisConfig struct {
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"session:"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		Driver:     DriverCookie,
		CookieName: "sessionkit-session",
		Age:        "2h",
		Cookie: CookieConfig{
			Path:     "/",
			HttpOnly: true,
			SameSite: "lax",
		},
		File:  FileConfig{Location: "tmp/sessions"},
		Redis: RedisConfig{KeyPrefix: "session:"},
	}
}

// Resolved is a validated Config with the age parsed and paths made absolute.
// It is computed once by Resolve and shared by every request.
type Resolved struct {
	Enabled          bool
	Driver           string
	CookieName       string
	ClearWithBrowser bool
	Age              time.Duration
	Cookie           cookie.Options // MaxAge is filled from Age
	File             FileConfig
	Redis            RedisConfig
}

// Resolve validates c and normalizes it.
func (c Config) Resolve() (Resolved, error) {
	driver := strings.ToLower(strings.TrimSpace(c.Driver))
	if driver == "" {
		return Resolved{}, ErrNoDriver
	}
	if strings.TrimSpace(c.CookieName) == "" {
		return Resolved{}, ErrNoCookieName
	}

	age, err := ParseAge(c.Age)
	if err != nil {
		return Resolved{}, err
	}

	file := c.File
	if driver == DriverFile {
		if strings.TrimSpace(file.Location) == "" {
			return Resolved{}, ErrNoFileLocation
		}
		abs, err := filepath.Abs(file.Location)
		if err != nil {
			return Resolved{}, fmt.Errorf("%w: %v", ErrNoFileLocation, err)
		}
		file.Location = abs
	}

	sameSite := cookie.ParseSameSite(c.Cookie.SameSite)
	if sameSite == 0 {
		sameSite = cookie.ParseSameSite("lax")
	}
	path := c.Cookie.Path
	if path == "" {
		path = "/"
	}

	opts := cookie.Options{
		Path:     path,
		Domain:   c.Cookie.Domain,
		Secure:   c.Cookie.Secure,
		HttpOnly: c.Cookie.HttpOnly,
		SameSite: sameSite,
	}
	if !c.ClearWithBrowser {
		opts.MaxAge = int(age / time.Second)
	}

	return Resolved{
		Enabled:          c.Enabled,
		Driver:           driver,
		CookieName:       c.CookieName,
		ClearWithBrowser: c.ClearWithBrowser,
		Age:              age,
		Cookie:           opts,
		File:             file,
		Redis:            c.Redis,
	}, nil
}

var ageUnits = map[string]time.Duration{
	"ms": time.Millisecond, "millisecond": time.Millisecond, "milliseconds": time.Millisecond,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
	"y": 365 * 24 * time.Hour, "year": 365 * 24 * time.Hour, "years": 365 * 24 * time.Hour,
}

// ParseAge converts a session age expression into a duration of at least one
// second, the resolution of a cookie Max-Age.
// Accepted forms, tried in order: a bare number of seconds ("7200"), a Go
// duration ("2h30m"), a compact expression with days or weeks ("1d12h"), and
// space separated words ("2 hours", "1 day 6 hours").
func ParseAge(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAge)
	}

	d, err := parseAge(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAge, s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q is not positive", ErrInvalidAge, s)
	}
	if d < time.Second {
		return 0, fmt.Errorf("%w: %q is shorter than a second", ErrInvalidAge, s)
	}
	return d, nil
}

func parseAge(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsInf(secs, 0) || math.IsNaN(secs) {
			return 0, ErrInvalidAge
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if d, err := str2duration.ParseDuration(s); err == nil {
		return d, nil
	}
	return parseWords(s)
}

// parseWords handles "<number> <unit>" pairs, with an optional "and" between them.
func parseWords(s string) (time.Duration, error) {
	fields := strings.Fields(strings.ToLower(s))
	var total time.Duration
	for i := 0; i < len(fields); i++ {
		if fields[i] == "and" {
			continue
		}
		n, err := strconv.ParseFloat(fields[i], 64)
		if err != nil || i+1 >= len(fields) {
			return 0, ErrInvalidAge
		}
		unit, ok := ageUnits[strings.TrimSuffix(fields[i+1], ",")]
		if !ok {
			return 0, ErrInvalidAge
		}
		total += time.Duration(n * float64(unit))
		i++
	}
	if total == 0 {
		return 0, ErrInvalidAge
	}
	return total, nil
}
