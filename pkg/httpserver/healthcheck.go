package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// NamedCheck is a readiness dependency.
type NamedCheck struct {
	Name string
	Fn   func(context.Context) error
}

// Check names fn for readiness logs.
func Check(name string, fn func(context.Context) error) NamedCheck {
	return NamedCheck{Name: name, Fn: fn}
}

// LivenessHandler always answers 200 "ALIVE".
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	}
}

// ReadinessHandler runs every check with the request context and answers
// 200 "READY", or 503 "NOT_READY" on the first failure.
func ReadinessHandler(log *slog.Logger, checks ...NamedCheck) http.HandlerFunc {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		for _, c := range checks {
			if err := c.Fn(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed",
					logger.Component(c.Name),
					logger.Error(err),
				)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
