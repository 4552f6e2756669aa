package session

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Middleware attaches an initiated session to every request and commits it
// before the first byte of the response is written, so the cookies make it
// into the headers. When sessions are disabled it is a pass-through.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	if !m.config.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cw := &commitWriter{ResponseWriter: w}

		sess, err := m.Create(cw, r)
		if err != nil {
			m.logger.ErrorContext(r.Context(), "session create failed", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		cw.commit = func() { m.commit(r.Context(), sess) }

		if err := sess.Initiate(r.Context(), false); err != nil {
			m.logger.ErrorContext(r.Context(), "session initiate failed",
				logger.SessionID(sess.ID()),
				logger.Driver(m.config.Driver),
				logger.Error(err),
			)
			http.Error(cw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := r.WithContext(WithSession(r.Context(), sess))
		sess.bindRequest(req)
		next.ServeHTTP(cw, req)
		cw.commitOnce()
	})
}

func (m *Manager) commit(ctx context.Context, sess *Session) {
	if err := sess.Commit(ctx); err != nil {
		m.logger.ErrorContext(ctx, "session commit failed",
			logger.SessionID(sess.ID()),
			logger.Driver(m.config.Driver),
			logger.Error(err),
		)
	}
}

// commitWriter runs commit right before the response headers go out.
type commitWriter struct {
	http.ResponseWriter
	commit func()
	done   bool
}

func (w *commitWriter) commitOnce() {
	if w.done || w.commit == nil {
		return
	}
	w.done = true
	w.commit()
}

func (w *commitWriter) WriteHeader(code int) {
	w.commitOnce()
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.commitOnce()
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Flush() {
	w.commitOnce()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *commitWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	w.commitOnce()
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("session: response writer does not support hijacking")
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
