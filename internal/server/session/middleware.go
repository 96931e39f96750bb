package session

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/jobtracker/internal/common"
)

// Middleware loads the session, places it on the request context and saves
// it back before the first byte of the response, or after the handler
// returns if it wrote nothing. A store failure ends the request with
// ErrorHandler; it never falls back to an anonymous session.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sess, err := m.Load(ctx, r)
		if err != nil {
			m.log.Error(ctx, "session load failed", "error", err)
			m.ErrorHandler(w, r, err)
			return
		}

		cw := &commitWriter{ResponseWriter: w, m: m, ctx: ctx, sess: sess, r: r}
		next.ServeHTTP(cw, r.WithContext(NewContext(ctx, sess)))
		cw.commit()
	})
}

// commitWriter persists the session right before the header goes out.
type commitWriter struct {
	http.ResponseWriter
	m    *Manager
	ctx  context.Context
	r    *http.Request
	sess *Session

	committed bool
	failed    bool
}

func (w *commitWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true
	if err := w.m.Persist(w.ctx, w.ResponseWriter, w.sess); err != nil {
		w.failed = true
		w.m.log.Error(w.ctx, "session persist failed", "error", err, "session_id", w.sess.ID)
		// Headers staged by the handler (Location, cookies) belong to the
		// response that is being replaced.
		h := w.ResponseWriter.Header()
		for k := range h {
			delete(h, k)
		}
		w.m.ErrorHandler(w.ResponseWriter, w.r, err)
	}
}

func (w *commitWriter) WriteHeader(code int) {
	w.commit()
	if w.failed {
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.commit()
	if w.failed {
		return 0, common.ErrStoreUnavailable
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
