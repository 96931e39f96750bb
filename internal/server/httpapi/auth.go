package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/server/metrics"
	"github.com/dmitrijs2005/jobtracker/internal/server/session"
)

// sessionUserName caches the user name in the session for public pages.
const sessionUserName = "user_name"

// Identity is the authenticated user of a request.
type Identity struct {
	UserID   string
	UserName string
}

type identityKey struct{}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func identityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// requireUser is the authentication gate. Anonymous browser requests are
// sent to the logon page, API requests get 401. A session whose user no
// longer exists is logged out.
func (s *Server) requireUser(api bool) guard {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, ok := session.FromContext(ctx)
			if !ok {
				s.serverError(w, r, errors.New("authentication gate: no session"))
				return
			}

			if !sess.Authenticated() {
				s.unauthenticated(w, r, api)
				return
			}

			user, err := s.users.GetByID(ctx, sess.UserID)
			if err != nil {
				if !errors.Is(err, common.ErrorNotFound) {
					s.serverError(w, r, err)
					return
				}
				s.logger.Info(ctx, "session bound to a missing user", "user_id", sess.UserID)
				if err := s.sessions.ClearIdentity(ctx, sess); err != nil {
					s.serverError(w, r, err)
					return
				}
				s.unauthenticated(w, r, api)
				return
			}

			id := Identity{UserID: user.ID, UserName: user.UserName}
			next.ServeHTTP(w, r.WithContext(withIdentity(ctx, id)))
		})
	}
}

func (s *Server) unauthenticated(w http.ResponseWriter, r *http.Request, api bool) {
	s.metrics.Reject(metrics.ReasonUnauthenticated)
	if api {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	redirectWithFlash(w, r, flashError, msgPleaseLogOn, "/sessions/logon")
}
