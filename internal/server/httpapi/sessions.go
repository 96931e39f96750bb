package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/server/metrics"
	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/dmitrijs2005/jobtracker/internal/server/session"
	"github.com/dmitrijs2005/jobtracker/internal/server/validation"
)

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index", "Home", nil)
}

func (s *Server) logonForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "logon", "Log on", nil)
}

func (s *Server) registerForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "register", "Register", nil)
}

// bind logs user in on the request's session.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, user *models.User) bool {
	ctx := r.Context()
	sess, ok := session.FromContext(ctx)
	if !ok {
		s.serverError(w, r, errors.New("logon: no session"))
		return false
	}
	if err := s.sessions.BindIdentity(ctx, sess, user.ID); err != nil {
		s.serverError(w, r, err)
		return false
	}
	sess.SetValue(sessionUserName, user.UserName)
	return true
}

func (s *Server) logon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.users.Logon(ctx, r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			s.metrics.Reject(metrics.ReasonBadCredentials)
			redirectWithFlash(w, r, flashError, "Incorrect username or password.", "/sessions/logon")
			return
		}
		s.serverError(w, r, err)
		return
	}

	if !s.bind(w, r, user) {
		return
	}
	s.logger.Info(ctx, "user logged on", "user_id", user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creds := models.Credentials{
		UserName: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if confirm := r.PostForm["password1"]; len(confirm) > 0 && confirm[0] != creds.Password {
		redirectWithFlash(w, r, flashError, "The passwords entered do not match.", "/sessions/register")
		return
	}

	user, err := s.users.Register(ctx, creds)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			redirectWithFlash(w, r, flashError, "That user name is already taken.", "/sessions/register")
		case errors.Is(err, common.ErrValidation):
			sess, _ := session.FromContext(ctx)
			fields, _ := validation.Translate(err)
			for _, f := range fields {
				sess.AddFlash(flashError, f.Message)
			}
			http.Redirect(w, r, "/sessions/register", http.StatusSeeOther)
		default:
			s.serverError(w, r, err)
		}
		return
	}

	if !s.bind(w, r, user) {
		return
	}
	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	redirectWithFlash(w, r, flashInfo, "Registration successful.", "/")
}

func (s *Server) logoff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := session.FromContext(ctx)
	if !ok {
		s.serverError(w, r, errors.New("logoff: no session"))
		return
	}
	if err := s.sessions.ClearIdentity(ctx, sess); err != nil {
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// apiCSRFToken hands a token to script clients, in the body and the cookie.
func (s *Server) apiCSRFToken(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		s.serverError(w, r, errors.New("csrf token: no session"))
		return
	}
	token, err := s.csrf.SetCookie(w, sess)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
