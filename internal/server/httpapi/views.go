package httpapi

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/dmitrijs2005/jobtracker/internal/server/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"index", "logon", "register", "jobs", "job", "secretword"}

// views holds one template set per page, each combined with the layout.
type views map[string]*template.Template

func parseViews() (views, error) {
	v := make(views, len(pages))
	for _, p := range pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+p+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", p, err)
		}
		v[p] = t
	}
	return v, nil
}

type pageData struct {
	Title     string
	User      *Identity
	CSRFField string
	CSRFToken string
	Errors    []string
	Info      []string
	Data      any
}

// render writes page with a fresh CSRF token and the pending flash messages.
// The page is rendered into a buffer first so a template error still yields
// a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, page, title string, data any) {
	ctx := r.Context()
	sess, ok := session.FromContext(ctx)
	if !ok {
		s.serverError(w, r, fmt.Errorf("render %s: no session", page))
		return
	}

	token, err := s.csrf.SetCookie(w, sess)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	pd := pageData{
		Title:     title,
		CSRFField: s.csrf.FieldName(),
		CSRFToken: token,
		Errors:    sess.Flashes(flashError),
		Info:      sess.Flashes(flashInfo),
		Data:      data,
	}
	if id, ok := identityFromContext(ctx); ok {
		pd.User = &id
	} else if sess.Authenticated() {
		// Public pages do not run the gate; show the name we already know.
		if name, ok := sess.Value(sessionUserName); ok {
			pd.User = &Identity{UserID: sess.UserID, UserName: name}
		}
	}

	var buf bytes.Buffer
	if err := s.views[page].ExecuteTemplate(&buf, "layout", pd); err != nil {
		s.serverError(w, r, fmt.Errorf("render %s: %w", page, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
