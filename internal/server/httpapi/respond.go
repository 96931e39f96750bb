package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/server/metrics"
	"github.com/dmitrijs2005/jobtracker/internal/server/session"
	"github.com/dmitrijs2005/jobtracker/internal/server/validation"
)

const (
	flashError = "error"
	flashInfo  = "info"

	msgUnauthorized = "Unauthorized"
	msgPleaseLogOn  = "Please log in"
)

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// serverError logs err and writes a body that says nothing about it.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error(r.Context(), "request failed", "error", err, "method", r.Method, "path", r.URL.Path)
	if isAPI(r) {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// storeFailure is the session manager's error handler.
func (s *Server) storeFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.serverError(w, r, fmt.Errorf("session store: %w", err))
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, "That page (%s) was not found.", r.URL.RequestURI())
}

func (s *Server) csrfRejected(w http.ResponseWriter, r *http.Request, err error) {
	s.metrics.Reject(metrics.ReasonCSRF)
	if isAPI(r) {
		writeError(w, http.StatusForbidden, "invalid csrf token")
		return
	}
	http.Error(w, "Forbidden: invalid or missing CSRF token", http.StatusForbidden)
}

// redirectWithFlash queues msg and sends the browser to location.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, kind, msg, location string) {
	if sess, ok := session.FromContext(r.Context()); ok && msg != "" {
		sess.AddFlash(kind, msg)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// jobFailure maps a job service error to the browser outcome. Missing and
// foreign jobs look the same to the user.
func (s *Server) jobFailure(w http.ResponseWriter, r *http.Request, err error, back string) {
	switch {
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrorUnauthorized):
		s.metrics.Reject(metrics.ReasonOwnership)
		redirectWithFlash(w, r, flashError, msgUnauthorized, "/jobs")
	case errors.Is(err, common.ErrValidation):
		s.metrics.Reject(metrics.ReasonValidation)
		sess, _ := session.FromContext(r.Context())
		if fields, ok := validation.Translate(err); ok && sess != nil {
			for _, f := range fields {
				sess.AddFlash(flashError, f.Message)
			}
		}
		http.Redirect(w, r, back, http.StatusSeeOther)
	default:
		s.serverError(w, r, err)
	}
}

// apiJobFailure is jobFailure for the JSON API.
func (s *Server) apiJobFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrorUnauthorized):
		s.metrics.Reject(metrics.ReasonOwnership)
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrValidation):
		s.metrics.Reject(metrics.ReasonValidation)
		fields, _ := validation.Translate(err)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: fields})
	default:
		s.serverError(w, r, err)
	}
}
