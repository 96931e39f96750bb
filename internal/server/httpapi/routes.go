package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// guard is one step of the authorization pipeline in front of a route.
type guard func(http.Handler) http.Handler

// with mounts a group whose routes run behind guards, in order.
func with(r chi.Router, guards []guard, routes func(r chi.Router)) {
	r.Group(func(r chi.Router) {
		for _, g := range guards {
			r.Use(g)
		}
		routes(r)
	})
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.proxied {
		r.Use(middleware.RealIP)
	}
	r.Use(s.logRequests)
	r.Use(s.recoverer)
	r.Use(s.metrics.Instrument)

	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.notFound)

	// Scrapers and the arithmetic endpoint need no session.
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/multiply", s.multiply)

	var (
		public     []guard
		csrf       = []guard{s.csrf.Middleware}
		logon      = []guard{s.limitLogon, s.csrf.Middleware}
		browser    = []guard{s.requireUser(false)}
		browserMut = []guard{s.requireUser(false), s.csrf.Middleware}
		api        = []guard{s.requireUser(true)}
		apiMut     = []guard{s.requireUser(true), s.csrf.Middleware}
	)

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)

		with(r, public, func(r chi.Router) {
			r.Get("/", s.index)
			r.Get("/sessions/logon", s.logonForm)
			r.Get("/sessions/register", s.registerForm)
			r.Get("/api/csrf", s.apiCSRFToken)
		})
		with(r, logon, func(r chi.Router) {
			r.Post("/sessions/logon", s.logon)
		})
		with(r, csrf, func(r chi.Router) {
			r.Post("/sessions/register", s.register)
			r.Post("/sessions/logoff", s.logoff)
		})

		with(r, browser, func(r chi.Router) {
			r.Get("/jobs", s.listJobs)
			r.Get("/jobs/new", s.newJobForm)
			r.Get("/jobs/edit/{id}", s.editJobForm)
			r.Get("/secretWord", s.secretWord)
		})
		with(r, browserMut, func(r chi.Router) {
			r.Post("/jobs", s.createJob)
			r.Post("/jobs/update/{id}", s.updateJob)
			r.Post("/jobs/delete/{id}", s.deleteJob)
			r.Post("/secretWord", s.setSecretWord)
		})

		with(r, api, func(r chi.Router) {
			r.Get("/api/jobs", s.apiListJobs)
			r.Get("/api/jobs/{id}", s.apiGetJob)
		})
		with(r, apiMut, func(r chi.Router) {
			r.Post("/api/jobs", s.apiCreateJob)
			r.Put("/api/jobs/{id}", s.apiReplaceJob)
			r.Patch("/api/jobs/{id}", s.apiPatchJob)
			r.Delete("/api/jobs/{id}", s.apiDeleteJob)
		})
	})

	return r
}
