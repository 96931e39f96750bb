// Package httpapi is the HTTP front of jobtracker: browser pages, the JSON
// API and the request-authorization pipeline in front of them.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/logging"
	"github.com/dmitrijs2005/jobtracker/internal/server/csrf"
	"github.com/dmitrijs2005/jobtracker/internal/server/metrics"
	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/dmitrijs2005/jobtracker/internal/server/session"
)

const shutdownTimeout = 10 * time.Second

type UserService interface {
	Register(ctx context.Context, creds models.Credentials) (*models.User, error)
	Logon(ctx context.Context, userName, password string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type JobService interface {
	List(ctx context.Context, userID string) ([]*models.Job, error)
	Get(ctx context.Context, jobID, userID string) (*models.Job, error)
	Create(ctx context.Context, userID string, in models.JobInput) (*models.Job, error)
	Update(ctx context.Context, jobID, userID string, patch models.JobPatch) (*models.Job, error)
	Delete(ctx context.Context, jobID, userID string) error
}

// Deps are the collaborators of the server, built by the application.
type Deps struct {
	Users    UserService
	Jobs     JobService
	Sessions *session.Manager
	CSRF     *csrf.Guard
	Metrics  *metrics.Metrics
	Logger   logging.Logger

	LogonAttemptsPerMinute int
	// TrustProxy takes the client address from forwarding headers. Off,
	// the peer address is used and those headers are ignored.
	TrustProxy bool
}

type Server struct {
	address  string
	logger   logging.Logger
	users    UserService
	jobs     JobService
	sessions *session.Manager
	csrf     *csrf.Guard
	metrics  *metrics.Metrics
	limiter  *ipLimiter
	proxied  bool
	views    views
	handler  http.Handler
}

func NewServer(address string, d Deps) (*Server, error) {
	v, err := parseViews()
	if err != nil {
		return nil, err
	}

	s := &Server{
		address:  address,
		logger:   d.Logger.With("module", "http_server"),
		users:    d.Users,
		jobs:     d.Jobs,
		sessions: d.Sessions,
		csrf:     d.CSRF,
		metrics:  d.Metrics,
		limiter:  newIPLimiter(d.LogonAttemptsPerMinute, time.Now),
		proxied:  d.TrustProxy,
		views:    v,
	}

	s.sessions.ErrorHandler = s.storeFailure
	s.csrf.ErrorHandler = s.csrfRejected
	s.handler = s.routes()

	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
