package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/logging"
	"github.com/dmitrijs2005/jobtracker/internal/server/auth"
)

const (
	idBytes     = 32
	secretBytes = 32
)

type Config struct {
	// Secret signs the session cookie.
	Secret []byte
	// TTL is the idle lifetime; every request pushes expiry TTL further.
	TTL time.Duration
	// Secure marks the cookie Secure.
	Secure bool
	// CookieName defaults to common.SessionCookieName.
	CookieName string
}

// Manager loads, persists and rotates sessions.
type Manager struct {
	store Store
	cfg   Config
	log   logging.Logger
	now   func() time.Time

	// ErrorHandler writes the response when the store fails. Defaults to a
	// bare 500.
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

func NewManager(store Store, cfg Config, log logging.Logger) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = common.SessionCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Manager{
		store: store,
		cfg:   cfg,
		log:   log.With("module", "session"),
		now:   time.Now,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		},
	}
}

// New returns a fresh anonymous session. It is not stored until Persist.
func (m *Manager) New() (*Session, error) {
	id, err := common.MakeRandToken(idBytes)
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	secret, err := common.MakeRandToken(secretBytes)
	if err != nil {
		return nil, fmt.Errorf("csrf secret: %w", err)
	}
	now := m.now()
	return &Session{
		ID:         id,
		CSRFSecret: secret,
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.cfg.TTL),
	}, nil
}

// Load returns the session named by the request cookie. A missing, forged
// or expired cookie, or a record that is gone, gives a fresh anonymous
// session. Store failures are returned as errors.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return m.New()
	}

	id, err := auth.GetSessionIDFromToken(c.Value, m.cfg.Secret)
	if err != nil {
		m.log.Debug(ctx, "session cookie rejected", "error", err)
		return m.New()
	}

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return m.New()
		}
		return nil, err
	}
	if !sess.ExpiresAt.IsZero() && m.now().After(sess.ExpiresAt) {
		return m.New()
	}
	return sess, nil
}

// Persist writes sess to the store with a renewed expiry and sets the
// session cookie on w. It must run before the response header is written.
func (m *Manager) Persist(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	sess.ExpiresAt = m.now().Add(m.cfg.TTL)
	if err := m.store.Save(ctx, sess, m.cfg.TTL); err != nil {
		return err
	}

	token, err := auth.GenerateToken(sess.ID, m.cfg.Secret, m.cfg.TTL)
	if err != nil {
		return fmt.Errorf("sign session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.cfg.TTL / time.Second),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// BindIdentity logs userID in on sess. The session gets a new id and CSRF
// secret, the old record is dropped. Only flash messages carry over; values
// belong to the previous identity and are discarded.
func (m *Manager) BindIdentity(ctx context.Context, sess *Session, userID string) error {
	fresh, err := m.New()
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, sess.ID); err != nil {
		return err
	}

	sess.ID = fresh.ID
	sess.CSRFSecret = fresh.CSRFSecret
	sess.CreatedAt = fresh.CreatedAt
	sess.UserID = userID
	sess.Values = nil
	return nil
}

// ClearIdentity logs sess out: its record is deleted and sess becomes a
// fresh anonymous session in place.
func (m *Manager) ClearIdentity(ctx context.Context, sess *Session) error {
	fresh, err := m.New()
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, sess.ID); err != nil {
		return err
	}
	*sess = *fresh
	return nil
}
