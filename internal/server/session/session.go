// Package session implements server-side sessions: a signed cookie naming a
// record kept in Redis, loaded and written back on every request.
package session

import (
	"context"
	"time"
)

// Session is the server-side state of one browser. UserID is empty for
// anonymous visitors.
type Session struct {
	ID         string              `json:"id"`
	UserID     string              `json:"user_id,omitempty"`
	CSRFSecret string              `json:"csrf_secret"`
	Flash      map[string][]string `json:"flash,omitempty"`
	Values     map[string]string   `json:"values,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	ExpiresAt  time.Time           `json:"expires_at"`
}

// Authenticated reports whether a user is bound to the session.
func (s *Session) Authenticated() bool {
	return s.UserID != ""
}

// AddFlash queues msg under kind until the next Flashes(kind).
func (s *Session) AddFlash(kind, msg string) {
	if s.Flash == nil {
		s.Flash = make(map[string][]string)
	}
	s.Flash[kind] = append(s.Flash[kind], msg)
}

// Flashes returns and clears the messages queued under kind.
func (s *Session) Flashes(kind string) []string {
	msgs := s.Flash[kind]
	delete(s.Flash, kind)
	return msgs
}

func (s *Session) Value(key string) (string, bool) {
	v, ok := s.Values[key]
	return v, ok
}

func (s *Session) SetValue(key, value string) {
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	s.Values[key] = value
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session placed on ctx by Manager.Middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
