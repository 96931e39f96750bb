// Package csrf guards state-changing requests with tokens bound to the
// current session.
//
// A token is base64url(nonce || HMAC-SHA256(secret, sessionSecret || nonce)).
// It is only valid for the session whose CSRF secret produced it, so a new
// session (after logon or logout) invalidates every earlier token.
package csrf

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/logging"
	"github.com/dmitrijs2005/jobtracker/internal/server/session"
)

const (
	nonceSize = 16
	tokenSize = nonceSize + sha256.Size

	// maxJSONPeek bounds how much of a JSON body is read looking for the token.
	maxJSONPeek = 1 << 20
)

// Content types a browser form can send cross-site without a preflight.
// Their bodies are always searched for the token.
var simpleContentTypes = []string{
	"application/x-www-form-urlencoded",
	"multipart/form-data",
	"text/plain",
}

type Config struct {
	// Secret keys the token HMAC.
	Secret []byte
	// ProtectedMethods are checked; others pass. Default POST, PUT, PATCH, DELETE.
	ProtectedMethods []string
	// ProtectedContentTypes are the bodies searched for the token in addition
	// to the simple browser types. Default application/json.
	ProtectedContentTypes []string
	// DevelopmentMode logs failures instead of rejecting.
	DevelopmentMode bool
	// Secure marks the token cookie Secure.
	Secure bool

	FieldName  string
	HeaderName string
	CookieName string
}

func (c *Config) setDefaults() {
	if len(c.ProtectedMethods) == 0 {
		c.ProtectedMethods = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
	}
	if len(c.ProtectedContentTypes) == 0 {
		c.ProtectedContentTypes = []string{"application/json"}
	}
	if c.FieldName == "" {
		c.FieldName = common.CSRFFieldName
	}
	if c.HeaderName == "" {
		c.HeaderName = common.CSRFHeaderName
	}
	if c.CookieName == "" {
		c.CookieName = common.CSRFCookieName
	}
}

type Guard struct {
	cfg          Config
	methods      map[string]bool
	contentTypes map[string]bool
	log          logging.Logger

	// ErrorHandler writes the rejection. Defaults to a plain 403.
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

func New(cfg Config, log logging.Logger) *Guard {
	cfg.setDefaults()

	g := &Guard{
		cfg:          cfg,
		methods:      make(map[string]bool),
		contentTypes: make(map[string]bool),
		log:          log.With("module", "csrf"),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		},
	}
	for _, m := range cfg.ProtectedMethods {
		g.methods[strings.ToUpper(m)] = true
	}
	for _, ct := range cfg.ProtectedContentTypes {
		g.contentTypes[strings.ToLower(ct)] = true
	}
	for _, ct := range simpleContentTypes {
		g.contentTypes[ct] = true
	}
	return g
}

// FieldName is the form field templates put the token in.
func (g *Guard) FieldName() string {
	return g.cfg.FieldName
}

// Token issues a fresh token for sess.
func (g *Guard) Token(sess *session.Session) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("csrf nonce: %w", err)
	}

	token := make([]byte, 0, tokenSize)
	token = append(token, nonce...)
	token = append(token, g.sign(sess, nonce)...)
	return base64.RawURLEncoding.EncodeToString(token), nil
}

func (g *Guard) sign(sess *session.Session, nonce []byte) []byte {
	h := hmac.New(sha256.New, g.cfg.Secret)
	h.Write([]byte(sess.CSRFSecret))
	h.Write(nonce)
	return h.Sum(nil)
}

// Valid reports whether token was issued for sess.
func (g *Guard) Valid(sess *session.Session, token string) bool {
	if token == "" || sess == nil || sess.CSRFSecret == "" {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != tokenSize {
		return false
	}
	return hmac.Equal(raw[nonceSize:], g.sign(sess, raw[:nonceSize]))
}

// Verify checks r against sess. Requests with an unprotected method pass.
// Every other request needs a valid token whatever its content type. The
// token is taken from the header first; bodies of the checked content types
// (forms, and JSON unless configured otherwise) are searched next. Any other
// body only counts the header.
func (g *Guard) Verify(r *http.Request, sess *session.Session) error {
	if !g.methods[r.Method] {
		return nil
	}

	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return fmt.Errorf("%w: bad content type", common.ErrCSRFInvalid)
		}
		mediaType = mt
	}

	if g.Valid(sess, g.extract(r, mediaType)) {
		return nil
	}
	return common.ErrCSRFInvalid
}

func (g *Guard) extract(r *http.Request, mediaType string) string {
	if t := r.Header.Get(g.cfg.HeaderName); t != "" {
		return t
	}

	if !g.contentTypes[mediaType] {
		return ""
	}
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return r.PostFormValue(g.cfg.FieldName)
	case "application/json":
		return g.peekJSON(r)
	}
	return ""
}

// peekJSON reads the token field from a JSON object body and puts the body
// back for the handler.
func (g *Guard) peekJSON(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONPeek))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	var token string
	if err := json.Unmarshal(fields[g.cfg.FieldName], &token); err != nil {
		return ""
	}
	return token
}

// Middleware rejects requests that fail Verify against the session on the
// request context. It must run after session.Manager.Middleware.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := session.FromContext(r.Context())

		if err := g.Verify(r, sess); err != nil {
			if g.cfg.DevelopmentMode {
				g.log.Warn(r.Context(), "csrf check failed, allowed in development mode",
					"method", r.Method, "path", r.URL.Path)
			} else {
				g.log.Info(r.Context(), "csrf check failed", "method", r.Method, "path", r.URL.Path)
				g.ErrorHandler(w, r, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SetCookie hands a token to scripts through a cookie they can read and
// echo in the CSRF header.
func (g *Guard) SetCookie(w http.ResponseWriter, sess *session.Session) (string, error) {
	token, err := g.Token(sess)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Secure:   g.cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}
