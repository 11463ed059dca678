// pkg/session/store.go
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey struct{ name string }

var sessionCtxKey = &contextKey{"session"}

// Session is the per-browser key/value state carried in the signed cookie.
type Session struct {
	ID     string
	values map[string]string
}

func (s *Session) Get(k string) (string, bool) {
	v, ok := s.values[k]
	return v, ok
}

func (s *Session) Set(k, v string) {
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[k] = v
}

func (s *Session) Delete(k string) { delete(s.values, k) }

type claims struct {
	jwt.RegisteredClaims
	Data map[string]string `json:"data,omitempty"`
}

// Store keeps sessions client-side in an HS256-signed cookie.
type Store struct {
	name   string
	key    []byte
	maxAge time.Duration
	secure bool
	now    func() time.Time
}

func NewStore(cookieName string, key []byte, maxAge time.Duration, secure bool) *Store {
	return &Store{name: cookieName, key: key, maxAge: maxAge, secure: secure, now: time.Now}
}

func (s *Store) CookieName() string { return s.name }

// Load returns the request's session, or a fresh one when the cookie is
// missing, expired or fails verification.
func (s *Store) Load(r *http.Request) *Session {
	c, err := r.Cookie(s.name)
	if err != nil || c.Value == "" {
		return s.fresh()
	}
	sess, err := s.decode(c.Value)
	if err != nil {
		return s.fresh()
	}
	return sess
}

func (s *Store) fresh() *Session {
	return &Session{ID: uuid.NewString(), values: map[string]string{}}
}

func (s *Store) decode(raw string) (*Session, error) {
	var c claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	tok, err := parser.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) { return s.key, nil })
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid session cookie")
	}
	if c.Data == nil {
		c.Data = map[string]string{}
	}
	return &Session{ID: c.ID, values: c.Data}, nil
}

// Save writes the session cookie, replacing any Set-Cookie for it already
// queued on w.
func (s *Store) Save(w http.ResponseWriter, sess *Session) error {
	now := s.now()
	rc := jwt.RegisteredClaims{ID: sess.ID, IssuedAt: jwt.NewNumericDate(now)}
	if s.maxAge > 0 {
		rc.ExpiresAt = jwt.NewNumericDate(now.Add(s.maxAge))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{RegisteredClaims: rc, Data: sess.values}).SignedString(s.key)
	if err != nil {
		return err
	}

	h := w.Header()
	kept := h.Values("Set-Cookie")[:0:0]
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, s.name+"=") {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}

	c := &http.Cookie{
		Name:     s.name,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.maxAge > 0 {
		c.MaxAge = int(s.maxAge / time.Second)
	}
	http.SetCookie(w, c)
	return nil
}

// Middleware loads the session into the request context.
func (s *Store) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), sessionCtxKey, s.Load(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// From returns the session loaded by Middleware, or nil.
func From(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionCtxKey).(*Session); ok {
		return s
	}
	return nil
}
