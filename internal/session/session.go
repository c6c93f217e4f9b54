// Package session keeps the signed-in operator in two browser cookies: the
// opaque backend token and the user record.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
)

const (
	TokenCookie    = "auth_token"
	IdentityCookie = "user_data"
	Lifetime       = 24 * time.Hour
)

// Session is the restored pair of cookies
type Session struct {
	User  models.Identity
	Token string
}

type Store struct {
	secure bool
	logger interfaces.Logger
}

func NewStore(secure bool, logger interfaces.Logger) *Store {
	return &Store{secure: secure, logger: logger}
}

// Login persists the identity and token for Lifetime
func (s *Store) Login(w http.ResponseWriter, user models.Identity, token string) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}

	http.SetCookie(w, s.cookie(TokenCookie, token, int(Lifetime.Seconds())))
	http.SetCookie(w, s.cookie(IdentityCookie, base64.RawURLEncoding.EncodeToString(raw), int(Lifetime.Seconds())))

	s.logger.Info("Operator signed in", "user_id", user.ID, "username", user.Username)
	return nil
}

// Logout expires both cookies
func (s *Store) Logout(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(TokenCookie, "", -1))
	http.SetCookie(w, s.cookie(IdentityCookie, "", -1))
}

// CheckAuth restores the session from the request cookies. An identity
// cookie that does not decode is treated as a logout and both cookies are
// cleared.
func (s *Store) CheckAuth(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	tokenCookie, err := r.Cookie(TokenCookie)
	if err != nil || tokenCookie.Value == "" {
		return nil, false
	}
	userCookie, err := r.Cookie(IdentityCookie)
	if err != nil || userCookie.Value == "" {
		return nil, false
	}

	user, err := decodeIdentity(userCookie.Value)
	if err != nil {
		s.logger.Warn("Discarding unreadable session cookie", "error", err.Error())
		s.Logout(w)
		return nil, false
	}

	return &Session{User: user, Token: tokenCookie.Value}, true
}

func decodeIdentity(value string) (models.Identity, error) {
	var user models.Identity
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return user, err
	}
	err = json.Unmarshal(raw, &user)
	return user, err
}

func (s *Store) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying sess
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session placed by the guard, if any
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*Session)
	return sess, ok && sess != nil
}
