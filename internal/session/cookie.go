// Package session establishes the authenticated session after a login link
// is accepted. The session is a signed JWT in an HttpOnly cookie; reading it
// back is left to the host application.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultCookieName = "autologin_session"
	DefaultTTL        = 14 * 24 * time.Hour
)

type Config struct {
	CookieName string
	TTL        time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

type CookieSessions struct {
	key []byte
	cfg Config
	now func() time.Time
}

func NewCookieSessions(key []byte, cfg Config) *CookieSessions {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &CookieSessions{key: key, cfg: cfg, now: time.Now}
}

// Establish signs a session token for userID and sets it on w.
func (s *CookieSessions) Establish(w http.ResponseWriter, userID string) error {
	if userID == "" {
		return errors.New("establish session: empty user id")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"amr": []string{"autologin"},
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.TTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(s.cfg.TTL),
		MaxAge:   int(s.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
