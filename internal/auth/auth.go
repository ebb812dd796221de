// Package auth holds the bearer credential issued by the platform. Login and
// token refresh happen elsewhere; this package only carries the token to the
// backend client and tells when it can no longer be used.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lshigami/quizsync/config"
	"github.com/rs/zerolog/log"
)

// AnonymousUser owns attempts when the credential carries no subject.
const AnonymousUser = "anonymous"

var (
	ErrNoCredential   = errors.New("no credential available")
	ErrSessionExpired = errors.New("session expired, sign in again")
)

type TokenSource interface {
	Token() (string, error)
}

type Claims struct {
	UserID    string
	ExpiresAt time.Time // zero when the token does not expire
}

// ParseClaims reads the subject and expiry of a JWT without verifying its
// signature; the backend does that. Opaque tokens yield empty claims.
func ParseClaims(token string) Claims {
	var registered jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &registered); err != nil {
		return Claims{UserID: AnonymousUser}
	}
	claims := Claims{UserID: registered.Subject}
	if claims.UserID == "" {
		claims.UserID = AnonymousUser
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims
}

type Holder struct {
	mu    sync.RWMutex
	token string
	now   func() time.Time
}

// NewHolder seeds the holder from AUTH_TOKEN, or from the file named by
// AUTH_TOKEN_FILE.
func NewHolder(cfg *config.Config) (*Holder, error) {
	h := &Holder{token: cfg.Auth.Token, now: time.Now}
	if h.token == "" && cfg.Auth.TokenFile != "" {
		b, err := os.ReadFile(cfg.Auth.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read token file: %w", err)
		}
		h.token = strings.TrimSpace(string(b))
	}
	if h.token == "" {
		log.Warn().Msg("No bearer token configured, waiting for the UI to provide one")
	}
	return h, nil
}

func (h *Holder) Set(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if token != h.token {
		h.token = token
		log.Debug().Str("user", ParseClaims(token).UserID).Msg("Bearer token updated")
	}
}

// Token returns the current token, or ErrSessionExpired once its expiry has passed.
func (h *Holder) Token() (string, error) {
	h.mu.RLock()
	token := h.token
	h.mu.RUnlock()

	if token == "" {
		return "", ErrNoCredential
	}
	claims := ParseClaims(token)
	if !claims.ExpiresAt.IsZero() && !h.now().Before(claims.ExpiresAt) {
		return "", ErrSessionExpired
	}
	return token, nil
}

// UserID is the subject of the current token.
func (h *Holder) UserID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.token == "" {
		return AnonymousUser
	}
	return ParseClaims(h.token).UserID
}

// Middleware picks up the bearer token the UI sends with each local API call.
func (h *Holder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
			h.Set(strings.TrimSpace(token))
		}
		c.Next()
	}
}
