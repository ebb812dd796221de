package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lshigami/quizsync/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, subject string, expires time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: subject}
	if !expires.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expires)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestHolder_Token(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "no token", token: "", wantErr: ErrNoCredential},
		{name: "valid", token: signed(t, "user-1", now.Add(time.Hour))},
		{name: "expired", token: signed(t, "user-1", now.Add(-time.Second)), wantErr: ErrSessionExpired},
		{name: "no expiry", token: signed(t, "user-1", time.Time{})},
		{name: "opaque", token: "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Holder{token: tt.token, now: func() time.Time { return now }}
			got, err := h.Token()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.token, got)
		})
	}
}

func TestParseClaims(t *testing.T) {
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	claims := ParseClaims(signed(t, "learner-7", expires))
	assert.Equal(t, "learner-7", claims.UserID)
	assert.True(t, expires.Equal(claims.ExpiresAt))

	assert.Equal(t, AnonymousUser, ParseClaims("opaque").UserID)
	assert.Equal(t, AnonymousUser, ParseClaims(signed(t, "", time.Time{})).UserID)
}

func TestNewHolder_TokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	token := signed(t, "from-file", time.Time{})
	require.NoError(t, os.WriteFile(path, []byte(token+"\n"), 0o600))

	cfg := &config.Config{}
	cfg.Auth.TokenFile = path
	h, err := NewHolder(cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-file", h.UserID())

	cfg.Auth.TokenFile = filepath.Join(t.TempDir(), "missing")
	_, err = NewHolder(cfg)
	assert.Error(t, err)
}

func TestHolder_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Holder{now: time.Now}
	r := gin.New()
	r.Use(h.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	token := signed(t, "ui-user", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "ui-user", h.UserID())
	got, err := h.Token()
	require.NoError(t, err)
	assert.Equal(t, token, got)
}
