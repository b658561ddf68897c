package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imvu-insight-api/internal/config"
	"imvu-insight-api/internal/model"
	"imvu-insight-api/internal/service"
)

func newAuthStack(t *testing.T) (*service.TokenService, http.Handler, *model.Principal) {
	t.Helper()
	tokens := service.NewTokenService(config.AuthConfig{
		JWTSecret:  "test-secret",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})

	var seen model.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := GetPrincipal(r.Context()); p != nil {
			seen = *p
		}
		w.WriteHeader(http.StatusOK)
	})
	return tokens, NewAuth(tokens)(next), &seen
}

func TestAuthAcceptsValidToken(t *testing.T) {
	tokens, handler, seen := newAuthStack(t)
	access, _, err := tokens.IssueAccess(&model.User{ID: 7, Username: "vinz"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), seen.UserID)
	assert.Equal(t, "vinz", seen.UserName)
}

func TestAuthRejectsUniformly(t *testing.T) {
	_, handler, _ := newAuthStack(t)

	expiredTokens := service.NewTokenService(config.AuthConfig{
		JWTSecret:  "test-secret",
		AccessTTL:  -time.Minute,
		RefreshTTL: time.Hour,
	})
	expired, _, err := expiredTokens.IssueAccess(&model.User{ID: 7, Username: "vinz"})
	require.NoError(t, err)

	otherSecret := service.NewTokenService(config.AuthConfig{
		JWTSecret:  "other-secret",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	forged, _, err := otherSecret.IssueAccess(&model.User{ID: 7, Username: "vinz"})
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"empty token":    "Bearer ",
		"garbage":        "Bearer not.a.token",
		"expired":        "Bearer " + expired,
		"wrong secret":   "Bearer " + forged,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t,
				`{"success":false,"error":{"code":"UNAUTHORIZED","message":"invalid or expired token"}}`,
				rec.Body.String())
		})
	}
}
