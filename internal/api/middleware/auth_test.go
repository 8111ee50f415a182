package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"starhawk-api-server/internal/api/response"
	"starhawk-api-server/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSessions map[string]bool

func (f fakeSessions) IsActive(_ context.Context, id string) (bool, error) {
	if id == "broken" {
		return false, errors.New("db down")
	}
	return f[id], nil
}

func newRouter(tokens *auth.TokenManager, sessions SessionChecker, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", Authenticate(tokens, sessions), Authorize(roles...), func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{
			"userId": c.GetString(UserIDKey),
			"role":   c.GetString(UserRoleKey),
		})
	})
	return r
}

func do(r http.Handler, header string) (*httptest.ResponseRecorder, response.Envelope) {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env response.Envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	sessions := fakeSessions{"live": true, "revoked": false}
	r := newRouter(tokens, sessions, "farmer")

	live, _, err := tokens.Generate("u1", "a@b.com", "farmer", "live")
	require.NoError(t, err)
	revoked, _, err := tokens.Generate("u1", "a@b.com", "farmer", "revoked")
	require.NoError(t, err)
	broken, _, err := tokens.Generate("u1", "a@b.com", "farmer", "broken")
	require.NoError(t, err)
	forged, _, err := auth.NewTokenManager("other", time.Hour).Generate("u1", "a@b.com", "farmer", "live")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
		errMsg string
	}{
		{"missing header", "", http.StatusUnauthorized, "Access token required"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Invalid token format"},
		{"forged", "Bearer " + forged, http.StatusUnauthorized, "Invalid or expired token"},
		{"revoked session", "Bearer " + revoked, http.StatusUnauthorized, "Session has been revoked"},
		{"session lookup fails", "Bearer " + broken, http.StatusInternalServerError, "Internal server error"},
		{"valid", "Bearer " + live, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := do(r, tc.header)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.status == http.StatusOK, env.Success)
			assert.Equal(t, tc.errMsg, env.Message)
		})
	}

	w, env := do(r, "Bearer "+live)
	require.Equal(t, http.StatusOK, w.Code)
	data := env.Data.(map[string]interface{})
	assert.Equal(t, "u1", data["userId"])
	assert.Equal(t, "farmer", data["role"])
}

func TestAuthorize_WrongRole(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	r := newRouter(tokens, fakeSessions{"s": true}, "insurer", "admin")

	token, _, err := tokens.Generate("u1", "a@b.com", "farmer", "s")
	require.NoError(t, err)

	w, env := do(r, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Insufficient permissions", env.Message)
}

func TestAuthorize_WithoutAuthenticate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", Authorize("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w, _ := do(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Set(UserIDKey, "u9"); c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "u9", entries[0].ContextMap()["userId"])
	assert.EqualValues(t, 200, entries[0].ContextMap()["status"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}
