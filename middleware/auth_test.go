package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"restaurant-crm-api/apperr"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type fakeTokens map[string]uint

func (f fakeTokens) VerifyAccess(token string) (uint, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return 0, apperr.Unauthorized("Invalid access token")
}

type fakeAccounts struct {
	live map[uint]bool
	err  error
}

func (f fakeAccounts) Exists(_ context.Context, id uint) (bool, error) {
	return f.live[id], f.err
}

func newGuardedEngine(accounts fakeAccounts) (*gin.Engine, *bytes.Buffer) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	log := logrus.New()
	log.SetOutput(&logs)

	r := gin.New()
	r.Use(RequestLogger(log))
	tokens := fakeTokens{"cookie-token": 1, "header-token": 2, "ghost-token": 3}
	r.GET("/me", AuthRequired(tokens, accounts), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"account_id": GetAccountID(c)})
	})
	return r, &logs
}

func TestAuthRequired(t *testing.T) {
	live := fakeAccounts{live: map[uint]bool{1: true, 2: true}}

	cases := []struct {
		name   string
		cookie string
		header string
		status int
		body   string
	}{
		{name: "no credential", status: http.StatusUnauthorized},
		{name: "header", header: "Bearer header-token", status: http.StatusOK, body: `"account_id":2`},
		{name: "lowercase scheme", header: "bearer header-token", status: http.StatusOK, body: `"account_id":2`},
		{name: "cookie", cookie: "cookie-token", status: http.StatusOK, body: `"account_id":1`},
		{name: "cookie wins", cookie: "cookie-token", header: "Bearer header-token", status: http.StatusOK, body: `"account_id":1`},
		{name: "invalid token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic header-token", status: http.StatusUnauthorized},
		{name: "deleted account", header: "Bearer ghost-token", status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newGuardedEngine(live)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				assert.Contains(t, w.Body.String(), tc.body)
			} else {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestAuthRequiredStoreFailure(t *testing.T) {
	r, logs := newGuardedEngine(fakeAccounts{err: errors.New("db down")})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
	assert.Contains(t, logs.String(), "db down")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
