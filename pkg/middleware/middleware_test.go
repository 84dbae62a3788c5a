package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/littlelemon/config"
	"github.com/shashiranjanraj/littlelemon/pkg/auth"
	"github.com/shashiranjanraj/littlelemon/pkg/logger"
	"github.com/shashiranjanraj/littlelemon/pkg/middleware"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
	"github.com/shashiranjanraj/littlelemon/pkg/reqid"
)

type stubProvider map[uint]rbac.Principal

func (s stubProvider) Principal(_ context.Context, id uint) (rbac.Principal, error) {
	if id == 99 {
		return rbac.Principal{}, errors.New("db down")
	}
	p, ok := s[id]
	if !ok {
		return rbac.Principal{}, rbac.ErrUnknownPrincipal
	}
	return p, nil
}

func TestAuthenticate(t *testing.T) {
	config.Set("JWT_SECRET", "mw-secret")
	provider := stubProvider{7: {UserID: 7, Username: "mario", Roles: []rbac.Role{rbac.RoleManager}}}

	var seen rbac.Principal
	h := middleware.Authenticate(provider)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = rbac.FromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	good, err := auth.GenerateToken(7)
	require.NoError(t, err)
	unknown, err := auth.GenerateToken(8)
	require.NoError(t, err)
	broken, err := auth.GenerateToken(99)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serve(""))
	assert.Equal(t, http.StatusUnauthorized, serve("Bearer nonsense"))
	assert.Equal(t, http.StatusUnauthorized, serve("Bearer "+unknown))
	assert.Equal(t, http.StatusInternalServerError, serve("Bearer "+broken))

	assert.Equal(t, http.StatusOK, serve("Bearer "+good))
	assert.Equal(t, "mario", seen.Username)
	assert.True(t, seen.IsManager())

	assert.Equal(t, http.StatusOK, serve("Token "+good))
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}

func TestLoggerTagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(nopWriter{}) })

	h := reqid.Middleware()(middleware.Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.WithCtx(r.Context()).Info("inside")
		w.WriteHeader(http.StatusCreated)
	})))

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(reqid.Header, "rid-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, "msg=inside request_id=rid-1")
	assert.Contains(t, out, "status=201")
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestCORSPreflight(t *testing.T) {
	h := middleware.CORS(middleware.CORSOptions{
		AllowedOrigins: []string{"https://littlelemon.example"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         60,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/menu-items", nil)
	req.Header.Set("Origin", "https://littlelemon.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://littlelemon.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "60", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/menu-items", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitPerIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := middleware.NewMemoryLimiter(ctx, 2, time.Minute)
	h := middleware.RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/menu-items", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve("10.0.0.1"))
	assert.Equal(t, http.StatusOK, serve("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.1"))
	assert.Equal(t, http.StatusOK, serve("10.0.0.2"))

	req := httptest.NewRequest(http.MethodGet, "/menu-items", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.3, 172.16.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, strings.Contains(rec.Body.String(), "Too Many"))
}
