package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harmonia/api/internal/config"
	"harmonia/api/internal/handlers"
	"harmonia/api/internal/security"
)

func newTestServer(t *testing.T) *HTTPServer {
	t.Helper()
	tokens, err := security.NewTokenService("server-test-secret-0123456789abcdef", time.Hour)
	require.NoError(t, err)

	cfg := &config.AppConfig{
		Environment:      "test",
		HTTP:             config.HTTPConfig{Host: "127.0.0.1", Port: 0},
		AllowCORSOrigins: []string{"http://localhost:3000"},
	}
	hs := handlers.NewHandlerSet(zerolog.Nop(), cfg.Environment, handlers.Services{
		Tokens: tokens,
		HealthChecks: map[string]func(context.Context) error{
			"database": func(context.Context) error { return nil },
		},
	})
	return NewHTTPServer(cfg, zerolog.Nop(), hs)
}

func TestServerMiddlewareChain(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found"}`, rec.Body.String())
}

func TestServerProtectedRouteWithoutToken(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"missing_token"}`, rec.Body.String())
}
