package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studio730/community-api/internal/config"
)

func runSecure(t *testing.T, cfg config.Config, method, origin string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/v1/records", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	next := func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	}
	require.NoError(t, SecurityHeaders(cfg)(next)(c))
	return rec, reached
}

func TestSecurityHeadersAllowlistedOrigin(t *testing.T) {
	cfg := config.Config{Env: "production", AllowedOrigins: []string{"https://studio730.app"}}
	rec, _ := runSecure(t, cfg, http.MethodGet, "https://studio730.app")

	assert.Equal(t, "https://studio730.app", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestSecurityHeadersUnknownOriginGetsNoCORS(t *testing.T) {
	cfg := config.Config{Env: "production", AllowedOrigins: []string{"https://studio730.app"}}
	rec, _ := runSecure(t, cfg, http.MethodGet, "https://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeadersDevAllowsAnyOriginWithoutCSP(t *testing.T) {
	cfg := config.Config{Env: "dev", AllowedOrigins: []string{"http://localhost:3000"}}
	rec, _ := runSecure(t, cfg, http.MethodGet, "http://localhost:5173")

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestSecurityHeadersPreflightShortCircuits(t *testing.T) {
	cfg := config.Config{Env: "production", AllowedOrigins: []string{"https://studio730.app"}}
	rec, reached := runSecure(t, cfg, http.MethodOptions, "https://studio730.app")

	assert.False(t, reached, "preflight must not reach the handler chain")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://studio730.app", rec.Header().Get("Access-Control-Allow-Origin"))
}
