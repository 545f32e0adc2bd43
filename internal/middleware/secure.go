package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/config"
)

const csp = "default-src 'self'; script-src 'self' 'unsafe-eval' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self' data:;"

// SecurityHeaders attaches the CORS and hardening headers carried by every
// response, and short-circuits CORS preflight: an OPTIONS request answers
// 200 with these headers before rate limiting or authentication run, so
// preflight is never limited or challenged. The allow-list gates
// Access-Control-Allow-Origin outside dev; CSP is applied only outside
// dev so local tooling is not locked down.
func SecurityHeaders(cfg config.Config) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = true
	}
	dev := cfg.Dev()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			origin := c.Request().Header.Get("Origin")
			switch {
			case allowed[origin]:
				h.Set("Access-Control-Allow-Origin", origin)
			case dev:
				if origin == "" {
					origin = "*"
				}
				h.Set("Access-Control-Allow-Origin", origin)
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Max-Age", "86400")

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "1; mode=block")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if !dev {
				h.Set("Content-Security-Policy", csp)
			}

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
