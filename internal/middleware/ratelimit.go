package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/ratelimit"
)

// ClientIdentifier derives the rate-limit key for a request: the first
// address in X-Forwarded-For, else X-Real-Ip, else "unknown". Requests
// sharing an identifier compete for the same budget, which is a known
// policy weakness behind large NATs; see the design notes before changing
// the derivation.
func ClientIdentifier(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); ip != "" {
		return ip
	}
	return "unknown"
}

// RateLimit returns a fixed-window limiter middleware with its own
// (limit, window) budget. name scopes the keyspace so routes sharing one
// store (Redis) still track clients independently per endpoint. CORS
// preflight is never limited. A failing store admits the request: an
// infrastructure hiccup must not turn into a client-facing 429.
func RateLimit(store ratelimit.Store, name string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}

			key := "rl:" + name + ":" + ClientIdentifier(c.Request())
			res, err := store.Admit(c.Request().Context(), key, limit, window)
			if err != nil {
				c.Logger().Warnf("ratelimit: store error for %s: %v", key, err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.UnixMilli(), 10))

			if !res.Allowed {
				secs := int(math.Ceil(time.Until(res.ResetAt).Seconds()))
				if secs < 0 {
					secs = 0
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				return apperr.RateLimited("Rate limit exceeded. Please try again in " + strconv.Itoa(secs) + " seconds.")
			}
			return next(c)
		}
	}
}
