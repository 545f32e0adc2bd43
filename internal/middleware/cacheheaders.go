package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// CacheOptions describes a Cache-Control policy for one route. Read-heavy
// public listings get short public caching with stale-while-revalidate;
// per-user data stays private.
type CacheOptions struct {
	MaxAge               int // seconds
	StaleWhileRevalidate int // seconds; 0 omits the directive
	Public               bool
	MustRevalidate       bool
}

// Header composes the Cache-Control header value.
func (o CacheOptions) Header() string {
	scope := "private"
	if o.Public {
		scope = "public"
	}
	parts := []string{scope, "max-age=" + strconv.Itoa(o.MaxAge)}
	if o.StaleWhileRevalidate > 0 {
		parts = append(parts, "stale-while-revalidate="+strconv.Itoa(o.StaleWhileRevalidate))
	}
	if o.MustRevalidate {
		parts = append(parts, "must-revalidate")
	}
	return strings.Join(parts, ", ")
}

// CacheControl sets the route's Cache-Control header on successful GET
// responses. Other methods and preflight are left alone.
func CacheControl(opts CacheOptions) echo.MiddlewareFunc {
	value := opts.Header()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodGet {
				c.Response().Header().Set("Cache-Control", value)
			}
			return next(c)
		}
	}
}
