// Package middleware provides the request policy chain shared by all
// routes: JWT session resolution, role/blocked guards, rate limiting,
// security and cache header composition, panic recovery and the optional
// Redis response cache.
package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
)

// Context keys set by the auth middleware and consumed downstream.
const (
	ctxUserID   = "user_id"
	ctxRole     = "role"
	ctxIdentity = "identity"
)

// JWTAuth validates a Bearer access token and injects the token's subject
// and role claims into the request context. It is the external session
// resolver boundary: everything after it trusts c.Get("user_id") to be a
// verified user id for the duration of this request only.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return apperr.Unauthorized("Unauthorized")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return apperr.Unauthorized("Invalid or expired token")
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return apperr.Unauthorized("Invalid or expired token")
			}
			sub, _ := claims["sub"].(string)
			if sub == "" {
				return apperr.Unauthorized("Invalid or expired token")
			}

			c.Set(ctxUserID, sub)
			if role, ok := claims["role"].(string); ok {
				c.Set(ctxRole, role)
			}
			return next(c)
		}
	}
}

// JWTOptional resolves a Bearer token when one is present but never
// rejects the request. Public routes use it so per-viewer state (the
// viewer's own reactions in the feed) can be computed for signed-in
// readers while staying open to everyone else.
func JWTOptional(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return next(c)
			}
			if claims, ok := tok.Claims.(jwt.MapClaims); ok {
				if sub, _ := claims["sub"].(string); sub != "" {
					c.Set(ctxUserID, sub)
				}
			}
			return next(c)
		}
	}
}
