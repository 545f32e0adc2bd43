package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/model"
	"github.com/studio730/community-api/internal/repository"
)

// RequireRole enforces that the authenticated user currently holds one of
// the given roles. The user row is reloaded on every request rather than
// trusting the token's role claim: a stale session referencing a deleted
// account answers 404 (taking precedence over the role check), a blocked
// account answers 403 regardless of role, and only then is the role
// matched against the allowed set. The fresh identity is stored in the
// context for handlers via CurrentIdentity.
func RequireRole(users *repository.UserRepo, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := c.Get(ctxUserID).(string)
			if !ok || uid == "" {
				return apperr.Unauthorized("Unauthorized")
			}

			u, err := users.GetByID(c.Request().Context(), uid)
			if errors.Is(err, repository.ErrUserNotFound) {
				return apperr.NotFound("User not found")
			}
			if err != nil {
				return apperr.Database("Failed to resolve user")
			}

			if u.Blocked {
				return apperr.Forbidden("Your account has been blocked")
			}
			if !allowed[u.Role] {
				return apperr.Forbidden("Insufficient permissions")
			}

			c.Set(ctxIdentity, u.Identity())
			return next(c)
		}
	}
}

// CurrentIdentity returns the identity resolved by RequireRole for this
// request. The second return is false on routes that did not pass through
// the guard.
func CurrentIdentity(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(ctxIdentity).(model.Identity)
	return id, ok
}

// CurrentUserID returns the verified user id set by JWTAuth, or "" on
// anonymous requests.
func CurrentUserID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok {
		return s
	}
	return ""
}
