package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"

	"github.com/studio730/community-api/internal/apperr"
)

// Recover converts handler panics into taxonomy errors instead of letting
// them kill the connection. A recovered error value maps to 500
// INTERNAL_ERROR through the central error handler (message revealed only
// in dev); a non-error panic value maps to 500 UNKNOWN_ERROR with a
// generic message. The stack is logged either way.
func Recover() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := make([]byte, 4<<10)
					stack = stack[:runtime.Stack(stack, false)]
					c.Logger().Errorf("panic: %v\n%s", r, stack)

					if e, ok := r.(error); ok {
						err = fmt.Errorf("recovered from panic: %w", e)
						return
					}
					err = apperr.New(http.StatusInternalServerError,
						"Internal server error", apperr.CodeUnknown)
				}
			}()
			return next(c)
		}
	}
}
