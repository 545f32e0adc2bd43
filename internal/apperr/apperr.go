// Package apperr defines the typed application error used across every
// handler and middleware, together with the single mapping function that
// converts any failure into the uniform JSON error body
// {"error": message, "code": code}. Handlers never hand-roll their own
// error responses; they return an *Error (or any error) and the Echo
// error handler installed from this package does the rest.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Machine-readable error codes returned in the "code" field. Clients key
// their handling off these values, so they are stable.
const (
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeInternal          = "INTERNAL_ERROR"
	CodeDatabase          = "DATABASE_ERROR"
	CodeUnknown           = "UNKNOWN_ERROR"
)

// Error carries an HTTP status, a human-readable message and a stable
// machine code. It is created at the point a policy or domain rule is
// violated and consumed exactly once at the HTTP boundary.
type Error struct {
	Status  int
	Message string
	Code    string
}

func (e *Error) Error() string { return e.Message }

// New builds an Error with an explicit status/message/code triple.
func New(status int, message, code string) *Error {
	return &Error{Status: status, Message: message, Code: code}
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message, CodeForbidden)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, CodeNotFound)
}

func Validation(message string) *Error {
	return New(http.StatusBadRequest, message, CodeValidation)
}

func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

func RateLimited(message string) *Error {
	return New(http.StatusTooManyRequests, message, CodeRateLimitExceeded)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message, CodeInternal)
}

// Database wraps a store failure. The underlying error is not exposed to
// the client; callers should log it before (or instead of) wrapping.
func Database(message string) *Error {
	return New(http.StatusInternalServerError, message, CodeDatabase)
}

// codeForStatus maps a bare HTTP status (from echo.HTTPError, typically
// produced by the router itself) onto the taxonomy.
func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusTooManyRequests:
		return CodeRateLimitExceeded
	default:
		return CodeInternal
	}
}

// HTTPErrorHandler returns the central Echo error handler. Typed *Error
// values are rendered verbatim. echo.HTTPError (router 404/405, bind
// failures) is translated onto the taxonomy. Anything else becomes a 500
// with code INTERNAL_ERROR; the real message is only revealed when the
// application runs in the "dev" environment so that internals (SQL
// fragments, file paths) never leak to production clients. Every mapped
// error is logged server-side with full detail.
func HTTPErrorHandler(env string) echo.HTTPErrorHandler {
	dev := env == "dev"
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var ae *Error
		if errors.As(err, &ae) {
			if ae.Status >= http.StatusInternalServerError {
				c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
			}
			_ = c.JSON(ae.Status, echo.Map{"error": ae.Message, "code": ae.Code})
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
			if he.Code >= http.StatusInternalServerError {
				c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
				if !dev {
					msg = "Internal server error"
				}
			}
			_ = c.JSON(he.Code, echo.Map{"error": msg, "code": codeForStatus(he.Code)})
			return
		}

		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		msg := "Internal server error"
		if dev {
			msg = err.Error()
		}
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": msg, "code": CodeInternal})
	}
}
