package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, env string, err error) (int, map[string]string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorHandler(env)(err, c)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHandlerRendersTypedErrorVerbatim(t *testing.T) {
	status, body := render(t, "production", Forbidden("Your account has been blocked"))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Your account has been blocked", body["error"])
	assert.Equal(t, CodeForbidden, body["code"])
}

func TestHandlerMapsStatusesToCodes(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
		code   string
	}{
		{Unauthorized("no token"), http.StatusUnauthorized, CodeUnauthorized},
		{NotFound("Record not found"), http.StatusNotFound, CodeNotFound},
		{Validation("bad input"), http.StatusBadRequest, CodeValidation},
		{RateLimited("slow down"), http.StatusTooManyRequests, CodeRateLimitExceeded},
		{Database("Failed to fetch records"), http.StatusInternalServerError, CodeDatabase},
		{Internal("boom"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tc := range cases {
		status, body := render(t, "production", tc.err)
		assert.Equal(t, tc.status, status)
		assert.Equal(t, tc.code, body["code"])
	}
}

func TestHandlerTranslatesEchoHTTPError(t *testing.T) {
	status, body := render(t, "production", echo.NewHTTPError(http.StatusNotFound, "Not Found"))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, CodeNotFound, body["code"])
}

func TestHandlerHidesInternalDetailInProduction(t *testing.T) {
	status, body := render(t, "production", errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, CodeInternal, body["code"])
}

func TestHandlerRevealsDetailInDev(t *testing.T) {
	_, body := render(t, "dev", errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	assert.Contains(t, body["error"], "connection refused")
}

func TestHandlerSkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, c.NoContent(http.StatusNoContent))

	HTTPErrorHandler("production")(Internal("late failure"), c)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
