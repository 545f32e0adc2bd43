package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studio730/community-api/internal/apperr"
	"github.com/studio730/community-api/internal/utils"
)

const testSecret = "test-secret"

func bearer(t *testing.T, secret, uid, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, uid, role, 15)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func runAuth(mw echo.MiddlewareFunc, authorization string) (echo.Context, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/records", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return c, err
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	c, err := runAuth(JWTAuth(testSecret), bearer(t, testSecret, "u1", "user"))
	require.NoError(t, err)
	assert.Equal(t, "u1", CurrentUserID(c))
	assert.Equal(t, "user", c.Get(ctxRole))
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	_, err := runAuth(JWTAuth(testSecret), "")
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	_, err := runAuth(JWTAuth(testSecret), bearer(t, "other-secret", "u1", "user"))
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.CodeUnauthorized, ae.Code)
}

func TestJWTOptionalSetsViewerWhenValid(t *testing.T) {
	c, err := runAuth(JWTOptional(testSecret), bearer(t, testSecret, "u1", "user"))
	require.NoError(t, err)
	assert.Equal(t, "u1", CurrentUserID(c))
}

func TestJWTOptionalNeverRejects(t *testing.T) {
	c, err := runAuth(JWTOptional(testSecret), "")
	require.NoError(t, err)
	assert.Empty(t, CurrentUserID(c))

	c, err = runAuth(JWTOptional(testSecret), "Bearer garbage")
	require.NoError(t, err)
	assert.Empty(t, CurrentUserID(c))
}
