package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheOptionsHeader(t *testing.T) {
	cases := []struct {
		opts CacheOptions
		want string
	}{
		{CacheOptions{MaxAge: 60, StaleWhileRevalidate: 30, Public: true}, "public, max-age=60, stale-while-revalidate=30"},
		{CacheOptions{MaxAge: 120, Public: true, MustRevalidate: true}, "public, max-age=120, must-revalidate"},
		{CacheOptions{MaxAge: 0}, "private, max-age=0"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.opts.Header())
	}
}

func TestCacheControlOnlyAppliesToGET(t *testing.T) {
	mw := CacheControl(CacheOptions{MaxAge: 60, Public: true})
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/v1/records", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		require.NoError(t, mw(next)(c))

		if method == http.MethodGet {
			assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
		} else {
			assert.Empty(t, rec.Header().Get("Cache-Control"), method)
		}
	}
}
