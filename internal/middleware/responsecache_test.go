package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studio730/community-api/internal/config"
)

func TestCachedPayloadRoundTrip(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Cache-Control", "public, max-age=60")
	body := []byte(`{"records":[]}`)

	bs, err := encodeCached(http.StatusOK, header, body)
	require.NoError(t, err)

	status, gotHeader, gotBody, ok := decodeCached(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "public, max-age=60", gotHeader.Get("Cache-Control"))
	assert.Equal(t, body, gotBody)
}

func TestDecodeCachedRejectsGarbage(t *testing.T) {
	for _, bs := range [][]byte{nil, {}, {1, 2, 3}, []byte("short"), {0, 0, 0, 200, 255, 255, 255, 255}} {
		_, _, _, ok := decodeCached(bs)
		assert.False(t, ok)
	}
}

func TestCacheKeyStrategies(t *testing.T) {
	e := echo.New()
	newCtx := func(target string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/records")
		return c
	}

	withQuery := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	assert.NotEqual(t,
		cacheKey(withQuery, newCtx("/v1/records?page=1")),
		cacheKey(withQuery, newCtx("/v1/records?page=2")),
		"route_query keys vary by query string")

	routeOnly := config.CacheConfig{Prefix: "cache", KeyStrategy: "route"}
	assert.Equal(t,
		cacheKey(routeOnly, newCtx("/v1/records?page=1")),
		cacheKey(routeOnly, newCtx("/v1/records?page=2")),
		"route keys ignore the query string")
}

func TestResponseCacheDisabledIsPassThrough(t *testing.T) {
	mw := ResponseCache(config.CacheConfig{Enabled: false}, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/records", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, mw(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func newCacheFixture(t *testing.T) (*miniredis.Miniredis, echo.MiddlewareFunc) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          30 * time.Second,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
	return mr, ResponseCache(cfg, rdb)
}

func TestResponseCacheSkipsSignedInViewers(t *testing.T) {
	mr, mw := newCacheFixture(t)
	e := echo.New()

	handler := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"userReaction": CurrentUserID(c)})
	}
	run := func(viewer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/records", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/records")
		if viewer != "" {
			req.Header.Set("Authorization", "Bearer token")
			c.Set(ctxUserID, viewer)
		}
		require.NoError(t, mw(handler)(c))
		return rec
	}

	rec := run("alice")
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Empty(t, mr.Keys(), "personalized response must not be stored")

	rec = run("")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Len(t, mr.Keys(), 1)

	rec = run("alice")
	assert.Empty(t, rec.Header().Get("X-Cache"), "signed-in viewer bypasses a warm cache")
	assert.Contains(t, rec.Body.String(), `"userReaction":"alice"`)

	rec = run("")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), `"userReaction":""`)
}

func TestResponseCacheHitKeepsRequesterCORS(t *testing.T) {
	_, mw := newCacheFixture(t)
	secCfg := config.Config{Env: "production", AllowedOrigins: []string{"https://a.example", "https://b.example"}}
	headers := CacheControl(CacheOptions{MaxAge: 30, StaleWhileRevalidate: 30, Public: true})
	e := echo.New()

	handler := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"records": []string{}})
	}
	chain := SecurityHeaders(secCfg)(headers(mw(handler)))
	run := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/records", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/records")
		require.NoError(t, chain(c))
		return rec
	}

	rec := run("https://a.example")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec = run("https://b.example")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, []string{"https://b.example"}, rec.Header().Values("Access-Control-Allow-Origin"),
		"hit carries the second requester's origin, once")
	assert.Len(t, rec.Header().Values("Cache-Control"), 1)
	assert.Len(t, rec.Header().Values("X-Content-Type-Options"), 1)
}
