package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherwear/weatherwear/internal/config"
	"github.com/weatherwear/weatherwear/internal/model"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`[{"id":1}]`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `[{"id":1}]`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}

func TestCacheKeyDependsOnPathAndQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "ww:cache", KeyStrategy: config.KeyRouteQuery}
	key := func(target string) string {
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		return cacheKeyFrom(cfg, c)
	}
	a := key("/api/temperature/AA?order-by=value")
	assert.Equal(t, a, key("/api/temperature/AA?order-by=value"))
	assert.NotEqual(t, a, key("/api/temperature/BB?order-by=value"))
	assert.NotEqual(t, a, key("/api/temperature/AA?order-by=timestamp"))
	assert.Contains(t, a, "ww:cache:")

	cfg.KeyStrategy = config.KeyRoute
	assert.Equal(t, key("/api/temperature/AA?order-by=value"), key("/api/temperature/AA"))
}

func TestCaptureWriterOverflow(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	assert.False(t, cw.overflow)
	_, _ = cw.Write([]byte("defg"))
	assert.True(t, cw.overflow)
	assert.Equal(t, "abcdefg", rec.Body.String())
}

func TestRedisMiddlewaresPassThroughWithoutClient(t *testing.T) {
	e := echo.New()
	h := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/a", h,
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil),
		NewRedisCache(config.CacheConfig{Enabled: true}, nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestRateKeyIdentity(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "ww:rl", KeyStrategy: "user"}
	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/wardrobe", nil), httptest.NewRecorder())
	assert.Equal(t, "ww:rl:user:guest", buildRateKey(cfg, c))

	c.Set(userKey, model.User{ID: 42})
	assert.Equal(t, "ww:rl:user:42", buildRateKey(cfg, c))

	req := httptest.NewRequest(http.MethodGet, "/api/wardrobe", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok"})
	c = e.NewContext(req, httptest.NewRecorder())
	assert.Regexp(t, `^ww:rl:user:s-[0-9a-f]{16}$`, buildRateKey(cfg, c))
}
