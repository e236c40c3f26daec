package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theatre-booking/internal/config"
	"github.com/iliyamo/theatre-booking/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, userID uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, userID, role, 5, time.Now())
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, ok := UserID(c)
		return c.JSON(http.StatusOK, echo.Map{"id": id, "ok": ok, "role": Role(c)})
	}, JWTAuth(secret))

	rec := serve(e, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", decode(t, rec)["code"])

	rec = serve(e, http.MethodGet, "/me", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/me", bearer(t, 9, "CUSTOMER"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 9, body["id"])
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "CUSTOMER", body["role"])
}

func TestRequireRoleForWrites(t *testing.T) {
	e := echo.New()
	g := e.Group("/halls", JWTAuth(secret), RequireRoleForWrites("ADMIN"))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	g.GET("", ok)
	g.POST("", ok)

	customer := bearer(t, 2, "CUSTOMER")
	admin := bearer(t, 1, "ADMIN")

	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/halls", customer).Code)
	rec := serve(e, http.MethodPost, "/halls", customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode(t, rec)["code"])
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/halls", admin).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodPost, "/halls", "").Code)
}

func TestCacheKeyFrom(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	ctxFor := func(target, id string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/plays/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
		return c
	}

	a := cacheKeyFrom(cfg, ctxFor("/plays/1?x=1", "1"), 0)
	assert.Equal(t, a, cacheKeyFrom(cfg, ctxFor("/plays/1?x=1", "1"), 0))
	assert.NotEqual(t, a, cacheKeyFrom(cfg, ctxFor("/plays/2?x=1", "2"), 0), "path params must be part of the key")
	assert.NotEqual(t, a, cacheKeyFrom(cfg, ctxFor("/plays/1?x=2", "1"), 0))
	assert.NotEqual(t, a, cacheKeyFrom(cfg, ctxFor("/plays/1?x=1", "1"), 1), "a new generation must change the key")
	assert.Contains(t, a, "cache:0:")
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)
	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
}

// unreachableRedis returns a client whose every command fails quickly.
func unreachableRedis(t *testing.T) *redis.Client {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisMiddlewaresFailOpen(t *testing.T) {
	e := echo.New()
	rdb := unreachableRedis(t)
	cacheCfg := config.CacheConfig{Enabled: true, Methods: "GET", TTL: time.Minute, Prefix: "cache"}
	rlCfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}

	calls := 0
	h := func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "ok")
	}
	e.GET("/genres", h, NewTokenBucket(rlCfg, rdb), NewRedisCache(cacheCfg, rdb))
	e.POST("/genres", h, InvalidateCache(cacheCfg, rdb))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/genres", "").Code)
	}
	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/genres", "").Code)
	assert.Equal(t, 4, calls)
}

func TestDisabledRedisMiddlewaresPassThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewRedisCache(config.CacheConfig{Enabled: true}, nil),
		NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil))
	rec := serve(e, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/theatre/reservations", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/theatre/reservations")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	assert.Equal(t, "rl:ip:10.0.0.1:user:anon:route:POST /api/theatre/reservations", buildRateKey(cfg, c))

	SetIdentity(c, 5, "CUSTOMER")
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:5", buildRateKey(cfg, c))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(zerolog.New(&buf)))
	e.GET("/ping", func(c echo.Context) error {
		zerolog.Ctx(c.Request().Context()).Info().Msg("inside")
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var access map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &access))
	assert.Equal(t, "req-1", access["request_id"])
	assert.EqualValues(t, 200, access["status"])
	assert.Equal(t, "/ping", access["route"])

	rec = serve(e, http.MethodGet, "/ping", "")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}
