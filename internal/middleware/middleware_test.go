package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

const secret = "test-secret"

func whoAmI(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"login_id": LoginID(c), "register_id": RegisterID(c)})
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoAmI, JWTAuth(secret))

	tok, err := utils.NewAccessToken(secret, "A123456789", 42, time.Minute)
	require.NoError(t, err)

	rec := do(e, http.MethodGet, "/me", tok.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"login_id":"A123456789","register_id":42}`, rec.Body.String())
}

func TestJWTAuthRejects(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoAmI, JWTAuth(secret))

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", "garbage").Code)

	wrong, err := utils.NewAccessToken("other-secret", "A123456789", 42, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", wrong.Token).Code)

	expired, err := utils.NewAccessToken(secret, "A123456789", 42, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", expired.Token).Code)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "A123456789"}).SignedString([]byte(secret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", noExp).Code)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()}).SignedString([]byte(secret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", noSub).Code)
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.RateLimit{Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour, TTL: 10 * time.Hour, Prefix: "rl"}
	e := echo.New()
	e.GET("/me", whoAmI, JWTAuth(secret), NewTokenBucket(cfg, rdb))

	alice, err := utils.NewAccessToken(secret, "alice", 1, time.Minute)
	require.NoError(t, err)
	bob, err := utils.NewAccessToken(secret, "bob", 2, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/me", alice.Token).Code)
	rec := do(e, http.MethodGet, "/me", alice.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do(e, http.MethodGet, "/me", alice.Token)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// buckets are per user
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/me", bob.Token).Code)
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	cfg := config.RateLimit{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, NewTokenBucket(cfg, rdb))

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", "").Code)
}

func TestRedisCacheServesHits(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	calls := 0
	e := echo.New()
	e.GET("/seats", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": calls})
	}, NewResponseCache(config.Cache{Enabled: true, TTL: 5 * time.Second, Prefix: "cache"}, rdb).Middleware())

	rec := do(e, http.MethodGet, "/seats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec = do(e, http.MethodGet, "/seats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"calls":1}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/json")
	assert.Equal(t, 1, calls)

	mr.FastForward(6 * time.Second)
	rec = do(e, http.MethodGet, "/seats", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestRedisCacheInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	calls := 0
	rc := NewResponseCache(config.Cache{Enabled: true, TTL: time.Minute, Prefix: "cache"}, rdb)
	e := echo.New()
	e.GET("/events/:id/seats", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": calls})
	}, rc.Middleware())

	do(e, http.MethodGet, "/events/1/seats", "")
	do(e, http.MethodGet, "/events/2/seats", "")
	require.NoError(t, rc.Invalidate(context.Background(), "/events/1/seats"))

	rec := do(e, http.MethodGet, "/events/1/seats", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = do(e, http.MethodGet, "/events/2/seats", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)

	off := NewResponseCache(config.Cache{Enabled: false}, rdb)
	assert.NoError(t, off.Invalidate(context.Background(), "/events/1/seats"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
}
