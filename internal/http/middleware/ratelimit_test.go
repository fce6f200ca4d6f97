package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/careflow/pkg/logging"
)

func TestRateLimiterBurstAndRefill(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return clock }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "1.2.3.4")
	assert.False(t, ok, "burst exhausted")

	ok, _ = rl.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "other keys have their own bucket")

	clock = clock.Add(1500 * time.Millisecond)
	ok, _ = rl.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "bucket refilled")
}

func TestRateLimiterSweep(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return clock }
	_, _ = rl.Allow(context.Background(), "a")
	clock = clock.Add(time.Hour)
	rl.Sweep(10 * time.Minute)
	assert.Empty(t, rl.buckets)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedisLimiter(client, "rl:inquiries:", 0.1, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mr.Exists("rl:inquiries:10.0.0.1"))
}

func TestNewRedisLimiterNilClient(t *testing.T) {
	assert.Nil(t, NewRedisLimiter(nil, "x", 1, 1))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimitMiddleware(t *testing.T) {
	rejected := 0
	rl := NewRateLimiter(0, 1)
	h := RateLimit(rl, logging.Default(), func() { rejected++ })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inquiries", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inquiries", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, rejected)
}

func TestRateLimitFailsOpen(t *testing.T) {
	h := RateLimit(failingLimiter{}, logging.Default(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inquiries", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRateLimitSharesBucketAcrossPorts(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1)
	h := RateLimit(rl, logging.Default(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRequest(http.MethodPost, "/inquiries", nil)
	first.RemoteAddr = "203.0.113.7:40001"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusCreated, rec.Code)

	second := httptest.NewRequest(http.MethodPost, "/inquiries", nil)
	second.RemoteAddr = "203.0.113.7:40002"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest(http.MethodPost, "/inquiries", nil)
	other.RemoteAddr = "198.51.100.9:40001"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "[2001:db8::1]:8443"
	assert.Equal(t, "2001:db8::1", ClientIP(r))

	r.RemoteAddr = "192.0.2.44"
	assert.Equal(t, "192.0.2.44", ClientIP(r))
}
