package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stockalert/pkg/logger"
	"github.com/dmitrymomot/stockalert/pkg/ratelimit"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
	defer store.Close()

	fw, err := ratelimit.NewFixedWindow(store, 2, time.Hour)
	require.NoError(t, err)

	handler := ratelimit.Middleware(fw, ratelimit.Composite(ratelimit.Static("inquiry"), ratelimit.ClientIP))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}),
	)

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/listings/l1/inquiries", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := range 2 {
		rec := send("198.51.100.1:5000")
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(1-i), rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := send("198.51.100.1:5000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retryAfter, 1)
	assert.LessOrEqual(t, retryAfter, 3600)

	rec = send("198.51.100.2:5000")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestMiddleware_FailsOpen(t *testing.T) {
	t.Parallel()

	fw, err := ratelimit.NewFixedWindow(failingStore{}, 1, time.Hour, ratelimit.WithLogger(logger.Discard()))
	require.NoError(t, err)

	handler := ratelimit.Middleware(fw, ratelimit.ClientIP)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	for range 3 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestComposite(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:1234"

	key := ratelimit.Composite(ratelimit.Static("inquiry"), ratelimit.ClientIP)(req)
	assert.Equal(t, "inquiry:192.0.2.10", key)

	empty := ratelimit.Composite(ratelimit.Static(""))(req)
	assert.Empty(t, empty)

	long := ratelimit.Composite(ratelimit.Static(string(make([]byte, 100))), ratelimit.ClientIP)(req)
	assert.LessOrEqual(t, len(long), 64)
}

func TestMiddleware_OnLimitReached(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
	defer store.Close()

	fw, err := ratelimit.NewFixedWindow(store, 1, time.Minute)
	require.NoError(t, err)

	var rejected *ratelimit.Result
	handler := ratelimit.Middleware(fw, ratelimit.ClientIP, ratelimit.WithOnLimitReached(
		func(w http.ResponseWriter, r *http.Request, result *ratelimit.Result) {
			rejected = result
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":"rate_limited"}}`))
		},
	))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "192.0.2.1:80"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, send().Code)
	assert.Nil(t, rejected)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"rate_limited"}}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"), "headers are set before the custom writer runs")
	require.NotNil(t, rejected)
	assert.False(t, rejected.Allowed)
	assert.Equal(t, 0, rejected.Remaining)
}

func TestRetryAfterSeconds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, ratelimit.RetryAfterSeconds(&ratelimit.Result{ResetAt: time.Now().Add(10 * time.Millisecond)}))
	assert.Equal(t, 1, ratelimit.RetryAfterSeconds(&ratelimit.Result{ResetAt: time.Now().Add(-time.Second)}))
	got := ratelimit.RetryAfterSeconds(&ratelimit.Result{ResetAt: time.Now().Add(90 * time.Second)})
	assert.InDelta(t, 90, got, 1)
}
