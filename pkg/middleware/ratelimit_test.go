package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func limitedHandler(t *testing.T, rps float64, burst int) http.Handler {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return RateLimit(ctx, rps, burst, newTestLogger(&bytes.Buffer{}))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quick-order/search?q=abc", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_AllowsBurstThenRejects(t *testing.T) {
	h := limitedHandler(t, 0.001, 3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:5000").Code, "request %d", i+1)
	}
	rec := hit(h, "10.0.0.1:5000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestRateLimit_SeparateBucketsPerClient(t *testing.T) {
	h := limitedHandler(t, 0.001, 1)

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:5001").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:5000").Code)
}

func TestVisitors_EvictStale(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	vs := newVisitors(1, 1, time.Minute)
	vs.now = func() time.Time { return now }

	vs.get("10.0.0.1")
	now = now.Add(30 * time.Second)
	vs.get("10.0.0.2")
	now = now.Add(45 * time.Second)
	vs.evictStale()

	assert.Equal(t, 1, vs.size())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.0.2.10:1234", "192.0.2.10"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "garbage, 203.0.113.5, 10.0.0.1"}, "10.0.0.1:1", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.7 "}, "10.0.0.1:1", "198.51.100.7"},
		{"unparseable remote", nil, "pipe", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
