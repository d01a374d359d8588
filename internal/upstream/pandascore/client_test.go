package pandascore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(srv.URL, "test-token", 1000)
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c
}

func TestGetAppendsTokenAndDecodes(t *testing.T) {
	var gotToken, gotSort string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("token")
		gotSort = r.URL.Query().Get("sort")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 42, "status": "not_started"}]`))
	}))
	defer srv.Close()

	rows, err := newTestClient(srv).UpcomingMatches(context.Background(), 1, 50)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, float64(42), rows[0]["id"])
	assert.Equal(t, "test-token", gotToken)
	assert.Equal(t, "begin_at", gotSort)
}

func TestGetRetriesOn5xx(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).RunningMatches(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
}

func TestGetGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).RunningMatches(context.Background(), 1, 50)
	require.Error(t, err)
	assert.Equal(t, int64(maxAttempts), calls.Load())
}

func TestGet4xxIsFatal(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).UpcomingMatches(context.Background(), 1, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
	assert.Equal(t, int64(1), calls.Load(), "4xx must not retry")
}

func TestGet429HonorsRetryAfter(t *testing.T) {
	var calls atomic.Int64
	start := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).PastMatches(context.Background(), 1, 50, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), time.Second, "must wait the server hint")
}

func TestPastMatchesRangeFilter(t *testing.T) {
	var gotRange, gotStatus string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.URL.Query().Get("range[end_at]")
		gotStatus = r.URL.Query().Get("filter[status]")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).PastMatches(context.Background(), 1, 50, "2025-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01T00:00:00Z,", gotRange)
	assert.Equal(t, "finished", gotStatus)
}
