package ratelimiter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
)

func TestNewRateLimit(t *testing.T) {
	store, err := NewStore(nil)
	require.NoError(t, err)

	mw, err := NewRateLimit(store, "2-M", func(r *http.Request) string { return r.Header.Get("X-Client") }, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	require.NoError(t, err)

	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(client string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/files", nil)
		req.Header.Set("X-Client", client)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("a"))
	assert.Equal(t, http.StatusNoContent, call("a"))
	assert.Equal(t, http.StatusTooManyRequests, call("a"))
	assert.Equal(t, http.StatusNoContent, call("b"))
}

func TestNewRateLimitRejectsBadRate(t *testing.T) {
	store, err := NewStore(nil)
	require.NoError(t, err)

	_, err = NewRateLimit(store, "lots", nil, nil)
	require.Error(t, err)
}

type limitRecorder struct {
	hits int
}

func (l *limitRecorder) onLimitReached(w http.ResponseWriter, r *http.Request) {
	l.hits++
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"status":"error"}`))
}

func TestNewRateLimitHandlers(t *testing.T) {
	tests := []struct {
		name     string
		recorder *limitRecorder
		wantBody string
	}{
		{name: "method value handler", recorder: &limitRecorder{}, wantBody: `{"status":"error"}`},
		{name: "default handler", wantBody: "Limit exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(nil)
			require.NoError(t, err)

			var onLimitReached stdlib.LimitReachedHandler
			if tt.recorder != nil {
				onLimitReached = tt.recorder.onLimitReached
			}

			mw, err := NewRateLimit(store, "1-H", func(r *http.Request) string { return "client" }, onLimitReached)
			require.NoError(t, err)

			h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))

			first := httptest.NewRecorder()
			h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/v1/files", nil))
			assert.Equal(t, http.StatusNoContent, first.Code)

			second := httptest.NewRecorder()
			h.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/v1/files", nil))
			assert.Equal(t, http.StatusTooManyRequests, second.Code)
			assert.Contains(t, second.Body.String(), tt.wantBody)
			assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

			if tt.recorder != nil {
				assert.Equal(t, 1, tt.recorder.hits)
			}
		})
	}
}
