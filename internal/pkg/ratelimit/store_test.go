package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStoreWithClock(func() time.Time { return now })

	for want := int64(1); want <= 3; want++ {
		count, err := store.Incr(ctx, "ip:1.2.3.4", 10*time.Minute)
		require.NoError(t, err)
		require.Equal(t, want, count)
	}

	// Separate keys count separately.
	count, err := store.Incr(ctx, "ip:5.6.7.8", 10*time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	// A fresh window resets the counter.
	now = now.Add(11 * time.Minute)
	count, err = store.Incr(ctx, "ip:1.2.3.4", 10*time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := NewMemoryStore()
	r := gin.New()
	r.POST("/initiate", Limit(store, "initiate", 6, 10*time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/initiate", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 6; i++ {
		require.Equal(t, http.StatusOK, do())
	}
	require.Equal(t, http.StatusTooManyRequests, do())
}
