package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candlepin/internal/rules/models"
	"candlepin/internal/rules/store/memory"
	"candlepin/pkg/platform/circuit"
)

// An unreachable Redis must not break reads: they fall through to the
// wrapped store and the breaker opens.
func TestCachedStoreReadsThroughWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	inner := memory.NewInMemory()
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, inner.Put(ctx, &models.Rules{Version: "5.1", UpdatedAt: at}))

	breaker := circuit.New("test", circuit.WithFailureThreshold(2))
	store := NewCachedStore(inner, client, WithBreaker(breaker))

	for range 3 {
		ts, err := store.UpdatedAt(ctx)
		require.NoError(t, err)
		assert.True(t, at.Equal(ts))
	}
	assert.True(t, breaker.IsOpen())

	require.NoError(t, store.Put(ctx, &models.Rules{Version: "5.2", UpdatedAt: at.Add(time.Hour)}))
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5.2", got.Version)
}
