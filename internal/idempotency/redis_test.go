package idempotency

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against the Redis named by SETTLEUP_TEST_REDIS_ADDR, skipped otherwise.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("SETTLEUP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SETTLEUP_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	store, err := NewRedisStore(ctx, addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	key := "test:" + uuid.NewString()

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	locked, err := store.Lock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = store.Lock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, store.Save(ctx, key, &Response{Status: 200, ContentType: "application/json", Body: []byte(`{}`)}, time.Minute))
	require.NoError(t, store.Unlock(ctx, key))

	resp, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, `{}`, string(resp.Body))
}
