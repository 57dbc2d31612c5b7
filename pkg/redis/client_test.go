package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "Invalid URL", url: "invalid://url"},
		{name: "Empty URL", url: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, "test", nil)
			assert.Error(t, err)
			assert.Nil(t, client)
		})
	}

	t.Run("Unreachable server", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		addr := mr.Addr()
		mr.Close()

		client, err := NewClient("redis://"+addr, "test", nil)
		assert.Error(t, err)
		assert.Nil(t, client)
	})
}

func TestClient_GetSet(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	_, err := client.Get(ctx, "missing")
	assert.ErrorIs(t, err, Nil)

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute))
	val, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
	assert.Equal(t, time.Minute, mr.TTL("k"))

	require.NoError(t, client.Delete(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestClient_Sets(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	key := client.KeyBuilder.KeyPollVoters("p1")
	require.NoError(t, client.SAdd(ctx, key, TTLPollVoters, "s-1", "s-2"))

	ok, err := client.SIsMember(ctx, key, "s-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SIsMember(ctx, key, "s-3")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, TTLPollVoters, mr.TTL(key))
}

func TestClient_IncrWithExpire(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	key := client.KeyBuilder.KeySubmitLimit("s-1", "2026021009")
	for i := int64(1); i <= 3; i++ {
		v, err := client.IncrWithExpire(ctx, key, TTLSubmitLimit)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, TTLSubmitLimit, mr.TTL(key))

	mr.FastForward(TTLSubmitLimit + time.Second)
	v, err := client.IncrWithExpire(ctx, key, TTLSubmitLimit)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestClient_Health(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	assert.NoError(t, client.Health(ctx))

	mr.SetError("server down")
	assert.Error(t, client.Health(ctx))
}

func TestClient_InvalidatePattern(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		require.NoError(t, mr.Set(client.KeyBuilder.KeyReport(fmt.Sprintf("h%d", i)), "{}"))
	}
	require.NoError(t, mr.Set(client.KeyBuilder.KeyPollVoters("p1"), "keep"))

	deleted, err := client.InvalidatePattern(ctx, client.KeyBuilder.KeyReportAll())
	require.NoError(t, err)
	assert.Equal(t, 250, deleted)
	assert.Len(t, mr.Keys(), 1)
	assert.True(t, mr.Exists(client.KeyBuilder.KeyPollVoters("p1")))
}

func TestPrefixForLog(t *testing.T) {
	assert.Equal(t, "short", prefixForLog("short"))
	long := "prod:feedback:poll:0123456789abcdef:voters"
	assert.Equal(t, long[:24]+"…", prefixForLog(long))
}
