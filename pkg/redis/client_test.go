package redis

import (
	"context"
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

	return mr, client
}

func TestNewClient_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "invalid scheme", url: "invalid://url"},
		{name: "empty URL", url: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, "test", zap.NewNop())
			assert.Error(t, err)
			assert.Nil(t, client)
		})
	}
}

func TestClient_SetGet(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "board:k1", "v1", time.Minute))

	val, err := client.Get(ctx, "board:k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", val)

	_, err = client.Get(ctx, "board:missing")
	assert.True(t, IsNil(err))
}

func TestClient_SetNX(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	ok, err := client.SetNX(ctx, "board:lock", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "first acquisition succeeds")

	ok, err = client.SetNX(ctx, "board:lock", "1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquisition is refused")

	require.NoError(t, client.Delete(ctx, "board:lock"))

	ok, err = client.SetNX(ctx, "board:lock", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "acquisition succeeds again after release")
}

func TestClient_Exists(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "board:k1", "v1", time.Minute))

	n, err := client.Exists(ctx, "board:k1", "board:missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestClient_Health(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer client.Close()

	assert.NoError(t, client.Health(context.Background()))

	mr.Close()
	assert.Error(t, client.Health(context.Background()))
}

func TestKeyBuilder(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantPrefix  string
	}{
		{name: "production", environment: "production", wantPrefix: "prod"},
		{name: "development", environment: "development", wantPrefix: "staging"},
		{name: "staging", environment: "staging", wantPrefix: "staging"},
		{name: "test", environment: "test", wantPrefix: "staging"},
		{name: "unknown defaults to prod", environment: "", wantPrefix: "prod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			assert.Equal(t, tt.wantPrefix, kb.GetPrefix())
		})
	}
}

func TestKeyBuilder_Keys(t *testing.T) {
	kb := NewKeyBuilder("production")

	assert.Equal(t, "prod:board:session:s-42", kb.KeySessionSnapshot("s-42"))
	assert.Equal(t, "prod:board:pair:idem:pair:a@x.com+b@x.com", kb.KeyPairIdempotency("pair:a@x.com+b@x.com"))
	assert.Equal(t, "prod:board:audit:7", kb.KeyCustom("board:audit:%d", 7))
}
