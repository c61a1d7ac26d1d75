package container

import (
	"context"
	"testing"

	"planboard/internal/config"
	"planboard/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	tests := []struct {
		name        string
		config      *config.Config
		expectRedis bool
	}{
		{
			name: "with Redis configured",
			config: &config.Config{
				Environment: "test",
				RedisURL:    "redis://" + mr.Addr(),
				PlanAPIURL:  "http://plan.local",
				EventID:     "event-1",
			},
			expectRedis: true,
		},
		{
			name: "without Redis configured",
			config: &config.Config{
				Environment: "test",
				PlanAPIURL:  "http://plan.local",
				EventID:     "event-1",
			},
			expectRedis: false,
		},
		{
			name: "invalid Redis URL degrades to no snapshots",
			config: &config.Config{
				Environment: "test",
				RedisURL:    "invalid://redis-url",
				PlanAPIURL:  "http://plan.local",
				EventID:     "event-1",
			},
			expectRedis: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(context.Background(), tt.config, logger.NewNop())
			require.NoError(t, err)
			require.NotNil(t, c)

			assert.Equal(t, tt.expectRedis, c.HasRedis())
			assert.False(t, c.HasDB(), "no database configured in tests")
			assert.NotNil(t, c.GetEditor())
			assert.NotNil(t, c.PlanClient)
			assert.Equal(t, tt.config, c.GetConfig())

			if c.RedisClient != nil {
				c.RedisClient.Close()
			}
		})
	}
}
