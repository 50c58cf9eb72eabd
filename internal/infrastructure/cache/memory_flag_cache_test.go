package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokemon-trade-fraud-engine/internal/domain/entity"
)

func TestMarkFlaggedAndRecentFlag(t *testing.T) {
	c := NewMemoryFlagCache()
	ctx := context.Background()

	require.NoError(t, c.MarkFlagged(ctx, "user-1", entity.RiskLevelHigh, time.Minute))

	level, err := c.RecentFlag(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.RiskLevelHigh, level)

	level, err = c.RecentFlag(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, level)
}

func TestRecentFlagExpires(t *testing.T) {
	c := NewMemoryFlagCache()
	ctx := context.Background()

	require.NoError(t, c.MarkFlagged(ctx, "user-1", entity.RiskLevelCritical, -time.Second))

	level, err := c.RecentFlag(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, level)
}
