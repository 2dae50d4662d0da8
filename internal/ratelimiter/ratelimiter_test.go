package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowsUpToBudgetThenBlocks(t *testing.T) {
	l := New(2)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiter_ForceCooldownBlocksUntilElapsed(t *testing.T) {
	l := New(1000)
	l.ForceCooldown(50 * time.Millisecond)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestLimiter_WaitRespectsContextCancellation(t *testing.T) {
	l := New(1)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
