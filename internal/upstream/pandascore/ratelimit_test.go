package pandascore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketSpendsDownToZero(t *testing.T) {
	b := NewHourlyBucket(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Take(ctx))
	}
	assert.Equal(t, 0, b.Remaining())
}

func TestBucketResetsAfterHourWindow(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := NewHourlyBucket(2)
	b.now = func() time.Time { return clock }

	ctx := context.Background()
	require.NoError(t, b.Take(ctx))
	require.NoError(t, b.Take(ctx))
	assert.Equal(t, 0, b.Remaining())

	// window opened at first take; past reset_at tokens snap to capacity
	clock = clock.Add(time.Hour + time.Second)
	require.NoError(t, b.Take(ctx))
	assert.Equal(t, 1, b.Remaining())
}

func TestBucketTakeHonorsCancellation(t *testing.T) {
	b := NewHourlyBucket(1)
	require.NoError(t, b.Take(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := b.Take(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
