package pandascore

import (
	"context"
	"sync"
	"time"

	"github.com/seneca-gg/riftfeed/internal/telemetry"
)

// HourlyBucket enforces the provider's hourly request quota. Tokens snap
// back to capacity at the start of each hour-window; the window opens on the
// first Take. Callers block until a token frees up or ctx is cancelled.
type HourlyBucket struct {
	mu       sync.Mutex
	capacity int
	tokens   int
	resetAt  time.Time

	now func() time.Time
}

func NewHourlyBucket(capacity int) *HourlyBucket {
	return &HourlyBucket{
		capacity: capacity,
		tokens:   capacity,
		now:      time.Now,
	}
}

// Take consumes one token, sleeping until the window resets if none are
// left. The lock is never held while sleeping.
func (b *HourlyBucket) Take(ctx context.Context) error {
	start := b.now()
	for {
		b.mu.Lock()
		now := b.now()
		if b.resetAt.IsZero() {
			b.resetAt = now.Add(time.Hour)
		}
		if !now.Before(b.resetAt) {
			b.tokens = b.capacity
			b.resetAt = now.Add(time.Hour)
		}
		if b.tokens > 0 {
			b.tokens--
			b.mu.Unlock()
			telemetry.Metrics.RateLimiterWait.Observe(b.now().Sub(start).Seconds())
			return nil
		}
		wait := b.resetAt.Sub(now)
		b.mu.Unlock()

		if wait < 100*time.Millisecond {
			wait = 100 * time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Remaining reports tokens left in the current window.
func (b *HourlyBucket) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.resetAt.IsZero() && !b.now().Before(b.resetAt) {
		return b.capacity
	}
	return b.tokens
}
