package auctions

import (
	"sync"
	"time"

	"encore.app/pkg/config"
	"encore.app/pkg/errs"
	"encore.app/pkg/ratelimit"
)

var (
	bidLimiterMu  sync.Mutex
	bidLimiter    *ratelimit.Limiter
	bidLimiterMax int
	cleanupOnce   sync.Once
)

// limiterFor returns the shared bid limiter for the given per-minute
// budget, rebuilding it when the hot-reloaded setting changes. A rebuild
// resets any open windows.
func limiterFor(maxPerMinute int) *ratelimit.Limiter {
	bidLimiterMu.Lock()
	defer bidLimiterMu.Unlock()

	if bidLimiter == nil || maxPerMinute != bidLimiterMax {
		bidLimiter = ratelimit.NewLimiter(ratelimit.Config{
			MaxAttempts: maxPerMinute,
			Window:      time.Minute,
		})
		bidLimiterMax = maxPerMinute
	}
	return bidLimiter
}

// checkBidRateLimit enforces the per-bidder bid budget before any
// locking happens. The budget is re-read on every call so setting
// changes apply without a restart.
func checkBidRateLimit(key string) error {
	cleanupOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				bidLimiterMu.Lock()
				l := bidLimiter
				bidLimiterMu.Unlock()
				if l != nil {
					l.Cleanup()
				}
			}
		}()
	})

	l := limiterFor(config.Current().BidsRateLimitPerMinute)
	if err := l.RecordAttempt(key); err != nil {
		return errs.New(errs.TooManyRequests, "too many bids, slow down")
	}
	return nil
}
