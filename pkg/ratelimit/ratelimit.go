// Package ratelimit provides in-memory rate limiting for the bidding endpoints.
package ratelimit

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrRateLimitExceeded is returned when a key has used up its window budget.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// Config defines the configuration for rate limiting
type Config struct {
	MaxAttempts int           `json:"max_attempts"`
	Window      time.Duration `json:"window"`
	BlockTime   time.Duration `json:"block_time,omitempty"` // optional block after the limit is hit
}

type record struct {
	count     int
	firstSeen time.Time
	blockedAt *time.Time
}

// Limiter provides windowed rate limiting keyed by arbitrary strings.
type Limiter struct {
	config  Config
	mu      sync.Mutex
	records map[string]*record
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config Config) *Limiter {
	return &Limiter{
		config:  config,
		records: make(map[string]*record),
	}
}

// Allow reports whether the key may proceed, counting this attempt.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		return false
	}

	now := time.Now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.records[key]
	if !ok {
		l.records[key] = &record{count: 1, firstSeen: now}
		return true
	}

	if r.blockedAt != nil && l.config.BlockTime > 0 {
		if now.Sub(*r.blockedAt) < l.config.BlockTime {
			return false
		}
		r.blockedAt = nil
		r.count = 0
		r.firstSeen = now
	}

	if now.Sub(r.firstSeen) >= l.config.Window {
		r.count = 1
		r.firstSeen = now
		return true
	}

	if r.count >= l.config.MaxAttempts {
		if l.config.BlockTime > 0 && r.blockedAt == nil {
			r.blockedAt = &now
		}
		return false
	}

	r.count++
	return true
}

// RecordAttempt counts an attempt and returns ErrRateLimitExceeded when denied.
func (l *Limiter) RecordAttempt(key string) error {
	if !l.Allow(key) {
		return ErrRateLimitExceeded
	}
	return nil
}

// Remaining returns the number of attempts left in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.records[key]
	if !ok {
		return l.config.MaxAttempts
	}

	now := time.Now().UTC()
	if r.blockedAt != nil && l.config.BlockTime > 0 && now.Sub(*r.blockedAt) < l.config.BlockTime {
		return 0
	}
	if now.Sub(r.firstSeen) >= l.config.Window {
		return l.config.MaxAttempts
	}

	remaining := l.config.MaxAttempts - r.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset clears the rate limit for the given key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, key)
}

// Cleanup drops records whose window and block time have both expired.
// Call periodically to bound memory.
func (l *Limiter) Cleanup() {
	now := time.Now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, r := range l.records {
		expired := now.Sub(r.firstSeen) >= l.config.Window
		if r.blockedAt != nil && l.config.BlockTime > 0 {
			expired = expired && now.Sub(*r.blockedAt) >= l.config.BlockTime
		}
		if expired {
			delete(l.records, key)
		}
	}
}

// UserKey generates a rate limit key for user-based limiting.
func UserKey(action string, userID int64) string {
	return strings.Join([]string{"user", action, fmt.Sprintf("%d", userID)}, ":")
}

// WalletKey generates a rate limit key for wallet-address limiting,
// used before the address has been resolved to a user.
func WalletKey(action, address string) string {
	return strings.Join([]string{"wallet", action, strings.ToLower(address)}, ":")
}
