package ratelimit

import (
	"errors"
	"testing"
	"time"
)

func TestLimiterAllowsWithinBudget(t *testing.T) {
	l := NewLimiter(Config{MaxAttempts: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("attempt over budget should be denied")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := NewLimiter(Config{MaxAttempts: 1, Window: time.Minute})

	if !l.Allow("a") {
		t.Fatal("first attempt for a should be allowed")
	}
	if !l.Allow("b") {
		t.Error("first attempt for b should be allowed")
	}
	if l.Allow("a") {
		t.Error("second attempt for a should be denied")
	}
}

func TestLimiterEmptyKeyDenied(t *testing.T) {
	l := NewLimiter(Config{MaxAttempts: 10, Window: time.Minute})
	if l.Allow("") {
		t.Error("empty key must never be allowed")
	}
}

func TestRecordAttempt(t *testing.T) {
	l := NewLimiter(Config{MaxAttempts: 1, Window: time.Minute})

	if err := l.RecordAttempt("k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := l.RecordAttempt("k")
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("err = %v, want ErrRateLimitExceeded", err)
	}
}

func TestRemaining(t *testing.T) {
	l := NewLimiter(Config{MaxAttempts: 5, Window: time.Minute})

	if got := l.Remaining("k"); got != 5 {
		t.Errorf("fresh key remaining = %d, want 5", got)
	}
	l.Allow("k")
	l.Allow("k")
	if got := l.Remaining("k"); got != 3 {
		t.Errorf("remaining = %d, want 3", got)
	}
}

func TestReset(t *testing.T) {
	l := NewLimiter(Config{MaxAttempts: 1, Window: time.Minute})

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("should be exhausted")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("reset key should be allowed again")
	}
}

func TestUserKey(t *testing.T) {
	if got := UserKey("bid", 42); got != "user:bid:42" {
		t.Errorf("UserKey = %q, want user:bid:42", got)
	}
}
