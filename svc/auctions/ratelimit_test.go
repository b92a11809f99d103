package auctions

import (
	"testing"

	"encore.app/pkg/ratelimit"
)

func TestLimiterForReusesLimiterForSameBudget(t *testing.T) {
	l := limiterFor(2)
	if limiterFor(2) != l {
		t.Fatal("unchanged budget must reuse the limiter so open windows persist")
	}

	key := ratelimit.UserKey("bid", 901)
	if !l.Allow(key) || !l.Allow(key) {
		t.Fatal("budget of 2 should allow two attempts")
	}
	if l.Allow(key) {
		t.Error("third attempt within the window should be denied")
	}
}

func TestLimiterForRebuildsOnBudgetChange(t *testing.T) {
	key := ratelimit.UserKey("bid", 902)

	l := limiterFor(1)
	if !l.Allow(key) {
		t.Fatal("first attempt should be allowed")
	}
	if l.Allow(key) {
		t.Fatal("budget of 1 should deny the second attempt")
	}

	raised := limiterFor(3)
	if raised == l {
		t.Fatal("changed budget must rebuild the limiter")
	}
	if !raised.Allow(key) {
		t.Error("rebuilt limiter should apply the new budget immediately")
	}
}
