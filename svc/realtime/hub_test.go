package realtime

import (
	"sync"
	"testing"
	"time"
)

func TestClientLivenessConcurrentAccess(t *testing.T) {
	c := &client{id: "test", lastSeen: time.Now().UTC(), done: make(chan struct{})}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.touch()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = c.seen()
			}
		}()
	}
	wg.Wait()

	if c.seen().IsZero() {
		t.Error("lastSeen must be set after touch")
	}
}

func TestTouchAdvancesLiveness(t *testing.T) {
	c := &client{id: "test", done: make(chan struct{})}
	c.mu.Lock()
	c.lastSeen = time.Now().UTC().Add(-time.Hour)
	c.mu.Unlock()

	c.touch()

	if time.Since(c.seen()) > time.Minute {
		t.Errorf("lastSeen = %s, want recent", c.seen())
	}
}
