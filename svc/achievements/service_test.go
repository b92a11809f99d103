package achievements

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func seedUser(t *testing.T, ctx context.Context) int64 {
	t.Helper()

	var userID int64
	wallet := fmt.Sprintf("0xachiever%d", time.Now().UnixNano())
	if err := db.QueryRow(ctx, `
		INSERT INTO users (wallet_address) VALUES ($1) RETURNING id`, wallet).Scan(&userID); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return userID
}

func bidCountProgress(t *testing.T, ctx context.Context, userID int64) int {
	t.Helper()

	var progress int
	err := db.QueryRow(ctx, `
		SELECT ua.progress FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = $1 AND a.type = 'bid_count' AND a.target = 100`, userID).Scan(&progress)
	if err != nil {
		t.Fatalf("read progress: %v", err)
	}
	return progress
}

func TestConcurrentDistinctDeliveriesCountEachEvent(t *testing.T) {
	ctx := context.Background()
	userID := seedUser(t, ctx)

	const deliveries = 8
	var wg sync.WaitGroup
	errCh := make(chan error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errCh <- svc.Deliver(ctx, Trigger{
				UserID:        userID,
				Type:          TriggerBidPlaced,
				SourceEventID: fmt.Sprintf("bid:test-%d-%d", userID, n),
			})
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("deliver failed: %v", err)
		}
	}

	if got := bidCountProgress(t, ctx, userID); got != deliveries {
		t.Errorf("progress = %d, want %d", got, deliveries)
	}
}

func TestRedeliveryDoesNotAdvanceProgress(t *testing.T) {
	ctx := context.Background()
	userID := seedUser(t, ctx)

	event := fmt.Sprintf("bid:redelivered-%d", userID)
	for i := 0; i < 3; i++ {
		if err := svc.Deliver(ctx, Trigger{
			UserID:        userID,
			Type:          TriggerBidPlaced,
			SourceEventID: event,
		}); err != nil {
			t.Fatalf("deliver failed: %v", err)
		}
	}

	if got := bidCountProgress(t, ctx, userID); got != 1 {
		t.Errorf("progress = %d after redelivery, want 1", got)
	}
}
