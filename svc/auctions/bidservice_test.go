package auctions

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"encore.app/pkg/errs"
)

func seedBidder(t *testing.T, ctx context.Context, packBids int) int64 {
	t.Helper()

	var userID int64
	wallet := fmt.Sprintf("0xbidder%d", time.Now().UnixNano())
	if err := db.QueryRow(ctx, `
		INSERT INTO users (wallet_address) VALUES ($1) RETURNING id`, wallet).Scan(&userID); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	var productID int64
	if err := db.QueryRow(ctx, `
		INSERT INTO bid_pack_products (name, bid_count, price, currency)
		VALUES ('test pack', $1, 1.0, 'ETH') RETURNING id`, packBids).Scan(&productID); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	if _, err := db.Exec(ctx, `
		INSERT INTO user_bid_packs (user_id, product_id, bids_total, bids_remaining, price_paid, currency)
		VALUES ($1, $2, $3, $3, 1.0, 'ETH')`, userID, productID, packBids); err != nil {
		t.Fatalf("seed pack: %v", err)
	}

	return userID
}

func seedActiveAuction(t *testing.T, ctx context.Context) int64 {
	t.Helper()

	var nftID int64
	token := fmt.Sprintf("auction-nft-%d", time.Now().UnixNano())
	if err := db.QueryRow(ctx, `
		INSERT INTO nfts (token_id, name) VALUES ($1, 'Test NFT') RETURNING id`, token).Scan(&nftID); err != nil {
		t.Fatalf("seed nft: %v", err)
	}

	var auctionID int64
	if err := db.QueryRow(ctx, `
		INSERT INTO auctions (nft_id, starting_bid, current_bid, price_ceiling, end_at)
		VALUES ($1, 0, 0, 30.0, NOW() + INTERVAL '1 hour') RETURNING id`, nftID).Scan(&auctionID); err != nil {
		t.Fatalf("seed auction: %v", err)
	}

	return auctionID
}

// placeBidRetry retries on CONTENTION, the one retryable code, the way a
// client is expected to.
func placeBidRetry(ctx context.Context, auctionID, bidderID int64) error {
	for attempt := 0; attempt < 100; attempt++ {
		_, err := bidSvc.PlaceBid(ctx, &PlaceBidRequest{AuctionID: auctionID, BidderID: bidderID})
		if err == nil {
			return nil
		}
		if !errs.Is(err, errs.Contention) {
			return err
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("bid kept hitting contention")
}

func TestConcurrentBiddersKeepLedgerAndBidNumbersConsistent(t *testing.T) {
	ctx := context.Background()
	auctionID := seedActiveAuction(t, ctx)
	alice := seedBidder(t, ctx, 10)
	bob := seedBidder(t, ctx, 10)

	const bidsEach = 8
	var wg sync.WaitGroup
	errCh := make(chan error, 2*bidsEach)
	for _, bidder := range []int64{alice, bob} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for i := 0; i < bidsEach; i++ {
				errCh <- placeBidRetry(ctx, auctionID, id)
			}
		}(bidder)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("bid failed: %v", err)
		}
	}

	var bidCount int
	var currentBid decimal.Decimal
	if err := db.QueryRow(ctx, `
		SELECT bid_count, current_bid FROM auctions WHERE id = $1`, auctionID).Scan(&bidCount, &currentBid); err != nil {
		t.Fatal(err)
	}
	if bidCount != 2*bidsEach {
		t.Errorf("bid_count = %d, want %d", bidCount, 2*bidsEach)
	}
	if want := decimal.NewFromFloat(0.03).Mul(decimal.NewFromInt(2 * bidsEach)); !currentBid.Equal(want) {
		t.Errorf("current_bid = %s, want %s", currentBid, want)
	}

	var rows, distinct, minNum, maxNum int
	if err := db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT bid_number), MIN(bid_number), MAX(bid_number)
		FROM bids WHERE auction_id = $1`, auctionID).Scan(&rows, &distinct, &minNum, &maxNum); err != nil {
		t.Fatal(err)
	}
	if rows != 2*bidsEach || distinct != rows || minNum != 1 || maxNum != rows {
		t.Errorf("bid numbers not dense 1..%d: rows=%d distinct=%d min=%d max=%d",
			2*bidsEach, rows, distinct, minNum, maxNum)
	}

	for _, bidder := range []int64{alice, bob} {
		var total, remaining, used int
		if err := db.QueryRow(ctx, `
			SELECT bids_total, bids_remaining, bids_used
			FROM user_bid_packs WHERE user_id = $1`, bidder).Scan(&total, &remaining, &used); err != nil {
			t.Fatal(err)
		}
		if total != remaining+used {
			t.Errorf("ledger conservation broken for user %d: total=%d remaining=%d used=%d",
				bidder, total, remaining, used)
		}
		if used != bidsEach {
			t.Errorf("bids_used = %d for user %d, want %d", used, bidder, bidsEach)
		}
	}
}

func TestBidOnMissingAuctionWinsOverUnknownBidder(t *testing.T) {
	_, err := bidSvc.PlaceBid(context.Background(), &PlaceBidRequest{
		AuctionID:     999999999,
		BidderAddress: "0xnobody-at-all",
	})
	if !errs.Is(err, errs.AucNotFound) {
		t.Fatalf("err = %v, want %s", err, errs.AucNotFound)
	}
}

func TestBidByUnknownBidderIDReportsUserNotFound(t *testing.T) {
	ctx := context.Background()
	auctionID := seedActiveAuction(t, ctx)

	_, err := bidSvc.PlaceBid(ctx, &PlaceBidRequest{AuctionID: auctionID, BidderID: 888888888})
	if !errs.Is(err, errs.UsrNotFound) {
		t.Fatalf("err = %v, want %s", err, errs.UsrNotFound)
	}
}

func TestBidWithoutPackReportsInsufficientBids(t *testing.T) {
	ctx := context.Background()
	auctionID := seedActiveAuction(t, ctx)

	var userID int64
	wallet := fmt.Sprintf("0xpackless%d", time.Now().UnixNano())
	if err := db.QueryRow(ctx, `
		INSERT INTO users (wallet_address) VALUES ($1) RETURNING id`, wallet).Scan(&userID); err != nil {
		t.Fatal(err)
	}

	_, err := bidSvc.PlaceBid(ctx, &PlaceBidRequest{AuctionID: auctionID, BidderID: userID})
	if !errs.Is(err, errs.PackInsufficientBids) {
		t.Fatalf("err = %v, want %s", err, errs.PackInsufficientBids)
	}
}
