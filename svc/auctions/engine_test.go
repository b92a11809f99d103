package auctions

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"encore.app/pkg/config"
	"encore.app/pkg/errs"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func baseInput(now time.Time) BidInput {
	return BidInput{
		Now:           now,
		CurrentBid:    dec("0.00"),
		BidCount:      0,
		Increment:     dec("0.03"),
		Ceiling:       dec("30.00"),
		EndAt:         now.Add(10 * time.Minute),
		ExtensionSecs: 60,
		Policy:        config.CapPolicyReject,
	}
}

func TestComputeBidIncrementsPriceAndCount(t *testing.T) {
	now := time.Now().UTC()
	in := baseInput(now)

	out, err := ComputeBid(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.NewBid.Equal(dec("0.03")) {
		t.Errorf("NewBid = %s, want 0.03", out.NewBid)
	}
	if out.NewBidCount != 1 {
		t.Errorf("NewBidCount = %d, want 1", out.NewBidCount)
	}
}

func TestComputeBidPriceIsMonotonic(t *testing.T) {
	now := time.Now().UTC()
	in := baseInput(now)

	prev := in.CurrentBid
	for i := 0; i < 200; i++ {
		out, err := ComputeBid(context.Background(), in)
		if err != nil {
			t.Fatalf("bid %d: unexpected error: %v", i+1, err)
		}
		if !out.NewBid.GreaterThan(prev) {
			t.Fatalf("bid %d: price did not increase: %s -> %s", i+1, prev, out.NewBid)
		}
		if out.NewBidCount != in.BidCount+1 {
			t.Fatalf("bid %d: count did not increase by one", i+1)
		}
		prev = out.NewBid
		in.CurrentBid = out.NewBid
		in.BidCount = out.NewBidCount
		in.EndAt = out.NewEndAt
	}

	// 200 bids of 0.03: exact decimal arithmetic, no float drift.
	if !prev.Equal(dec("6.00")) {
		t.Errorf("after 200 bids price = %s, want 6.00", prev)
	}
}

func TestComputeBidRejectsAtCeiling(t *testing.T) {
	now := time.Now().UTC()
	in := baseInput(now)
	in.CurrentBid = dec("0.30")
	in.BidCount = 10
	in.Ceiling = dec("0.30")

	_, err := ComputeBid(context.Background(), in)
	if err == nil {
		t.Fatal("expected price cap rejection, got nil")
	}
	if !errs.Is(err, errs.AucPriceCapped) {
		t.Errorf("error code = %s, want %s", errs.Code(err), errs.AucPriceCapped)
	}
}

func TestComputeBidRejectsWhenIncrementWouldOvershoot(t *testing.T) {
	now := time.Now().UTC()
	in := baseInput(now)
	in.CurrentBid = dec("0.29")
	in.Ceiling = dec("0.30")

	_, err := ComputeBid(context.Background(), in)
	if !errs.Is(err, errs.AucPriceCapped) {
		t.Fatalf("expected %s, got %v", errs.AucPriceCapped, err)
	}
}

func TestComputeBidClampPolicyHoldsAtCeiling(t *testing.T) {
	now := time.Now().UTC()
	in := baseInput(now)
	in.CurrentBid = dec("0.29")
	in.Ceiling = dec("0.30")
	in.Policy = config.CapPolicyClamp

	out, err := ComputeBid(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.NewBid.Equal(dec("0.30")) {
		t.Errorf("NewBid = %s, want 0.30", out.NewBid)
	}
	if !out.Capped {
		t.Error("expected Capped = true")
	}
	if out.NewBidCount != in.BidCount+1 {
		t.Error("clamped bid must still count")
	}
}

func TestComputeBidNeverExceedsCeiling(t *testing.T) {
	now := time.Now().UTC()
	in := baseInput(now)
	in.Ceiling = dec("0.30")
	in.Policy = config.CapPolicyClamp

	for i := 0; i < 50; i++ {
		out, err := ComputeBid(context.Background(), in)
		if err != nil {
			t.Fatalf("bid %d: unexpected error: %v", i+1, err)
		}
		if out.NewBid.GreaterThan(in.Ceiling) {
			t.Fatalf("bid %d: price %s exceeds ceiling %s", i+1, out.NewBid, in.Ceiling)
		}
		in.CurrentBid = out.NewBid
		in.BidCount = out.NewBidCount
	}
}

func TestComputeBidExtendsTimer(t *testing.T) {
	now := time.Now().UTC()
	in := baseInput(now)
	in.EndAt = now.Add(10 * time.Second)

	out, err := ComputeBid(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := now.Add(60 * time.Second)
	if !out.NewEndAt.Equal(want) {
		t.Errorf("NewEndAt = %v, want %v", out.NewEndAt, want)
	}
}

func TestComputeBidTimerNeverDecreases(t *testing.T) {
	now := time.Now().UTC()
	in := baseInput(now)
	// Deadline already further out than now + extension.
	in.EndAt = now.Add(5 * time.Minute)

	out, err := ComputeBid(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.NewEndAt.Before(in.EndAt) {
		t.Errorf("NewEndAt %v moved before previous deadline %v", out.NewEndAt, in.EndAt)
	}
	if !out.NewEndAt.Equal(in.EndAt) {
		t.Errorf("NewEndAt = %v, want unchanged %v", out.NewEndAt, in.EndAt)
	}
}

func TestComputeBidOnEndedAuction(t *testing.T) {
	now := time.Now().UTC()
	in := baseInput(now)
	in.EndAt = now.Add(-time.Second)

	_, err := ComputeBid(context.Background(), in)
	if !errs.Is(err, errs.AucEnded) {
		t.Fatalf("expected %s, got %v", errs.AucEnded, err)
	}
}

func TestCeilingFor(t *testing.T) {
	tests := []struct {
		name  string
		floor string
		ratio float64
		want  string
	}{
		{"default ratio", "100", 0.3, "30"},
		{"fractional floor", "1.5", 0.3, "0.45"},
		{"small floor", "0.1", 0.3, "0.03"},
		{"full ratio", "42", 1.0, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CeilingFor(dec(tt.floor), tt.ratio)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("CeilingFor(%s, %v) = %s, want %s", tt.floor, tt.ratio, got, tt.want)
			}
		})
	}
}

func TestValidateAuctionForBidding(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name     string
		auction  Auction
		wantCode string
	}{
		{
			name:    "active auction",
			auction: Auction{Status: StatusActive, EndAt: now.Add(time.Minute)},
		},
		{
			name:     "active but deadline passed",
			auction:  Auction{Status: StatusActive, EndAt: now.Add(-time.Second)},
			wantCode: errs.AucEnded,
		},
		{
			name:     "ended auction",
			auction:  Auction{Status: StatusEnded, EndAt: now.Add(time.Minute)},
			wantCode: errs.AucEnded,
		},
		{
			name:     "settled auction",
			auction:  Auction{Status: StatusSettled, EndAt: now.Add(time.Minute)},
			wantCode: errs.AucEnded,
		},
		{
			name:     "canceled auction",
			auction:  Auction{Status: StatusCanceled, EndAt: now.Add(time.Minute)},
			wantCode: errs.AucNotActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAuctionForBidding(context.Background(), &tt.auction, now)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errs.Is(err, tt.wantCode) {
				t.Errorf("error code = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestSettlementOutcome(t *testing.T) {
	winner := int64(7)
	reserve := dec("5.00")

	tests := []struct {
		name    string
		auction Auction
		want    string
	}{
		{
			name:    "no bids",
			auction: Auction{BidCount: 0},
			want:    outcomeNoBids,
		},
		{
			name:    "won without reserve",
			auction: Auction{BidCount: 3, LastBidderID: &winner, CurrentBid: dec("0.09")},
			want:    outcomeWon,
		},
		{
			name:    "reserve unmet",
			auction: Auction{BidCount: 3, LastBidderID: &winner, CurrentBid: dec("0.09"), ReservePrice: &reserve},
			want:    outcomeReserveUnmet,
		},
		{
			name:    "reserve met exactly",
			auction: Auction{BidCount: 200, LastBidderID: &winner, CurrentBid: dec("5.00"), ReservePrice: &reserve},
			want:    outcomeWon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := settlementOutcome(&tt.auction); got != tt.want {
				t.Errorf("settlementOutcome = %s, want %s", got, tt.want)
			}
		})
	}
}
