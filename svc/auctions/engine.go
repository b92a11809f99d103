package auctions

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"encore.app/pkg/config"
	"encore.app/pkg/errs"
	"encore.app/pkg/money"
)

// BidInput is the auction state a bid computation runs against.
type BidInput struct {
	Now           time.Time
	CurrentBid    decimal.Decimal
	BidCount      int
	Increment     decimal.Decimal
	Ceiling       decimal.Decimal
	EndAt         time.Time
	ExtensionSecs int
	Policy        config.CapPolicy
}

// BidOutcome is the state transition produced by one accepted bid.
type BidOutcome struct {
	NewBid      decimal.Decimal
	NewBidCount int
	NewEndAt    time.Time
	// Capped is true when the ceiling clamped the price movement.
	Capped bool
}

// ComputeBid applies one bid to the auction state. It is pure: the
// caller holds the row lock and persists the outcome.
//
// Price moves by exactly one increment per bid and never exceeds the
// ceiling. The timer extends to now + extension but never moves
// backwards, so late bids close to an already-extended deadline keep
// the later of the two.
func ComputeBid(ctx context.Context, in BidInput) (BidOutcome, error) {
	if !in.EndAt.After(in.Now) {
		return BidOutcome{}, errs.E(ctx, errs.AucEnded, "auction has ended")
	}

	candidate := in.CurrentBid.Add(in.Increment)

	out := BidOutcome{
		NewBid:      candidate,
		NewBidCount: in.BidCount + 1,
	}

	if candidate.GreaterThan(in.Ceiling) {
		switch in.Policy {
		case config.CapPolicyClamp:
			out.NewBid = in.Ceiling
			out.Capped = true
		default:
			return BidOutcome{}, errs.E(ctx, errs.AucPriceCapped,
				"auction price has reached its ceiling").WithDetails(map[string]interface{}{
				"current_bid":   in.CurrentBid.String(),
				"price_ceiling": in.Ceiling.String(),
			})
		}
	}

	extended := in.Now.Add(time.Duration(in.ExtensionSecs) * time.Second)
	if extended.After(in.EndAt) {
		out.NewEndAt = extended
	} else {
		out.NewEndAt = in.EndAt
	}

	return out, nil
}

// CeilingFor derives the price ceiling from a collection floor price.
func CeilingFor(floorPrice decimal.Decimal, maxPriceRatio float64) decimal.Decimal {
	return floorPrice.Mul(decimal.NewFromFloat(maxPriceRatio)).Round(money.Precision)
}
