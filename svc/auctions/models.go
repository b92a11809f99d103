package auctions

import (
	"time"

	"github.com/shopspring/decimal"
)

// Auction statuses
const (
	StatusActive   = "active"
	StatusEnded    = "ended"
	StatusCanceled = "canceled"
	StatusSettled  = "settled"
)

// Auction is the aggregate root of the bidding core. All price movement
// happens through bid placement under a row lock; current_bid and
// bid_count only ever move forward while the auction is active.
type Auction struct {
	ID                int64            `json:"id"`
	NFTID             int64            `json:"nft_id"`
	Status            string           `json:"status"`
	StartingBid       decimal.Decimal  `json:"starting_bid"`
	BidIncrement      decimal.Decimal  `json:"bid_increment"`
	BidFee            decimal.Decimal  `json:"bid_fee"`
	TimeExtensionSecs int              `json:"time_extension_secs"`
	ReservePrice      *decimal.Decimal `json:"reserve_price,omitempty"`
	PriceCeiling      decimal.Decimal  `json:"price_ceiling"`
	CurrentBid        decimal.Decimal  `json:"current_bid"`
	BidCount          int              `json:"bid_count"`
	LastBidderID      *int64           `json:"last_bidder_id,omitempty"`
	EndAt             time.Time        `json:"end_at"`
	EndedAt           *time.Time       `json:"ended_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Active reports whether the auction accepts bids at the given instant.
func (a *Auction) Active(now time.Time) bool {
	return a.Status == StatusActive && a.EndAt.After(now)
}

// Bid statuses
const (
	BidStatusValid    = "valid"
	BidStatusInvalid  = "invalid"
	BidStatusRefunded = "refunded"
)

// Bid is one accepted bid. BidNumber is the auction-local sequence
// number; (auction_id, bid_number) is unique so concurrent placements
// can never both land on the same slot.
type Bid struct {
	ID            int64           `json:"id"`
	AuctionID     int64           `json:"auction_id"`
	BidNumber     int             `json:"bid_number"`
	BidderID      int64           `json:"bidder_id"`
	UserBidPackID *int64          `json:"user_bid_pack_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	BidFee        decimal.Decimal `json:"bid_fee"`
	NewEndAt      time.Time       `json:"new_end_at"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}
