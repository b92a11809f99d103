package auctions

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlaceBidRequest places one bid. The bidder is identified either by
// user id (authenticated sessions) or wallet address.
type PlaceBidRequest struct {
	AuctionID     int64  `json:"auction_id"`
	BidderID      int64  `json:"bidder_id,omitempty"`
	BidderAddress string `json:"bidder_address,omitempty"`
}

// PlaceBidResponse returns the accepted bid and the auction state it
// produced.
type PlaceBidResponse struct {
	Bid        *Bid            `json:"bid"`
	CurrentBid decimal.Decimal `json:"current_bid"`
	BidCount   int             `json:"bid_count"`
	EndAt      time.Time       `json:"end_at"`
	Capped     bool            `json:"capped,omitempty"`
}

// CreateAuctionRequest opens a new auction for an NFT.
type CreateAuctionRequest struct {
	NFTID        int64            `json:"nft_id"`
	StartingBid  decimal.Decimal  `json:"starting_bid"`
	ReservePrice *decimal.Decimal `json:"reserve_price,omitempty"`
	DurationSecs int              `json:"duration_secs"`
}

// ListParams filters the auction list.
type ListParams struct {
	Status string `query:"status" json:"status,omitempty"`
	Limit  int    `query:"limit" json:"limit,omitempty"`
}

// ListResponse lists auctions.
type ListResponse struct {
	Auctions []*Auction `json:"auctions"`
	Total    int        `json:"total"`
}

// BidsResponse lists the bid history of one auction.
type BidsResponse struct {
	Bids  []*Bid `json:"bids"`
	Total int    `json:"total"`
}

// SettleResponse reports the settlement outcome of an ended auction.
type SettleResponse struct {
	Auction  *Auction         `json:"auction"`
	WinnerID *int64           `json:"winner_id,omitempty"`
	FinalBid *decimal.Decimal `json:"final_bid,omitempty"`
	Outcome  string           `json:"outcome"`
}
