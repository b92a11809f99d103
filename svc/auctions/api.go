package auctions

import (
	"context"

	"encore.app/pkg/errs"
)

// PlaceBid places one bid on an auction. Bidders identify by user id
// (authenticated sessions) or wallet address; the bidder is verified
// after the auction checks so auction errors win.
//
//encore:api auth method=POST path=/bids
func PlaceBid(ctx context.Context, req *PlaceBidRequest) (*PlaceBidResponse, error) {
	if req.AuctionID == 0 {
		return nil, errs.E(ctx, errs.ValidationFailed, "auction_id is required")
	}
	if req.BidderID == 0 && req.BidderAddress == "" {
		return nil, errs.E(ctx, errs.ValidationFailed, "bidder_id or bidder_address is required")
	}

	return bidSvc.PlaceBid(ctx, req)
}

// CreateAuction opens a new auction.
//
//encore:api auth method=POST path=/auctions
func CreateAuction(ctx context.Context, req *CreateAuctionRequest) (*Auction, error) {
	return svc.CreateAuction(ctx, req)
}

// ListAuctions lists auctions, active first.
//
//encore:api public method=GET path=/auctions
func ListAuctions(ctx context.Context, params *ListParams) (*ListResponse, error) {
	return svc.List(ctx, *params)
}

// FeaturedParams bounds the featured listing.
type FeaturedParams struct {
	Limit int `query:"limit"`
}

// FeaturedAuctions returns the most contested active auctions.
//
//encore:api public method=GET path=/auctions/featured
func FeaturedAuctions(ctx context.Context, params *FeaturedParams) (*ListResponse, error) {
	return svc.Featured(ctx, params.Limit)
}

// GetAuction returns one auction.
//
//encore:api public method=GET path=/auctions/:id
func GetAuction(ctx context.Context, id int64) (*Auction, error) {
	return svc.Get(ctx, id)
}

// BidsParams bounds the bid history listing.
type BidsParams struct {
	Limit int `query:"limit"`
}

// GetAuctionBids returns an auction's bid history, newest first.
//
//encore:api public method=GET path=/auctions/:id/bids
func GetAuctionBids(ctx context.Context, id int64, params *BidsParams) (*BidsResponse, error) {
	return svc.Bids(ctx, id, params.Limit)
}

// CancelAuction cancels an active auction.
//
//encore:api auth method=POST path=/auctions/:id/cancel
func CancelAuction(ctx context.Context, id int64) (*Auction, error) {
	return svc.Cancel(ctx, id)
}

// SettleAuction finalizes an ended auction.
//
//encore:api auth method=POST path=/auctions/:id/settle
func SettleAuction(ctx context.Context, id int64) (*SettleResponse, error) {
	return svc.Settle(ctx, id)
}

// SweepResponse reports one sweep run.
type SweepResponse struct {
	Closed int `json:"closed"`
}

// SweepExpired closes auctions past their deadline. Internal: invoked
// by the cron sweeper.
//
//encore:api private
func SweepExpired(ctx context.Context) (*SweepResponse, error) {
	closed, err := svc.CloseExpired(ctx)
	if err != nil {
		return nil, err
	}
	return &SweepResponse{Closed: closed}, nil
}
