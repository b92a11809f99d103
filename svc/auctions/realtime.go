package auctions

import (
	"context"
	"encoding/json"
	"time"

	"encore.app/pkg/logger"
	"encore.app/svc/realtime"
)

// realtimePublisher marshals auction events for the realtime hub.
// Publishing happens strictly after the owning transaction commits.
type realtimePublisher struct{}

func newRealtimePublisher() *realtimePublisher {
	return &realtimePublisher{}
}

type newBidEvent struct {
	AuctionID  int64     `json:"auction_id"`
	NFTID      int64     `json:"nft_id"`
	BidID      int64     `json:"bid_id"`
	BidNumber  int       `json:"bid_number"`
	BidderID   int64     `json:"bidder_id"`
	CurrentBid string    `json:"current_bid"`
	BidCount   int       `json:"bid_count"`
	EndAt      time.Time `json:"end_at"`
	Capped     bool      `json:"capped,omitempty"`
}

func (p *realtimePublisher) bidPlaced(ctx context.Context, auction *Auction, bid *Bid, outcome BidOutcome) {
	payload, _ := json.Marshal(newBidEvent{
		AuctionID:  auction.ID,
		NFTID:      auction.NFTID,
		BidID:      bid.ID,
		BidNumber:  bid.BidNumber,
		BidderID:   bid.BidderID,
		CurrentBid: outcome.NewBid.String(),
		BidCount:   outcome.NewBidCount,
		EndAt:      outcome.NewEndAt,
		Capped:     outcome.Capped,
	})

	if err := realtime.Publish(ctx, &realtime.PublishRequest{
		Event: realtime.EventNewBid,
		Data:  payload,
	}); err != nil {
		logger.Warn(ctx, "failed to broadcast new bid", logger.Fields{
			"auction_id": auction.ID,
			"error":      err.Error(),
		})
	}
}

type newAuctionEvent struct {
	AuctionID    int64     `json:"auction_id"`
	NFTID        int64     `json:"nft_id"`
	StartingBid  string    `json:"starting_bid"`
	PriceCeiling string    `json:"price_ceiling"`
	EndAt        time.Time `json:"end_at"`
}

func (p *realtimePublisher) auctionCreated(ctx context.Context, auction *Auction) {
	payload, _ := json.Marshal(newAuctionEvent{
		AuctionID:    auction.ID,
		NFTID:        auction.NFTID,
		StartingBid:  auction.StartingBid.String(),
		PriceCeiling: auction.PriceCeiling.String(),
		EndAt:        auction.EndAt,
	})

	if err := realtime.Publish(ctx, &realtime.PublishRequest{
		Event: realtime.EventNewAuction,
		Data:  payload,
	}); err != nil {
		logger.Warn(ctx, "failed to broadcast new auction", logger.Fields{
			"auction_id": auction.ID,
			"error":      err.Error(),
		})
	}
}
