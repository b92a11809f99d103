package auctions

import (
	"context"
	"strconv"
	"time"

	"encore.dev/storage/sqldb"

	"encore.app/pkg/config"
	"encore.app/pkg/errs"
	"encore.app/pkg/logger"
	"encore.app/pkg/money"
	"encore.app/svc/activity"
	"encore.app/svc/nfts"
)

// Service handles auction lifecycle operations.
type Service struct {
	db       *sqldb.Database
	repo     *Repository
	bids     *BidRepository
	realtime *realtimePublisher
}

// NewService creates a new auction service.
func NewService(db *sqldb.Database) *Service {
	return &Service{
		db:       db,
		repo:     NewRepository(db),
		bids:     NewBidRepository(db),
		realtime: newRealtimePublisher(),
	}
}

const (
	minDurationSecs = 60
	maxDurationSecs = 30 * 24 * 3600
)

// CreateAuction opens an auction for an NFT. The price ceiling is
// snapshotted once at creation from the collection floor price, so a
// moving floor never changes the rules of a running auction.
func (s *Service) CreateAuction(ctx context.Context, req *CreateAuctionRequest) (*Auction, error) {
	if req.NFTID == 0 {
		return nil, errs.E(ctx, errs.ValidationFailed, "nft_id is required")
	}
	if req.StartingBid.IsNegative() {
		return nil, errs.E(ctx, errs.ValidationFailed, "starting_bid must not be negative")
	}
	if req.DurationSecs < minDurationSecs || req.DurationSecs > maxDurationSecs {
		return nil, errs.E(ctx, errs.ValidationFailed, "duration_secs out of range")
	}
	if req.ReservePrice != nil && req.ReservePrice.IsNegative() {
		return nil, errs.E(ctx, errs.ValidationFailed, "reserve_price must not be negative")
	}

	floor, err := nfts.CollectionFloor(ctx, &nfts.FloorPriceRequest{NFTID: req.NFTID})
	if err != nil {
		if errs.Is(err, errs.NftNotFound) {
			return nil, err
		}
		return nil, errs.E(ctx, errs.UpstreamUnavailable, "floor price lookup failed")
	}

	settings := config.Current()
	ceiling := CeilingFor(floor.Price, settings.MaxPriceRatio)

	if req.StartingBid.GreaterThan(ceiling) {
		return nil, errs.EDetails(ctx, errs.ValidationFailed,
			"starting_bid exceeds the price ceiling", map[string]interface{}{
				"starting_bid":  req.StartingBid.String(),
				"price_ceiling": ceiling.String(),
			})
	}

	now := time.Now().UTC()
	auction, err := s.repo.Create(ctx, &Auction{
		NFTID:             req.NFTID,
		StartingBid:       req.StartingBid.Round(money.Precision),
		BidIncrement:      money.FromFloat(settings.DefaultBidIncrement),
		BidFee:            money.FromFloat(settings.DefaultBidFee),
		TimeExtensionSecs: settings.DefaultTimeExtensionSecs,
		ReservePrice:      req.ReservePrice,
		PriceCeiling:      ceiling,
		EndAt:             now.Add(time.Duration(req.DurationSecs) * time.Second),
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "auction created", logger.Fields{
		"auction_id":    auction.ID,
		"nft_id":        auction.NFTID,
		"price_ceiling": auction.PriceCeiling.String(),
		"floor_source":  floor.Source,
		"end_at":        auction.EndAt,
	})

	if _, err := activity.Record(ctx, &activity.Event{
		Type:     activity.EventListing,
		NFTID:    auction.NFTID,
		From:     "auction:" + strconv.FormatInt(auction.ID, 10),
		Price:    auction.StartingBid,
		Currency: "ETH",
	}); err != nil {
		logger.Warn(ctx, "failed to record listing activity", logger.Fields{
			"auction_id": auction.ID,
			"error":      err.Error(),
		})
	}

	s.realtime.auctionCreated(ctx, auction)

	return auction, nil
}

// Get returns one auction.
func (s *Service) Get(ctx context.Context, id int64) (*Auction, error) {
	return s.repo.GetAuction(ctx, id)
}

// List lists auctions.
func (s *Service) List(ctx context.Context, params ListParams) (*ListResponse, error) {
	if params.Status != "" {
		switch params.Status {
		case StatusActive, StatusEnded, StatusCanceled, StatusSettled:
		default:
			return nil, errs.E(ctx, errs.ValidationFailed, "unknown auction status filter")
		}
	}

	auctions, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	if auctions == nil {
		auctions = []*Auction{}
	}
	return &ListResponse{Auctions: auctions, Total: total}, nil
}

// Featured returns the most contested active auctions.
func (s *Service) Featured(ctx context.Context, limit int) (*ListResponse, error) {
	auctions, err := s.repo.Featured(ctx, limit)
	if err != nil {
		return nil, err
	}
	if auctions == nil {
		auctions = []*Auction{}
	}
	return &ListResponse{Auctions: auctions, Total: len(auctions)}, nil
}

// Bids returns an auction's bid history.
func (s *Service) Bids(ctx context.Context, auctionID int64, limit int) (*BidsResponse, error) {
	if _, err := s.repo.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}

	bids, total, err := s.bids.ListForAuction(ctx, auctionID, limit)
	if err != nil {
		return nil, err
	}
	if bids == nil {
		bids = []*Bid{}
	}
	return &BidsResponse{Bids: bids, Total: total}, nil
}

// Cancel cancels an active auction.
func (s *Service) Cancel(ctx context.Context, id int64) (*Auction, error) {
	auction, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "auction canceled", logger.Fields{"auction_id": id})
	return auction, nil
}

// Settle finalizes an ended auction: the last bidder wins unless the
// reserve price was not reached.
func (s *Service) Settle(ctx context.Context, id int64) (*SettleResponse, error) {
	auction, err := s.repo.GetAuction(ctx, id)
	if err != nil {
		return nil, err
	}
	if auction.Status != StatusEnded {
		return nil, errs.E(ctx, errs.AucBadState, "only ended auctions can be settled")
	}

	outcome := settlementOutcome(auction)
	if outcome == outcomeReserveUnmet {
		return nil, errs.EDetails(ctx, errs.AucReserveUnmet,
			"final bid did not reach the reserve price", map[string]interface{}{
				"current_bid":   auction.CurrentBid.String(),
				"reserve_price": auction.ReservePrice.String(),
			})
	}

	settled, err := s.repo.MarkSettled(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &SettleResponse{Auction: settled, Outcome: outcome}
	if outcome == outcomeWon {
		resp.WinnerID = settled.LastBidderID
		final := settled.CurrentBid
		resp.FinalBid = &final
	}

	logger.Info(ctx, "auction settled", logger.Fields{
		"auction_id": id,
		"outcome":    outcome,
	})
	return resp, nil
}

// Settlement outcomes
const (
	outcomeWon          = "won"
	outcomeNoBids       = "no_bids"
	outcomeReserveUnmet = "reserve_unmet"
)

func settlementOutcome(auction *Auction) string {
	if auction.BidCount == 0 || auction.LastBidderID == nil {
		return outcomeNoBids
	}
	if auction.ReservePrice != nil && auction.CurrentBid.LessThan(*auction.ReservePrice) {
		return outcomeReserveUnmet
	}
	return outcomeWon
}
