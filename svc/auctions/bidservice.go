package auctions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"encore.dev/storage/sqldb"

	"encore.app/pkg/config"
	"encore.app/pkg/errs"
	"encore.app/pkg/logger"
	"encore.app/pkg/metrics"
	"encore.app/pkg/ratelimit"
	"encore.app/svc/achievements"
	"encore.app/svc/activity"
	"encore.app/svc/users"
)

// BidService handles bid placement.
type BidService struct {
	db       *sqldb.Database
	repo     *Repository
	bids     *BidRepository
	realtime *realtimePublisher
}

// NewBidService creates a new bid service.
func NewBidService(db *sqldb.Database) *BidService {
	return &BidService{
		db:       db,
		repo:     NewRepository(db),
		bids:     NewBidRepository(db),
		realtime: newRealtimePublisher(),
	}
}

// PlaceBid places one bid. Preconditions fail in order: auction exists,
// auction is active, bidder resolves, bidder has bids. The ledger debit,
// bid insert and auction update commit atomically; side effects
// (activity, achievements, broadcast) run strictly after the commit and
// never fail the bid.
func (s *BidService) PlaceBid(ctx context.Context, req *PlaceBidRequest) (*PlaceBidResponse, error) {
	startedAt := time.Now().UTC()
	auctionID := req.AuctionID

	limitKey := ratelimit.UserKey("bid", req.BidderID)
	if req.BidderID == 0 {
		limitKey = ratelimit.WalletKey("bid", req.BidderAddress)
	}
	if err := checkBidRateLimit(limitKey); err != nil {
		metrics.BidsRejectedTotal.WithLabelValues(errs.TooManyRequests).Inc()
		return nil, err
	}

	settings := config.Current()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	auction, err := s.repo.GetAuctionForUpdate(ctx, tx, auctionID)
	if err != nil {
		metrics.BidsRejectedTotal.WithLabelValues(errs.Code(err)).Inc()
		return nil, err
	}

	now := time.Now().UTC()
	if err := validateAuctionForBidding(ctx, auction, now); err != nil {
		metrics.BidsRejectedTotal.WithLabelValues(errs.Code(err)).Inc()
		return nil, err
	}

	bidderID, err := s.resolveBidder(ctx, req.BidderID, req.BidderAddress)
	if err != nil {
		metrics.BidsRejectedTotal.WithLabelValues(errs.Code(err)).Inc()
		return nil, err
	}

	outcome, err := ComputeBid(ctx, BidInput{
		Now:           now,
		CurrentBid:    auction.CurrentBid,
		BidCount:      auction.BidCount,
		Increment:     auction.BidIncrement,
		Ceiling:       auction.PriceCeiling,
		EndAt:         auction.EndAt,
		ExtensionSecs: auction.TimeExtensionSecs,
		Policy:        settings.CapPolicy,
	})
	if err != nil {
		metrics.BidsRejectedTotal.WithLabelValues(errs.Code(err)).Inc()
		return nil, err
	}

	packID, err := s.bids.ConsumeBid(ctx, tx, bidderID)
	if err != nil {
		metrics.BidsRejectedTotal.WithLabelValues(errs.Code(err)).Inc()
		return nil, err
	}

	bid, err := s.bids.InsertBid(ctx, tx, &Bid{
		AuctionID:     auctionID,
		BidNumber:     outcome.NewBidCount,
		BidderID:      bidderID,
		UserBidPackID: &packID,
		Amount:        outcome.NewBid,
		BidFee:        auction.BidFee,
		NewEndAt:      outcome.NewEndAt,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.ApplyBid(ctx, tx, auctionID, outcome, bidderID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bid: %w", err)
	}

	metrics.ObserveBid(strconv.FormatInt(auctionID, 10), startedAt)

	s.afterBid(ctx, auction, bid, outcome)

	return &PlaceBidResponse{
		Bid:        bid,
		CurrentBid: outcome.NewBid,
		BidCount:   outcome.NewBidCount,
		EndAt:      outcome.NewEndAt,
		Capped:     outcome.Capped,
	}, nil
}

func validateAuctionForBidding(ctx context.Context, auction *Auction, now time.Time) error {
	switch auction.Status {
	case StatusActive:
	case StatusEnded, StatusSettled:
		return errs.E(ctx, errs.AucEnded, "auction has ended")
	default:
		return errs.E(ctx, errs.AucNotActive, "auction is not active")
	}
	if !auction.EndAt.After(now) {
		return errs.E(ctx, errs.AucEnded, "auction has ended")
	}
	return nil
}

// resolveBidder verifies the bidder exists before the ledger is touched,
// so an unknown bidder never reads as an empty bid pack.
func (s *BidService) resolveBidder(ctx context.Context, bidderID int64, bidderAddress string) (int64, error) {
	if bidderID != 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, bidderID).Scan(&exists); err != nil {
			return 0, fmt.Errorf("failed to check bidder: %w", err)
		}
		if !exists {
			return 0, errs.E(ctx, errs.UsrNotFound, "bidder not found")
		}
		return bidderID, nil
	}

	u, err := users.Resolve(ctx, &users.ResolveRequest{WalletAddress: bidderAddress})
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// afterBid runs the post-commit side effects of an accepted bid.
func (s *BidService) afterBid(ctx context.Context, auction *Auction, bid *Bid, outcome BidOutcome) {
	bidKey := "bid:" + strconv.FormatInt(bid.ID, 10)

	if _, err := activity.Record(ctx, &activity.Event{
		Type:     activity.EventBid,
		NFTID:    auction.NFTID,
		From:     "user:" + strconv.FormatInt(bid.BidderID, 10),
		Price:    bid.Amount,
		Currency: "ETH",
	}); err != nil {
		logger.Warn(ctx, "failed to record bid activity", logger.Fields{
			"bid_id": bid.ID,
			"error":  err.Error(),
		})
	}

	if err := achievements.DeliverTrigger(ctx, &achievements.Trigger{
		UserID:        bid.BidderID,
		Type:          achievements.TriggerBidPlaced,
		SourceEventID: bidKey,
	}); err != nil {
		logger.Warn(ctx, "failed to deliver bid trigger", logger.Fields{
			"bid_id": bid.ID,
			"error":  err.Error(),
		})
	}

	if s.nftHasCollection(ctx, auction.NFTID) {
		if err := achievements.DeliverTrigger(ctx, &achievements.Trigger{
			UserID:        bid.BidderID,
			Type:          achievements.TriggerCollectionBid,
			SourceEventID: bidKey,
		}); err != nil {
			logger.Warn(ctx, "failed to deliver collection bid trigger", logger.Fields{
				"bid_id": bid.ID,
				"error":  err.Error(),
			})
		}
	}

	s.realtime.bidPlaced(ctx, auction, bid, outcome)
}

func (s *BidService) nftHasCollection(ctx context.Context, nftID int64) bool {
	var collectionID sql.NullInt64
	err := s.db.QueryRow(ctx, `SELECT collection_id FROM nfts WHERE id = $1`, nftID).Scan(&collectionID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Warn(ctx, "failed to check nft collection", logger.Fields{
				"nft_id": nftID,
				"error":  err.Error(),
			})
		}
		return false
	}
	return collectionID.Valid
}
