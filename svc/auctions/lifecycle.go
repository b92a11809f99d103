package auctions

import (
	"context"
	"strconv"
	"time"

	"encore.app/pkg/errs"
	"encore.app/pkg/logger"
	"encore.app/pkg/metrics"
	"encore.app/svc/achievements"
)

const sweepBatchSize = 100

// CloseExpired transitions active auctions past their deadline to
// ended and delivers win achievements. One auction failing does not
// stop the sweep.
func (s *Service) CloseExpired(ctx context.Context) (int, error) {
	now := time.Now().UTC()

	ids, err := s.repo.ExpiredActive(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, id := range ids {
		if err := s.closeOne(ctx, id); err != nil {
			if errs.Is(err, errs.Contention) {
				// A bid holds the lock; it will extend or the next sweep
				// will close it.
				continue
			}
			logger.LogError(ctx, err, "failed to close expired auction")
			continue
		}
		closed++
	}
	return closed, nil
}

func (s *Service) closeOne(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	auction, err := s.repo.GetAuctionForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}

	// A bid may have extended the deadline between the scan and the lock.
	if auction.Status != StatusActive || auction.EndAt.After(time.Now().UTC()) {
		return nil
	}

	if err := s.repo.MarkEnded(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	outcome := settlementOutcome(auction)
	metrics.AuctionsEndedTotal.WithLabelValues(outcome).Inc()

	logger.Info(ctx, "auction ended", logger.Fields{
		"auction_id": id,
		"outcome":    outcome,
		"bid_count":  auction.BidCount,
	})

	if outcome == outcomeWon {
		s.deliverWinTriggers(ctx, id, *auction.LastBidderID)
	}
	return nil
}

func (s *Service) deliverWinTriggers(ctx context.Context, auctionID, winnerID int64) {
	key := "auction:" + strconv.FormatInt(auctionID, 10)

	if err := achievements.DeliverTrigger(ctx, &achievements.Trigger{
		UserID:        winnerID,
		Type:          achievements.TriggerAuctionWon,
		SourceEventID: key,
	}); err != nil {
		logger.Warn(ctx, "failed to deliver win trigger", logger.Fields{
			"auction_id": auctionID,
			"winner_id":  winnerID,
			"error":      err.Error(),
		})
	}
}
