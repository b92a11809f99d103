package achievements

import (
	"context"
	"strconv"

	"encore.dev/storage/sqldb"

	"encore.app/pkg/errs"
)

// Database connection
var db = sqldb.Named("coredb")

var svc = NewService(db)

// ListUserAchievements lists all achievements with the user's progress.
//
//encore:api public method=GET path=/users/:id/achievements
func ListUserAchievements(ctx context.Context, id string) (*ListResponse, error) {
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, errs.New(errs.InvalidArgument, "invalid user id")
	}
	return svc.ListForUser(ctx, userID)
}

// DeliverTrigger applies an achievement trigger. Internal: called by the
// bidding, lifecycle and user services after their transactions commit.
//
//encore:api private
func DeliverTrigger(ctx context.Context, trigger *Trigger) error {
	return svc.Deliver(ctx, *trigger)
}

// ShareRequest records a social share of an auction.
type ShareRequest struct {
	UserID    int64  `json:"user_id"`
	AuctionID int64  `json:"auction_id"`
	Network   string `json:"network,omitempty"`
}

// RecordShare feeds the social_share achievement trigger. One share per
// (user, auction) counts: the auction id is the dedup key.
//
//encore:api public method=POST path=/achievements/share
func RecordShare(ctx context.Context, req *ShareRequest) error {
	if req.UserID == 0 || req.AuctionID == 0 {
		return errs.New(errs.ValidationFailed, "user_id and auction_id are required")
	}
	return svc.Deliver(ctx, Trigger{
		UserID:        req.UserID,
		Type:          TriggerSocialShare,
		SourceEventID: "share:" + strconv.FormatInt(req.AuctionID, 10),
	})
}
