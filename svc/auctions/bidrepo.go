package auctions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"encore.dev/storage/sqldb"

	"encore.app/pkg/errs"
)

// BidRepository persists bids and debits the bid-pack ledger. The
// ledger debit runs inside the same transaction as the bid insert and
// auction update so a failed placement never burns a bid.
type BidRepository struct {
	db *sqldb.Database
}

// NewBidRepository creates a new bid repository.
func NewBidRepository(db *sqldb.Database) *BidRepository {
	return &BidRepository{db: db}
}

const bidColumns = `id, auction_id, bid_number, bidder_id, user_bid_pack_id,
	amount, bid_fee, new_end_at, status, created_at`

func scanBid(row interface{ Scan(...interface{}) error }) (*Bid, error) {
	b := &Bid{}
	var packID sql.NullInt64
	err := row.Scan(&b.ID, &b.AuctionID, &b.BidNumber, &b.BidderID, &packID,
		&b.Amount, &b.BidFee, &b.NewEndAt, &b.Status, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if packID.Valid {
		b.UserBidPackID = &packID.Int64
	}
	return b, nil
}

// ConsumeBid debits one bid from the user's oldest usable pack inside
// tx. The conditional UPDATE keeps the conservation invariant: the row
// only moves when bids_remaining > 0, so concurrent debits can never
// overdraw a pack.
func (r *BidRepository) ConsumeBid(ctx context.Context, tx *sqldb.Tx, userID int64) (int64, error) {
	var packID int64
	err := tx.QueryRow(ctx, `
		SELECT id FROM user_bid_packs
		WHERE user_id = $1
		  AND bids_remaining > 0
		  AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`, userID).Scan(&packID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errs.New(errs.PackInsufficientBids, "no bids remaining, purchase a bid pack")
		}
		return 0, fmt.Errorf("failed to select bid pack: %w", err)
	}

	res, err := tx.Exec(ctx, `
		UPDATE user_bid_packs
		SET bids_remaining = bids_remaining - 1,
		    bids_used = bids_used + 1,
		    last_used_at = NOW()
		WHERE id = $1 AND bids_remaining > 0`, packID)
	if err != nil {
		return 0, fmt.Errorf("failed to debit bid pack: %w", err)
	}
	if res.RowsAffected() == 0 {
		return 0, errs.New(errs.PackInsufficientBids, "no bids remaining, purchase a bid pack")
	}

	return packID, nil
}

// InsertBid records one accepted bid inside tx. BidNumber carries the
// auction's new bid count; the unique (auction_id, bid_number) index
// makes lost updates impossible even if the row lock were bypassed.
func (r *BidRepository) InsertBid(ctx context.Context, tx *sqldb.Tx, b *Bid) (*Bid, error) {
	row := tx.QueryRow(ctx, `
		INSERT INTO bids
			(auction_id, bid_number, bidder_id, user_bid_pack_id, amount, bid_fee, new_end_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'valid')
		RETURNING `+bidColumns,
		b.AuctionID, b.BidNumber, b.BidderID, b.UserBidPackID, b.Amount, b.BidFee, b.NewEndAt)

	created, err := scanBid(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert bid: %w", err)
	}
	return created, nil
}

// ListForAuction returns an auction's bids, newest first.
func (r *BidRepository) ListForAuction(ctx context.Context, auctionID int64, limit int) ([]*Bid, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bids WHERE auction_id = $1`, auctionID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bids: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+bidColumns+` FROM bids
		WHERE auction_id = $1
		ORDER BY bid_number DESC
		LIMIT $2`, auctionID, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bids: %w", err)
	}
	defer rows.Close()

	var bids []*Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, 0, err
		}
		bids = append(bids, b)
	}
	return bids, total, rows.Err()
}

// CountByBidder returns how many valid bids a user has placed overall.
func (r *BidRepository) CountByBidder(ctx context.Context, bidderID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM bids WHERE bidder_id = $1 AND status = 'valid'`, bidderID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count bidder bids: %w", err)
	}
	return n, nil
}
