package auctions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"encore.dev/storage/sqldb"
	"github.com/shopspring/decimal"

	"encore.app/pkg/errs"
)

// Repository provides auction persistence.
type Repository struct {
	db *sqldb.Database
}

// NewRepository creates a new auction repository.
func NewRepository(db *sqldb.Database) *Repository {
	return &Repository{db: db}
}

const auctionColumns = `id, nft_id, status, starting_bid, bid_increment, bid_fee,
	time_extension_secs, reserve_price, price_ceiling, current_bid, bid_count,
	last_bidder_id, end_at, ended_at, created_at, updated_at`

func scanAuction(row interface{ Scan(...interface{}) error }) (*Auction, error) {
	a := &Auction{}
	var reserve decimal.NullDecimal
	var lastBidder sql.NullInt64
	var endedAt sql.NullTime
	err := row.Scan(&a.ID, &a.NFTID, &a.Status, &a.StartingBid, &a.BidIncrement, &a.BidFee,
		&a.TimeExtensionSecs, &reserve, &a.PriceCeiling, &a.CurrentBid, &a.BidCount,
		&lastBidder, &a.EndAt, &endedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if reserve.Valid {
		a.ReservePrice = &reserve.Decimal
	}
	if lastBidder.Valid {
		a.LastBidderID = &lastBidder.Int64
	}
	if endedAt.Valid {
		a.EndedAt = &endedAt.Time
	}
	return a, nil
}

// GetAuction fetches an auction by id.
func (r *Repository) GetAuction(ctx context.Context, id int64) (*Auction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, id)
	a, err := scanAuction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.AucNotFound, "auction not found")
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return a, nil
}

// GetAuctionForUpdate locks the auction row inside tx without waiting.
// A bid already holding the lock surfaces as CONTENTION so the caller
// can retry instead of queueing behind it.
func (r *Repository) GetAuctionForUpdate(ctx context.Context, tx *sqldb.Tx, id int64) (*Auction, error) {
	row := tx.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1 FOR UPDATE NOWAIT`, id)
	a, err := scanAuction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.AucNotFound, "auction not found")
		}
		if isLockNotAvailable(err) {
			return nil, errs.New(errs.Contention, "auction is busy, retry")
		}
		return nil, fmt.Errorf("failed to lock auction: %w", err)
	}
	return a, nil
}

// isLockNotAvailable detects Postgres lock_not_available (55P03) from
// FOR UPDATE NOWAIT.
func isLockNotAvailable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "55P03") || strings.Contains(msg, "could not obtain lock")
}

// Create opens an auction.
func (r *Repository) Create(ctx context.Context, a *Auction) (*Auction, error) {
	var reserve decimal.NullDecimal
	if a.ReservePrice != nil {
		reserve = decimal.NullDecimal{Decimal: *a.ReservePrice, Valid: true}
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO auctions
			(nft_id, status, starting_bid, bid_increment, bid_fee, time_extension_secs,
			 reserve_price, price_ceiling, current_bid, bid_count, end_at)
		VALUES ($1, 'active', $2, $3, $4, $5, $6, $7, $2, 0, $8)
		RETURNING `+auctionColumns,
		a.NFTID, a.StartingBid, a.BidIncrement, a.BidFee, a.TimeExtensionSecs,
		reserve, a.PriceCeiling, a.EndAt)

	created, err := scanAuction(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}
	return created, nil
}

// ApplyBid persists one bid outcome against the locked auction row.
func (r *Repository) ApplyBid(ctx context.Context, tx *sqldb.Tx, auctionID int64, out BidOutcome, bidderID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE auctions
		SET current_bid = $1, bid_count = $2, last_bidder_id = $3, end_at = $4, updated_at = NOW()
		WHERE id = $5`,
		out.NewBid, out.NewBidCount, bidderID, out.NewEndAt, auctionID)
	if err != nil {
		return fmt.Errorf("failed to apply bid to auction: %w", err)
	}
	return nil
}

// List lists auctions, active first by soonest deadline.
func (r *Repository) List(ctx context.Context, params ListParams) ([]*Auction, int, error) {
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	where := ""
	args := []interface{}{}
	if params.Status != "" {
		where = "WHERE status = $1"
		args = append(args, params.Status)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM auctions `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count auctions: %w", err)
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT `+auctionColumns+` FROM auctions %s
		ORDER BY (status = 'active') DESC, end_at ASC
		LIMIT $%d`, where, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, 0, err
		}
		auctions = append(auctions, a)
	}
	return auctions, total, rows.Err()
}

// Featured returns the most contested active auctions.
func (r *Repository) Featured(ctx context.Context, limit int) ([]*Auction, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+auctionColumns+` FROM auctions
		WHERE status = 'active' AND end_at > NOW()
		ORDER BY bid_count DESC, end_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, a)
	}
	return auctions, rows.Err()
}

// Cancel marks an active auction canceled.
func (r *Repository) Cancel(ctx context.Context, id int64) (*Auction, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE auctions
		SET status = 'canceled', ended_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING `+auctionColumns, id)

	a, err := scanAuction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either missing or not active; disambiguate for the caller.
			if _, getErr := r.GetAuction(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, errs.New(errs.AucBadState, "only active auctions can be canceled")
		}
		return nil, fmt.Errorf("failed to cancel auction: %w", err)
	}
	return a, nil
}

// ExpiredActive returns ids of active auctions whose deadline passed.
func (r *Repository) ExpiredActive(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM auctions
		WHERE status = 'active' AND end_at <= $1
		ORDER BY end_at ASC
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired auctions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkEnded transitions a locked active auction to ended.
func (r *Repository) MarkEnded(ctx context.Context, tx *sqldb.Tx, id int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE auctions
		SET status = 'ended', ended_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'active'`, id)
	if err != nil {
		return fmt.Errorf("failed to mark auction ended: %w", err)
	}
	return nil
}

// MarkSettled transitions an ended auction to settled.
func (r *Repository) MarkSettled(ctx context.Context, id int64) (*Auction, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE auctions
		SET status = 'settled', updated_at = NOW()
		WHERE id = $1 AND status = 'ended'
		RETURNING `+auctionColumns, id)

	a, err := scanAuction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetAuction(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, errs.New(errs.AucBadState, "only ended auctions can be settled")
		}
		return nil, fmt.Errorf("failed to settle auction: %w", err)
	}
	return a, nil
}
