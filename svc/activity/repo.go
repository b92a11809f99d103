package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"encore.dev/storage/sqldb"

	"encore.app/pkg/errs"
)

// Repository provides append-only activity persistence.
type Repository struct {
	db *sqldb.Database
}

// NewRepository creates a new activity repository.
func NewRepository(db *sqldb.Database) *Repository {
	return &Repository{db: db}
}

// Append records one activity entry. The referenced NFT must exist.
func (r *Repository) Append(ctx context.Context, event Event) (*Entry, error) {
	switch event.Type {
	case EventBid, EventPurchase, EventListing, EventBidIncrease:
	default:
		return nil, errs.New(errs.ValidationFailed, fmt.Sprintf("unknown activity type %q", event.Type))
	}

	var nftID *int64
	if event.NFTID != 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM nfts WHERE id = $1)`, event.NFTID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check nft: %w", err)
		}
		if !exists {
			return nil, errs.New(errs.NftNotFound, "nft not found")
		}
		id := event.NFTID
		nftID = &id
	}

	entry := &Entry{
		Type:     event.Type,
		NFTID:    nftID,
		From:     event.From,
		To:       event.To,
		Currency: event.Currency,
	}
	if !event.Price.IsZero() {
		p := event.Price
		entry.Price = &p
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO activities (type, nft_id, from_label, to_label, price, currency)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		event.Type, nftID, event.From, event.To, entry.Price, event.Currency,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append activity: %w", err)
	}

	return entry, nil
}

// List reads the activity feed with type, search and time-window filters.
func (r *Repository) List(ctx context.Context, params ListParams) ([]*Entry, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.Type != "" {
		where = append(where, "a.type = "+arg(string(params.Type)))
	}
	if params.Search != "" {
		p := arg("%" + strings.TrimSpace(params.Search) + "%")
		where = append(where, fmt.Sprintf("(n.name ILIKE %s OR a.from_label ILIKE %s OR a.to_label ILIKE %s)", p, p, p))
	}
	if cutoff, ok := windowCutoff(params.Window, time.Now().UTC()); ok {
		where = append(where, "a.created_at >= "+arg(cutoff))
	}

	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM activities a
		LEFT JOIN nfts n ON n.id = a.nft_id
		WHERE ` + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	query := `
		SELECT a.id, a.type, a.nft_id, COALESCE(n.name, ''), a.from_label, a.to_label, a.price, a.currency, a.created_at
		FROM activities a
		LEFT JOIN nfts n ON n.id = a.nft_id
		WHERE ` + whereClause + `
		ORDER BY a.created_at DESC
		LIMIT ` + arg(limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.Type, &e.NFTID, &e.NFTName, &e.From, &e.To, &e.Price, &e.Currency, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// windowCutoff translates a relative window into an absolute cutoff time.
func windowCutoff(w Window, now time.Time) (time.Time, bool) {
	switch w {
	case WindowDay:
		return now.Add(-24 * time.Hour), true
	case WindowWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case WindowMonth:
		return now.Add(-30 * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}
