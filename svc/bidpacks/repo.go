package bidpacks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"encore.dev/storage/sqldb"

	"encore.app/pkg/errs"
)

// Repository provides bid pack persistence.
type Repository struct {
	db *sqldb.Database
}

// NewRepository creates a new bid pack repository.
func NewRepository(db *sqldb.Database) *Repository {
	return &Repository{db: db}
}

const productColumns = `id, name, bid_count, bonus_bids, price, currency, active, created_at`

const packColumns = `id, user_id, product_id, bids_total, bids_remaining, bids_used,
	price_paid, currency, payment_method, expires_at, last_used_at, created_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*Product, error) {
	p := &Product{}
	err := row.Scan(&p.ID, &p.Name, &p.BidCount, &p.BonusBids, &p.Price, &p.Currency, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanPack(row interface{ Scan(...interface{}) error }) (*UserPack, error) {
	p := &UserPack{}
	var expires, lastUsed sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, &p.ProductID, &p.BidsTotal, &p.BidsRemaining, &p.BidsUsed,
		&p.PricePaid, &p.Currency, &p.PaymentMethod, &expires, &lastUsed, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		p.ExpiresAt = &expires.Time
	}
	if lastUsed.Valid {
		p.LastUsedAt = &lastUsed.Time
	}
	return p, nil
}

// ListProducts lists active products, cheapest first.
func (r *Repository) ListProducts(ctx context.Context) ([]*Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM bid_pack_products WHERE active ORDER BY price`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct fetches one active product.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM bid_pack_products WHERE id = $1 AND active`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.PackNotFound, "bid pack product not found")
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// Credit records a purchased pack on the user's ledger. The pack enters
// with bids_remaining = bid_count + bonus_bids and bids_used = 0.
func (r *Repository) Credit(ctx context.Context, userID int64, product *Product, paymentMethod string) (*UserPack, error) {
	total := product.BidCount + product.BonusBids
	row := r.db.QueryRow(ctx, `
		INSERT INTO user_bid_packs
			(user_id, product_id, bids_total, bids_remaining, bids_used, price_paid, currency, payment_method)
		VALUES ($1, $2, $3, $3, 0, $4, $5, $6)
		RETURNING `+packColumns,
		userID, product.ID, total, product.Price, product.Currency, paymentMethod)

	p, err := scanPack(row)
	if err != nil {
		return nil, fmt.Errorf("failed to credit bid pack: %w", err)
	}
	return p, nil
}

// ListForUser lists a user's packs, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]*UserPack, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+packColumns+` FROM user_bid_packs
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user packs: %w", err)
	}
	defer rows.Close()

	var packs []*UserPack
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return nil, err
		}
		packs = append(packs, p)
	}
	return packs, rows.Err()
}

// Remaining sums usable bids across a user's non-expired packs.
func (r *Repository) Remaining(ctx context.Context, userID int64) (int, error) {
	var remaining int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(bids_remaining), 0) FROM user_bid_packs
		WHERE user_id = $1 AND (expires_at IS NULL OR expires_at > NOW())`, userID).Scan(&remaining)
	if err != nil {
		return 0, fmt.Errorf("failed to sum remaining bids: %w", err)
	}
	return remaining, nil
}
