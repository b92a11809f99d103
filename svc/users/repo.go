package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"encore.dev/storage/sqldb"

	"encore.app/pkg/errs"
)

// Repository provides user persistence.
type Repository struct {
	db *sqldb.Database
}

// NewRepository creates a new user repository.
func NewRepository(db *sqldb.Database) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, wallet_address, display_name, login_streak, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	u := &User{}
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.WalletAddress, &u.DisplayName, &u.LoginStreak, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.UsrNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ResolveByWallet resolves a wallet address to a user.
func (r *Repository) ResolveByWallet(ctx context.Context, walletAddress string) (*User, error) {
	addr := NormalizeWallet(walletAddress)
	if addr == "" {
		return nil, errs.New(errs.UsrInvalidWallet, "wallet address is required")
	}

	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE wallet_address = $1`, addr)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.UsrNotFound, "no user for wallet "+addr)
		}
		return nil, fmt.Errorf("failed to resolve wallet: %w", err)
	}
	return u, nil
}

// UpsertByWallet creates the user on first connect and refreshes the login
// streak: consecutive-day logins increment it, a gap resets it to 1.
func (r *Repository) UpsertByWallet(ctx context.Context, walletAddress, displayName string) (*User, error) {
	addr := NormalizeWallet(walletAddress)
	if addr == "" {
		return nil, errs.New(errs.UsrInvalidWallet, "wallet address is required")
	}

	now := time.Now().UTC()
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (wallet_address, display_name, login_streak, last_login_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (wallet_address) DO UPDATE SET
			display_name = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE users.display_name END,
			login_streak = CASE
				WHEN users.last_login_at IS NULL THEN 1
				WHEN users.last_login_at::date = $3::date THEN users.login_streak
				WHEN users.last_login_at::date = $3::date - 1 THEN users.login_streak + 1
				ELSE 1
			END,
			last_login_at = $3,
			updated_at = $3
		RETURNING `+userColumns,
		addr, displayName, now)

	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert wallet user: %w", err)
	}
	return u, nil
}

// NormalizeWallet canonicalizes a wallet address for lookups.
func NormalizeWallet(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
