package bidpacks

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a purchasable bid pack.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	BidCount  int             `json:"bid_count"`
	BonusBids int             `json:"bonus_bids"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

// UserPack is one purchased pack in a user's ledger. The conservation
// invariant bids_total = bids_remaining + bids_used is enforced by the
// database.
type UserPack struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	ProductID     int64           `json:"product_id"`
	BidsTotal     int             `json:"bids_total"`
	BidsRemaining int             `json:"bids_remaining"`
	BidsUsed      int             `json:"bids_used"`
	PricePaid     decimal.Decimal `json:"price_paid"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	LastUsedAt    *time.Time      `json:"last_used_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PurchaseRequest buys a bid pack for a user.
type PurchaseRequest struct {
	UserID        int64  `json:"user_id"`
	ProductID     int64  `json:"product_id"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// PurchaseResponse returns the credited pack.
type PurchaseResponse struct {
	Pack *UserPack `json:"pack"`
}

// CatalogResponse lists purchasable products.
type CatalogResponse struct {
	Products []*Product `json:"products"`
}

// BalanceResponse summarizes a user's bid ledger.
type BalanceResponse struct {
	UserID        int64       `json:"user_id"`
	BidsRemaining int         `json:"bids_remaining"`
	Packs         []*UserPack `json:"packs"`
}
