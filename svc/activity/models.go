package activity

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType classifies an activity entry.
type EventType string

const (
	EventBid         EventType = "bid"
	EventPurchase    EventType = "purchase"
	EventListing     EventType = "listing"
	EventBidIncrease EventType = "bid-increase"
)

// Event is a request to append one activity entry.
type Event struct {
	Type     EventType       `json:"type"`
	NFTID    int64           `json:"nft_id,omitempty"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// Entry is a stored activity record. Entries are never mutated.
type Entry struct {
	ID        int64            `json:"id"`
	Type      EventType        `json:"type"`
	NFTID     *int64           `json:"nft_id,omitempty"`
	NFTName   string           `json:"nft_name,omitempty"`
	From      string           `json:"from"`
	To        string           `json:"to"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Currency  string           `json:"currency"`
	CreatedAt time.Time        `json:"created_at"`
}

// Window is a relative time filter for activity reads.
type Window string

const (
	WindowDay   Window = "24h"
	WindowWeek  Window = "7d"
	WindowMonth Window = "30d"
	WindowAll   Window = "all"
)

// ListParams filters the activity feed.
type ListParams struct {
	Type   EventType `query:"type" json:"type,omitempty"`
	Search string    `query:"search" json:"search,omitempty"`
	Window Window    `query:"window" json:"window,omitempty"`
	Limit  int       `query:"limit" json:"limit,omitempty"`
}

// ListResponse is the activity feed payload.
type ListResponse struct {
	Activities []*Entry `json:"activities"`
	Total      int      `json:"total"`
}
