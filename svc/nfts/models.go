package nfts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection represents an NFT collection.
type Collection struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Chain        string    `json:"chain"`
	ContractAddr *string   `json:"contract_addr,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NFT represents one token available for auction.
type NFT struct {
	ID           int64     `json:"id"`
	CollectionID *int64    `json:"collection_id,omitempty"`
	TokenID      string    `json:"token_id"`
	Name         string    `json:"name"`
	ImageURL     string    `json:"image_url"`
	Chain        string    `json:"chain"`
	CreatedAt    time.Time `json:"created_at"`
}

// ImportRequest registers an NFT on the platform.
type ImportRequest struct {
	CollectionSlug string `json:"collection_slug,omitempty"`
	TokenID        string `json:"token_id"`
	Name           string `json:"name"`
	ImageURL       string `json:"image_url,omitempty"`
	Chain          string `json:"chain,omitempty"`
}

// FloorPriceResult is the typed outcome of a floor-price lookup.
// Available is false when every provider failed and Price carries the
// configured fallback; callers treat the value as usable either way.
type FloorPriceResult struct {
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Source    string          `json:"source"`
	Available bool            `json:"available"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// ListResponse lists NFTs.
type ListResponse struct {
	NFTs  []*NFT `json:"nfts"`
	Total int    `json:"total"`
}
