package nfts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"encore.dev/storage/sqldb"

	"encore.app/pkg/errs"
)

// Repository provides NFT and collection persistence.
type Repository struct {
	db *sqldb.Database
}

// NewRepository creates a new NFT repository.
func NewRepository(db *sqldb.Database) *Repository {
	return &Repository{db: db}
}

const nftColumns = `id, collection_id, token_id, name, image_url, chain, created_at`

func scanNFT(row interface{ Scan(...interface{}) error }) (*NFT, error) {
	n := &NFT{}
	err := row.Scan(&n.ID, &n.CollectionID, &n.TokenID, &n.Name, &n.ImageURL, &n.Chain, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// GetNFT fetches an NFT by id.
func (r *Repository) GetNFT(ctx context.Context, id int64) (*NFT, error) {
	row := r.db.QueryRow(ctx, `SELECT `+nftColumns+` FROM nfts WHERE id = $1`, id)
	n, err := scanNFT(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.NftNotFound, "nft not found")
		}
		return nil, fmt.Errorf("failed to get nft: %w", err)
	}
	return n, nil
}

// ListNFTs lists registered NFTs, newest first.
func (r *Repository) ListNFTs(ctx context.Context, limit int) ([]*NFT, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM nfts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count nfts: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT `+nftColumns+` FROM nfts ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list nfts: %w", err)
	}
	defer rows.Close()

	var nfts []*NFT
	for rows.Next() {
		n, err := scanNFT(rows)
		if err != nil {
			return nil, 0, err
		}
		nfts = append(nfts, n)
	}
	return nfts, total, rows.Err()
}

// CollectionIDBySlug resolves a collection slug, creating the collection
// on first sight.
func (r *Repository) CollectionIDBySlug(ctx context.Context, slug, chain string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO nft_collections (name, slug, chain)
		VALUES ($1, $1, $2)
		ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		RETURNING id`, slug, chain).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve collection: %w", err)
	}
	return id, nil
}

// Import registers an NFT, idempotent per (collection, token).
func (r *Repository) Import(ctx context.Context, req ImportRequest) (*NFT, error) {
	if req.TokenID == "" || req.Name == "" {
		return nil, errs.New(errs.ValidationFailed, "token_id and name are required")
	}

	chain := req.Chain
	if chain == "" {
		chain = "ethereum"
	}

	var collectionID *int64
	if req.CollectionSlug != "" {
		id, err := r.CollectionIDBySlug(ctx, req.CollectionSlug, chain)
		if err != nil {
			return nil, err
		}
		collectionID = &id
	}

	// Collection-less NFTs conflict on the partial token_id index
	// instead of the composite key, which treats NULLs as distinct.
	var row *sqldb.Row
	if collectionID != nil {
		row = r.db.QueryRow(ctx, `
			INSERT INTO nfts (collection_id, token_id, name, image_url, chain)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (collection_id, token_id) DO UPDATE SET
				name = EXCLUDED.name,
				image_url = EXCLUDED.image_url
			RETURNING `+nftColumns,
			*collectionID, req.TokenID, req.Name, req.ImageURL, chain)
	} else {
		row = r.db.QueryRow(ctx, `
			INSERT INTO nfts (token_id, name, image_url, chain)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (token_id) WHERE collection_id IS NULL DO UPDATE SET
				name = EXCLUDED.name,
				image_url = EXCLUDED.image_url
			RETURNING `+nftColumns,
			req.TokenID, req.Name, req.ImageURL, chain)
	}

	n, err := scanNFT(row)
	if err != nil {
		return nil, fmt.Errorf("failed to import nft: %w", err)
	}
	return n, nil
}
