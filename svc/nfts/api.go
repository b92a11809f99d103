package nfts

import (
	"context"
	"encoding/json"

	"encore.dev/storage/sqldb"

	"encore.app/pkg/logger"
	"encore.app/svc/realtime"
)

// Database connection
var db = sqldb.Named("coredb")

var (
	repo   = NewRepository(db)
	oracle = NewOracle()
)

// ImportNFT registers an NFT for auctioning and announces it to
// realtime subscribers.
//
//encore:api auth method=POST path=/nfts/import
func ImportNFT(ctx context.Context, req *ImportRequest) (*NFT, error) {
	nft, err := repo.Import(ctx, *req)
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(nft)
	if err := realtime.Publish(ctx, &realtime.PublishRequest{
		Event: realtime.EventNFTImported,
		Data:  payload,
	}); err != nil {
		logger.Warn(ctx, "failed to broadcast nft import", logger.Fields{
			"nft_id": nft.ID,
			"error":  err.Error(),
		})
	}

	return nft, nil
}

// ListParams filters the NFT list.
type ListParams struct {
	Limit int `query:"limit"`
}

// ListNFTs returns registered NFTs, newest first.
//
//encore:api public method=GET path=/nfts
func ListNFTs(ctx context.Context, params *ListParams) (*ListResponse, error) {
	nfts, total, err := repo.ListNFTs(ctx, params.Limit)
	if err != nil {
		return nil, err
	}
	if nfts == nil {
		nfts = []*NFT{}
	}
	return &ListResponse{NFTs: nfts, Total: total}, nil
}

// GetNFT returns one NFT by id.
//
//encore:api public method=GET path=/nfts/:id
func GetNFT(ctx context.Context, id int64) (*NFT, error) {
	return repo.GetNFT(ctx, id)
}

// FloorPriceRequest asks for the floor price of an NFT's collection.
type FloorPriceRequest struct {
	NFTID int64 `json:"nft_id"`
}

// CollectionFloor resolves the floor price for the collection backing
// an NFT. Internal: the auction service snapshots this before opening
// a bid transaction.
//
//encore:api private
func CollectionFloor(ctx context.Context, req *FloorPriceRequest) (*FloorPriceResult, error) {
	nft, err := repo.GetNFT(ctx, req.NFTID)
	if err != nil {
		return nil, err
	}

	slug := ""
	if nft.CollectionID != nil {
		var s string
		err := db.QueryRow(ctx, `SELECT slug FROM nft_collections WHERE id = $1`, *nft.CollectionID).Scan(&s)
		if err == nil {
			slug = s
		}
	}

	result := oracle.FloorPrice(ctx, slug)
	return &result, nil
}
