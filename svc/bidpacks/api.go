package bidpacks

import (
	"context"
	"encoding/json"
	"strconv"

	"encore.dev/storage/sqldb"

	"encore.app/pkg/errs"
	"encore.app/pkg/logger"
	"encore.app/svc/activity"
	"encore.app/svc/realtime"
)

// Database connection
var db = sqldb.Named("coredb")

var repo = NewRepository(db)

// ListBidPacks returns the purchasable pack catalog.
//
//encore:api public method=GET path=/bidpacks
func ListBidPacks(ctx context.Context) (*CatalogResponse, error) {
	products, err := repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*Product{}
	}
	return &CatalogResponse{Products: products}, nil
}

// Purchase credits a bid pack to a user's ledger, logs the purchase and
// announces it to realtime subscribers.
//
//encore:api auth method=POST path=/bidpacks/purchase
func Purchase(ctx context.Context, req *PurchaseRequest) (*PurchaseResponse, error) {
	if req.UserID == 0 || req.ProductID == 0 {
		return nil, errs.New(errs.ValidationFailed, "user_id and product_id are required")
	}

	var userExists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, req.UserID).Scan(&userExists); err != nil {
		return nil, err
	}
	if !userExists {
		return nil, errs.New(errs.UsrNotFound, "user not found")
	}

	product, err := repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	method := req.PaymentMethod
	if method == "" {
		method = "crypto"
	}

	pack, err := repo.Credit(ctx, req.UserID, product, method)
	if err != nil {
		return nil, err
	}

	if _, err := activity.Record(ctx, &activity.Event{
		Type:     activity.EventPurchase,
		From:     "bidpack:" + product.Name,
		To:       "user:" + strconv.FormatInt(pack.UserID, 10),
		Price:    product.Price,
		Currency: product.Currency,
	}); err != nil {
		logger.Warn(ctx, "failed to record purchase activity", logger.Fields{
			"pack_id": pack.ID,
			"error":   err.Error(),
		})
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":    pack.UserID,
		"product":    product.Name,
		"bids_total": pack.BidsTotal,
		"price":      product.Price,
		"currency":   product.Currency,
	})
	if err := realtime.Publish(ctx, &realtime.PublishRequest{
		Event: realtime.EventBidPackPurchase,
		Data:  payload,
	}); err != nil {
		logger.Warn(ctx, "failed to broadcast bidpack purchase", logger.Fields{
			"pack_id": pack.ID,
			"error":   err.Error(),
		})
	}

	return &PurchaseResponse{Pack: pack}, nil
}

// GetBalance returns a user's bid ledger.
//
//encore:api public method=GET path=/users/:id/bidpacks
func GetBalance(ctx context.Context, id int64) (*BalanceResponse, error) {
	packs, err := repo.ListForUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if packs == nil {
		packs = []*UserPack{}
	}

	remaining, err := repo.Remaining(ctx, id)
	if err != nil {
		return nil, err
	}

	return &BalanceResponse{UserID: id, BidsRemaining: remaining, Packs: packs}, nil
}
