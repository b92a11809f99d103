package nfts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"encore.dev"
	"github.com/shopspring/decimal"

	"encore.app/pkg/config"
	"encore.app/pkg/logger"
	"encore.app/pkg/metrics"
)

var secrets struct {
	FloorOracleAPIKey string //encore:secret
}

// Oracle fetches collection floor prices from the marketplace API.
// Lookups never fail hard: when the provider is unreachable the oracle
// returns the configured fallback floor with Available=false so that
// auction creation can proceed.
type Oracle struct {
	baseURL    string
	httpClient *http.Client
}

// NewOracle creates a floor-price oracle client.
func NewOracle() *Oracle {
	return &Oracle{
		baseURL:    "https://api.opensea.io/api/v2",
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func inTestMode() bool {
	if secrets.FloorOracleAPIKey == "" {
		return true
	}
	return encore.Meta().Environment.Type == encore.EnvLocal
}

type floorPriceResp struct {
	Total struct {
		FloorPrice         float64 `json:"floor_price"`
		FloorPriceCurrency string  `json:"floor_price_symbol"`
	} `json:"total"`
}

// FloorPrice looks up the current floor price for a collection slug.
func (o *Oracle) FloorPrice(ctx context.Context, collectionSlug string) FloorPriceResult {
	cfg := config.Current()

	if inTestMode() {
		metrics.FloorOracleRequestsTotal.WithLabelValues("test_mode").Inc()
		return o.fallback(cfg.OracleFallbackFloorPrice, "test_mode")
	}

	result, err := o.fetch(ctx, collectionSlug)
	if err != nil {
		logger.Warn(ctx, "floor oracle lookup failed", logger.Fields{
			"collection": collectionSlug,
			"error":      err.Error(),
		})
		metrics.FloorOracleRequestsTotal.WithLabelValues("error").Inc()
		return o.fallback(cfg.OracleFallbackFloorPrice, "fallback")
	}

	metrics.FloorOracleRequestsTotal.WithLabelValues("ok").Inc()
	return result
}

// fetch performs one provider lookup. Separated from FloorPrice so the
// fallback policy stays out of the HTTP path.
func (o *Oracle) fetch(ctx context.Context, collectionSlug string) (FloorPriceResult, error) {
	endpoint := fmt.Sprintf("%s/collections/%s/stats", o.baseURL, url.PathEscape(collectionSlug))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return FloorPriceResult{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", secrets.FloorOracleAPIKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return FloorPriceResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return FloorPriceResult{}, fmt.Errorf("floor oracle returned %s", resp.Status)
	}

	var out floorPriceResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return FloorPriceResult{}, err
	}
	if out.Total.FloorPrice <= 0 {
		return FloorPriceResult{}, fmt.Errorf("floor oracle returned no floor price")
	}

	currency := out.Total.FloorPriceCurrency
	if currency == "" {
		currency = "ETH"
	}

	return FloorPriceResult{
		Price:     decimal.NewFromFloat(out.Total.FloorPrice),
		Currency:  currency,
		Source:    "opensea",
		Available: true,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (o *Oracle) fallback(floor float64, source string) FloorPriceResult {
	return FloorPriceResult{
		Price:     decimal.NewFromFloat(floor),
		Currency:  "ETH",
		Source:    source,
		Available: false,
		FetchedAt: time.Now().UTC(),
	}
}
