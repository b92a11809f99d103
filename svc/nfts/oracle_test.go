package nfts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFloorPriceFallsBackWithoutAPIKey(t *testing.T) {
	o := NewOracle()

	got := o.FloorPrice(context.Background(), "boredapes")

	if got.Available {
		t.Error("fallback result must report Available = false")
	}
	if want := decimal.NewFromFloat(100.0); !got.Price.Equal(want) {
		t.Errorf("Price = %s, want %s", got.Price, want)
	}
	if got.Currency != "ETH" {
		t.Errorf("Currency = %s, want ETH", got.Currency)
	}
	if got.FetchedAt.IsZero() {
		t.Error("FetchedAt must be set")
	}
}

func TestFetchParsesProviderResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/boredapes/stats" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total": {"floor_price": 12.5, "floor_price_symbol": "ETH"}}`))
	}))
	defer srv.Close()

	o := NewOracle()
	o.baseURL = srv.URL

	got, err := o.fetch(context.Background(), "boredapes")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !got.Available {
		t.Error("expected Available = true")
	}
	if want := decimal.NewFromFloat(12.5); !got.Price.Equal(want) {
		t.Errorf("Price = %s, want %s", got.Price, want)
	}
	if got.Source != "opensea" {
		t.Errorf("Source = %s, want opensea", got.Source)
	}
}

func TestFetchRejectsUpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
		{
			name: "zero floor",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"total": {"floor_price": 0}}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			o := NewOracle()
			o.baseURL = srv.URL

			if _, err := o.fetch(context.Background(), "x"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFallbackSource(t *testing.T) {
	o := NewOracle()
	got := o.fallback(50, "test_mode")
	if got.Source != "test_mode" {
		t.Errorf("Source = %s, want test_mode", got.Source)
	}
	if want := decimal.NewFromFloat(50.0); !got.Price.Equal(want) {
		t.Errorf("Price = %s, want %s", got.Price, want)
	}
}
