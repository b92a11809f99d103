package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	BidsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bids_total",
			Help: "Total number of accepted bids",
		},
		[]string{"auction_id"},
	)

	BidsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bids_rejected_total",
			Help: "Total number of rejected bids by error code",
		},
		[]string{"code"},
	)

	BidLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bid_latency_seconds",
			Help:    "Latency of bid placement operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"auction_id"},
	)

	AuctionsEndedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auctions_ended_total",
			Help: "Auctions closed by the sweeper, by outcome",
		},
		[]string{"outcome"},
	)

	FloorOracleRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floor_oracle_requests_total",
			Help: "Floor-price oracle lookups by result",
		},
		[]string{"result"},
	)

	AchievementTriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievement_triggers_total",
			Help: "Achievement trigger deliveries by type and disposition",
		},
		[]string{"type", "disposition"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_total",
			Help: "Realtime events broadcast to subscribers",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(
		BidsTotal,
		BidsRejectedTotal,
		BidLatencySeconds,
		AuctionsEndedTotal,
		FloorOracleRequestsTotal,
		AchievementTriggersTotal,
		WSConnections,
		WSEventsTotal,
	)
}

// ObserveBid records metrics for one accepted bid.
func ObserveBid(auctionID string, startedAt time.Time) {
	BidsTotal.WithLabelValues(auctionID).Inc()
	BidLatencySeconds.WithLabelValues(auctionID).Observe(time.Since(startedAt).Seconds())
}
