package jobs

import (
	"context"
	"net/http"

	"encore.app/coredb"
	"encore.app/svc/auctions"
	"encore.dev/cron"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"encore.app/pkg/logger"
)

//encore:service
type Service struct{}

func initService() (*Service, error) { return &Service{}, nil }

//encore:api private
func RunAuctionSweep(ctx context.Context) error {
	resp, err := auctions.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if resp.Closed > 0 {
		logger.Info(ctx, "auction sweep closed auctions", logger.Fields{"closed": resp.Closed})
	}
	return nil
}

var _ = cron.NewJob("auction-sweep", cron.JobConfig{
	Title:    "Close auctions past their deadline",
	Every:    1 * cron.Minute,
	Endpoint: RunAuctionSweep,
})

// RunTriggerRetention prunes old achievement dedup rows. Completed
// achievements stay idempotent through user_achievements.completed, so
// the dedup ledger only needs recent history.
//
//encore:api private
func RunTriggerRetention(ctx context.Context) error {
	_, err := coredb.DB.Exec(ctx, `
		DELETE FROM achievement_triggers
		WHERE created_at < NOW() - INTERVAL '90 days'`)
	return err
}

var _ = cron.NewJob("achievement-trigger-retention", cron.JobConfig{
	Title:    "Prune old achievement trigger dedup rows",
	Every:    24 * cron.Hour,
	Endpoint: RunTriggerRetention,
})

//encore:api public raw method=GET path=/metrics
func Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ===== Admin endpoints to manually trigger cron jobs locally =====

type RunAllCronResponse struct {
	AuctionSweep     string `json:"auction_sweep"`
	TriggerRetention string `json:"trigger_retention"`
}

//encore:api auth method=POST path=/admin/cron/run-all
func RunAllCronJobs(ctx context.Context) (*RunAllCronResponse, error) {
	out := &RunAllCronResponse{}

	if err := RunAuctionSweep(ctx); err != nil {
		out.AuctionSweep = err.Error()
	} else {
		out.AuctionSweep = "ok"
	}

	if err := RunTriggerRetention(ctx); err != nil {
		out.TriggerRetention = err.Error()
	} else {
		out.TriggerRetention = "ok"
	}

	return out, nil
}

//encore:api auth method=POST path=/admin/cron/auction-sweep
func RunAuctionSweepAdmin(ctx context.Context) error { return RunAuctionSweep(ctx) }
