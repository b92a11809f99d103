package auctions

import (
	"time"

	"encore.dev/storage/sqldb"

	"encore.app/pkg/config"
)

// Database connection
var db = sqldb.Named("coredb")

var (
	svc    *Service
	bidSvc *BidService
)

func init() {
	// Settings hot-reload so increment, fee and cap policy changes apply
	// without a deploy.
	config.InitGlobalManager(db, time.Minute)

	svc = NewService(db)
	bidSvc = NewBidService(db)
}
