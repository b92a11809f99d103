package activity

import (
	"context"

	"encore.dev/storage/sqldb"
)

// Database connection
var db = sqldb.Named("coredb")

var repo = NewRepository(db)

// ListActivity reads the activity feed.
//
//encore:api public method=GET path=/activity
func ListActivity(ctx context.Context, params *ListParams) (*ListResponse, error) {
	entries, total, err := repo.List(ctx, *params)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return &ListResponse{Activities: entries, Total: total}, nil
}

// Record appends one activity entry. Internal: called by the auction,
// bid-pack and NFT services after their transactions commit.
//
//encore:api private
func Record(ctx context.Context, event *Event) (*Entry, error) {
	return repo.Append(ctx, *event)
}
