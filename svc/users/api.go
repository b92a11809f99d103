package users

import (
	"context"
	"fmt"
	"sync"
	"time"

	"encore.dev/storage/sqldb"

	"encore.app/pkg/authn"
	"encore.app/pkg/logger"
	"encore.app/svc/achievements"
)

var secrets struct {
	SessionSigningKey string //encore:secret
}

// Database connection
var db = sqldb.Named("coredb")

var repo = NewRepository(db)

var sessionsOnce = sync.OnceValue(func() *authn.Manager {
	return authn.NewManager(secrets.SessionSigningKey)
})

// Connect resolves a wallet address to a user account, creating it on
// first connect, and returns a session token. Consecutive-day connects
// advance the login streak achievement.
//
//encore:api public method=POST path=/users/connect
func Connect(ctx context.Context, req *ConnectRequest) (*ConnectResponse, error) {
	u, err := repo.UpsertByWallet(ctx, req.WalletAddress, req.DisplayName)
	if err != nil {
		return nil, err
	}

	token, err := sessionsOnce().IssueSession(u.ID, u.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	// One streak trigger per user per day; the date bucket is the dedup key.
	day := time.Now().UTC().Format("2006-01-02")
	if err := achievements.DeliverTrigger(ctx, &achievements.Trigger{
		UserID:        u.ID,
		Type:          achievements.TriggerLoginStreak,
		SourceEventID: "login:" + day,
		Value:         u.LoginStreak,
	}); err != nil {
		logger.Warn(ctx, "failed to deliver login streak trigger", logger.Fields{
			"user_id": u.ID,
			"error":   err.Error(),
		})
	}

	return &ConnectResponse{
		User:      u,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		TokenType: token.TokenType,
	}, nil
}

// GetUser returns a user's public profile.
//
//encore:api public method=GET path=/users/:id
func GetUser(ctx context.Context, id int64) (*User, error) {
	return repo.GetByID(ctx, id)
}

// ResolveRequest resolves a wallet address to a user.
type ResolveRequest struct {
	WalletAddress string `json:"wallet_address"`
}

// Resolve maps a wallet address to its user record. Internal: the
// bidding path uses it to resolve bidder addresses.
//
//encore:api private
func Resolve(ctx context.Context, req *ResolveRequest) (*User, error) {
	return repo.ResolveByWallet(ctx, req.WalletAddress)
}
