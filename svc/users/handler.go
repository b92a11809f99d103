package users

import (
	"context"
	"strconv"
	"strings"

	"encore.dev/beta/auth"

	"encore.app/pkg/errs"
)

// AuthData is the authentication data passed to authenticated endpoints.
type AuthData struct {
	UserID        int64  `json:"user_id"`
	WalletAddress string `json:"wallet_address"`
}

// AuthHandler validates session tokens issued by Connect.
//
//encore:authhandler
func AuthHandler(ctx context.Context, token string) (auth.UID, *AuthData, error) {
	token = strings.TrimPrefix(token, "Bearer ")

	claims, err := sessionsOnce().ValidateSession(token)
	if err != nil {
		return "", nil, errs.New(errs.Unauthenticated, "invalid or expired session token")
	}

	u, err := repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, errs.New(errs.Unauthenticated, "session user no longer exists")
	}

	return auth.UID(strconv.FormatInt(u.ID, 10)), &AuthData{
		UserID:        u.ID,
		WalletAddress: u.WalletAddress,
	}, nil
}
