package users

import (
	"time"
)

// User represents a wallet-identified account.
type User struct {
	ID            int64      `json:"id"`
	WalletAddress string     `json:"wallet_address"`
	DisplayName   string     `json:"display_name"`
	LoginStreak   int        `json:"login_streak"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ConnectRequest is the wallet connect payload.
type ConnectRequest struct {
	WalletAddress string `json:"wallet_address"`
	DisplayName   string `json:"display_name,omitempty"`
}

// ConnectResponse returns the resolved user and a session token.
type ConnectResponse struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"`
}
