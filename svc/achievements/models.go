package achievements

import (
	"time"
)

// TriggerType identifies a domain event that can advance achievements.
type TriggerType string

const (
	TriggerBidPlaced     TriggerType = "bid_placed"
	TriggerAuctionWon    TriggerType = "auction_won"
	TriggerFirstBid      TriggerType = "first_bid"
	TriggerFirstWin      TriggerType = "first_win"
	TriggerBidCount      TriggerType = "bid_count"
	TriggerCollectionBid TriggerType = "collection_bid"
	TriggerLoginStreak   TriggerType = "login_streak"
	TriggerSocialShare   TriggerType = "social_share"
)

// Achievement is a static achievement definition.
type Achievement struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Tier        string    `json:"tier"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Points      int       `json:"points"`
	Target      int       `json:"target"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserAchievement tracks one user's progress on one achievement.
type UserAchievement struct {
	UserID        int64      `json:"user_id"`
	AchievementID int64      `json:"achievement_id"`
	Progress      int        `json:"progress"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UserAchievementView joins the definition with the user's progress.
type UserAchievementView struct {
	Achievement
	Progress    int        `json:"progress"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Trigger is one delivery of a domain event for a user.
//
// SourceEventID is the dedup key (bid id, auction id, date bucket...):
// delivering the same trigger twice with the same SourceEventID is a no-op.
type Trigger struct {
	UserID        int64       `json:"user_id"`
	Type          TriggerType `json:"type"`
	SourceEventID string      `json:"source_event_id"`
	// Value carries an absolute progress value for streak-style triggers.
	// Zero means "advance by one".
	Value int `json:"value,omitempty"`
}

// ListResponse is the per-user achievements listing.
type ListResponse struct {
	Achievements []*UserAchievementView `json:"achievements"`
	TotalPoints  int                    `json:"total_points"`
}
