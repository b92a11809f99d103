package achievements

// triggerTargets maps each trigger type to the achievement types it may
// affect. Achievements of other types are not loaded at all when the
// trigger fires.
var triggerTargets = map[TriggerType][]string{
	TriggerBidPlaced:     {"first_bid", "bid_count"},
	TriggerAuctionWon:    {"first_win", "auction_won"},
	TriggerFirstBid:      {"first_bid"},
	TriggerFirstWin:      {"first_win"},
	TriggerBidCount:      {"bid_count"},
	TriggerCollectionBid: {"collection_bid"},
	TriggerLoginStreak:   {"login_streak"},
	TriggerSocialShare:   {"social_share"},
}

// TargetTypes returns the achievement types a trigger may affect, and
// whether the trigger type is known.
func TargetTypes(t TriggerType) ([]string, bool) {
	types, ok := triggerTargets[t]
	return types, ok
}

// Advance computes the next progress value for one applied trigger.
//
// Progress only moves forward. A zero value advances by one step; a
// positive value is treated as an absolute progress reading (login
// streaks report their current length) and never lowers progress.
// completedNow is true only on the transition across the target.
func Advance(progress, target, value int) (newProgress int, completedNow bool) {
	wasCompleted := progress >= target

	if value > 0 {
		if value > progress {
			newProgress = value
		} else {
			newProgress = progress
		}
	} else {
		newProgress = progress + 1
	}

	return newProgress, !wasCompleted && newProgress >= target
}
