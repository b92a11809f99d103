package achievements

import (
	"context"
	"fmt"
	"time"

	"encore.dev/storage/sqldb"

	"encore.app/pkg/errs"
	"encore.app/pkg/logger"
	"encore.app/pkg/metrics"
)

// Service applies achievement triggers and serves progress reads.
type Service struct {
	db *sqldb.Database
}

// NewService creates a new achievement service.
func NewService(db *sqldb.Database) *Service {
	return &Service{db: db}
}

// Deliver applies one trigger delivery. Redelivery with the same
// SourceEventID never double-increments: each (user, achievement, event)
// is recorded in achievement_triggers and applied at most once.
func (s *Service) Deliver(ctx context.Context, trigger Trigger) error {
	if trigger.UserID == 0 || trigger.SourceEventID == "" {
		return errs.New(errs.ValidationFailed, "trigger requires user_id and source_event_id")
	}

	types, ok := TargetTypes(trigger.Type)
	if !ok {
		return errs.New(errs.AchUnknownTrigger, fmt.Sprintf("unknown trigger type %q", trigger.Type))
	}

	defs, err := s.loadByTypes(ctx, types)
	if err != nil {
		return fmt.Errorf("failed to load achievements: %w", err)
	}

	for _, def := range defs {
		applied, err := s.applyOne(ctx, trigger, def)
		if err != nil {
			return err
		}
		disposition := "duplicate"
		if applied {
			disposition = "applied"
		}
		metrics.AchievementTriggersTotal.WithLabelValues(string(trigger.Type), disposition).Inc()
	}

	return nil
}

// applyOne applies a trigger to a single achievement inside one transaction.
// Returns false when this delivery was already processed.
func (s *Service) applyOne(ctx context.Context, trigger Trigger, def *Achievement) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// Dedup gate: only the first delivery of this event inserts a row.
	res, err := tx.Exec(ctx, `
		INSERT INTO achievement_triggers (user_id, achievement_id, source_event_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		trigger.UserID, def.ID, trigger.SourceEventID)
	if err != nil {
		return false, fmt.Errorf("failed to record trigger: %w", err)
	}
	if res.RowsAffected() == 0 {
		return false, nil
	}

	// Create the progress row first so the FOR UPDATE below always has a
	// row to serialize concurrent deliveries on.
	_, err = tx.Exec(ctx, `
		INSERT INTO user_achievements (user_id, achievement_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, achievement_id) DO NOTHING`,
		trigger.UserID, def.ID)
	if err != nil {
		return false, fmt.Errorf("failed to ensure progress row: %w", err)
	}

	var progress int
	var completed bool
	err = tx.QueryRow(ctx, `
		SELECT progress, completed FROM user_achievements
		WHERE user_id = $1 AND achievement_id = $2
		FOR UPDATE`,
		trigger.UserID, def.ID).Scan(&progress, &completed)
	if err != nil {
		return false, fmt.Errorf("failed to read progress: %w", err)
	}

	// Completed achievements are terminal.
	if completed {
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit trigger: %w", err)
		}
		return true, nil
	}

	newProgress, completedNow := Advance(progress, def.Target, trigger.Value)
	now := time.Now().UTC()

	if completedNow {
		_, err = tx.Exec(ctx, `
			INSERT INTO user_achievements (user_id, achievement_id, progress, completed, completed_at, updated_at)
			VALUES ($1, $2, $3, TRUE, $4, $4)
			ON CONFLICT (user_id, achievement_id) DO UPDATE SET
				progress = EXCLUDED.progress,
				completed = TRUE,
				completed_at = COALESCE(user_achievements.completed_at, EXCLUDED.completed_at),
				updated_at = EXCLUDED.updated_at`,
			trigger.UserID, def.ID, newProgress, now)
	} else {
		_, err = tx.Exec(ctx, `
			INSERT INTO user_achievements (user_id, achievement_id, progress, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, achievement_id) DO UPDATE SET
				progress = GREATEST(user_achievements.progress, EXCLUDED.progress),
				updated_at = EXCLUDED.updated_at`,
			trigger.UserID, def.ID, newProgress, now)
	}
	if err != nil {
		return false, fmt.Errorf("failed to update progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit trigger: %w", err)
	}

	if completedNow {
		logger.Info(ctx, "achievement completed", logger.Fields{
			"user_id":        trigger.UserID,
			"achievement_id": def.ID,
			"type":           def.Type,
			"tier":           def.Tier,
		})
	}

	return true, nil
}

func (s *Service) loadByTypes(ctx context.Context, types []string) ([]*Achievement, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, type, tier, title, description, points, target, created_at
		FROM achievements
		WHERE type = ANY($1)
		ORDER BY id`, types)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []*Achievement
	for rows.Next() {
		a := &Achievement{}
		if err := rows.Scan(&a.ID, &a.Type, &a.Tier, &a.Title, &a.Description, &a.Points, &a.Target, &a.CreatedAt); err != nil {
			return nil, err
		}
		defs = append(defs, a)
	}
	return defs, rows.Err()
}

// ListForUser returns all achievement definitions with the user's progress.
func (s *Service) ListForUser(ctx context.Context, userID int64) (*ListResponse, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a.id, a.type, a.tier, a.title, a.description, a.points, a.target, a.created_at,
		       COALESCE(ua.progress, 0), COALESCE(ua.completed, FALSE), ua.completed_at
		FROM achievements a
		LEFT JOIN user_achievements ua ON ua.achievement_id = a.id AND ua.user_id = $1
		ORDER BY a.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	resp := &ListResponse{Achievements: []*UserAchievementView{}}
	for rows.Next() {
		v := &UserAchievementView{}
		if err := rows.Scan(&v.ID, &v.Type, &v.Tier, &v.Title, &v.Description, &v.Points, &v.Target, &v.CreatedAt,
			&v.Progress, &v.Completed, &v.CompletedAt); err != nil {
			return nil, err
		}
		if v.Completed {
			resp.TotalPoints += v.Points
		}
		resp.Achievements = append(resp.Achievements, v)
	}
	return resp, rows.Err()
}
