package users

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// XP awarded per action.
var xpAmounts = map[string]int{
	"POST":          10,
	"COMMENT":       5,
	"LIKE_RECEIVED": 2,
}

// xpPerLevel is the flat amount of XP between levels.
const xpPerLevel = 100

// LevelForXP converts accumulated XP to a level, starting at 1.
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/xpPerLevel + 1
}

// XPService grants XP, recomputes levels and awards level badges.
type XPService struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewXPService creates an XP service.
func NewXPService(pool *pgxpool.Pool, logger *zap.Logger) *XPService {
	return &XPService{pool: pool, logger: logger}
}

// Grant awards the XP for an action, updates the user's level and hands out
// any badges the new level unlocks. Unknown actions grant nothing.
func (s *XPService) Grant(ctx context.Context, userID int64, action string) error {
	amount, ok := xpAmounts[action]
	if !ok {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO xp_logs (user_id, action, amount) VALUES ($1, $2, $3)`,
		userID, action, amount); err != nil {
		return err
	}

	var newXP int
	if err := tx.QueryRow(ctx,
		`UPDATE users SET xp = xp + $2 WHERE id = $1 RETURNING xp`, userID, amount).Scan(&newXP); err != nil {
		return err
	}
	newLevel := LevelForXP(newXP)
	if _, err := tx.Exec(ctx,
		`UPDATE users SET level = $2 WHERE id = $1 AND level <> $2`, userID, newLevel); err != nil {
		return err
	}

	const qBadges = `INSERT INTO user_badges (user_id, badge_id)
		SELECT $1, id FROM badges WHERE min_level <= $2
		ON CONFLICT DO NOTHING`
	if _, err := tx.Exec(ctx, qBadges, userID, newLevel); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.logger.Debug("xp granted",
		zap.Int64("user_id", userID), zap.String("action", action), zap.Int("amount", amount), zap.Int("level", newLevel))
	return nil
}
