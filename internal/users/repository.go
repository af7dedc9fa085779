package users

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmtun/seeboi-backend/internal/models"
)

// Profile is the public profile view of a user.
type Profile struct {
	models.UserPublic
	Bio            *string `json:"bio"`
	XP             int     `json:"xp"`
	Level          int     `json:"level"`
	PostCount      int     `json:"post_count"`
	FollowerCount  int     `json:"follower_count"`
	FollowingCount int     `json:"following_count"`
	IsFollowing    bool    `json:"is_following"`
	JoinedAt       time.Time `json:"joined_at"`
}

// Repository handles user profile and follow persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile returns a user's public profile, with follow state relative to
// the viewer (viewerID 0 = anonymous).
func (r *Repository) GetProfile(ctx context.Context, id, viewerID int64) (*Profile, error) {
	const q = `SELECT u.id, u.user_name, u.full_name, u.avatar_url, u.bio, u.xp, u.level, u.created_at,
		(SELECT COUNT(*) FROM posts WHERE user_id = u.id AND is_draft = FALSE AND deleted_at IS NULL),
		(SELECT COUNT(*) FROM user_follows WHERE following_id = u.id),
		(SELECT COUNT(*) FROM user_follows WHERE follower_id = u.id),
		EXISTS(SELECT 1 FROM user_follows WHERE follower_id = $2 AND following_id = u.id)
		FROM users u WHERE u.id = $1`
	var p Profile
	err := r.pool.QueryRow(ctx, q, id, viewerID).Scan(
		&p.ID, &p.UserName, &p.FullName, &p.AvatarURL, &p.Bio, &p.XP, &p.Level, &p.JoinedAt,
		&p.PostCount, &p.FollowerCount, &p.FollowingCount, &p.IsFollowing)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateParams carries updatable profile fields.
type UpdateParams struct {
	UserName  *string
	AvatarURL *string
	Bio       *string
	Gender    *string
	Birthday  *time.Time
}

// UpdateProfile edits the user's own profile.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, params UpdateParams) (*models.User, error) {
	const q = `UPDATE users SET
			user_name = COALESCE($2, user_name),
			avatar_url = COALESCE($3, avatar_url),
			bio = COALESCE($4, bio),
			gender = COALESCE($5, gender),
			birthday = COALESCE($6, birthday),
			updated_at = now()
		WHERE id = $1
		RETURNING id, email, password, full_name, user_name, avatar_url, birthday, gender, bio, role, xp, level, created_at, updated_at`
	var u models.User
	err := r.pool.QueryRow(ctx, q, id, params.UserName, params.AvatarURL, params.Bio, params.Gender, params.Birthday).
		Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.UserName, &u.AvatarURL,
			&u.Birthday, &u.Gender, &u.Bio, &u.Role, &u.XP, &u.Level, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Follow records that follower follows following. Re-following is a no-op.
// Returns true when a new follow edge was created.
func (r *Repository) Follow(ctx context.Context, followerID, followingID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO user_follows (follower_id, following_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		followerID, followingID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Unfollow removes the follow edge; no-op when absent.
func (r *Repository) Unfollow(ctx context.Context, followerID, followingID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM user_follows WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID)
	return err
}

// RemoveFollower drops another user from the caller's follower list.
func (r *Repository) RemoveFollower(ctx context.Context, userID, followerID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_follows WHERE follower_id = $1 AND following_id = $2`,
		followerID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Followers lists users following the given user.
func (r *Repository) Followers(ctx context.Context, userID int64) ([]models.UserPublic, error) {
	const q = `SELECT u.id, u.user_name, u.full_name, u.avatar_url
		FROM user_follows f JOIN users u ON u.id = f.follower_id
		WHERE f.following_id = $1 ORDER BY f.created_at DESC`
	return r.listUsers(ctx, q, userID)
}

// Following lists users the given user follows.
func (r *Repository) Following(ctx context.Context, userID int64) ([]models.UserPublic, error) {
	const q = `SELECT u.id, u.user_name, u.full_name, u.avatar_url
		FROM user_follows f JOIN users u ON u.id = f.following_id
		WHERE f.follower_id = $1 ORDER BY f.created_at DESC`
	return r.listUsers(ctx, q, userID)
}

// FollowerIDs returns ids of all followers, for notification fanout.
func (r *Repository) FollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT follower_id FROM user_follows WHERE following_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repository) listUsers(ctx context.Context, q string, args ...any) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.UserPublic{}
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.UserName, &u.FullName, &u.AvatarURL); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Badges returns the user's earned badges.
func (r *Repository) Badges(ctx context.Context, userID int64) ([]models.UserBadge, error) {
	const q = `SELECT ub.user_id, ub.badge_id, ub.earned_at, b.id, b.name, b.description, b.icon_url, b.min_level
		FROM user_badges ub JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = $1 ORDER BY b.min_level`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.UserBadge{}
	for rows.Next() {
		var ub models.UserBadge
		var b models.Badge
		if err := rows.Scan(&ub.UserID, &ub.BadgeID, &ub.EarnedAt,
			&b.ID, &b.Name, &b.Description, &b.IconURL, &b.MinLevel); err != nil {
			return nil, err
		}
		ub.Badge = &b
		out = append(out, ub)
	}
	return out, rows.Err()
}

// XPHistory returns the user's recent XP grants, newest first.
func (r *Repository) XPHistory(ctx context.Context, userID int64, limit int) ([]models.XPLog, error) {
	const q = `SELECT id, user_id, action, amount, created_at FROM xp_logs
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.XPLog{}
	for rows.Next() {
		var l models.XPLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.Amount, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
