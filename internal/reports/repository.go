package reports

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmtun/seeboi-backend/internal/models"
)

// Repository handles report persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a report repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a report against a post or comment. reporterID is nil for
// reports filed by the moderation worker.
func (r *Repository) Create(ctx context.Context, reporterID *int64, postID, commentID *int64, reason string) (*models.Report, error) {
	const q = `INSERT INTO reports (reporter_id, post_id, comment_id, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, reporter_id, post_id, comment_id, reason, status, created_at, updated_at`
	var rep models.Report
	err := r.pool.QueryRow(ctx, q, reporterID, postID, commentID, reason).
		Scan(&rep.ID, &rep.ReporterID, &rep.PostID, &rep.CommentID, &rep.Reason, &rep.Status, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// TargetExists verifies the reported post or comment exists.
func (r *Repository) TargetExists(ctx context.Context, postID, commentID *int64) (bool, error) {
	var exists bool
	var err error
	switch {
	case postID != nil:
		err = r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1 AND deleted_at IS NULL)`, *postID).Scan(&exists)
	case commentID != nil:
		err = r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, *commentID).Scan(&exists)
	}
	return exists, err
}

// HasPending reports whether the user already has an open report on the target.
func (r *Repository) HasPending(ctx context.Context, reporterID int64, postID, commentID *int64) (bool, error) {
	const q = `SELECT EXISTS(
		SELECT 1 FROM reports
		WHERE reporter_id = $1 AND status = 'PENDING'
			AND (post_id = $2 OR comment_id = $3))`
	var exists bool
	err := r.pool.QueryRow(ctx, q, reporterID, postID, commentID).Scan(&exists)
	return exists, err
}

// List returns reports for the admin queue, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status string, limit, offset int) ([]models.Report, error) {
	const q = `SELECT rp.id, rp.reporter_id, rp.post_id, rp.comment_id, rp.reason, rp.status,
			rp.created_at, rp.updated_at,
			u.id, u.user_name, u.full_name, u.avatar_url,
			p.title, LEFT(c.content, 200)
		FROM reports rp
		LEFT JOIN users u ON u.id = rp.reporter_id
		LEFT JOIN posts p ON p.id = rp.post_id
		LEFT JOIN comments c ON c.id = rp.comment_id
		WHERE ($1 = '' OR rp.status = $1)
		ORDER BY rp.created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Report{}
	for rows.Next() {
		var rep models.Report
		var uid *int64
		var userName, fullName, avatarURL *string
		if err := rows.Scan(&rep.ID, &rep.ReporterID, &rep.PostID, &rep.CommentID, &rep.Reason, &rep.Status,
			&rep.CreatedAt, &rep.UpdatedAt,
			&uid, &userName, &fullName, &avatarURL,
			&rep.PostTitle, &rep.CommentContent); err != nil {
			return nil, err
		}
		if uid != nil {
			rep.Reporter = &models.UserPublic{ID: *uid, UserName: userName, AvatarURL: avatarURL}
			if fullName != nil {
				rep.Reporter.FullName = *fullName
			}
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// GetByID returns one report.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	const q = `SELECT id, reporter_id, post_id, comment_id, reason, status, created_at, updated_at
		FROM reports WHERE id = $1`
	var rep models.Report
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&rep.ID, &rep.ReporterID, &rep.PostID, &rep.CommentID, &rep.Reason, &rep.Status, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// SetStatus updates the workflow state of a report.
func (r *Repository) SetStatus(ctx context.Context, id int64, status models.ReportStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE reports SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ContentAuthor resolves the author of the reported content.
func (r *Repository) ContentAuthor(ctx context.Context, rep *models.Report) (int64, error) {
	var authorID int64
	var err error
	switch {
	case rep.PostID != nil:
		err = r.pool.QueryRow(ctx, `SELECT user_id FROM posts WHERE id = $1`, *rep.PostID).Scan(&authorID)
	case rep.CommentID != nil:
		err = r.pool.QueryRow(ctx, `SELECT user_id FROM comments WHERE id = $1`, *rep.CommentID).Scan(&authorID)
	default:
		err = pgx.ErrNoRows
	}
	return authorID, err
}

// HideContent hides the reported post or deletes the reported comment.
func (r *Repository) HideContent(ctx context.Context, rep *models.Report) error {
	switch {
	case rep.PostID != nil:
		_, err := r.pool.Exec(ctx,
			`UPDATE posts SET status = 'HIDDEN', updated_at = now() WHERE id = $1`, *rep.PostID)
		return err
	case rep.CommentID != nil:
		_, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, *rep.CommentID)
		return err
	}
	return nil
}
