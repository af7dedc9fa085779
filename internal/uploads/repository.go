package uploads

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmtun/seeboi-backend/internal/models"
)

// Repository records uploaded images.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an upload repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create records an uploaded image. postID/commentID stay nil for uploads
// made before the owning post or comment exists.
func (r *Repository) Create(ctx context.Context, userID int64, url, kind string, postID, commentID *int64) (*models.Image, error) {
	const q = `INSERT INTO images (user_id, url, kind, post_id, comment_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, url, kind, post_id, comment_id, created_at`
	var img models.Image
	err := r.pool.QueryRow(ctx, q, userID, url, kind, postID, commentID).
		Scan(&img.ID, &img.UserID, &img.URL, &img.Kind, &img.PostID, &img.CommentID, &img.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// GetByID returns one image record.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Image, error) {
	const q = `SELECT id, user_id, url, kind, post_id, comment_id, created_at
		FROM images WHERE id = $1`
	var img models.Image
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&img.ID, &img.UserID, &img.URL, &img.Kind, &img.PostID, &img.CommentID, &img.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// Delete removes an image record owned by the user.
func (r *Repository) Delete(ctx context.Context, id, userID int64) (*models.Image, error) {
	const q = `DELETE FROM images WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, url, kind, post_id, comment_id, created_at`
	var img models.Image
	err := r.pool.QueryRow(ctx, q, id, userID).
		Scan(&img.ID, &img.UserID, &img.URL, &img.Kind, &img.PostID, &img.CommentID, &img.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// SetAvatar updates the user's avatar URL.
func (r *Repository) SetAvatar(ctx context.Context, userID int64, url string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET avatar_url = $2, updated_at = now() WHERE id = $1`, userID, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
